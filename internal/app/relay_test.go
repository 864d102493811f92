package app

import (
	"context"
	"testing"

	"github.com/danielavelez12/crosstalk/internal/core"
	"github.com/danielavelez12/crosstalk/internal/domain"
	"github.com/danielavelez12/crosstalk/internal/stt"
)

func newTestRelay(sender *captureSender, synth *scriptSynth) *Relay {
	reg := NewRegistry()
	pipeline := testPipeline(sender, synth)
	pipeline.Fanout.Out = reg
	dir := &fakeDirectory{
		users: map[domain.UserID]*domain.User{
			"alice": {ID: "alice", Username: "alice", Language: "en"},
			"bob":   {ID: "bob", Username: "bob", Language: "es"},
		},
		voices: map[domain.UserID]*domain.Voice{
			"alice": {ID: "av", EngineVoiceID: "alice-clone", UserID: "alice"},
		},
	}
	return NewRelay(reg, NewRoster(), pipeline, stt.NewMockTranscriber(16, nil), dir, "stock-voice", 16000)
}

func lastMessage(t *testing.T, c *fakeConn) map[string]any {
	t.Helper()
	msgs := c.messages(t)
	if len(msgs) == 0 {
		t.Fatal("no messages delivered")
	}
	return msgs[len(msgs)-1]
}

func TestRelayCallLifecycle(t *testing.T) {
	r := newTestRelay(&captureSender{}, &scriptSynth{})
	ctx := context.Background()

	alice, bob := &fakeConn{}, &fakeConn{}
	r.Connect(ctx, "alice", alice)
	r.Connect(ctx, "bob", bob)
	defer r.Disconnect("alice", alice)
	defer r.Disconnect("bob", bob)

	r.HandleSignal("alice", core.SignalMessage{Type: core.TypeCallRequest, RecipientID: "bob"})
	got := lastMessage(t, bob)
	if got["type"] != core.TypeIncomingCall || got["caller_id"] != "alice" {
		t.Fatalf("bob got %v, want incoming_call from alice", got)
	}

	r.HandleSignal("bob", core.SignalMessage{Type: core.TypeCallAccepted, CallerID: "alice"})
	got = lastMessage(t, alice)
	if got["type"] != core.TypeCallAccepted || got["recipient_id"] != "bob" {
		t.Fatalf("alice got %v, want call_accepted by bob", got)
	}
	if partner, ok := r.Roster.Partner("alice"); !ok || partner != "bob" {
		t.Fatalf("pairing not recorded, partner=%q ok=%v", partner, ok)
	}

	r.HandleSignal("alice", core.SignalMessage{Type: core.TypeCallEnded})
	for _, c := range []*fakeConn{alice, bob} {
		if got := lastMessage(t, c); got["type"] != core.TypeCallEnded {
			t.Fatalf("peer got %v, want call_ended", got)
		}
	}
	if _, ok := r.Roster.Partner("alice"); ok {
		t.Fatal("pairing survived call_ended")
	}
}

func TestRelayCallRequestOfflineRecipient(t *testing.T) {
	r := newTestRelay(&captureSender{}, &scriptSynth{})
	alice := &fakeConn{}
	r.Connect(context.Background(), "alice", alice)
	defer r.Disconnect("alice", alice)

	// Recipient never connected: the request is dropped, the caller
	// state stays clean.
	r.HandleSignal("alice", core.SignalMessage{Type: core.TypeCallRequest, RecipientID: "ghost"})
	if alice.count() != 0 {
		t.Fatalf("caller got %d unexpected messages", alice.count())
	}
	if _, ok := r.Roster.Partner("alice"); ok {
		t.Fatal("pairing created for offline recipient")
	}
}

func TestRelayBusyRecipientRejected(t *testing.T) {
	r := newTestRelay(&captureSender{}, &scriptSynth{})
	ctx := context.Background()
	alice, bob, carol := &fakeConn{}, &fakeConn{}, &fakeConn{}
	r.Connect(ctx, "alice", alice)
	r.Connect(ctx, "bob", bob)
	r.Connect(ctx, "carol", carol)

	r.HandleSignal("bob", core.SignalMessage{Type: core.TypeCallAccepted, CallerID: "alice"})
	before := carol.count()
	r.HandleSignal("bob", core.SignalMessage{Type: core.TypeCallAccepted, CallerID: "carol"})
	if carol.count() != before {
		t.Fatal("busy peer accepted a second call")
	}
	if partner, _ := r.Roster.Partner("bob"); partner != "alice" {
		t.Fatalf("original pairing lost, partner=%q", partner)
	}
}

func TestRelayDisconnectEndsCall(t *testing.T) {
	r := newTestRelay(&captureSender{}, &scriptSynth{})
	ctx := context.Background()
	alice, bob := &fakeConn{}, &fakeConn{}
	r.Connect(ctx, "alice", alice)
	r.Connect(ctx, "bob", bob)

	r.HandleSignal("bob", core.SignalMessage{Type: core.TypeCallAccepted, CallerID: "alice"})
	r.Disconnect("alice", alice)

	got := lastMessage(t, bob)
	if got["type"] != core.TypeCallEnded || got["caller_id"] != "alice" {
		t.Fatalf("bob got %v, want call_ended from alice", got)
	}
	if _, ok := r.Roster.Partner("bob"); ok {
		t.Fatal("pairing survived partner disconnect")
	}
	if r.Registry.Lookup("alice") {
		t.Fatal("disconnected channel still registered")
	}
}

func TestRelayResolveTarget(t *testing.T) {
	r := newTestRelay(&captureSender{}, &scriptSynth{})
	ctx := context.Background()
	alice, bob := &fakeConn{}, &fakeConn{}
	r.Connect(ctx, "alice", alice)
	r.Connect(ctx, "bob", bob)
	defer r.Disconnect("alice", alice)
	defer r.Disconnect("bob", bob)

	if _, ok := r.resolveTarget("alice"); ok {
		t.Fatal("resolved a target outside any call")
	}

	r.HandleSignal("bob", core.SignalMessage{Type: core.TypeCallAccepted, CallerID: "alice"})

	target, ok := r.resolveTarget("alice")
	if !ok {
		t.Fatal("no target for paired caller")
	}
	if target.Recipient != "bob" || target.TargetLang != "es" {
		t.Fatalf("alice's target = %+v, want bob in es", target)
	}
	if target.VoiceID != "alice-clone" {
		t.Fatalf("speaker voice = %q, want the cloned one", target.VoiceID)
	}

	// Bob never cloned a voice, so his utterances use the stock voice.
	target, ok = r.resolveTarget("bob")
	if !ok {
		t.Fatal("no target for paired recipient")
	}
	if target.Recipient != "alice" || target.TargetLang != "en" || target.VoiceID != "stock-voice" {
		t.Fatalf("bob's target = %+v", target)
	}
}

func TestRelayStaleDisconnectKeepsFreshState(t *testing.T) {
	r := newTestRelay(&captureSender{}, &scriptSynth{})
	ctx := context.Background()
	aliceOld, aliceNew, bob := &fakeConn{}, &fakeConn{}, &fakeConn{}

	r.Connect(ctx, "alice", aliceOld)
	r.Connect(ctx, "alice", aliceNew)
	r.Connect(ctx, "bob", bob)
	r.HandleSignal("bob", core.SignalMessage{Type: core.TypeCallAccepted, CallerID: "alice"})

	// The replaced socket's read loop exits late and runs its cleanup.
	// Everything alice now has belongs to the new connection.
	r.Disconnect("alice", aliceOld)

	if !r.Registry.Lookup("alice") {
		t.Fatal("fresh registration removed by stale disconnect")
	}
	if partner, ok := r.Roster.Partner("alice"); !ok || partner != "bob" {
		t.Fatalf("active pairing torn down by stale disconnect, partner=%q ok=%v", partner, ok)
	}
	if bob.count() != 0 {
		t.Fatalf("partner got %d spurious messages, want 0", bob.count())
	}

	r.mu.Lock()
	sess := r.sessions["alice"]
	r.mu.Unlock()
	if sess == nil {
		t.Fatal("fresh call session destroyed by stale disconnect")
	}

	// The real disconnect still tears everything down.
	r.Disconnect("alice", aliceNew)
	if r.Registry.Lookup("alice") {
		t.Fatal("registration survived real disconnect")
	}
	if _, ok := r.Roster.Partner("bob"); ok {
		t.Fatal("pairing survived real disconnect")
	}
	if got := lastMessage(t, bob); got["type"] != core.TypeCallEnded {
		t.Fatalf("bob got %v, want call_ended", got)
	}
}

func TestRelayAudioWithoutSessionIgnored(t *testing.T) {
	r := newTestRelay(&captureSender{}, &scriptSynth{})
	// Must not panic.
	r.HandleAudio("nobody", core.AudioFrame{Audio: "AAAA"})
}
