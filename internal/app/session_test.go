package app

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/danielavelez12/crosstalk/internal/core"
	"github.com/danielavelez12/crosstalk/internal/domain"
	"github.com/danielavelez12/crosstalk/internal/stt"
	"github.com/danielavelez12/crosstalk/internal/translate"
)

func testPipeline(sender *captureSender, synth *scriptSynth) *Pipeline {
	return &Pipeline{
		Translator: translate.NewMockTranslator(nil),
		Synth:      synth,
		Fanout:     &Fanout{Out: sender},
	}
}

func audioFrame(n int) core.AudioFrame {
	return core.AudioFrame{Audio: base64.StdEncoding.EncodeToString(make([]byte, n))}
}

func (s *CallSession) fragmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fragments)
}

func TestSessionUtteranceRoundTrip(t *testing.T) {
	sender := &captureSender{}
	synth := &scriptSynth{}
	trans := stt.NewMockTranscriber(16, func([]byte) string { return "hello" })
	resolve := func(domain.UserID) (PipelineTarget, bool) {
		return PipelineTarget{Recipient: "bob", TargetLang: "es", VoiceID: "v1"}, true
	}

	s := NewCallSession("alice", "en", 16000, trans, testPipeline(sender, synth), resolve)
	s.Start(context.Background())
	defer s.Close()

	if err := s.HandleAudioFrame(audioFrame(16)); err != nil {
		t.Fatalf("frame 1: %v", err)
	}
	if err := s.HandleAudioFrame(audioFrame(16)); err != nil {
		t.Fatalf("frame 2: %v", err)
	}

	// Let the transcription task drain both chunks before closing the
	// utterance, so the joined text is deterministic.
	waitFor(t, time.Second, func() bool {
		return s.ingest.Unread() == 0 && s.fragmentCount() == 2
	})

	if err := s.HandleAudioFrame(core.AudioFrame{Terminal: true}); err != nil {
		t.Fatalf("terminal frame: %v", err)
	}

	// One frame of synthesized audio plus the end marker.
	waitFor(t, time.Second, func() bool {
		return len(sender.messagesFor("bob")) == 2
	})
	texts := synth.sent()
	if len(texts) != 1 || texts[0] != "hello hello" {
		t.Fatalf("synthesized %q, want [\"hello hello\"]", texts)
	}

	// Terminal frame resets the utterance state and restarts the task.
	if got := s.fragmentCount(); got != 0 {
		t.Fatalf("fragments not cleared, %d left", got)
	}
	if got := s.ingest.Unread(); got != 0 {
		t.Fatalf("ingest not cleared, %d bytes left", got)
	}
	if err := s.HandleAudioFrame(audioFrame(16)); err != nil {
		t.Fatalf("post-terminal frame: %v", err)
	}
	waitFor(t, time.Second, func() bool { return s.fragmentCount() == 1 })
}

func TestSessionNoCallTargetDropsUtterance(t *testing.T) {
	sender := &captureSender{}
	trans := stt.NewMockTranscriber(16, func([]byte) string { return "hello" })
	resolve := func(domain.UserID) (PipelineTarget, bool) {
		return PipelineTarget{}, false
	}

	s := NewCallSession("alice", "en", 16000, trans, testPipeline(sender, &scriptSynth{}), resolve)
	s.Start(context.Background())
	defer s.Close()

	if err := s.HandleAudioFrame(audioFrame(16)); err != nil {
		t.Fatalf("frame: %v", err)
	}
	waitFor(t, time.Second, func() bool { return s.fragmentCount() == 1 })
	if err := s.HandleAudioFrame(core.AudioFrame{Terminal: true}); err != nil {
		t.Fatalf("terminal frame: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if got := len(sender.messagesFor("bob")); got != 0 {
		t.Fatalf("expected no outbound audio, got %d messages", got)
	}
}

func TestSessionMalformedAudioRejected(t *testing.T) {
	s := NewCallSession("alice", "en", 16000,
		stt.NewMockTranscriber(16, nil),
		testPipeline(&captureSender{}, &scriptSynth{}),
		func(domain.UserID) (PipelineTarget, bool) { return PipelineTarget{}, false })
	s.Start(context.Background())
	defer s.Close()

	if err := s.HandleAudioFrame(core.AudioFrame{Audio: "%%%not-base64%%%"}); err == nil {
		t.Fatal("expected error for malformed audio payload")
	}
	if got := s.ingest.Unread(); got != 0 {
		t.Fatalf("malformed frame buffered %d bytes", got)
	}
}

func TestSessionStaleRunSuperseded(t *testing.T) {
	sender := &captureSender{}
	s := NewCallSession("alice", "en", 16000,
		stt.NewMockTranscriber(16, func([]byte) string { return "first" }),
		testPipeline(sender, &scriptSynth{}),
		func(domain.UserID) (PipelineTarget, bool) {
			return PipelineTarget{Recipient: "bob"}, true
		})
	s.Start(context.Background())
	defer s.Close()

	if err := s.HandleAudioFrame(audioFrame(16)); err != nil {
		t.Fatalf("frame: %v", err)
	}
	waitFor(t, time.Second, func() bool { return s.fragmentCount() == 1 })

	gen := s.generation.Load()
	live := func() bool { return s.generation.Load() == gen+1 }

	if err := s.HandleAudioFrame(core.AudioFrame{Terminal: true}); err != nil {
		t.Fatalf("terminal frame: %v", err)
	}
	waitFor(t, time.Second, func() bool { return s.generation.Load() == gen+1 && live() })

	// A second utterance bumps the generation; the first run's Live
	// closure flips false and its remaining frames are discarded.
	if err := s.HandleAudioFrame(audioFrame(16)); err != nil {
		t.Fatalf("frame: %v", err)
	}
	waitFor(t, time.Second, func() bool { return s.fragmentCount() == 1 })
	if err := s.HandleAudioFrame(core.AudioFrame{Terminal: true}); err != nil {
		t.Fatalf("terminal frame: %v", err)
	}
	waitFor(t, time.Second, func() bool { return s.generation.Load() == gen+2 })
	if live() {
		t.Fatal("first run still reported live after being superseded")
	}
}
