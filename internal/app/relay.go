package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danielavelez12/crosstalk/internal/core"
	"github.com/danielavelez12/crosstalk/internal/domain"
	"github.com/danielavelez12/crosstalk/internal/stt"
)

// UserDirectory is the slice of the store the relay needs to resolve
// languages and voices.
type UserDirectory interface {
	GetUser(ctx context.Context, id domain.UserID) (*domain.User, error)
	VoiceForUser(ctx context.Context, id domain.UserID) (*domain.Voice, error)
}

const directoryTimeout = 3 * time.Second

// Relay is the session orchestrator: it owns the registry, the call
// roster and the per-user call sessions, and routes signaling between
// peers. One instance serves the whole process.
type Relay struct {
	Registry    *Registry
	Roster      *Roster
	Pipeline    *Pipeline
	Transcriber stt.Transcriber
	Users       UserDirectory

	// DefaultVoice is used when the speaker never cloned a voice.
	DefaultVoice string
	SampleRate   int

	mu       sync.Mutex
	sessions map[domain.UserID]*CallSession
}

func NewRelay(reg *Registry, roster *Roster, pipeline *Pipeline, transcriber stt.Transcriber, users UserDirectory, defaultVoice string, sampleRate int) *Relay {
	return &Relay{
		Registry:     reg,
		Roster:       roster,
		Pipeline:     pipeline,
		Transcriber:  transcriber,
		Users:        users,
		DefaultVoice: defaultVoice,
		SampleRate:   sampleRate,
		sessions:     make(map[domain.UserID]*CallSession),
	}
}

// Connect registers the channel and starts a fresh call session for
// the user. A second connection for the same id replaces the first.
func (r *Relay) Connect(ctx context.Context, id domain.UserID, conn core.SignalConnection) {
	r.Registry.Register(id, conn)

	lang := domain.DefaultLanguage
	if user, err := r.lookupUser(id); err == nil {
		lang = user.Language
	}

	sess := NewCallSession(id, lang, r.SampleRate, r.Transcriber, r.Pipeline, r.resolveTarget)
	sess.Start(ctx)

	r.mu.Lock()
	old := r.sessions[id]
	r.sessions[id] = sess
	r.mu.Unlock()
	if old != nil {
		old.Close()
	}
	log.Info().Str("module", "app.relay").Str("user", string(id)).Msg("user connected")
}

// Disconnect tears down the user's session and ends any active call,
// notifying the partner. A stale socket whose registration was already
// replaced by a reconnect must not touch the fresh connection's state,
// so the teardown only runs when the registry still held this conn.
func (r *Relay) Disconnect(id domain.UserID, conn core.SignalConnection) {
	if !r.Registry.Unregister(id, conn) {
		log.Debug().Str("module", "app.relay").Str("user", string(id)).Msg("stale disconnect ignored")
		return
	}

	if pairing, ok := r.Roster.RemoveUser(id); ok {
		partner := pairing.PartnerOf(id)
		r.sendSignal(partner, core.SignalMessage{Type: core.TypeCallEnded, CallerID: string(id)})
	}

	r.mu.Lock()
	sess := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if sess != nil {
		sess.Close()
	}
	log.Info().Str("module", "app.relay").Str("user", string(id)).Msg("user disconnected")
}

// HandleSignal routes one call-lifecycle message from a peer.
func (r *Relay) HandleSignal(from domain.UserID, msg core.SignalMessage) {
	switch msg.Type {
	case core.TypeCallRequest:
		recipient := domain.UserID(msg.RecipientID)
		if recipient == "" {
			log.Warn().Str("module", "app.relay").Str("from", string(from)).Msg("call_request without recipient")
			return
		}
		r.sendSignal(recipient, core.SignalMessage{Type: core.TypeIncomingCall, CallerID: string(from)})

	case core.TypeCallAccepted:
		caller := domain.UserID(msg.CallerID)
		if caller == "" {
			log.Warn().Str("module", "app.relay").Str("from", string(from)).Msg("call_accepted without caller")
			return
		}
		if err := r.Roster.AddPairing(caller, from); err != nil {
			log.Warn().Err(err).Str("module", "app.relay").Str("caller", string(caller)).Str("recipient", string(from)).Msg("call not established")
			return
		}
		r.sendSignal(caller, core.SignalMessage{Type: core.TypeCallAccepted, RecipientID: string(from)})

	case core.TypeCallEnded:
		pairing, ok := r.Roster.RemoveUser(from)
		if !ok {
			return
		}
		partner := pairing.PartnerOf(from)
		r.sendSignal(from, core.SignalMessage{Type: core.TypeCallEnded, CallerID: string(partner)})
		r.sendSignal(partner, core.SignalMessage{Type: core.TypeCallEnded, CallerID: string(from)})

	default:
		log.Warn().Str("module", "app.relay").Str("type", msg.Type).Msg("unknown signal")
	}
}

// HandleAudio feeds one microphone frame into the user's session.
func (r *Relay) HandleAudio(from domain.UserID, frame core.AudioFrame) {
	r.mu.Lock()
	sess := r.sessions[from]
	r.mu.Unlock()
	if sess == nil {
		log.Warn().Str("module", "app.relay").Str("user", string(from)).Msg("audio frame without session")
		return
	}
	if err := sess.HandleAudioFrame(frame); err != nil {
		// Malformed frame: drop it, keep the session alive.
		log.Warn().Err(err).Str("module", "app.relay").Str("user", string(from)).Msg("audio frame dropped")
	}
}

// sendSignal delivers a control message; a dead channel deregisters
// the target, an absent one is a silent drop.
func (r *Relay) sendSignal(to domain.UserID, msg core.SignalMessage) {
	err := r.Registry.Send(to, msg)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotConnected):
		log.Debug().Str("module", "app.relay").Str("to", string(to)).Str("type", msg.Type).Msg("signal dropped, not connected")
	case errors.Is(err, core.ErrChannelClosed):
		r.Registry.Unregister(to, nil)
	default:
		log.Warn().Err(err).Str("module", "app.relay").Str("to", string(to)).Str("type", msg.Type).Msg("signal send failed")
	}
}

func (r *Relay) resolveTarget(caller domain.UserID) (PipelineTarget, bool) {
	partner, ok := r.Roster.Partner(caller)
	if !ok {
		return PipelineTarget{}, false
	}

	target := PipelineTarget{
		Recipient:  partner,
		TargetLang: domain.DefaultLanguage,
		VoiceID:    r.DefaultVoice,
	}
	if user, err := r.lookupUser(partner); err == nil {
		target.TargetLang = user.Language
	}
	ctx, cancel := context.WithTimeout(context.Background(), directoryTimeout)
	defer cancel()
	if voice, err := r.Users.VoiceForUser(ctx, caller); err == nil && voice != nil {
		target.VoiceID = voice.EngineVoiceID
	}
	return target, true
}

func (r *Relay) lookupUser(id domain.UserID) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), directoryTimeout)
	defer cancel()
	return r.Users.GetUser(ctx, id)
}
