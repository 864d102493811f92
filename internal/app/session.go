package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/danielavelez12/crosstalk/internal/core"
	"github.com/danielavelez12/crosstalk/internal/domain"
	"github.com/danielavelez12/crosstalk/internal/stt"
)

// PipelineTarget is where an utterance goes, resolved at the moment
// the terminal frame arrives.
type PipelineTarget struct {
	Recipient  domain.UserID
	TargetLang string
	VoiceID    string
}

// TargetResolver looks up the caller's current partner and the
// partner-facing language/voice. Absent target means the utterance is
// transcribed but never synthesized (no active call).
type TargetResolver func(caller domain.UserID) (PipelineTarget, bool)

// CallSession owns one user's ingest buffer, transcript fragments and
// transcription task. All frame handling runs on the connection's read
// loop, so the segmenter sequence is strictly ordered per session.
type CallSession struct {
	userID     domain.UserID
	lang       string
	sampleRate int

	ingest      *core.IngestBuffer
	transcriber stt.Transcriber
	pipeline    *Pipeline
	resolve     TargetResolver

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	fragments []string

	taskCancel context.CancelFunc
	taskDone   chan struct{}

	generation atomic.Uint64
}

func NewCallSession(
	userID domain.UserID,
	lang string,
	sampleRate int,
	transcriber stt.Transcriber,
	pipeline *Pipeline,
	resolve TargetResolver,
) *CallSession {
	return &CallSession{
		userID:      userID,
		lang:        lang,
		sampleRate:  sampleRate,
		ingest:      core.NewIngestBuffer(),
		transcriber: transcriber,
		pipeline:    pipeline,
		resolve:     resolve,
	}
}

// Start launches the first transcription task. ctx bounds the whole
// session; cancelling it (or calling Close) tears everything down.
func (s *CallSession) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.startTranscription()
}

func (s *CallSession) startTranscription() {
	tctx, cancel := context.WithCancel(s.ctx)
	done := make(chan struct{})
	s.taskCancel = cancel
	s.taskDone = done
	go func() {
		defer close(done)
		cfg := stt.StreamConfig{Language: s.lang, SampleRate: s.sampleRate}
		if err := s.transcriber.Stream(tctx, cfg, s.ingest, s.addFragment); err != nil {
			perr := &PipelineError{Stage: StageTranscribe, Err: err}
			log.Error().Err(perr).Str("module", "app.session").Str("user", string(s.userID)).Msg("transcription task ended")
		}
	}()
}

func (s *CallSession) addFragment(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	s.mu.Lock()
	s.fragments = append(s.fragments, text)
	s.mu.Unlock()
}

// HandleAudioFrame processes one inbound frame in receipt order.
// Non-terminal audio lands in the ingest buffer; a terminal frame
// closes the utterance.
func (s *CallSession) HandleAudioFrame(f core.AudioFrame) error {
	if f.Audio != "" {
		pcm, err := base64.StdEncoding.DecodeString(f.Audio)
		if err != nil {
			return fmt.Errorf("malformed audio frame: %w", err)
		}
		s.ingest.Write(pcm)
	}
	if f.Terminal {
		s.flushUtterance()
	}
	return nil
}

// flushUtterance runs the terminal-frame sequence. The transcription
// task must be fully stopped before the pipeline is invoked and the
// buffers are cleared, or it would keep writing fragments into state
// that is being reset.
func (s *CallSession) flushUtterance() {
	s.taskCancel()
	<-s.taskDone

	s.mu.Lock()
	text := strings.Join(s.fragments, " ")
	s.mu.Unlock()

	if text != "" {
		if target, ok := s.resolve(s.userID); ok {
			gen := s.generation.Add(1)
			run := PipelineRun{
				Text:       text,
				SourceLang: s.lang,
				TargetLang: target.TargetLang,
				VoiceID:    target.VoiceID,
				Recipient:  target.Recipient,
				Live:       func() bool { return s.generation.Load() == gen },
			}
			go func() { _ = s.pipeline.Run(s.ctx, run) }()
		} else {
			log.Debug().Str("module", "app.session").Str("user", string(s.userID)).Msg("utterance with no call target, dropped")
		}
	}

	s.mu.Lock()
	s.fragments = nil
	s.mu.Unlock()
	s.ingest.Clear()
	s.startTranscription()
}

// Close stops the transcription task and releases the buffers.
// In-flight pipeline runs are cancelled with the session context.
func (s *CallSession) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	s.ingest.Close()
	if s.taskDone != nil {
		<-s.taskDone
	}
}
