package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/danielavelez12/crosstalk/internal/core"
	"github.com/danielavelez12/crosstalk/internal/domain"
	"github.com/danielavelez12/crosstalk/internal/translate"
	"github.com/danielavelez12/crosstalk/internal/tts"
)

// PipelineRun is one utterance's worth of work: translate the text,
// synthesize it in the target voice, stream the audio to the
// recipient.
type PipelineRun struct {
	Text       string
	SourceLang string
	TargetLang string
	VoiceID    string
	Recipient  domain.UserID
	// Live reports whether this run is still the session's newest;
	// audio from a superseded run is discarded at the fanout.
	Live func() bool
}

// Pipeline coordinates translate, chunked text feed, synthesize, and
// chunked audio emit. The text feeder and the audio drainer run
// concurrently over one synthesis session and are joined only after
// the end-of-stream marker is acknowledged.
type Pipeline struct {
	Translator translate.Translator
	Synth      tts.Synthesizer
	Fanout     *Fanout
}

// Run is one-shot: no retries, no partial redelivery. A failure after
// some audio has gone out leaves the recipient with a truncated
// utterance.
func (p *Pipeline) Run(ctx context.Context, run PipelineRun) error {
	frags, terrs := p.Translator.TranslateStream(ctx, run.Text, run.SourceLang, run.TargetLang)

	sess, err := p.Synth.OpenStream(ctx, run.VoiceID)
	if err != nil {
		return &PipelineError{Stage: StageSynthesize, Err: err}
	}

	drained := make(chan error, 1)
	go func() {
		drained <- p.Fanout.Stream(ctx, run.Recipient, sess.Audio(), run.Live)
	}()

	feedErr := p.feed(ctx, sess, frags)
	if feedErr == nil {
		if err := <-terrs; err != nil {
			feedErr = &PipelineError{Stage: StageTranslate, Err: err}
		}
	} else {
		// Unblock the translator so it can wind down.
		go func() {
			for range frags {
			}
		}()
	}
	if err := sess.CloseSend(ctx); err != nil && feedErr == nil {
		feedErr = &PipelineError{Stage: StageSynthesize, Err: err}
	}

	<-drained
	if err := sess.Err(); err != nil && feedErr == nil {
		feedErr = &PipelineError{Stage: StageSynthesize, Err: err}
	}
	if feedErr != nil {
		log.Error().Err(feedErr).Str("module", "app.pipeline").Str("recipient", string(run.Recipient)).Msg("pipeline run failed")
	}
	return feedErr
}

func (p *Pipeline) feed(ctx context.Context, sess tts.Stream, frags <-chan string) error {
	var chunker core.SentenceChunker
	for frag := range frags {
		for _, chunk := range chunker.Feed(frag) {
			if err := sess.Send(ctx, chunk); err != nil {
				return &PipelineError{Stage: StageSynthesize, Err: err}
			}
		}
	}
	if rest, ok := chunker.Flush(); ok {
		if err := sess.Send(ctx, rest); err != nil {
			return &PipelineError{Stage: StageSynthesize, Err: err}
		}
	}
	return nil
}
