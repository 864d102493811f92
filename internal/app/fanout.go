package app

import (
	"context"
	"encoding/base64"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/danielavelez12/crosstalk/internal/core"
	"github.com/danielavelez12/crosstalk/internal/domain"
)

// DefaultFrameSize is how many synthesized bytes go into one
// audio_chunk message.
const DefaultFrameSize = 1024

// MessageSender is the slice of Registry the fanout needs.
type MessageSender interface {
	Send(id domain.UserID, v any) error
}

// Fanout paces a synthesized byte stream into fixed-size frames and
// delivers them to the recipient's channel, terminated by an explicit
// end_of_stream marker.
type Fanout struct {
	Out       MessageSender
	FrameSize int
}

// Stream consumes audio until the channel closes, then flushes the
// trailing partial frame and the end marker. live gates every send:
// when it reports false the run is stale and the rest of the stream is
// discarded. A recipient that disconnected mid-stream makes the
// remaining sends no-ops rather than errors.
func (f *Fanout) Stream(ctx context.Context, recipient domain.UserID, audio <-chan []byte, live func() bool) error {
	size := f.FrameSize
	if size <= 0 {
		size = DefaultFrameSize
	}

	deliver := func(v any) {
		if live != nil && !live() {
			return
		}
		if err := f.Out.Send(recipient, v); err != nil {
			if errors.Is(err, ErrNotConnected) || errors.Is(err, core.ErrChannelClosed) {
				return
			}
			log.Warn().Err(err).Str("module", "app.fanout").Str("recipient", string(recipient)).Msg("frame dropped")
		}
	}
	frame := func(b []byte) {
		deliver(core.AudioChunkMessage{
			Type: core.TypeAudioChunk,
			Data: base64.StdEncoding.EncodeToString(b),
		})
	}

	var buf []byte
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk, ok := <-audio:
			if !ok {
				for len(buf) >= size {
					frame(buf[:size])
					buf = buf[size:]
				}
				if len(buf) > 0 {
					frame(buf)
				}
				deliver(core.AudioChunkMessage{Type: core.TypeEndOfStream})
				return nil
			}
			buf = append(buf, chunk...)
			for len(buf) >= size {
				frame(buf[:size])
				buf = buf[size:]
			}
		}
	}
}
