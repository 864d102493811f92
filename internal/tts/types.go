// Package tts abstracts the speech-synthesis engine. Text goes in as
// punctuation-safe chunks, audio bytes come back out of band; the two
// directions run concurrently over one session.
package tts

import (
	"context"
	"io"
)

// Stream is one synthesis session. Send feeds a text chunk; CloseSend
// tells the engine no more text is coming. Audio delivers raw audio
// bytes and closes once the engine signals completion; Err reports
// what ended the stream, if anything, and is valid after Audio closes.
type Stream interface {
	Send(ctx context.Context, text string) error
	CloseSend(ctx context.Context) error
	Audio() <-chan []byte
	Err() error
}

// Synthesizer opens synthesis sessions for a given engine voice id.
type Synthesizer interface {
	OpenStream(ctx context.Context, voiceID string) (Stream, error)
}

// VoiceCloner creates a cloned voice from a recorded sample and
// returns the engine's id for it.
type VoiceCloner interface {
	CreateVoice(ctx context.Context, name string, sample io.Reader, filename string) (string, error)
}
