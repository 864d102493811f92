// Package stt abstracts the speech-to-text engine: it pulls raw PCM
// from an audio source and pushes recognized text fragments through a
// callback until cancelled.
package stt

import "context"

// AudioSource is a pull-based byte reader. Read blocks until n bytes
// are available or the source is drained; *core.IngestBuffer satisfies
// it.
type AudioSource interface {
	Read(ctx context.Context, n int) ([]byte, error)
}

// StreamConfig describes the audio being recognized.
type StreamConfig struct {
	Language   string
	SampleRate int
}

// Transcriber runs a recognition stream. It returns when ctx is
// cancelled or the source is exhausted; fragments arrive on onFragment
// from the engine's own goroutine.
type Transcriber interface {
	Stream(ctx context.Context, cfg StreamConfig, src AudioSource, onFragment func(text string)) error
}
