package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
)

type mockTranscriber struct {
	chunkSize  int
	transcript func(pcm []byte) string
}

// NewMockTranscriber recognizes audio without any engine: every chunk
// of chunkSize bytes pulled from the source becomes one fragment.
// A nil transcript func yields a length-stamped placeholder.
func NewMockTranscriber(chunkSize int, transcript func(pcm []byte) string) Transcriber {
	if chunkSize <= 0 {
		chunkSize = 1024
	}
	if transcript == nil {
		transcript = func(pcm []byte) string {
			return fmt.Sprintf("[audio %db]", len(pcm))
		}
	}
	return &mockTranscriber{chunkSize: chunkSize, transcript: transcript}
}

func (m *mockTranscriber) Stream(ctx context.Context, _ StreamConfig, src AudioSource, onFragment func(string)) error {
	for {
		pcm, err := src.Read(ctx, m.chunkSize)
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}
		onFragment(m.transcript(pcm))
	}
}
