package tts

import (
	"context"
	"io"
	"strconv"
	"sync"
)

// MockSynthesizer synthesizes deterministic audio without any engine:
// each text chunk becomes BytesPerChunk bytes (the chunk text repeated
// or truncated to length). Voice cloning hands out sequential ids.
type MockSynthesizer struct {
	BytesPerChunk int

	mu     sync.Mutex
	voices int
}

func NewMockSynthesizer(bytesPerChunk int) *MockSynthesizer {
	if bytesPerChunk <= 0 {
		bytesPerChunk = 256
	}
	return &MockSynthesizer{BytesPerChunk: bytesPerChunk}
}

type mockStream struct {
	size  int
	audio chan []byte
	once  sync.Once
}

func (m *MockSynthesizer) OpenStream(_ context.Context, _ string) (Stream, error) {
	return &mockStream{size: m.BytesPerChunk, audio: make(chan []byte, 64)}, nil
}

func (s *mockStream) Send(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	out := make([]byte, s.size)
	for i := range out {
		out[i] = text[i%len(text)]
	}
	select {
	case s.audio <- out:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *mockStream) CloseSend(_ context.Context) error {
	s.once.Do(func() { close(s.audio) })
	return nil
}

func (s *mockStream) Audio() <-chan []byte { return s.audio }
func (s *mockStream) Err() error           { return nil }

func (m *MockSynthesizer) CreateVoice(_ context.Context, _ string, sample io.Reader, _ string) (string, error) {
	if _, err := io.Copy(io.Discard, sample); err != nil {
		return "", err
	}
	m.mu.Lock()
	m.voices++
	n := m.voices
	m.mu.Unlock()
	return "mock-voice-" + strconv.Itoa(n), nil
}
