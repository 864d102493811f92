package core

import (
	"context"
	"io"
	"sync"
)

// IngestBuffer is an append-only audio buffer with a blocking read
// cursor. The websocket receive loop writes, the transcription engine
// reads; the two run at independent cadence. Writes never block and
// carry no backpressure, so a fast producer can grow the buffer
// without bound until the next utterance boundary clears it.
type IngestBuffer struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []byte
	off    int
	closed bool
}

func NewIngestBuffer() *IngestBuffer {
	b := &IngestBuffer{}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Write appends p to the buffer and wakes any waiting reader.
func (b *IngestBuffer) Write(p []byte) {
	if len(p) == 0 {
		return
	}
	b.mu.Lock()
	b.buf = append(b.buf, p...)
	b.mu.Unlock()
	b.cond.Broadcast()
}

// Read blocks until n unread bytes are available, then advances the
// cursor by n and returns exactly those bytes. On Close it returns
// whatever remains unread, then io.EOF. Cancelling ctx unblocks a
// pending read with ctx.Err().
func (b *IngestBuffer) Read(ctx context.Context, n int) ([]byte, error) {
	stop := context.AfterFunc(ctx, func() {
		b.mu.Lock()
		b.mu.Unlock()
		b.cond.Broadcast()
	})
	defer stop()

	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.buf)-b.off < n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if b.closed {
			if rest := len(b.buf) - b.off; rest > 0 {
				out := b.buf[b.off : b.off+rest]
				b.off += rest
				return out, nil
			}
			return nil, io.EOF
		}
		b.cond.Wait()
	}
	out := b.buf[b.off : b.off+n]
	b.off += n
	return out, nil
}

// Unread reports how many bytes are buffered past the cursor.
func (b *IngestBuffer) Unread() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf) - b.off
}

// Len reports total bytes written since the last Clear.
func (b *IngestBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}

// Clear truncates the buffer and resets the cursor to zero. Callers
// must cancel any in-flight Read first; a read that is already past
// the wait races the truncation.
func (b *IngestBuffer) Clear() {
	b.mu.Lock()
	b.buf = nil
	b.off = 0
	b.closed = false
	b.mu.Unlock()
	b.cond.Broadcast()
}

// Close wakes readers; subsequent reads drain what is left and then
// see io.EOF.
func (b *IngestBuffer) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.cond.Broadcast()
}
