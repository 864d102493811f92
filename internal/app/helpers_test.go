package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/danielavelez12/crosstalk/internal/core"
	"github.com/danielavelez12/crosstalk/internal/domain"
)

// fakeConn records every frame delivered to it.
type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	closed bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return core.ErrChannelClosed
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *fakeConn) messages(t *testing.T) []map[string]any {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.frames))
	for _, f := range c.frames {
		var m map[string]any
		if err := json.Unmarshal(f, &m); err != nil {
			t.Fatalf("undecodable frame %q: %v", f, err)
		}
		out = append(out, m)
	}
	return out
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition never held")
}

// fakeDirectory serves canned users and voices.
type fakeDirectory struct {
	users  map[domain.UserID]*domain.User
	voices map[domain.UserID]*domain.Voice
}

func (d *fakeDirectory) GetUser(_ context.Context, id domain.UserID) (*domain.User, error) {
	if u, ok := d.users[id]; ok {
		return u, nil
	}
	return nil, errNotFound
}

func (d *fakeDirectory) VoiceForUser(_ context.Context, id domain.UserID) (*domain.Voice, error) {
	if v, ok := d.voices[id]; ok {
		return v, nil
	}
	return nil, errNotFound
}

var errNotFound = errors.New("not found")
