package app

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/danielavelez12/crosstalk/internal/core"
	"github.com/danielavelez12/crosstalk/internal/domain"
)

// Registry maps user ids to their open duplex channels. Connection
// handlers mutate it concurrently, so every access goes through the
// lock.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.UserID]core.SignalConnection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.UserID]core.SignalConnection)}
}

// Register installs conn for id, replacing any existing entry. The
// replaced channel is not closed here; its read loop notices the
// socket dying on its own.
func (r *Registry) Register(id domain.UserID, conn core.SignalConnection) {
	r.mu.Lock()
	_, replaced := r.conns[id]
	r.conns[id] = conn
	r.mu.Unlock()
	log.Info().Str("module", "app.registry").Str("user", string(id)).Bool("replaced", replaced).Msg("registered connection")
}

// Unregister removes the entry for id; no-op when absent. When conn is
// non-nil the entry is only removed if it still holds that exact
// connection, so a reconnect that already replaced it is left alone.
// The return value is false only in that replaced case: the caller's
// connection is stale and any state for id now belongs to the new one.
func (r *Registry) Unregister(id domain.UserID, conn core.SignalConnection) bool {
	r.mu.Lock()
	cur, ok := r.conns[id]
	if ok && conn != nil && cur != conn {
		r.mu.Unlock()
		return false
	}
	delete(r.conns, id)
	r.mu.Unlock()
	log.Info().Str("module", "app.registry").Str("user", string(id)).Msg("unregistered connection")
	return true
}

func (r *Registry) Lookup(id domain.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[id]
	return ok
}

// Send marshals v and delivers it on id's channel. ErrNotConnected
// when the user has no entry; transport errors pass through so the
// caller can decide whether to deregister.
func (r *Registry) Send(id domain.UserID, v any) error {
	r.mu.RLock()
	conn, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		return ErrNotConnected
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.TrySend(core.Frame(b))
}
