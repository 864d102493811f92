package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/danielavelez12/crosstalk/internal/domain"
)

// Roster tracks active two-party calls. Cardinality is tiny, so a
// linear scan under the lock is fine.
type Roster struct {
	mu    sync.RWMutex
	pairs []domain.CallPairing
}

func NewRoster() *Roster {
	return &Roster{}
}

// AddPairing rejects the call when either party is already in one;
// a user appears in at most one active pairing.
func (r *Roster) AddPairing(caller, recipient domain.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pairs {
		if p.Has(caller) || p.Has(recipient) {
			return ErrAlreadyInCall
		}
	}
	r.pairs = append(r.pairs, domain.CallPairing{Caller: caller, Recipient: recipient})
	log.Info().Str("module", "app.roster").Str("caller", string(caller)).Str("recipient", string(recipient)).Msg("pairing added")
	return nil
}

// Partner returns the other side of id's active call.
func (r *Roster) Partner(id domain.UserID) (domain.UserID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.pairs {
		if partner := p.PartnerOf(id); partner != "" {
			return partner, true
		}
	}
	return "", false
}

// RemovePairing is idempotent: disconnect cleanup can race an explicit
// call_ended, so removing an absent pairing is a no-op. Orientation
// does not matter.
func (r *Roster) RemovePairing(a, b domain.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.pairs {
		if p.Has(a) && p.Has(b) {
			r.pairs = append(r.pairs[:i], r.pairs[i+1:]...)
			log.Info().Str("module", "app.roster").Str("a", string(a)).Str("b", string(b)).Msg("pairing removed")
			return
		}
	}
}

// RemoveUser drops whatever pairing id is part of and returns it, for
// disconnect-triggered cleanup.
func (r *Roster) RemoveUser(id domain.UserID) (domain.CallPairing, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.pairs {
		if p.Has(id) {
			r.pairs = append(r.pairs[:i], r.pairs[i+1:]...)
			log.Info().Str("module", "app.roster").Str("user", string(id)).Msg("pairing removed on user drop")
			return p, true
		}
	}
	return domain.CallPairing{}, false
}

func (r *Roster) ActiveCalls() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pairs)
}
