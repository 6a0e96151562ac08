// Package auth drives the two-phase Garmin login: the direct credential
// exchange, and the MFA challenge parked between the login and resume calls.
// Challenge state lives only in process memory, keyed by opaque handles that
// are all a caller ever sees.
package auth

import (
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/apedley/SparkyFitness/internal/garmin"
)

// DefaultTTL is how long an unconsumed MFA challenge stays redeemable.
const DefaultTTL = 5 * time.Minute

type pendingChallenge struct {
	state    *garmin.ChallengeState
	issuedAt time.Time
}

// ChallengeStore holds in-flight MFA challenges. Entries are read-once:
// Pop removes the entry whether or not it is still live. Expired entries are
// swept on every Put, so the store stays bounded without a background timer.
type ChallengeStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	pending map[string]pendingChallenge
}

// NewChallengeStore builds a store expiring entries after ttl.
func NewChallengeStore(ttl time.Duration) *ChallengeStore {
	return NewChallengeStoreWithClock(ttl, time.Now)
}

// NewChallengeStoreWithClock injects the clock so tests can drive expiry.
func NewChallengeStoreWithClock(ttl time.Duration, now func() time.Time) *ChallengeStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ChallengeStore{
		ttl:     ttl,
		now:     now,
		pending: make(map[string]pendingChallenge),
	}
}

// Put sweeps expired entries, then parks state under a fresh opaque handle
// and returns the handle.
func (s *ChallengeStore) Put(state *garmin.ChallengeState) string {
	id := uuid.New()
	handle := hex.EncodeToString(id[:])

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for h, p := range s.pending {
		if now.Sub(p.issuedAt) > s.ttl {
			delete(s.pending, h)
		}
	}
	s.pending[handle] = pendingChallenge{state: state, issuedAt: now}
	return handle
}

// Pop removes and returns the challenge for handle. ok is false for unknown
// and for expired handles alike; callers cannot tell the two apart.
func (s *ChallengeStore) Pop(handle string) (*garmin.ChallengeState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[handle]
	if !ok {
		return nil, false
	}
	delete(s.pending, handle)
	if s.now().Sub(p.issuedAt) > s.ttl {
		return nil, false
	}
	return p.state, true
}

// Len reports the number of parked challenges, expired or not.
func (s *ChallengeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
