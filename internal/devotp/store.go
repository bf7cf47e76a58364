// Package devotp keeps plain verification codes in memory so a developer can read them back
// without a mail or SMS provider. Only wired when OTP_RETURN_TO_CLIENT is on outside production.
package devotp

import (
	"context"
	"sync"
	"time"
)

// Entry is one undelivered code.
type Entry struct {
	Channel     string
	Destination string
	OTP         string
	ExpiresAt   time.Time
}

// Store holds plain OTPs by challenge ID. Not used in production.
type Store interface {
	// Put stores e for challengeID until e.ExpiresAt.
	Put(ctx context.Context, challengeID string, e Entry)
	// Get returns the entry for challengeID if present and not expired.
	Get(ctx context.Context, challengeID string) (Entry, bool)
	// Delete drops challengeID, e.g. once the code is consumed.
	Delete(ctx context.Context, challengeID string)
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu   sync.RWMutex
	m    map[string]Entry
	nowF func() time.Time
}

// NewMemoryStore returns a new in-memory dev OTP store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m:    make(map[string]Entry),
		nowF: func() time.Time { return time.Now().UTC() },
	}
}

// Put stores e for challengeID and drops any other expired entries.
func (s *MemoryStore) Put(ctx context.Context, challengeID string, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowF()
	for id, old := range s.m {
		if !old.ExpiresAt.After(now) {
			delete(s.m, id)
		}
	}
	s.m[challengeID] = e
}

// Get returns the entry for challengeID if present and not expired.
func (s *MemoryStore) Get(ctx context.Context, challengeID string) (Entry, bool) {
	s.mu.RLock()
	e, ok := s.m[challengeID]
	s.mu.RUnlock()
	if !ok {
		return Entry{}, false
	}
	if !e.ExpiresAt.After(s.nowF()) {
		s.Delete(ctx, challengeID)
		return Entry{}, false
	}
	return e, true
}

// Delete removes challengeID.
func (s *MemoryStore) Delete(ctx context.Context, challengeID string) {
	s.mu.Lock()
	delete(s.m, challengeID)
	s.mu.Unlock()
}

// Len reports how many entries are held, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
