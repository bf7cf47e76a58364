package repository

import (
	"context"
	"sync"
	"time"

	"kyc-onboarding/backend/internal/verification/domain"
)

// MemoryRepository is an in-memory Repository for tests and single-process dev runs.
type MemoryRepository struct {
	mu sync.Mutex
	m  map[string]domain.Challenge
}

// NewMemoryRepository returns an empty in-memory challenge store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{m: make(map[string]domain.Challenge)}
}

// Create stores a copy of c.
func (r *MemoryRepository) Create(ctx context.Context, c *domain.Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[c.ID] = *c
	return nil
}

// GetByID returns a copy of the challenge, or nil if missing.
func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.m[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// ReserveAttempt counts an attempt under the store lock.
func (r *MemoryRepository) ReserveAttempt(ctx context.Context, id string, maxAttempts int, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.m[id]
	if !ok || !c.Usable(now, maxAttempts) {
		return false, nil
	}
	c.Attempts++
	r.m[id] = c
	return true, nil
}

// Consume sets ConsumedAt if unset.
func (r *MemoryRepository) Consume(ctx context.Context, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.m[id]
	if !ok || c.ConsumedAt != nil {
		return false, nil
	}
	c.ConsumedAt = &at
	r.m[id] = c
	return true, nil
}

// Delete removes the challenge.
func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, id)
	return nil
}
