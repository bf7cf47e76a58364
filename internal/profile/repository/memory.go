package repository

import (
	"context"
	"strings"
	"sync"

	"kyc-onboarding/backend/internal/profile/domain"
)

// MemoryRepository is an in-memory Repository with the same uniqueness rules as the profiles table.
type MemoryRepository struct {
	mu sync.Mutex
	m  map[string]domain.Profile
}

// NewMemoryRepository returns an empty in-memory profile store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{m: make(map[string]domain.Profile)}
}

func (r *MemoryRepository) find(match func(domain.Profile) bool) *domain.Profile {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.m {
		if match(p) {
			cp := p
			return &cp
		}
	}
	return nil
}

// GetByAddress returns a copy of the profile for address, or nil.
func (r *MemoryRepository) GetByAddress(ctx context.Context, address string) (*domain.Profile, error) {
	return r.find(func(p domain.Profile) bool { return strings.EqualFold(p.Address, address) }), nil
}

// GetByEmail returns a copy of the profile holding email, or nil.
func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	return r.find(func(p domain.Profile) bool { return email != "" && p.Email == email }), nil
}

// GetByPhone returns a copy of the profile holding phone, or nil.
func (r *MemoryRepository) GetByPhone(ctx context.Context, phone string) (*domain.Profile, error) {
	return r.find(func(p domain.Profile) bool { return phone != "" && p.Phone == phone }), nil
}

// conflictLocked reports whether p's address, email or phone is held by a different profile.
func (r *MemoryRepository) conflictLocked(p *domain.Profile) bool {
	for id, other := range r.m {
		if id == p.ID {
			continue
		}
		if strings.EqualFold(other.Address, p.Address) ||
			(p.Email != "" && other.Email == p.Email) ||
			(p.Phone != "" && other.Phone == p.Phone) {
			return true
		}
	}
	return false
}

// Create stores a copy of p.
func (r *MemoryRepository) Create(ctx context.Context, p *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.m[p.ID]; ok || r.conflictLocked(p) {
		return ErrConflict
	}
	r.m[p.ID] = *p
	return nil
}

// Update overwrites email, phone and updated_at. A missing ID is not an error.
func (r *MemoryRepository) Update(ctx context.Context, p *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.m[p.ID]
	if !ok {
		return nil
	}
	if r.conflictLocked(&domain.Profile{ID: p.ID, Email: p.Email, Phone: p.Phone}) {
		return ErrConflict
	}
	cur.Email, cur.Phone, cur.UpdatedAt = p.Email, p.Phone, p.UpdatedAt
	r.m[p.ID] = cur
	return nil
}
