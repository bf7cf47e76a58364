package repository

import (
	"context"
	"sync"

	"kyc-onboarding/backend/internal/audit/domain"
)

// MemoryRepository keeps audit logs in memory, for tests and runs without Postgres.
type MemoryRepository struct {
	mu   sync.Mutex
	logs []domain.AuditLog
}

// NewMemoryRepository returns an empty in-memory audit log.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Create appends a copy of a.
func (r *MemoryRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, *a)
	return nil
}

// ListRecent returns up to limit entries, newest first.
func (r *MemoryRepository) ListRecent(ctx context.Context, limit int) ([]*domain.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.AuditLog
	for i := len(r.logs) - 1; i >= 0 && len(out) < limit; i-- {
		a := r.logs[i]
		out = append(out, &a)
	}
	return out, nil
}
