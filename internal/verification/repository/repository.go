package repository

import (
	"context"
	"time"

	"kyc-onboarding/backend/internal/verification/domain"
)

// Repository defines persistence for verification challenges.
type Repository interface {
	Create(ctx context.Context, c *domain.Challenge) error
	// GetByID returns the challenge, or nil if not found or already purged.
	GetByID(ctx context.Context, id string) (*domain.Challenge, error)
	// ReserveAttempt counts one attempt in a single atomic step, but only while the challenge
	// is unconsumed, unexpired at now and below maxAttempts. It returns false when no attempt
	// is left, so concurrent guesses never exceed maxAttempts.
	ReserveAttempt(ctx context.Context, id string, maxAttempts int, now time.Time) (bool, error)
	// Consume marks the challenge used at. It returns true only for the call that consumed it.
	Consume(ctx context.Context, id string, at time.Time) (bool, error)
	Delete(ctx context.Context, id string) error
}
