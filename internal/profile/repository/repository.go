package repository

import (
	"context"
	"errors"

	"kyc-onboarding/backend/internal/profile/domain"
)

// ErrConflict is returned when an email, phone or address is already held by another profile.
var ErrConflict = errors.New("profile conflicts with an existing profile")

// Repository defines persistence for KYC profiles. Getters return nil, nil when no row matches.
type Repository interface {
	GetByAddress(ctx context.Context, address string) (*domain.Profile, error)
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Profile, error)
	Create(ctx context.Context, p *domain.Profile) error
	// Update overwrites email, phone and updated_at of the profile with p.ID.
	Update(ctx context.Context, p *domain.Profile) error
}
