// Package service looks up and persists KYC profiles and sends the welcome notification.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kyc-onboarding/backend/internal/profile/domain"
	"kyc-onboarding/backend/internal/profile/repository"
	"kyc-onboarding/backend/internal/telemetry"
	telemetrydomain "kyc-onboarding/backend/internal/telemetry/domain"
)

// Sentinel errors for the profile service; the handler maps them to gRPC codes.
var (
	ErrDuplicateContact = errors.New("email or phone already belongs to another profile")
	ErrInvalidProfile   = errors.New("invalid profile")
)

const eventSource = "profile"

// WelcomeSender mails the onboarding-complete notification.
type WelcomeSender interface {
	SendWelcome(ctx context.Context, to string) error
}

// ProfileService handles profile lookup and creation.
type ProfileService struct {
	repo    repository.Repository
	welcome WelcomeSender
	emitter telemetry.EventEmitter
	log     *zap.Logger
	nowF    func() time.Time
}

// NewProfileService returns a profile service. welcome may be nil, in which case the welcome
// notification is only logged (dev runs without SMTP).
func NewProfileService(repo repository.Repository, welcome WelcomeSender, emitter telemetry.EventEmitter, log *zap.Logger) *ProfileService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileService{
		repo:    repo,
		welcome: welcome,
		emitter: emitter,
		log:     log.Named("profile"),
		nowF:    func() time.Time { return time.Now().UTC() },
	}
}

// FindByEmail returns the profile holding email, or nil. email is normalised first.
func (s *ProfileService) FindByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	return s.repo.GetByEmail(ctx, email)
}

// FindByPhone returns the profile holding phone, or nil. phone is normalised first.
func (s *ProfileService) FindByPhone(ctx context.Context, phone string) (*domain.Profile, error) {
	phone = domain.NormalizePhone(phone)
	if phone == "" {
		return nil, nil
	}
	return s.repo.GetByPhone(ctx, phone)
}

// FindByAddress returns the profile for the account address, or nil.
func (s *ProfileService) FindByAddress(ctx context.Context, address string) (*domain.Profile, error) {
	if !domain.ValidAddress(address) {
		return nil, fmt.Errorf("%w: malformed address", ErrInvalidProfile)
	}
	return s.repo.GetByAddress(ctx, address)
}

// Create records the verified email and phone for address. A profile that already exists for
// the address is updated in place; contacts held by another profile yield ErrDuplicateContact.
func (s *ProfileService) Create(ctx context.Context, address, email, phone string) (*domain.Profile, error) {
	now := s.nowF()
	p := &domain.Profile{
		Address:   address,
		Email:     domain.NormalizeEmail(email),
		Phone:     domain.NormalizePhone(phone),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	existing, err := s.repo.GetByAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		p.ID, p.Address, p.CreatedAt = existing.ID, existing.Address, existing.CreatedAt
		err = s.repo.Update(ctx, p)
	} else {
		p.ID = uuid.New().String()
		err = s.repo.Create(ctx, p)
	}
	if errors.Is(err, repository.ErrConflict) {
		return nil, ErrDuplicateContact
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("profile saved", zap.String("profile_id", p.ID), zap.Bool("updated", existing != nil))
	telemetry.EmitAsync(s.emitter, s.log, telemetrydomain.NewEvent(telemetrydomain.EventProfileCreated, eventSource, "", p.ID))
	return p, nil
}

// SendWelcome sends the welcome notification to email.
func (s *ProfileService) SendWelcome(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if !domain.ValidEmail(email) {
		return fmt.Errorf("%w: invalid email", ErrInvalidProfile)
	}
	if s.welcome == nil {
		s.log.Info("welcome notification skipped: no mailer configured")
		return nil
	}
	if err := s.welcome.SendWelcome(ctx, email); err != nil {
		return err
	}
	telemetry.EmitAsync(s.emitter, s.log, telemetrydomain.NewEvent(telemetrydomain.EventWelcomeSent, eventSource, "email", ""))
	return nil
}
