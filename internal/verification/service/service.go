// Package service issues and checks one-time verification codes for email and phone contacts.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kyc-onboarding/backend/internal/devotp"
	profiledomain "kyc-onboarding/backend/internal/profile/domain"
	"kyc-onboarding/backend/internal/telemetry"
	telemetrydomain "kyc-onboarding/backend/internal/telemetry/domain"
	"kyc-onboarding/backend/internal/verification"
	"kyc-onboarding/backend/internal/verification/domain"
	"kyc-onboarding/backend/internal/verification/repository"
)

// Sentinel errors; the gRPC handler maps them to status codes.
var (
	ErrInvalidChannel     = errors.New("unknown verification channel")
	ErrInvalidDestination = errors.New("invalid email address or phone number")
	ErrDeliveryFailed     = errors.New("verification code could not be delivered")
	ErrDevOTPDisabled     = errors.New("dev OTP mode is disabled")
	ErrDevOTPNotFound     = errors.New("OTP not found or expired")
)

const (
	DefaultTTL         = 10 * time.Minute
	DefaultMaxAttempts = 5
	eventSource        = "verification"
)

// EmailSender delivers a code by email.
type EmailSender interface {
	SendVerificationCode(ctx context.Context, to, code string) error
}

// SMSSender delivers a code by SMS.
type SMSSender interface {
	SendOTP(ctx context.Context, phone, otp string) error
}

// Config holds code lifetime settings.
type Config struct {
	TTL         time.Duration
	MaxAttempts int
}

// Deps are the collaborators of Service. Email and SMS may be nil when DevStore is set.
type Deps struct {
	Email EmailSender
	SMS   SMSSender
	// DevStore switches delivery to the in-memory dev store. Never set in production.
	DevStore devotp.Store
	Emitter  telemetry.EventEmitter
	Log      *zap.Logger
}

// Service issues challenges and verifies answers to them.
type Service struct {
	repo     repository.Repository
	signer   *verification.TokenSigner
	cfg      Config
	email    EmailSender
	sms      SMSSender
	devStore devotp.Store
	emitter  telemetry.EventEmitter
	log      *zap.Logger
	nowF     func() time.Time
	newID    func() string
}

// NewService returns a verification service. Zero Config fields fall back to the defaults.
func NewService(repo repository.Repository, signer *verification.TokenSigner, cfg Config, deps Deps) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		signer:   signer,
		cfg:      cfg,
		email:    deps.Email,
		sms:      deps.SMS,
		devStore: deps.DevStore,
		emitter:  deps.Emitter,
		log:      log.Named("verification"),
		nowF:     func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.New().String() },
	}
}

// normalize validates destination for channel and returns its canonical form.
func normalize(channel, destination string) (string, error) {
	switch channel {
	case domain.ChannelEmail:
		d := profiledomain.NormalizeEmail(destination)
		if !profiledomain.ValidEmail(d) {
			return "", ErrInvalidDestination
		}
		return d, nil
	case domain.ChannelPhone:
		d := profiledomain.NormalizePhone(destination)
		if !profiledomain.ValidPhone(d) {
			return "", ErrInvalidDestination
		}
		return d, nil
	default:
		return "", ErrInvalidChannel
	}
}

// RequestCode creates a challenge for destination, delivers its code and returns the opaque
// token the client later presents with the code.
func (s *Service) RequestCode(ctx context.Context, channel, destination string) (string, error) {
	dest, err := normalize(channel, destination)
	if err != nil {
		return "", err
	}
	otp, err := verification.GenerateOTP()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	now := s.nowF()
	c := &domain.Challenge{
		ID:          s.newID(),
		Channel:     channel,
		Destination: dest,
		CodeHash:    verification.HashOTP(otp),
		ExpiresAt:   now.Add(s.cfg.TTL),
		CreatedAt:   now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return "", fmt.Errorf("create challenge: %w", err)
	}
	token, err := s.signer.Issue(c.ID, channel, c.ExpiresAt)
	if err != nil {
		_ = s.repo.Delete(ctx, c.ID)
		return "", fmt.Errorf("issue token: %w", err)
	}
	if err := s.deliver(ctx, c, otp); err != nil {
		s.log.Warn("code delivery failed", zap.String("channel", channel), zap.String("challenge_id", c.ID), zap.Error(err))
		if derr := s.repo.Delete(ctx, c.ID); derr != nil {
			s.log.Warn("delete undelivered challenge", zap.String("challenge_id", c.ID), zap.Error(derr))
		}
		s.emit(telemetrydomain.EventDeliveryFailed, channel, c.ID)
		return "", fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	s.log.Info("verification code issued", zap.String("channel", channel), zap.String("challenge_id", c.ID))
	s.emit(telemetrydomain.EventCodeRequested, channel, c.ID)
	return token, nil
}

func (s *Service) deliver(ctx context.Context, c *domain.Challenge, otp string) error {
	if s.devStore != nil {
		s.devStore.Put(ctx, c.ID, devotp.Entry{
			Channel:     c.Channel,
			Destination: c.Destination,
			OTP:         otp,
			ExpiresAt:   c.ExpiresAt,
		})
		return nil
	}
	switch c.Channel {
	case domain.ChannelEmail:
		if s.email == nil {
			return errors.New("no email sender configured")
		}
		return s.email.SendVerificationCode(ctx, c.Destination, otp)
	case domain.ChannelPhone:
		if s.sms == nil {
			return errors.New("no SMS sender configured")
		}
		return s.sms.SendOTP(ctx, c.Destination, otp)
	}
	return ErrInvalidChannel
}

// VerifyCode reports whether code answers the challenge behind token. A malformed code, an
// invalid token, or an expired, consumed or exhausted challenge all yield false with a nil error.
// Every checked code counts one attempt; a true result also consumes the challenge.
func (s *Service) VerifyCode(ctx context.Context, channel, token, code string) (bool, error) {
	if !verification.ValidCodeFormat(code) {
		return false, nil
	}
	id, err := s.signer.Parse(token, channel)
	if err != nil {
		return false, nil
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("get challenge: %w", err)
	}
	now := s.nowF()
	if c == nil || c.Channel != channel || !c.Usable(now, s.cfg.MaxAttempts) {
		s.emit(telemetrydomain.EventCodeRejected, channel, id)
		return false, nil
	}
	// The attempt is taken before the code is compared so concurrent guesses cannot
	// all pass the check above and exceed MaxAttempts.
	reserved, err := s.repo.ReserveAttempt(ctx, id, s.cfg.MaxAttempts, now)
	if err != nil {
		return false, fmt.Errorf("reserve attempt: %w", err)
	}
	if !reserved || !verification.OTPEqual(code, c.CodeHash) {
		s.emit(telemetrydomain.EventCodeRejected, channel, id)
		return false, nil
	}
	ok, err := s.repo.Consume(ctx, id, now)
	if err != nil {
		return false, fmt.Errorf("consume challenge: %w", err)
	}
	if !ok {
		return false, nil
	}
	if s.devStore != nil {
		s.devStore.Delete(ctx, id)
	}
	s.log.Info("contact verified", zap.String("channel", channel), zap.String("challenge_id", id))
	s.emit(telemetrydomain.EventCodeVerified, channel, id)
	return true, nil
}

// DevOTP returns the undelivered code behind token. Only available in dev OTP mode.
func (s *Service) DevOTP(ctx context.Context, channel, token string) (string, error) {
	if s.devStore == nil {
		return "", ErrDevOTPDisabled
	}
	id, err := s.signer.Parse(token, channel)
	if err != nil {
		return "", err
	}
	e, ok := s.devStore.Get(ctx, id)
	if !ok {
		return "", ErrDevOTPNotFound
	}
	return e.OTP, nil
}

func (s *Service) emit(eventType, channel, subject string) {
	telemetry.EmitAsync(s.emitter, s.log, telemetrydomain.NewEvent(eventType, eventSource, channel, subject))
}
