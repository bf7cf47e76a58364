package handler

import (
	"context"

	profiledomain "kyc-onboarding/backend/internal/profile/domain"
	verificationdomain "kyc-onboarding/backend/internal/verification/domain"
)

// Local calls the services in process. It satisfies wizard.Services without a network hop.
type Local struct {
	Verifier Verifier
	Profiles Profiles
}

// FindProfileByAddress returns the account's current profile, or nil.
func (l *Local) FindProfileByAddress(ctx context.Context, address string) (*profiledomain.Profile, error) {
	return l.Profiles.FindByAddress(ctx, address)
}

// FindProfileByEmail implements wizard.Services.
func (l *Local) FindProfileByEmail(ctx context.Context, email string) (*profiledomain.Profile, error) {
	return l.Profiles.FindByEmail(ctx, email)
}

// FindProfileByPhone implements wizard.Services.
func (l *Local) FindProfileByPhone(ctx context.Context, phone string) (*profiledomain.Profile, error) {
	return l.Profiles.FindByPhone(ctx, phone)
}

// RequestEmailCode implements wizard.Services.
func (l *Local) RequestEmailCode(ctx context.Context, email string) (string, error) {
	return l.Verifier.RequestCode(ctx, verificationdomain.ChannelEmail, email)
}

// VerifyEmailCode implements wizard.Services.
func (l *Local) VerifyEmailCode(ctx context.Context, token, code string) (bool, error) {
	return l.Verifier.VerifyCode(ctx, verificationdomain.ChannelEmail, token, code)
}

// RequestPhoneCode implements wizard.Services.
func (l *Local) RequestPhoneCode(ctx context.Context, phone string) (string, error) {
	return l.Verifier.RequestCode(ctx, verificationdomain.ChannelPhone, phone)
}

// VerifyPhoneCode implements wizard.Services.
func (l *Local) VerifyPhoneCode(ctx context.Context, token, code string) (bool, error) {
	return l.Verifier.VerifyCode(ctx, verificationdomain.ChannelPhone, token, code)
}

// SendWelcomeNotification implements wizard.Services.
func (l *Local) SendWelcomeNotification(ctx context.Context, email string) error {
	return l.Profiles.SendWelcome(ctx, email)
}

// CreateProfile implements wizard.Services.
func (l *Local) CreateProfile(ctx context.Context, address, email, phone string) (*profiledomain.Profile, error) {
	return l.Profiles.Create(ctx, address, email, phone)
}

// DevOTP reads back an undelivered code. Only works in dev OTP mode.
func (l *Local) DevOTP(ctx context.Context, channel, token string) (string, error) {
	return l.Verifier.DevOTP(ctx, channel, token)
}
