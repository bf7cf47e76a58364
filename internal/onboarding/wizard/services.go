package wizard

import (
	"context"

	profiledomain "kyc-onboarding/backend/internal/profile/domain"
)

// Services is the set of external collaborators the wizard delegates every effect to.
// Implementations: kyc/client (gRPC) and kyc/handler.Local (in-process).
type Services interface {
	// FindProfileByEmail returns the profile owning email, or nil if none.
	FindProfileByEmail(ctx context.Context, email string) (*profiledomain.Profile, error)
	// FindProfileByPhone returns the profile owning phone, or nil if none.
	FindProfileByPhone(ctx context.Context, phone string) (*profiledomain.Profile, error)
	// RequestEmailCode sends a one-time code to email and returns the token naming the challenge.
	RequestEmailCode(ctx context.Context, email string) (string, error)
	// VerifyEmailCode reports whether code answers the challenge named by token. False means invalid or expired.
	VerifyEmailCode(ctx context.Context, token, code string) (bool, error)
	// RequestPhoneCode sends a one-time code to phone and returns the token naming the challenge.
	RequestPhoneCode(ctx context.Context, phone string) (string, error)
	// VerifyPhoneCode reports whether code answers the challenge named by token.
	VerifyPhoneCode(ctx context.Context, token, code string) (bool, error)
	// SendWelcomeNotification sends the welcome mail to email.
	SendWelcomeNotification(ctx context.Context, email string) error
	// CreateProfile persists the verified contacts for address. A nil profile without error counts as failure.
	CreateProfile(ctx context.Context, address, email, phone string) (*profiledomain.Profile, error)
}

// RefreshFunc is the caller's profile cache refresh, invoked once after a profile is created.
type RefreshFunc func(ctx context.Context)

// Level is the severity of a Notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is a user-visible, non-blocking notification.
type Notice struct {
	Level       Level
	Title       string
	Description string
}

// Notifier receives notices. Calls are made without wizard locks held.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notice)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notice) { f(n) }

type nopNotifier struct{}

func (nopNotifier) Notify(Notice) {}
