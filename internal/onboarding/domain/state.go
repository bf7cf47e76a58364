// Package domain holds the onboarding wizard state and the step derived from it.
package domain

// Step is the wizard screen the user is on. It is always derived from WizardState, never stored.
type Step int

const (
	StepEmailEntry Step = iota
	StepEmailCodeEntry
	StepPhoneEntry
	StepPhoneCodeEntry
	StepTerms
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepEmailEntry:
		return "email_entry"
	case StepEmailCodeEntry:
		return "email_code_entry"
	case StepPhoneEntry:
		return "phone_entry"
	case StepPhoneCodeEntry:
		return "phone_code_entry"
	case StepTerms:
		return "terms"
	case StepDone:
		return "done"
	default:
		return "unknown"
	}
}

// Number returns the 1-based "Step n of 3" index shown to the user; Done reports 3.
func (s Step) Number() int {
	switch s {
	case StepEmailEntry, StepEmailCodeEntry:
		return 1
	case StepPhoneEntry, StepPhoneCodeEntry:
		return 2
	default:
		return 3
	}
}

// Channel is a contact channel that is verified with a one-time code.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPhone Channel = "phone"
)

// WizardState is the whole mutable state of one wizard instance.
type WizardState struct {
	Email                string
	Phone                string
	EmailToken           string
	PhoneToken           string
	EmailVerified        bool
	PhoneVerified        bool
	EmailCooldownSeconds int
	PhoneCooldownSeconds int
	Completed            bool
}

// StepOf derives the current step. Verification flags decide the stage; an issued token
// moves the stage from entry to code entry.
func StepOf(s WizardState) Step {
	switch {
	case s.Completed:
		return StepDone
	case !s.EmailVerified:
		if s.EmailToken != "" {
			return StepEmailCodeEntry
		}
		return StepEmailEntry
	case !s.PhoneVerified:
		if s.PhoneToken != "" {
			return StepPhoneCodeEntry
		}
		return StepPhoneEntry
	default:
		return StepTerms
	}
}

// Step is shorthand for StepOf(s).
func (s WizardState) Step() Step {
	return StepOf(s)
}

// Contact returns the captured contact value for ch.
func (s WizardState) Contact(ch Channel) string {
	if ch == ChannelPhone {
		return s.Phone
	}
	return s.Email
}

// Token returns the pending verification token for ch.
func (s WizardState) Token(ch Channel) string {
	if ch == ChannelPhone {
		return s.PhoneToken
	}
	return s.EmailToken
}

// Verified reports whether ch has been verified.
func (s WizardState) Verified(ch Channel) bool {
	if ch == ChannelPhone {
		return s.PhoneVerified
	}
	return s.EmailVerified
}

// Cooldown returns the remaining cooldown seconds for ch.
func (s WizardState) Cooldown(ch Channel) int {
	if ch == ChannelPhone {
		return s.PhoneCooldownSeconds
	}
	return s.EmailCooldownSeconds
}
