package wizard

import (
	"kyc-onboarding/backend/internal/onboarding/domain"
	"kyc-onboarding/backend/internal/verification"
)

// Controls is the enablement of the current step's inputs, derived from state on every call.
type Controls struct {
	Step domain.Step
	// Channel is the channel being verified; empty in Terms and Done.
	Channel domain.Channel
	// ContactInputEnabled: the email/phone field accepts input.
	ContactInputEnabled bool
	// SendEnabled: a code may be requested now.
	SendEnabled bool
	// CodeInputEnabled: a code has been issued and no verification is in flight.
	CodeInputEnabled bool
	// TryAnotherVisible: the cooldown has run out and the user may switch contact.
	TryAnotherVisible bool
	// CooldownSeconds is the wait left before another code can be sent.
	CooldownSeconds int
	// TermsEnabled: the terms form can be submitted (submission still requires acceptance).
	TermsEnabled bool
}

// Controls derives the input enablement for the current step.
func (w *Wizard) Controls() Controls {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.snapshotLocked()
	c := Controls{Step: s.Step()}
	if w.closed {
		return c
	}
	switch c.Step {
	case domain.StepEmailEntry, domain.StepEmailCodeEntry:
		c.Channel = domain.ChannelEmail
	case domain.StepPhoneEntry, domain.StepPhoneCodeEntry:
		c.Channel = domain.ChannelPhone
	case domain.StepTerms:
		c.TermsEnabled = !w.busy[busyKey{action: actionTerms}]
		return c
	default:
		return c
	}
	f := w.flows[c.Channel]
	locked := f.locked(w.existing)
	sending := w.busy[busyKey{c.Channel, actionSend}]
	verifying := w.busy[busyKey{c.Channel, actionVerify}]
	token := s.Token(c.Channel)

	c.CooldownSeconds = s.Cooldown(c.Channel)
	c.ContactInputEnabled = !locked && !sending && token == ""
	c.SendEnabled = !locked && !sending && c.CooldownSeconds == 0
	c.CodeInputEnabled = token != "" && !verifying
	c.TryAnotherVisible = token != "" && c.CooldownSeconds == 0 && !sending && !verifying
	return c
}

// CodeSubmittable reports whether code may be submitted at all: exactly six digits.
func CodeSubmittable(code string) bool {
	return verification.ValidCodeFormat(code)
}
