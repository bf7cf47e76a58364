package domain

import "testing"

func TestStepOf_DerivedFromVerificationFlags(t *testing.T) {
	tests := []struct {
		name  string
		state WizardState
		want  Step
	}{
		{"empty", WizardState{}, StepEmailEntry},
		{"email token issued", WizardState{Email: "a@x.com", EmailToken: "t"}, StepEmailCodeEntry},
		{"email verified", WizardState{Email: "a@x.com", EmailVerified: true}, StepPhoneEntry},
		{"email verified, stale email token", WizardState{EmailToken: "t", EmailVerified: true}, StepPhoneEntry},
		{"phone token issued", WizardState{EmailVerified: true, PhoneToken: "p"}, StepPhoneCodeEntry},
		{"both verified", WizardState{EmailVerified: true, PhoneVerified: true}, StepTerms},
		{"phone verified without email", WizardState{PhoneVerified: true}, StepEmailEntry},
		{"completed", WizardState{EmailVerified: true, PhoneVerified: true, Completed: true}, StepDone},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := StepOf(tc.state); got != tc.want {
				t.Errorf("StepOf = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestStepOf_CooldownDoesNotAffectStep(t *testing.T) {
	for _, verified := range [][2]bool{{false, false}, {true, false}, {true, true}} {
		base := WizardState{EmailVerified: verified[0], PhoneVerified: verified[1]}
		withCooldown := base
		withCooldown.EmailCooldownSeconds = 42
		withCooldown.PhoneCooldownSeconds = 17
		if StepOf(base) != StepOf(withCooldown) {
			t.Errorf("verified=%v: step changed with cooldown", verified)
		}
	}
}

func TestStep_Number(t *testing.T) {
	want := map[Step]int{
		StepEmailEntry:     1,
		StepEmailCodeEntry: 1,
		StepPhoneEntry:     2,
		StepPhoneCodeEntry: 2,
		StepTerms:          3,
		StepDone:           3,
	}
	for s, n := range want {
		if s.Number() != n {
			t.Errorf("%v.Number() = %d, want %d", s, s.Number(), n)
		}
	}
}

func TestWizardState_ChannelAccessors(t *testing.T) {
	s := WizardState{
		Email: "a@x.com", Phone: "+233201234567",
		EmailToken: "et", PhoneToken: "pt",
		EmailVerified: true,
		EmailCooldownSeconds: 3, PhoneCooldownSeconds: 9,
	}
	if s.Contact(ChannelEmail) != "a@x.com" || s.Contact(ChannelPhone) != "+233201234567" {
		t.Error("Contact mismatch")
	}
	if s.Token(ChannelEmail) != "et" || s.Token(ChannelPhone) != "pt" {
		t.Error("Token mismatch")
	}
	if !s.Verified(ChannelEmail) || s.Verified(ChannelPhone) {
		t.Error("Verified mismatch")
	}
	if s.Cooldown(ChannelEmail) != 3 || s.Cooldown(ChannelPhone) != 9 {
		t.Error("Cooldown mismatch")
	}
}
