// Package console drives a wizard.Wizard from line-oriented terminal input.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"kyc-onboarding/backend/internal/onboarding/domain"
	"kyc-onboarding/backend/internal/onboarding/wizard"
	profiledomain "kyc-onboarding/backend/internal/profile/domain"
)

// Commands accepted at a code prompt in addition to a six-digit code.
const (
	CmdAnother = "another"
	CmdResend  = "resend"
	CmdQuit    = "quit"
)

// DevOTPReader reads back an issued code in dev OTP mode.
type DevOTPReader interface {
	DevOTP(ctx context.Context, channel, token string) (string, error)
}

// Console prompts on out and reads answers from in.
type Console struct {
	out   io.Writer
	lines <-chan string
	dev   DevOTPReader
}

// New returns a console. dev may be nil; when set, issued codes are printed after each send.
func New(in io.Reader, out io.Writer, dev DevOTPReader) *Console {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- strings.TrimSpace(sc.Text())
		}
	}()
	return &Console{out: out, lines: lines, dev: dev}
}

// Notifier prints notices on the console output.
func (c *Console) Notifier() wizard.Notifier {
	return wizard.NotifierFunc(func(n wizard.Notice) {
		fmt.Fprintf(c.out, "[%s] %s: %s\n", n.Level, n.Title, n.Description)
	})
}

// Run walks w until Done or until it cannot continue. End of input and quit return io.EOF;
// a contact already linked to the account returns wizard.ErrContactLocked.
func (c *Console) Run(ctx context.Context, w *wizard.Wizard) (*profiledomain.Profile, error) {
	for {
		ctl := w.Controls()
		fmt.Fprintf(c.out, "Step %d of 3: %s\n", ctl.Step.Number(), ctl.Step)
		var (
			p   *profiledomain.Profile
			err error
		)
		switch ctl.Step {
		case domain.StepEmailEntry, domain.StepPhoneEntry:
			err = c.contact(ctx, w, ctl)
		case domain.StepEmailCodeEntry, domain.StepPhoneCodeEntry:
			err = c.code(ctx, w, ctl)
		case domain.StepTerms:
			p, err = c.terms(ctx, w)
			if err == nil && p != nil {
				fmt.Fprintf(c.out, "Profile %s linked to %s\n", p.ID, p.Address)
				return p, nil
			}
		default:
			return nil, nil
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) || errors.Is(err, wizard.ErrClosed) || errors.Is(err, wizard.ErrContactLocked) || ctx.Err() != nil {
			return nil, err
		}
		// Outcome errors were already shown as notices; guards are printed here.
		if isGuard(err) {
			fmt.Fprintln(c.out, "!", err)
		}
	}
}

func (c *Console) contact(ctx context.Context, w *wizard.Wizard, ctl wizard.Controls) error {
	if !ctl.ContactInputEnabled {
		return fmt.Errorf("%w: %s", wizard.ErrContactLocked, ctl.Channel)
	}
	label := "Email"
	if ctl.Channel == domain.ChannelPhone {
		label = "Phone (E.164, e.g. +14155550100)"
	}
	v, err := c.ask(ctx, label+": ")
	if err != nil {
		return err
	}
	return c.send(ctx, w, ctl.Channel, v)
}

func (c *Console) send(ctx context.Context, w *wizard.Wizard, ch domain.Channel, v string) error {
	var err error
	if ch == domain.ChannelPhone {
		err = w.SubmitPhone(ctx, v)
	} else {
		err = w.SubmitEmail(ctx, v)
	}
	if err != nil {
		return err
	}
	c.showDevCode(ctx, ch, w.State().Token(ch))
	return nil
}

func (c *Console) code(ctx context.Context, w *wizard.Wizard, ctl wizard.Controls) error {
	prompt := fmt.Sprintf("Code (or %q / %q): ", CmdAnother, CmdResend)
	if ctl.CooldownSeconds > 0 {
		prompt = fmt.Sprintf("Code (resend in %ds): ", ctl.CooldownSeconds)
	}
	v, err := c.ask(ctx, prompt)
	if err != nil {
		return err
	}
	switch strings.ToLower(v) {
	case CmdAnother:
		if ctl.Channel == domain.ChannelPhone {
			return w.TryAnotherPhone()
		}
		return w.TryAnotherEmail()
	case CmdResend:
		return c.send(ctx, w, ctl.Channel, w.State().Contact(ctl.Channel))
	}
	if !wizard.CodeSubmittable(v) {
		return wizard.ErrMalformedCode
	}
	if ctl.Channel == domain.ChannelPhone {
		return w.SubmitPhoneCode(ctx, v)
	}
	return w.SubmitEmailCode(ctx, v)
}

func (c *Console) terms(ctx context.Context, w *wizard.Wizard) (*profiledomain.Profile, error) {
	v, err := c.ask(ctx, "I agree to the terms and conditions [y/N]: ")
	if err != nil {
		return nil, err
	}
	accepted := strings.EqualFold(v, "y") || strings.EqualFold(v, "yes")
	return w.SubmitTerms(ctx, accepted)
}

func (c *Console) ask(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-c.lines:
		if !ok || strings.EqualFold(line, CmdQuit) {
			return "", io.EOF
		}
		return line, nil
	}
}

func (c *Console) showDevCode(ctx context.Context, ch domain.Channel, token string) {
	if c.dev == nil || token == "" {
		return
	}
	code, err := c.dev.DevOTP(ctx, string(ch), token)
	if err != nil {
		fmt.Fprintln(c.out, "! dev code unavailable:", err)
		return
	}
	fmt.Fprintf(c.out, "(dev) %s code: %s\n", ch, code)
}

func isGuard(err error) bool {
	for _, g := range []error{
		wizard.ErrWrongStep, wizard.ErrCooldownActive, wizard.ErrBusy, wizard.ErrMalformedCode,
		wizard.ErrInvalidContact,
	} {
		if errors.Is(err, g) {
			return true
		}
	}
	return false
}
