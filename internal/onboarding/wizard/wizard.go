// Package wizard implements the contact onboarding wizard: email verification, phone
// verification and terms acceptance, as a state machine over domain.WizardState.
//
// Every external effect goes through Services. Failures never propagate as state: each
// operation either commits its transition or leaves the state as it found it, reports a
// Notice, and returns an error the caller can test with errors.Is.
package wizard

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"kyc-onboarding/backend/internal/onboarding/cooldown"
	"kyc-onboarding/backend/internal/onboarding/domain"
	profiledomain "kyc-onboarding/backend/internal/profile/domain"
	"kyc-onboarding/backend/internal/verification"
)

type action int

const (
	actionSend action = iota
	actionVerify
	actionTerms
)

type busyKey struct {
	channel domain.Channel
	action  action
}

// Wizard is one onboarding run for an account address. Create with New, release with Close.
type Wizard struct {
	address  string
	existing *profiledomain.Profile
	svc      Services
	refresh  RefreshFunc
	notifier Notifier
	log      *zap.Logger

	cooldownSeconds int
	flows           map[domain.Channel]*flow

	// timerMu orders countdown starts/stops with Close so no countdown outlives the wizard.
	timerMu sync.Mutex

	mu     sync.Mutex
	state  domain.WizardState
	busy   map[busyKey]bool
	closed bool
}

// flow is the verification sub-flow for one channel.
type flow struct {
	channel   domain.Channel
	entry     domain.Step
	codeEntry domain.Step
	timer     *cooldown.Countdown
	notices   channelNotices
	normalize func(string) string
	valid     func(string) bool
	locked    func(p *profiledomain.Profile) bool
	lookup    func(ctx context.Context, contact string) (*profiledomain.Profile, error)
	request   func(ctx context.Context, contact string) (string, error)
	verify    func(ctx context.Context, token, code string) (bool, error)
}

type options struct {
	notifier        Notifier
	log             *zap.Logger
	cooldownSeconds int
	ticker          cooldown.TickerFunc
	onTick          func(ch domain.Channel, remaining int)
}

// Option configures a Wizard.
type Option func(*options)

// WithNotifier sets where notices are delivered. Default discards them.
func WithNotifier(n Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithCooldown sets the wait in seconds after a code is sent. Default cooldown.DefaultSeconds.
func WithCooldown(seconds int) Option {
	return func(o *options) { o.cooldownSeconds = seconds }
}

// WithTicker replaces the countdown ticker source.
func WithTicker(f cooldown.TickerFunc) Option {
	return func(o *options) { o.ticker = f }
}

// WithTickObserver receives every cooldown decrement. It runs on the countdown goroutine.
func WithTickObserver(fn func(ch domain.Channel, remaining int)) Option {
	return func(o *options) { o.onTick = fn }
}

// New returns a wizard for address in the EmailEntry step. existing is the account's current
// profile, if any; contacts it already carries cannot be re-linked. refresh may be nil.
func New(address string, existing *profiledomain.Profile, refresh RefreshFunc, svc Services, opts ...Option) (*Wizard, error) {
	if !profiledomain.ValidAddress(address) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	if svc == nil {
		return nil, fmt.Errorf("wizard: services are required")
	}
	o := options{
		notifier:        nopNotifier{},
		log:             zap.NewNop(),
		cooldownSeconds: cooldown.DefaultSeconds,
		ticker:          cooldown.NewRealTicker,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if refresh == nil {
		refresh = func(context.Context) {}
	}
	w := &Wizard{
		address:         address,
		existing:        existing,
		svc:             svc,
		refresh:         refresh,
		notifier:        o.notifier,
		log:             o.log.With(zap.String("address", address)),
		cooldownSeconds: o.cooldownSeconds,
		busy:            make(map[busyKey]bool),
	}
	newTimer := func(ch domain.Channel) *cooldown.Countdown {
		copts := []cooldown.Option{cooldown.WithTicker(o.ticker)}
		if o.onTick != nil {
			copts = append(copts, cooldown.WithObserver(func(r int) { o.onTick(ch, r) }))
		}
		return cooldown.New(copts...)
	}
	w.flows = map[domain.Channel]*flow{
		domain.ChannelEmail: {
			channel:   domain.ChannelEmail,
			entry:     domain.StepEmailEntry,
			codeEntry: domain.StepEmailCodeEntry,
			timer:     newTimer(domain.ChannelEmail),
			notices:   noticesByChannel[domain.ChannelEmail],
			normalize: profiledomain.NormalizeEmail,
			valid:     profiledomain.ValidEmail,
			locked:    func(p *profiledomain.Profile) bool { return p != nil && p.Email != "" },
			lookup:    svc.FindProfileByEmail,
			request:   svc.RequestEmailCode,
			verify:    svc.VerifyEmailCode,
		},
		domain.ChannelPhone: {
			channel:   domain.ChannelPhone,
			entry:     domain.StepPhoneEntry,
			codeEntry: domain.StepPhoneCodeEntry,
			timer:     newTimer(domain.ChannelPhone),
			notices:   noticesByChannel[domain.ChannelPhone],
			normalize: profiledomain.NormalizePhone,
			valid:     profiledomain.ValidPhone,
			locked:    func(p *profiledomain.Profile) bool { return p != nil && p.Phone != "" },
			lookup:    svc.FindProfileByPhone,
			request:   svc.RequestPhoneCode,
			verify:    svc.VerifyPhoneCode,
		},
	}
	return w, nil
}

// Address returns the account address the wizard links contacts to.
func (w *Wizard) Address() string { return w.address }

// State returns a snapshot of the wizard state with current cooldowns.
func (w *Wizard) State() domain.WizardState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// Step returns the current step.
func (w *Wizard) Step() domain.Step {
	return w.State().Step()
}

func (w *Wizard) snapshotLocked() domain.WizardState {
	s := w.state
	s.EmailCooldownSeconds = w.flows[domain.ChannelEmail].timer.Remaining()
	s.PhoneCooldownSeconds = w.flows[domain.ChannelPhone].timer.Remaining()
	return s
}

// SubmitEmail checks that email is not in use, requests a code for it and starts the cooldown.
func (w *Wizard) SubmitEmail(ctx context.Context, email string) error {
	return w.submitContact(ctx, w.flows[domain.ChannelEmail], email)
}

// SubmitEmailCode verifies the six-digit code against the pending email token.
func (w *Wizard) SubmitEmailCode(ctx context.Context, code string) error {
	return w.submitCode(ctx, w.flows[domain.ChannelEmail], code)
}

// TryAnotherEmail discards the captured email and its token, returning to EmailEntry.
// It is rejected with ErrCooldownActive until the email cooldown has run out.
func (w *Wizard) TryAnotherEmail() error {
	return w.tryAnother(w.flows[domain.ChannelEmail])
}

// SubmitPhone checks that phone is not in use, requests a code for it and starts the cooldown.
func (w *Wizard) SubmitPhone(ctx context.Context, phone string) error {
	return w.submitContact(ctx, w.flows[domain.ChannelPhone], phone)
}

// SubmitPhoneCode verifies the six-digit code against the pending phone token.
func (w *Wizard) SubmitPhoneCode(ctx context.Context, code string) error {
	return w.submitCode(ctx, w.flows[domain.ChannelPhone], code)
}

// TryAnotherPhone discards the captured phone and its token, returning to PhoneEntry.
// It is rejected with ErrCooldownActive until the phone cooldown has run out.
func (w *Wizard) TryAnotherPhone() error {
	return w.tryAnother(w.flows[domain.ChannelPhone])
}

func (w *Wizard) submitContact(ctx context.Context, f *flow, raw string) error {
	contact := f.normalize(raw)
	key := busyKey{f.channel, actionSend}

	w.mu.Lock()
	if err := w.checkStepLocked(f.entry, f.codeEntry); err != nil {
		w.mu.Unlock()
		return err
	}
	switch {
	case f.locked(w.existing):
		w.mu.Unlock()
		return ErrContactLocked
	case f.timer.Running():
		w.mu.Unlock()
		return ErrCooldownActive
	case !f.valid(contact):
		w.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrInvalidContact, f.channel)
	case w.busy[key]:
		w.mu.Unlock()
		return ErrBusy
	}
	w.busy[key] = true
	w.mu.Unlock()
	defer w.clearBusy(key)

	log := w.log.With(zap.String("channel", string(f.channel)))

	owner, err := f.lookup(ctx, contact)
	if err != nil {
		log.Warn("profile lookup failed", zap.Error(err))
		w.notify(f.notices.sendFailed)
		return fmt.Errorf("%w: lookup %s: %v", ErrSendFailed, f.channel, err)
	}
	if owner != nil {
		log.Info("contact already in use")
		w.notify(f.notices.duplicate)
		return ErrDuplicateContact
	}

	token, err := f.request(ctx, contact)
	if err != nil {
		log.Warn("code request failed", zap.Error(err))
		w.notify(f.notices.sendFailed)
		return fmt.Errorf("%w: %s: %v", ErrSendFailed, f.channel, err)
	}
	if token == "" {
		log.Warn("code request returned no token")
		w.notify(f.notices.sendFailed)
		return fmt.Errorf("%w: %s: no token issued", ErrSendFailed, f.channel)
	}

	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	w.mu.Lock()
	if err := w.checkStepLocked(f.entry, f.codeEntry); err != nil {
		// Closed, or the channel was verified by a code checked meanwhile.
		w.mu.Unlock()
		return err
	}
	w.mu.Unlock()

	f.timer.Start(w.cooldownSeconds)

	w.mu.Lock()
	w.setPendingLocked(f.channel, contact, token)
	w.mu.Unlock()

	log.Info("verification code requested")
	w.notify(f.notices.sent)
	return nil
}

func (w *Wizard) submitCode(ctx context.Context, f *flow, code string) error {
	key := busyKey{f.channel, actionVerify}

	w.mu.Lock()
	if err := w.checkStepLocked(f.codeEntry); err != nil {
		w.mu.Unlock()
		return err
	}
	if !verification.ValidCodeFormat(code) {
		w.mu.Unlock()
		return ErrMalformedCode
	}
	if w.busy[key] {
		w.mu.Unlock()
		return ErrBusy
	}
	token := w.state.Token(f.channel)
	w.busy[key] = true
	w.mu.Unlock()
	defer w.clearBusy(key)

	log := w.log.With(zap.String("channel", string(f.channel)))

	ok, err := f.verify(ctx, token, code)
	if err != nil {
		log.Warn("code verification failed", zap.Error(err))
		w.notify(f.notices.verifyFailed)
		return fmt.Errorf("%w: %v", ErrInvalidOrExpiredCode, err)
	}
	if !ok {
		log.Info("code rejected")
		w.notify(f.notices.verifyFailed)
		return ErrInvalidOrExpiredCode
	}

	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	if w.state.Token(f.channel) != token {
		// A new code was requested while this one was being checked.
		w.mu.Unlock()
		w.notify(f.notices.verifyFailed)
		return fmt.Errorf("%w: superseded by a newer code", ErrInvalidOrExpiredCode)
	}
	w.setVerifiedLocked(f.channel)
	w.mu.Unlock()
	f.timer.Stop()

	log.Info("contact verified")
	w.notify(f.notices.verified)
	return nil
}

func (w *Wizard) tryAnother(f *flow) error {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	w.mu.Lock()
	if err := w.checkStepLocked(f.entry, f.codeEntry); err != nil {
		w.mu.Unlock()
		return err
	}
	if w.busy[busyKey{f.channel, actionSend}] || w.busy[busyKey{f.channel, actionVerify}] {
		w.mu.Unlock()
		return ErrBusy
	}
	if f.timer.Running() {
		w.mu.Unlock()
		return ErrCooldownActive
	}
	w.setPendingLocked(f.channel, "", "")
	w.mu.Unlock()

	f.timer.Stop()
	w.log.Debug("contact reset", zap.String("channel", string(f.channel)))
	return nil
}

// SubmitTerms completes the flow. accepted=false is rejected with ErrTermsNotAccepted.
// On acceptance the welcome notification is sent, the profile created, the caller's refresh
// invoked once, and the wizard moves to Done.
func (w *Wizard) SubmitTerms(ctx context.Context, accepted bool) (*profiledomain.Profile, error) {
	key := busyKey{action: actionTerms}

	w.mu.Lock()
	if err := w.checkStepLocked(domain.StepTerms); err != nil {
		w.mu.Unlock()
		return nil, err
	}
	if w.busy[key] {
		w.mu.Unlock()
		return nil, ErrBusy
	}
	if !accepted {
		w.mu.Unlock()
		w.notify(noticeTermsRequired)
		return nil, ErrTermsNotAccepted
	}
	email, phone := w.state.Email, w.state.Phone
	w.busy[key] = true
	w.mu.Unlock()
	defer w.clearBusy(key)

	if err := w.svc.SendWelcomeNotification(ctx, email); err != nil {
		w.log.Warn("welcome notification failed", zap.Error(err))
		w.notify(noticeTermsFailed)
		return nil, fmt.Errorf("%w: welcome notification: %v", ErrSendFailed, err)
	}

	p, err := w.svc.CreateProfile(ctx, w.address, email, phone)
	if err != nil {
		w.log.Warn("create profile failed", zap.Error(err))
		w.notify(noticeSaveFailed)
		return nil, fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	if p == nil {
		w.log.Warn("create profile returned no profile")
		w.notify(noticeSaveFailed)
		return nil, ErrPersistFailed
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, ErrClosed
	}
	w.state.Completed = true
	w.mu.Unlock()

	w.refresh(ctx)

	w.log.Info("onboarding completed", zap.String("profile_id", p.ID))
	w.notify(noticeSaved)
	return p, nil
}

// Close stops both countdowns. Subsequent operations return ErrClosed; results of calls still
// in flight are discarded. Safe to call more than once.
func (w *Wizard) Close() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	for _, f := range w.flows {
		f.timer.Stop()
	}
}

func (w *Wizard) checkStepLocked(allowed ...domain.Step) error {
	if w.closed {
		return ErrClosed
	}
	step := domain.StepOf(w.state)
	for _, s := range allowed {
		if s == step {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrWrongStep, step)
}

func (w *Wizard) setPendingLocked(ch domain.Channel, contact, token string) {
	if ch == domain.ChannelPhone {
		w.state.Phone, w.state.PhoneToken = contact, token
		return
	}
	w.state.Email, w.state.EmailToken = contact, token
}

// setVerifiedLocked marks ch verified; the token is consumed.
func (w *Wizard) setVerifiedLocked(ch domain.Channel) {
	if ch == domain.ChannelPhone {
		w.state.PhoneVerified, w.state.PhoneToken = true, ""
		return
	}
	w.state.EmailVerified, w.state.EmailToken = true, ""
}

func (w *Wizard) clearBusy(key busyKey) {
	w.mu.Lock()
	delete(w.busy, key)
	w.mu.Unlock()
}

func (w *Wizard) notify(n Notice) {
	w.notifier.Notify(n)
}
