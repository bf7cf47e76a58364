package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"kyc-onboarding/backend/internal/devotp"
	"kyc-onboarding/backend/internal/verification"
	"kyc-onboarding/backend/internal/verification/domain"
	"kyc-onboarding/backend/internal/verification/repository"
)

type fakeEmail struct {
	to, code string
	err      error
}

func (f *fakeEmail) SendVerificationCode(ctx context.Context, to, code string) error {
	if f.err != nil {
		return f.err
	}
	f.to, f.code = to, code
	return nil
}

type fakeSMS struct {
	phone, otp string
}

func (f *fakeSMS) SendOTP(ctx context.Context, phone, otp string) error {
	f.phone, f.otp = phone, otp
	return nil
}

type fixture struct {
	svc   *Service
	repo  *repository.MemoryRepository
	email *fakeEmail
	sms   *fakeSMS
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	signer, err := verification.NewTokenSigner([]byte("test-secret"), "kyc-test")
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}
	f := &fixture{repo: repository.NewMemoryRepository(), email: &fakeEmail{}, sms: &fakeSMS{}}
	f.svc = NewService(f.repo, signer, Config{}, Deps{Email: f.email, SMS: f.sms})
	return f
}

func wrongCode(code string) string {
	if code == "000000" {
		return "000001"
	}
	return "000000"
}

func TestRequestAndVerify_Email(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token, err := f.svc.RequestCode(ctx, "email", "  A@X.com ")
	if err != nil {
		t.Fatalf("RequestCode: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}
	if f.email.to != "a@x.com" {
		t.Errorf("delivered to %q, want normalised a@x.com", f.email.to)
	}
	if !verification.ValidCodeFormat(f.email.code) {
		t.Errorf("delivered code %q is not six digits", f.email.code)
	}
	ok, err := f.svc.VerifyCode(ctx, "email", token, f.email.code)
	if err != nil || !ok {
		t.Fatalf("VerifyCode = %v, %v; want true", ok, err)
	}
	ok, err = f.svc.VerifyCode(ctx, "email", token, f.email.code)
	if err != nil || ok {
		t.Errorf("second VerifyCode = %v, %v; want false (consumed)", ok, err)
	}
}

func TestRequestAndVerify_Phone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token, err := f.svc.RequestCode(ctx, "phone", "+49 151 1234-5678")
	if err != nil {
		t.Fatalf("RequestCode: %v", err)
	}
	if f.sms.phone != "+4915112345678" {
		t.Errorf("phone = %q", f.sms.phone)
	}
	if ok, _ := f.svc.VerifyCode(ctx, "email", token, f.sms.otp); ok {
		t.Error("phone token must not verify on the email channel")
	}
	if ok, err := f.svc.VerifyCode(ctx, "phone", token, f.sms.otp); err != nil || !ok {
		t.Errorf("VerifyCode = %v, %v", ok, err)
	}
}

func TestVerify_WrongCodeCountsAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token, err := f.svc.RequestCode(ctx, "email", "a@x.com")
	if err != nil {
		t.Fatalf("RequestCode: %v", err)
	}
	bad := wrongCode(f.email.code)
	ok, err := f.svc.VerifyCode(ctx, "email", token, bad)
	if err != nil || ok {
		t.Fatalf("wrong code = %v, %v", ok, err)
	}
	// A retry without a new code still works.
	if ok, _ := f.svc.VerifyCode(ctx, "email", token, f.email.code); !ok {
		t.Error("correct code after one wrong attempt should verify")
	}
}

func TestVerify_ExhaustedAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token, _ := f.svc.RequestCode(ctx, "email", "a@x.com")
	bad := wrongCode(f.email.code)
	for i := 0; i < DefaultMaxAttempts; i++ {
		if ok, _ := f.svc.VerifyCode(ctx, "email", token, bad); ok {
			t.Fatal("wrong code verified")
		}
	}
	if ok, _ := f.svc.VerifyCode(ctx, "email", token, f.email.code); ok {
		t.Error("correct code must fail once attempts are exhausted")
	}
}

// barrierRepo holds every GetByID until n callers have arrived, so all of them read the
// challenge before any attempt is counted.
type barrierRepo struct {
	*repository.MemoryRepository
	mu      sync.Mutex
	n       int
	release chan struct{}
}

func (b *barrierRepo) GetByID(ctx context.Context, id string) (*domain.Challenge, error) {
	c, err := b.MemoryRepository.GetByID(ctx, id)
	b.mu.Lock()
	b.n--
	if b.n == 0 {
		close(b.release)
	}
	b.mu.Unlock()
	<-b.release
	return c, err
}

func TestVerify_ConcurrentGuessesBoundedByMaxAttempts(t *testing.T) {
	const guesses = 20
	signer, err := verification.NewTokenSigner([]byte("test-secret"), "kyc-test")
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}
	mem := repository.NewMemoryRepository()
	email := &fakeEmail{}
	ctx := context.Background()
	token, err := NewService(mem, signer, Config{}, Deps{Email: email}).RequestCode(ctx, "email", "a@x.com")
	if err != nil {
		t.Fatalf("RequestCode: %v", err)
	}

	repo := &barrierRepo{MemoryRepository: mem, n: guesses, release: make(chan struct{})}
	svc := NewService(repo, signer, Config{}, Deps{Email: email})
	bad := wrongCode(email.code)
	var wg sync.WaitGroup
	for i := 0; i < guesses; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := svc.VerifyCode(ctx, "email", token, bad); err != nil || ok {
				t.Errorf("VerifyCode = %v, %v; want false, nil", ok, err)
			}
		}()
	}
	wg.Wait()

	id, err := signer.Parse(token, "email")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	c, _ := mem.GetByID(ctx, id)
	if c.Attempts != DefaultMaxAttempts {
		t.Errorf("attempts recorded = %d, want %d", c.Attempts, DefaultMaxAttempts)
	}
	if ok, _ := NewService(mem, signer, Config{}, Deps{Email: email}).VerifyCode(ctx, "email", token, email.code); ok {
		t.Error("correct code must fail once attempts are exhausted")
	}
}

func TestVerify_Expired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token, _ := f.svc.RequestCode(ctx, "email", "a@x.com")
	f.svc.nowF = func() time.Time { return time.Now().UTC().Add(DefaultTTL + time.Second) }
	if ok, err := f.svc.VerifyCode(ctx, "email", token, f.email.code); err != nil || ok {
		t.Errorf("expired VerifyCode = %v, %v", ok, err)
	}
}

func TestVerify_MalformedCodeOrToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token, _ := f.svc.RequestCode(ctx, "email", "a@x.com")
	for _, code := range []string{"", "12345", "1234567", "12a456"} {
		if ok, err := f.svc.VerifyCode(ctx, "email", token, code); ok || err != nil {
			t.Errorf("VerifyCode(%q) = %v, %v", code, ok, err)
		}
	}
	c, _ := f.repo.GetByID(ctx, mustParse(t, f.svc, token))
	if c.Attempts != 0 {
		t.Errorf("malformed codes counted %d attempts, want 0", c.Attempts)
	}
	if ok, err := f.svc.VerifyCode(ctx, "email", "not-a-token", f.email.code); ok || err != nil {
		t.Errorf("bad token = %v, %v", ok, err)
	}
}

func mustParse(t *testing.T, s *Service, token string) string {
	t.Helper()
	id, err := s.signer.Parse(token, "email")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return id
}

func TestRequestCode_Invalid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cases := []struct {
		channel, dest string
		want          error
	}{
		{"email", "not-an-email", ErrInvalidDestination},
		{"phone", "12345", ErrInvalidDestination},
		{"fax", "a@x.com", ErrInvalidChannel},
	}
	for _, tc := range cases {
		if _, err := f.svc.RequestCode(ctx, tc.channel, tc.dest); !errors.Is(err, tc.want) {
			t.Errorf("RequestCode(%q, %q) err = %v, want %v", tc.channel, tc.dest, err, tc.want)
		}
	}
}

func TestRequestCode_DeliveryFailureDropsChallenge(t *testing.T) {
	f := newFixture(t)
	f.email.err = errors.New("smtp down")
	f.svc.newID = func() string { return "fixed-id" }
	ctx := context.Background()
	if _, err := f.svc.RequestCode(ctx, "email", "a@x.com"); !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("err = %v, want ErrDeliveryFailed", err)
	}
	if c, _ := f.repo.GetByID(ctx, "fixed-id"); c != nil {
		t.Error("undelivered challenge should be deleted")
	}
}

func TestDevOTP(t *testing.T) {
	signer, _ := verification.NewTokenSigner([]byte("test-secret"), "kyc-test")
	store := devotp.NewMemoryStore()
	svc := NewService(repository.NewMemoryRepository(), signer, Config{}, Deps{DevStore: store})
	ctx := context.Background()

	token, err := svc.RequestCode(ctx, "phone", "+4915112345678")
	if err != nil {
		t.Fatalf("RequestCode: %v", err)
	}
	otp, err := svc.DevOTP(ctx, "phone", token)
	if err != nil {
		t.Fatalf("DevOTP: %v", err)
	}
	if ok, _ := svc.VerifyCode(ctx, "phone", token, otp); !ok {
		t.Fatal("dev OTP should verify")
	}
	if _, err := svc.DevOTP(ctx, "phone", token); !errors.Is(err, ErrDevOTPNotFound) {
		t.Errorf("after consume err = %v, want ErrDevOTPNotFound", err)
	}

	f := newFixture(t)
	if _, err := f.svc.DevOTP(ctx, "phone", token); !errors.Is(err, ErrDevOTPDisabled) {
		t.Errorf("err = %v, want ErrDevOTPDisabled", err)
	}
}
