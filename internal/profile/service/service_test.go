package service

import (
	"context"
	"errors"
	"testing"

	"kyc-onboarding/backend/internal/profile/repository"
)

const (
	addrA = "0xAbCdEf0123456789abcdef0123456789ABCDEF01"
	addrB = "0x2222222222222222222222222222222222222222"
)

type fakeWelcome struct {
	to  []string
	err error
}

func (f *fakeWelcome) SendWelcome(ctx context.Context, to string) error {
	if f.err != nil {
		return f.err
	}
	f.to = append(f.to, to)
	return nil
}

func TestCreate_NormalisesAndFinds(t *testing.T) {
	svc := NewProfileService(repository.NewMemoryRepository(), nil, nil, nil)
	ctx := context.Background()
	p, err := svc.Create(ctx, addrA, " A@X.com", "+49 (151) 12345678")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID == "" || p.Email != "a@x.com" || p.Phone != "+4915112345678" {
		t.Errorf("profile = %+v", p)
	}
	got, err := svc.FindByEmail(ctx, "A@x.COM")
	if err != nil || got == nil || got.ID != p.ID {
		t.Errorf("FindByEmail = %+v, %v", got, err)
	}
	got, err = svc.FindByPhone(ctx, "+49 151 12345678")
	if err != nil || got == nil || got.ID != p.ID {
		t.Errorf("FindByPhone = %+v, %v", got, err)
	}
	if got, _ := svc.FindByEmail(ctx, "  "); got != nil {
		t.Errorf("blank email = %+v, want nil", got)
	}
}

func TestCreate_UpdatesExistingAddress(t *testing.T) {
	svc := NewProfileService(repository.NewMemoryRepository(), nil, nil, nil)
	ctx := context.Background()
	first, err := svc.Create(ctx, addrA, "a@x.com", "+4915112345678")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	second, err := svc.Create(ctx, addrA, "new@x.com", "+4915112345678")
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("ID changed: %s -> %s", first.ID, second.ID)
	}
	if got, _ := svc.FindByEmail(ctx, "new@x.com"); got == nil {
		t.Error("updated email not found")
	}
}

func TestCreate_Errors(t *testing.T) {
	svc := NewProfileService(repository.NewMemoryRepository(), nil, nil, nil)
	ctx := context.Background()
	if _, err := svc.Create(ctx, addrA, "a@x.com", "+4915112345678"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	cases := []struct {
		address, email, phone string
		want                  error
	}{
		{addrB, "a@x.com", "+4915100000000", ErrDuplicateContact},
		{addrB, "b@x.com", "+4915112345678", ErrDuplicateContact},
		{"0x123", "b@x.com", "+4915100000000", ErrInvalidProfile},
		{addrB, "nope", "+4915100000000", ErrInvalidProfile},
		{addrB, "b@x.com", "0151", ErrInvalidProfile},
	}
	for _, tc := range cases {
		if _, err := svc.Create(ctx, tc.address, tc.email, tc.phone); !errors.Is(err, tc.want) {
			t.Errorf("Create(%q, %q, %q) err = %v, want %v", tc.address, tc.email, tc.phone, err, tc.want)
		}
	}
}

func TestSendWelcome(t *testing.T) {
	w := &fakeWelcome{}
	svc := NewProfileService(repository.NewMemoryRepository(), w, nil, nil)
	ctx := context.Background()
	if err := svc.SendWelcome(ctx, "A@x.com"); err != nil {
		t.Fatalf("SendWelcome: %v", err)
	}
	if len(w.to) != 1 || w.to[0] != "a@x.com" {
		t.Errorf("sent to %v", w.to)
	}
	if err := svc.SendWelcome(ctx, "bad"); !errors.Is(err, ErrInvalidProfile) {
		t.Errorf("invalid email err = %v", err)
	}
	w.err = errors.New("smtp down")
	if err := svc.SendWelcome(ctx, "a@x.com"); err == nil {
		t.Error("expected sender error")
	}
	if err := NewProfileService(repository.NewMemoryRepository(), nil, nil, nil).SendWelcome(ctx, "a@x.com"); err != nil {
		t.Errorf("nil mailer should be a no-op: %v", err)
	}
}
