package verification

import "testing"

func TestGenerateOTP_ReturnsSixDigits(t *testing.T) {
	otp, err := GenerateOTP()
	if err != nil {
		t.Fatalf("GenerateOTP: %v", err)
	}
	if !ValidCodeFormat(otp) {
		t.Errorf("GenerateOTP = %q, want six digits", otp)
	}
}

func TestGenerateOTP_Varies(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		otp, err := GenerateOTP()
		if err != nil {
			t.Fatalf("GenerateOTP: %v", err)
		}
		seen[otp] = true
	}
	if len(seen) < 45 {
		t.Errorf("only %d distinct codes out of 50", len(seen))
	}
}

func TestHashOTP(t *testing.T) {
	h1, h2 := HashOTP("123456"), HashOTP("123456")
	if h1 != h2 {
		t.Error("HashOTP not deterministic")
	}
	if len(h1) != 64 {
		t.Errorf("hash length = %d, want 64", len(h1))
	}
	if HashOTP("654321") == h1 {
		t.Error("different codes produced the same hash")
	}
}

func TestOTPEqual(t *testing.T) {
	stored := HashOTP("123456")
	tests := []struct {
		name string
		code string
		hash string
		want bool
	}{
		{"match", "123456", stored, true},
		{"wrong code", "654321", stored, false},
		{"empty code", "", HashOTP(""), false},
		{"longer hash", "123456", "a" + stored, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := OTPEqual(tc.code, tc.hash); got != tc.want {
				t.Errorf("OTPEqual = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestValidCodeFormat(t *testing.T) {
	tests := map[string]bool{
		"123456":  true,
		"000000":  true,
		"12345":   false,
		"1234567": false,
		"12a456":  false,
		"":        false,
		"12 456":  false,
	}
	for code, want := range tests {
		if got := ValidCodeFormat(code); got != want {
			t.Errorf("ValidCodeFormat(%q) = %v, want %v", code, got, want)
		}
	}
}
