package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	emailPattern   = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phonePattern   = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)
)

// Profile is the KYC contact profile linked to an account address.
type Profile struct {
	ID        string
	Address   string // 0x-prefixed account address
	Email     string // lower-cased
	Phone     string // E.164
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate validates the profile for persistence. Returns an error describing the first validation failure.
func (p *Profile) Validate() error {
	if !ValidAddress(p.Address) {
		return errors.New("address must be a 0x-prefixed 40 hex digit account address")
	}
	if !ValidEmail(p.Email) {
		return errors.New("invalid email format")
	}
	if !ValidPhone(p.Phone) {
		return errors.New("phone must be in E.164 format")
	}
	return nil
}

// ValidAddress reports whether s is a 0x-prefixed 20-byte hex account address.
func ValidAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidPhone reports whether s is an E.164 phone number (e.g. +233201234567).
func ValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// NormalizeEmail trims and lower-cases an email so lookups and persistence agree.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizePhone trims whitespace and drops inner spaces, dashes and parentheses.
func NormalizePhone(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, s)
}
