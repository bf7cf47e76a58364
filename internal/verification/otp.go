// Package verification generates, hashes and checks one-time codes and signs the opaque
// tokens that name a pending code challenge.
package verification

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// CodeDigits is the length of every one-time code.
const CodeDigits = 6

// GenerateOTP returns a 6-digit numeric code (e.g. "042917") read from crypto/rand.
func GenerateOTP() (string, error) {
	b := make([]byte, CodeDigits)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := make([]byte, CodeDigits)
	for i := range CodeDigits {
		s[i] = '0' + (b[i] % 10)
	}
	return string(s), nil
}

// HashOTP returns the hex SHA-256 of the code. Only the hash is stored.
func HashOTP(otp string) string {
	h := sha256.Sum256([]byte(otp))
	return hex.EncodeToString(h[:])
}

// OTPEqual compares the hash of providedOTP with storedHash in constant time.
// An empty code never matches.
func OTPEqual(providedOTP, storedHash string) bool {
	if providedOTP == "" {
		return false
	}
	providedHash := HashOTP(providedOTP)
	return subtle.ConstantTimeCompare([]byte(providedHash), []byte(storedHash)) == 1
}

// ValidCodeFormat reports whether code is exactly six ASCII digits.
func ValidCodeFormat(code string) bool {
	if len(code) != CodeDigits {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
