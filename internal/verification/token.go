package verification

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

const tokenKeyInfo = "kyc-onboarding challenge token v1"

// ErrInvalidToken is returned when a challenge token is malformed, badly signed, expired or for another channel.
var ErrInvalidToken = errors.New("invalid challenge token")

// ChallengeClaims are the claims of a challenge token. The token ID (jti) is the challenge ID.
type ChallengeClaims struct {
	jwt.RegisteredClaims
	Channel string `json:"chn"`
}

// TokenSigner issues and validates challenge tokens with HS256.
type TokenSigner struct {
	secret []byte
	issuer string
	nowF   func() time.Time
}

// NewTokenSigner returns a signer keyed by an HKDF-SHA256 derivation of secret, so the
// configured secret is never used as a MAC key directly. secret must not be empty.
func NewTokenSigner(secret []byte, issuer string) (*TokenSigner, error) {
	if len(secret) == 0 {
		return nil, errors.New("verification: token secret is empty")
	}
	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(tokenKeyInfo)), key); err != nil {
		return nil, fmt.Errorf("verification: derive token key: %w", err)
	}
	return &TokenSigner{secret: key, issuer: issuer, nowF: time.Now}, nil
}

// Issue returns a token naming challengeID on channel, valid until expiresAt.
func (s *TokenSigner) Issue(challengeID, channel string, expiresAt time.Time) (string, error) {
	now := s.nowF().UTC()
	claims := ChallengeClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        challengeID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Channel: channel,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse validates token for channel and returns the challenge ID it names.
func (s *TokenSigner) Parse(token, channel string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}
	claims := &ChallengeClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.nowF),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return "", ErrInvalidToken
	}
	if claims.ID == "" || claims.Channel != channel {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}
