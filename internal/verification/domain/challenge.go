package domain

import "time"

// Challenge is a pending one-time code sent to a contact (stored in verification_challenges).
type Challenge struct {
	ID          string
	Channel     string // "email" or "phone"
	Destination string
	CodeHash    string
	Attempts    int
	ExpiresAt   time.Time
	ConsumedAt  *time.Time
	CreatedAt   time.Time
}

// Usable reports whether the challenge can still be answered at now.
func (c *Challenge) Usable(now time.Time, maxAttempts int) bool {
	if c == nil || c.ConsumedAt != nil {
		return false
	}
	if !c.ExpiresAt.After(now) {
		return false
	}
	return maxAttempts <= 0 || c.Attempts < maxAttempts
}

// Channels a challenge can be sent over.
const (
	ChannelEmail = "email"
	ChannelPhone = "phone"
)
