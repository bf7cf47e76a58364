package domain

import (
	"testing"
	"time"
)

func TestChallenge_Usable(t *testing.T) {
	now := time.Now().UTC()
	consumed := now.Add(-time.Second)
	tests := []struct {
		name string
		c    *Challenge
		max  int
		want bool
	}{
		{"nil", nil, 5, false},
		{"fresh", &Challenge{ExpiresAt: now.Add(time.Minute)}, 5, true},
		{"expired", &Challenge{ExpiresAt: now.Add(-time.Minute)}, 5, false},
		{"expires now", &Challenge{ExpiresAt: now}, 5, false},
		{"consumed", &Challenge{ExpiresAt: now.Add(time.Minute), ConsumedAt: &consumed}, 5, false},
		{"attempts exhausted", &Challenge{ExpiresAt: now.Add(time.Minute), Attempts: 5}, 5, false},
		{"unlimited attempts", &Challenge{ExpiresAt: now.Add(time.Minute), Attempts: 50}, 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.c.Usable(now, tc.max); got != tc.want {
				t.Errorf("Usable = %v, want %v", got, tc.want)
			}
		})
	}
}
