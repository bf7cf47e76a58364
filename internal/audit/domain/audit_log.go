package domain

import "time"

// AuditLog is one recorded OnboardingService call.
type AuditLog struct {
	ID        string
	RequestID string
	Action    string
	Resource  string
	Status    string // gRPC status code name, e.g. "OK" or "AlreadyExists"
	IP        string
	Metadata  string
	CreatedAt time.Time
}
