package domain

import (
	"encoding/json"
	"time"
)

// Onboarding event types.
const (
	EventCodeRequested   = "code_requested"
	EventCodeVerified    = "code_verified"
	EventCodeRejected    = "code_rejected"
	EventDeliveryFailed  = "delivery_failed"
	EventProfileCreated  = "profile_created"
	EventWelcomeSent     = "welcome_sent"
	EventDuplicateLookup = "duplicate_contact"
	EventGRPCRequest     = "grpc_request"
)

// Event is one onboarding telemetry event. It is serialised as JSON for Kafka and Loki.
type Event struct {
	EventType string          `json:"eventType"`
	Source    string          `json:"source"`
	Channel   string          `json:"channel,omitempty"`
	Subject   string          `json:"subject,omitempty"` // challenge or profile ID; never a contact value or code
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewEvent returns an event stamped with the current UTC time.
func NewEvent(eventType, source, channel, subject string) *Event {
	return &Event{
		EventType: eventType,
		Source:    source,
		Channel:   channel,
		Subject:   subject,
		CreatedAt: time.Now().UTC(),
	}
}
