package domain

import "time"

// WebhookEvent logs one raw delivery from the messaging provider for
// debugging. Processed/ActionTaken record what the intake pipeline did with
// it.
type WebhookEvent struct {
	ID          string
	EventType   string
	PhoneNumber string
	Outgoing    bool
	RawPayload  string
	Processed   bool
	ActionTaken *string
	CreatedAt   time.Time
}
