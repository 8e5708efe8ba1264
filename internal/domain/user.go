package domain

import "time"

// CounsellorQueryStatus tracks the legacy phone-keyed "please call me" queue.
type CounsellorQueryStatus string

const (
	QueryStatusPending  CounsellorQueryStatus = "pending"
	QueryStatusResolved CounsellorQueryStatus = "resolved"
)

// User is the identity anchor for conversations. LastInboundAt is the latest
// inbound message timestamp across all of the user's tickets and drives the
// 24-hour session window. The counsellor query fields predate the ticket
// system and are kept independent of it.
type User struct {
	ID                    string
	PhoneNumber           string
	Name                  *string
	Email                 *string
	LastInboundAt         *time.Time
	CounsellorQuery       *string
	CounsellorQueryStatus *CounsellorQueryStatus
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
