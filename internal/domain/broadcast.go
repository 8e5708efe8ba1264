package domain

import "time"

// BroadcastDeliveryStatus is the terminal delivery outcome of a broadcast
// attempt. Unlike session messages there is no intermediate state; the
// broadcast subsystem records the final result.
type BroadcastDeliveryStatus string

const (
	BroadcastDelivered BroadcastDeliveryStatus = "delivered"
	BroadcastFailed    BroadcastDeliveryStatus = "failed"
)

// BroadcastRecord is one outbound broadcast send attempt. Delivery facts are
// immutable; only the manual remediation fields move, and only from unset to
// set.
type BroadcastRecord struct {
	ID             string
	Phone          string
	Body           string
	SentAt         time.Time
	DeliveryStatus BroadcastDeliveryStatus
	FailureReason  *string
	ManuallySentBy *string
	ManuallySentAt *time.Time
}

// Remediated reports whether the record has been manually handled.
func (b *BroadcastRecord) Remediated() bool {
	return b.ManuallySentAt != nil
}
