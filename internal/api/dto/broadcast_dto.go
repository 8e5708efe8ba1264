package dto

import (
	"time"

	"github.com/spec-kit/counsellor-desk/internal/domain"
)

// BroadcastResponse is one ledger entry.
type BroadcastResponse struct {
	ID             string                         `json:"id"`
	Phone          string                         `json:"phone"`
	Body           string                         `json:"body"`
	SentAt         time.Time                      `json:"sent_at"`
	DeliveryStatus domain.BroadcastDeliveryStatus `json:"delivery_status"`
	FailureReason  *string                        `json:"failure_reason,omitempty"`
	ManuallySentBy *string                        `json:"manually_sent_by,omitempty"`
	ManuallySentAt *time.Time                     `json:"manually_sent_at,omitempty"`
}
