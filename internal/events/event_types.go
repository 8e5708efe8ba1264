package events

import (
	"time"

	"github.com/spec-kit/counsellor-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketOpened        EventType = "ticket_opened"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventInboundReceived     EventType = "inbound_received"
	EventReplyQueued         EventType = "reply_queued"
	EventBroadcastRemediated EventType = "broadcast_remediated"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketOpenedPayload payload.
type TicketOpenedPayload struct {
	TicketNumber string                `json:"ticket_number"`
	UserID       string                `json:"user_id"`
	Category     domain.TicketCategory `json:"category"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// InboundReceivedPayload payload.
type InboundReceivedPayload struct {
	MessageID string    `json:"message_id"`
	Phone     string    `json:"phone"`
	Timestamp time.Time `json:"timestamp"`
}

// ReplyQueuedPayload carries everything the delivery worker needs to hand the
// outgoing message to the transport collaborator.
type ReplyQueuedPayload struct {
	MessageID   string `json:"message_id"`
	Phone       string `json:"phone"`
	Body        string `json:"body"`
	SenderLabel string `json:"sender_label"`
}

// BroadcastRemediatedPayload payload.
type BroadcastRemediatedPayload struct {
	BroadcastID string `json:"broadcast_id"`
	Operator    string `json:"operator"`
}
