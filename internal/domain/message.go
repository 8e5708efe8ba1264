package domain

import "time"

// MessageDirection indicates whether a message came from the user or went out
// to them.
type MessageDirection string

const (
	DirectionIncoming MessageDirection = "incoming"
	DirectionOutgoing MessageDirection = "outgoing"
)

// DeliveryStatus tracks transport acknowledgment for outgoing messages.
type DeliveryStatus string

const (
	DeliverySent      DeliveryStatus = "sent"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryRead      DeliveryStatus = "read"
	DeliveryFailed    DeliveryStatus = "failed"
)

// Message is one entry in a ticket thread. Immutable once created except for
// delivery status updates on outgoing messages. Seq breaks created_at ties in
// insertion order.
type Message struct {
	ID             string
	TicketID       string
	Seq            int64
	Direction      MessageDirection
	Body           string
	MediaURL       *string
	MediaFilename  *string
	SenderLabel    *string
	DeliveryStatus *DeliveryStatus
	CreatedAt      time.Time
}
