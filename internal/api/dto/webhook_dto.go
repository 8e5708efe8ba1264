package dto

import "time"

// WebhookRequest mirrors the provider's webhook payload shape. A delivery is
// either an inbound/outbound message event or a delivery-status callback.
type WebhookRequest struct {
	EventID    string `json:"id"`
	EventType  string `json:"eventType"`
	WaID       string `json:"waId"`
	SenderName string `json:"senderName"`
	Owner      bool   `json:"owner"`
	Text       string `json:"text"`

	TicketID          *string    `json:"ticketId,omitempty"`
	Category          string     `json:"category,omitempty"`
	MediaURL          *string    `json:"mediaUrl,omitempty"`
	MediaFilename     *string    `json:"mediaFilename,omitempty"`
	Timestamp         *time.Time `json:"timestamp,omitempty"`
	CounsellorRequest bool       `json:"counsellorRequest,omitempty"`

	MessageID      string `json:"messageId,omitempty"`
	DeliveryStatus string `json:"deliveryStatus,omitempty"`
}

// WebhookEventResponse is one intake log entry.
type WebhookEventResponse struct {
	ID          string    `json:"id"`
	EventType   string    `json:"event_type"`
	PhoneNumber string    `json:"phone_number"`
	Outgoing    bool      `json:"is_outgoing"`
	Processed   bool      `json:"processed"`
	ActionTaken *string   `json:"action_taken,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse payload.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
}

// RegisterCounsellorRequest payload.
type RegisterCounsellorRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// CounsellorResponse payload.
type CounsellorResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
