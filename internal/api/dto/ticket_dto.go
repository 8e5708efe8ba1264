package dto

import (
	"time"

	"github.com/spec-kit/counsellor-desk/internal/domain"
)

// TicketSummary response.
type TicketSummary struct {
	ID           string                `json:"id"`
	TicketNumber string                `json:"ticket_number"`
	UserID       string                `json:"user_id"`
	Category     domain.TicketCategory `json:"category"`
	Status       domain.TicketStatus   `json:"status"`
	MessageCount int                   `json:"message_count"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	ResolvedAt   *time.Time            `json:"resolved_at,omitempty"`
	ResolvedBy   *string               `json:"resolved_by,omitempty"`
}

// TicketStatsResponse aggregates dashboard counters.
type TicketStatsResponse struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Resolved   int `json:"resolved"`
	Queries    int `json:"queries"`
	Concerns   int `json:"concerns"`
}

// TicketListResponse wraps the listing with stats.
type TicketListResponse struct {
	Tickets []TicketSummary     `json:"tickets"`
	Stats   TicketStatsResponse `json:"stats"`
}

// UserResponse is the conversation owner in a ticket detail.
type UserResponse struct {
	ID            string     `json:"id"`
	PhoneNumber   string     `json:"phone_number"`
	Name          *string    `json:"name,omitempty"`
	Email         *string    `json:"email,omitempty"`
	LastInboundAt *time.Time `json:"last_inbound_at,omitempty"`
}

// MessageResponse is one thread entry.
type MessageResponse struct {
	ID             string                  `json:"id"`
	Direction      domain.MessageDirection `json:"direction"`
	Body           string                  `json:"body"`
	MediaURL       *string                 `json:"media_url,omitempty"`
	MediaFilename  *string                 `json:"media_filename,omitempty"`
	SenderLabel    *string                 `json:"sender_label,omitempty"`
	DeliveryStatus *domain.DeliveryStatus  `json:"delivery_status,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
}

// WindowStatusResponse is the reply window state in a ticket detail.
type WindowStatusResponse struct {
	Active         bool `json:"active"`
	HoursRemaining int  `json:"hours_remaining"`
}

// TicketDetailResponse composes ticket, owner, window, and thread.
type TicketDetailResponse struct {
	Ticket   TicketSummary        `json:"ticket"`
	User     UserResponse         `json:"user"`
	Window   WindowStatusResponse `json:"window"`
	Messages []MessageResponse    `json:"messages"`
}

// SendReplyRequest payload.
type SendReplyRequest struct {
	Text string `json:"text"`
}

// SetStatusRequest payload.
type SetStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}
