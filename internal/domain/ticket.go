package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "pending"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
)

// TicketCategory separates plain questions from escalated concerns. Ticket
// numbers are monotonic per category.
type TicketCategory string

const (
	TicketCategoryQuery   TicketCategory = "query"
	TicketCategoryConcern TicketCategory = "concern"
)

// Ticket is the aggregate for one support case. MessageCount is maintained
// transactionally with thread appends and always equals the thread length.
type Ticket struct {
	ID           string
	TicketNumber string
	UserID       string
	Category     TicketCategory
	Status       TicketStatus
	MessageCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ResolvedAt   *time.Time
	ResolvedBy   *string
}

// TicketStats summarizes ticket counts for the list endpoint.
type TicketStats struct {
	Total      int
	Pending    int
	InProgress int
	Resolved   int
	Queries    int
	Concerns   int
}
