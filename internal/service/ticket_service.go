package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/counsellor-desk/internal/domain"
	"github.com/spec-kit/counsellor-desk/internal/events"
	"github.com/spec-kit/counsellor-desk/internal/repository"
	"github.com/spec-kit/counsellor-desk/pkg/apperrors"
)

// TicketService owns ticket lifecycle and counsellor reply dispatch.
type TicketService struct {
	tickets    repository.TicketRepository
	messages   repository.MessageRepository
	users      repository.UserRepository
	locks      *TicketLocks
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	MessageRepo repository.MessageRepository
	UserRepo    repository.UserRepository
	Locks       *TicketLocks
	Dispatcher  events.Dispatcher
}

// TicketDetail composes everything the ticket view needs.
type TicketDetail struct {
	Ticket   *domain.Ticket
	User     *domain.User
	Window   domain.WindowStatus
	Messages []domain.Message
}

// TicketList is the dashboard listing with aggregate counters.
type TicketList struct {
	Tickets []domain.Ticket
	Stats   domain.TicketStats
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		messages:   deps.MessageRepo,
		users:      deps.UserRepo,
		locks:      deps.Locks,
		dispatcher: deps.Dispatcher,
	}
}

// SendReply validates and dispatches a counsellor reply on a ticket.
// Preconditions are checked in order, first failure wins: ticket exists,
// ticket not resolved, session window open, reply text non-empty. On success
// the outgoing message is appended with delivery status "sent", a pending
// ticket moves to in_progress, and a reply event is published for the
// delivery worker. The whole sequence runs under the per-ticket lock.
func (s *TicketService) SendReply(ctx context.Context, ticketID, text, counsellorID, senderLabel string) (*domain.Message, error) {
	unlock := s.locks.Lock(ticketID)
	defer unlock()

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapTicketErr(err, ticketID)
	}
	if ticket.Status == domain.TicketStatusResolved {
		return nil, apperrors.NewTicketClosed(ticketID)
	}

	user, err := s.users.GetByID(ctx, ticket.UserID)
	if err != nil {
		return nil, mapUserErr(err, ticket.UserID)
	}
	lastInbound, err := s.lastInbound(ctx, user)
	if err != nil {
		return nil, err
	}
	if !WindowStatus(lastInbound, time.Now()).Active {
		return nil, apperrors.NewWindowExpired(ticketID)
	}

	body := strings.TrimSpace(text)
	if body == "" {
		return nil, apperrors.NewEmptyMessage()
	}

	if senderLabel == "" {
		senderLabel = counsellorID
	}
	status := domain.DeliverySent
	msg := &domain.Message{
		TicketID:       ticket.ID,
		Direction:      domain.DirectionOutgoing,
		Body:           body,
		SenderLabel:    &senderLabel,
		DeliveryStatus: &status,
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		return nil, mapTicketErr(err, ticketID)
	}

	if ticket.Status == domain.TicketStatusPending {
		ticket.Status = domain.TicketStatusInProgress
		if err := s.tickets.UpdateStatus(ctx, ticket); err != nil {
			return nil, mapTicketErr(err, ticketID)
		}
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventReplyQueued,
		TicketID: ticket.ID,
		ActorID:  counsellorID,
		Payload: events.ReplyQueuedPayload{
			MessageID:   msg.ID,
			Phone:       user.PhoneNumber,
			Body:        body,
			SenderLabel: senderLabel,
		},
	})
	return msg, nil
}

// SetStatus applies an explicit status transition by a counsellor. Setting the
// current status again is a no-op success. Entering resolved stamps
// resolved_at/resolved_by; leaving resolved clears both.
func (s *TicketService) SetStatus(ctx context.Context, ticketID string, next domain.TicketStatus, actorID string) (*domain.Ticket, error) {
	switch next {
	case domain.TicketStatusPending, domain.TicketStatusInProgress, domain.TicketStatusResolved:
	default:
		return nil, apperrors.NewValidationError("unknown ticket status", map[string]any{"status": string(next)})
	}

	unlock := s.locks.Lock(ticketID)
	defer unlock()

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapTicketErr(err, ticketID)
	}
	if ticket.Status == next {
		return ticket, nil
	}
	if !isValidTransition(ticket.Status, next) {
		return nil, apperrors.NewInvalidTransition(string(ticket.Status), string(next))
	}

	oldStatus := ticket.Status
	ticket.Status = next
	if next == domain.TicketStatusResolved {
		now := time.Now()
		ticket.ResolvedAt = &now
		ticket.ResolvedBy = &actorID
	} else if oldStatus == domain.TicketStatusResolved {
		ticket.ResolvedAt = nil
		ticket.ResolvedBy = nil
	}
	if err := s.tickets.UpdateStatus(ctx, ticket); err != nil {
		return nil, mapTicketErr(err, ticketID)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		ActorID:  actorID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: next,
		},
	})
	return ticket, nil
}

// GetTicketDetail composes ticket state, owner, window status and the full
// thread for the detail view.
func (s *TicketService) GetTicketDetail(ctx context.Context, ticketID string) (*TicketDetail, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapTicketErr(err, ticketID)
	}
	user, err := s.users.GetByID(ctx, ticket.UserID)
	if err != nil {
		return nil, mapUserErr(err, ticket.UserID)
	}
	msgs, err := s.messages.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, mapTicketErr(err, ticket.ID)
	}
	lastInbound, err := s.lastInbound(ctx, user)
	if err != nil {
		return nil, err
	}
	return &TicketDetail{
		Ticket:   ticket,
		User:     user,
		Window:   WindowStatus(lastInbound, time.Now()),
		Messages: msgs,
	}, nil
}

// lastInbound prefers the cached users.last_inbound_at and falls back to
// scanning the thread when the cache was never populated, so tickets that
// predate the cache column still get a correct window.
func (s *TicketService) lastInbound(ctx context.Context, user *domain.User) (*time.Time, error) {
	if user.LastInboundAt != nil {
		return user.LastInboundAt, nil
	}
	return s.messages.LastInboundForUser(ctx, user.ID)
}

// ListTickets returns filtered tickets with aggregate counters.
func (s *TicketService) ListTickets(ctx context.Context, filter repository.TicketFilter) (*TicketList, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, err
	}
	stats, err := s.tickets.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &TicketList{Tickets: tickets, Stats: *stats}, nil
}

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusPending:    {domain.TicketStatusInProgress, domain.TicketStatusResolved},
	domain.TicketStatusInProgress: {domain.TicketStatusResolved},
	domain.TicketStatusResolved:   {domain.TicketStatusPending},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func mapTicketErr(err error, ticketID string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	return err
}

func mapUserErr(err error, userID string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("user", map[string]any{"user_id": userID})
	}
	return err
}
