package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/counsellor-desk/internal/domain"
	"github.com/spec-kit/counsellor-desk/internal/events"
	"github.com/spec-kit/counsellor-desk/internal/repository"
	"github.com/spec-kit/counsellor-desk/pkg/apperrors"
)

// EventDeduper remembers webhook event ids so redelivered events are processed
// once. Backed by Redis SETNX in production.
type EventDeduper interface {
	FirstDelivery(ctx context.Context, eventID string) (bool, error)
}

// InboundMessage is one user message event from the transport layer. TicketID
// is set when the external router matched an open ticket; nil means a new
// ticket must be opened in the given category.
type InboundMessage struct {
	TicketID          *string
	Category          domain.TicketCategory
	Phone             string
	SenderName        *string
	Text              string
	MediaURL          *string
	MediaFilename     *string
	Timestamp         time.Time
	CounsellorRequest bool
}

// WebhookInput is a parsed provider webhook delivery.
type WebhookInput struct {
	EventID    string
	EventType  string
	Outgoing   bool
	RawPayload string

	// Inbound message fields.
	Message *InboundMessage

	// Delivery callback fields.
	MessageID      string
	DeliveryStatus domain.DeliveryStatus
}

// InboxService ingests transport-side events: inbound user messages and
// delivery-status callbacks.
type InboxService struct {
	users      repository.UserRepository
	tickets    repository.TicketRepository
	messages   repository.MessageRepository
	weblog     repository.WebhookEventRepository
	deduper    EventDeduper
	locks      *TicketLocks
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// InboxDependencies bundles collaborators for the inbox service.
type InboxDependencies struct {
	UserRepo    repository.UserRepository
	TicketRepo  repository.TicketRepository
	MessageRepo repository.MessageRepository
	WebhookRepo repository.WebhookEventRepository
	Deduper     EventDeduper
	Locks       *TicketLocks
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewInboxService constructs the service.
func NewInboxService(deps InboxDependencies) *InboxService {
	return &InboxService{
		users:      deps.UserRepo,
		tickets:    deps.TicketRepo,
		messages:   deps.MessageRepo,
		weblog:     deps.WebhookRepo,
		deduper:    deps.Deduper,
		locks:      deps.Locks,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// ProcessWebhook logs, deduplicates and routes one webhook delivery. The
// returned action mirrors what was done with the event, for the debug log.
func (s *InboxService) ProcessWebhook(ctx context.Context, input WebhookInput) (string, error) {
	if s.deduper != nil && input.EventID != "" {
		first, err := s.deduper.FirstDelivery(ctx, input.EventID)
		if err != nil {
			s.logger.Warn("webhook dedupe unavailable", zap.Error(err))
		} else if !first {
			return "duplicate_ignored", nil
		}
	}

	phone := ""
	if input.Message != nil {
		phone = NormalizePhone(input.Message.Phone)
	}
	logEntry := &domain.WebhookEvent{
		EventType:   input.EventType,
		PhoneNumber: phone,
		Outgoing:    input.Outgoing,
		RawPayload:  input.RawPayload,
	}
	if s.weblog != nil {
		if err := s.weblog.Create(ctx, logEntry); err != nil {
			s.logger.Warn("webhook log write failed", zap.Error(err))
		}
	}

	action, err := s.route(ctx, input)
	if err != nil {
		s.markProcessed(ctx, logEntry.ID, "error:"+apperrors.CodeOf(err))
		return "", err
	}
	s.markProcessed(ctx, logEntry.ID, action)
	return action, nil
}

func (s *InboxService) route(ctx context.Context, input WebhookInput) (string, error) {
	if input.MessageID != "" && input.DeliveryStatus != "" {
		if err := s.UpdateDeliveryStatus(ctx, input.MessageID, input.DeliveryStatus); err != nil {
			return "", err
		}
		return "delivery_status_updated", nil
	}

	if input.Outgoing || input.Message == nil {
		return "logged", nil
	}
	if strings.TrimSpace(input.Message.Phone) == "" {
		return "ignored_no_phone", nil
	}
	if strings.TrimSpace(input.Message.Text) == "" {
		return "ignored_empty", nil
	}

	_, created, err := s.RecordInbound(ctx, *input.Message)
	if err != nil {
		return "", err
	}
	if created {
		return "ticket_opened", nil
	}
	return "inbound_recorded", nil
}

// RecordInbound appends an inbound message, opening a new pending ticket when
// the router did not match an existing one. Returns whether a ticket was
// created. Inbound on a resolved ticket is rejected with TicketClosed; the
// router must open a fresh ticket or a counsellor must reopen explicitly.
func (s *InboxService) RecordInbound(ctx context.Context, in InboundMessage) (*domain.Message, bool, error) {
	phone := NormalizePhone(in.Phone)
	user, err := s.users.UpsertByPhone(ctx, phone, in.SenderName, nil)
	if err != nil {
		return nil, false, err
	}

	when := in.Timestamp
	if when.IsZero() {
		when = time.Now()
	}

	var ticket *domain.Ticket
	created := false
	if in.TicketID != nil {
		unlock := s.locks.Lock(*in.TicketID)
		defer unlock()

		ticket, err = s.tickets.GetByID(ctx, *in.TicketID)
		if err != nil {
			return nil, false, mapTicketErr(err, *in.TicketID)
		}
		if ticket.UserID != user.ID {
			return nil, false, apperrors.NewValidationError("ticket does not belong to sender",
				map[string]any{"ticket_id": ticket.ID})
		}
		if ticket.Status == domain.TicketStatusResolved {
			return nil, false, apperrors.NewTicketClosed(ticket.ID)
		}
	} else {
		category := in.Category
		if category == "" {
			category = domain.TicketCategoryQuery
		}
		ticket = &domain.Ticket{
			UserID:   user.ID,
			Category: category,
			Status:   domain.TicketStatusPending,
		}
		if err := s.tickets.Create(ctx, ticket); err != nil {
			return nil, false, err
		}
		created = true

		unlock := s.locks.Lock(ticket.ID)
		defer unlock()
	}

	msg := &domain.Message{
		TicketID:      ticket.ID,
		Direction:     domain.DirectionIncoming,
		Body:          in.Text,
		MediaURL:      in.MediaURL,
		MediaFilename: in.MediaFilename,
		CreatedAt:     when,
	}
	if err := s.messages.Append(ctx, msg); err != nil {
		return nil, false, mapTicketErr(err, ticket.ID)
	}
	if err := s.users.TouchLastInbound(ctx, user.ID, when); err != nil {
		return nil, false, mapUserErr(err, user.ID)
	}

	if in.CounsellorRequest {
		if err := s.users.SetCounsellorQuery(ctx, user.ID, in.Text); err != nil {
			return nil, false, mapUserErr(err, user.ID)
		}
	}

	if created {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketOpened,
			TicketID: ticket.ID,
			Payload: events.TicketOpenedPayload{
				TicketNumber: ticket.TicketNumber,
				UserID:       user.ID,
				Category:     ticket.Category,
			},
		})
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventInboundReceived,
		TicketID: ticket.ID,
		Payload: events.InboundReceivedPayload{
			MessageID: msg.ID,
			Phone:     phone,
			Timestamp: when,
		},
	})
	return msg, created, nil
}

// UpdateDeliveryStatus applies a transport acknowledgment to an outgoing
// message.
func (s *InboxService) UpdateDeliveryStatus(ctx context.Context, messageID string, status domain.DeliveryStatus) error {
	switch status {
	case domain.DeliverySent, domain.DeliveryDelivered, domain.DeliveryRead, domain.DeliveryFailed:
	default:
		return apperrors.NewValidationError("unknown delivery status", map[string]any{"status": string(status)})
	}
	if err := s.messages.UpdateDeliveryStatus(ctx, messageID, status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("message", map[string]any{"message_id": messageID})
		}
		return err
	}
	return nil
}

// ListWebhookEvents exposes the raw intake log for debugging.
func (s *InboxService) ListWebhookEvents(ctx context.Context, outgoing *bool, limit int) ([]domain.WebhookEvent, error) {
	return s.weblog.List(ctx, outgoing, limit)
}

func (s *InboxService) markProcessed(ctx context.Context, id, action string) {
	if s.weblog == nil || id == "" {
		return
	}
	if err := s.weblog.MarkProcessed(ctx, id, action); err != nil {
		s.logger.Warn("webhook log update failed", zap.Error(err))
	}
}

func (s *InboxService) publishEvent(ctx context.Context, event events.Event) {
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

// NormalizePhone strips formatting so phone numbers compare equal regardless
// of how the provider sends them.
func NormalizePhone(phone string) string {
	phone = strings.ReplaceAll(phone, "+", "")
	phone = strings.ReplaceAll(phone, " ", "")
	return strings.TrimSpace(phone)
}
