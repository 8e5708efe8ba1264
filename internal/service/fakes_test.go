package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/counsellor-desk/internal/domain"
	"github.com/spec-kit/counsellor-desk/internal/repository"
)

// memStore is a shared in-memory backing for the repository fakes. Append
// mirrors the production transaction: message insert and ticket count bump
// happen under one lock.
type memStore struct {
	mu         sync.Mutex
	users      map[string]*domain.User
	tickets    map[string]*domain.Ticket
	messages   map[string][]domain.Message
	broadcasts map[string]*domain.BroadcastRecord
	seq        int64
	ticketSeq  map[domain.TicketCategory]int64
}

func newMemStore() *memStore {
	return &memStore{
		users:      make(map[string]*domain.User),
		tickets:    make(map[string]*domain.Ticket),
		messages:   make(map[string][]domain.Message),
		broadcasts: make(map[string]*domain.BroadcastRecord),
		ticketSeq:  make(map[domain.TicketCategory]int64),
	}
}

func (s *memStore) addUser(phone string, lastInbound *time.Time) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := &domain.User{
		ID:            uuid.NewString(),
		PhoneNumber:   phone,
		LastInboundAt: lastInbound,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	s.users[user.ID] = user
	return user
}

func (s *memStore) addTicket(userID string, category domain.TicketCategory, status domain.TicketStatus) *domain.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addTicketLocked(userID, category, status)
}

func (s *memStore) addTicketLocked(userID string, category domain.TicketCategory, status domain.TicketStatus) *domain.Ticket {
	s.ticketSeq[category]++
	prefix := "QRY"
	if category == domain.TicketCategoryConcern {
		prefix = "CON"
	}
	ticket := &domain.Ticket{
		ID:           uuid.NewString(),
		TicketNumber: fmt.Sprintf("%s-%06d", prefix, s.ticketSeq[category]),
		UserID:       userID,
		Category:     category,
		Status:       status,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	s.tickets[ticket.ID] = ticket
	return ticket
}

func (s *memStore) addBroadcast(phone, body string, status domain.BroadcastDeliveryStatus, failureReason *string) *domain.BroadcastRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := &domain.BroadcastRecord{
		ID:             uuid.NewString(),
		Phone:          phone,
		Body:           body,
		SentAt:         time.Now(),
		DeliveryStatus: status,
		FailureReason:  failureReason,
	}
	s.broadcasts[rec.ID] = rec
	return rec
}

func (s *memStore) getTicket(id string) *domain.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket, ok := s.tickets[id]; ok {
		clone := *ticket
		return &clone
	}
	return nil
}

func (s *memStore) getUser(id string) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user, ok := s.users[id]; ok {
		clone := *user
		return &clone
	}
	return nil
}

func (s *memStore) threadLen(ticketID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages[ticketID])
}

// --- TicketRepository fake ---

type memTickets struct{ store *memStore }

func (r *memTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	created := r.store.addTicketLocked(ticket.UserID, ticket.Category, ticket.Status)
	*ticket = *created
	return nil
}

func (r *memTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ticket, ok := r.store.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (r *memTickets) UpdateStatus(_ context.Context, ticket *domain.Ticket) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Status = ticket.Status
	stored.ResolvedAt = ticket.ResolvedAt
	stored.ResolvedBy = ticket.ResolvedBy
	stored.UpdatedAt = time.Now()
	return nil
}

func (r *memTickets) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.store.tickets {
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		if filter.Category != nil && ticket.Category != *filter.Category {
			continue
		}
		if filter.UserID != nil && ticket.UserID != *filter.UserID {
			continue
		}
		result = append(result, *ticket)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TicketNumber < result[j].TicketNumber
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *memTickets) Stats(_ context.Context) (*domain.TicketStats, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stats := &domain.TicketStats{}
	for _, ticket := range r.store.tickets {
		stats.Total++
		switch ticket.Status {
		case domain.TicketStatusPending:
			stats.Pending++
		case domain.TicketStatusInProgress:
			stats.InProgress++
		case domain.TicketStatusResolved:
			stats.Resolved++
		}
		if ticket.Category == domain.TicketCategoryQuery {
			stats.Queries++
		} else {
			stats.Concerns++
		}
	}
	return stats, nil
}

// --- MessageRepository fake ---

type memMessages struct{ store *memStore }

func (r *memMessages) Append(_ context.Context, msg *domain.Message) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ticket, ok := r.store.tickets[msg.TicketID]
	if !ok {
		return pgx.ErrNoRows
	}
	r.store.seq++
	msg.ID = uuid.NewString()
	msg.Seq = r.store.seq
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	r.store.messages[msg.TicketID] = append(r.store.messages[msg.TicketID], *msg)
	ticket.MessageCount++
	ticket.UpdatedAt = time.Now()
	return nil
}

func (r *memMessages) ListByTicket(_ context.Context, ticketID string) ([]domain.Message, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.tickets[ticketID]; !ok {
		return nil, pgx.ErrNoRows
	}
	msgs := append([]domain.Message{}, r.store.messages[ticketID]...)
	sort.Slice(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].Seq < msgs[j].Seq
		}
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	return msgs, nil
}

func (r *memMessages) LastInboundForUser(_ context.Context, userID string) (*time.Time, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var last *time.Time
	for ticketID, msgs := range r.store.messages {
		ticket := r.store.tickets[ticketID]
		if ticket == nil || ticket.UserID != userID {
			continue
		}
		for i := range msgs {
			if msgs[i].Direction != domain.DirectionIncoming {
				continue
			}
			if last == nil || msgs[i].CreatedAt.After(*last) {
				ts := msgs[i].CreatedAt
				last = &ts
			}
		}
	}
	return last, nil
}

func (r *memMessages) UpdateDeliveryStatus(_ context.Context, messageID string, status domain.DeliveryStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for ticketID := range r.store.messages {
		msgs := r.store.messages[ticketID]
		for i := range msgs {
			if msgs[i].ID == messageID && msgs[i].Direction == domain.DirectionOutgoing {
				msgs[i].DeliveryStatus = &status
				return nil
			}
		}
	}
	return pgx.ErrNoRows
}

// --- UserRepository fake ---

type memUsers struct{ store *memStore }

func (r *memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user, ok := r.store.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *memUsers) GetByPhone(_ context.Context, phone string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, user := range r.store.users {
		if user.PhoneNumber == phone {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUsers) UpsertByPhone(_ context.Context, phone string, name, email *string) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, user := range r.store.users {
		if user.PhoneNumber == phone {
			if user.Name == nil && name != nil {
				user.Name = name
			}
			if user.Email == nil && email != nil {
				user.Email = email
			}
			clone := *user
			return &clone, nil
		}
	}
	user := &domain.User{
		ID:          uuid.NewString(),
		PhoneNumber: phone,
		Name:        name,
		Email:       email,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	r.store.users[user.ID] = user
	clone := *user
	return &clone, nil
}

func (r *memUsers) TouchLastInbound(_ context.Context, userID string, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user, ok := r.store.users[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	if user.LastInboundAt == nil || at.After(*user.LastInboundAt) {
		user.LastInboundAt = &at
	}
	return nil
}

func (r *memUsers) SetCounsellorQuery(_ context.Context, userID, query string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user, ok := r.store.users[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	user.CounsellorQuery = &query
	status := domain.QueryStatusPending
	user.CounsellorQueryStatus = &status
	return nil
}

func (r *memUsers) SetCounsellorQueryStatus(_ context.Context, userID string, status domain.CounsellorQueryStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user, ok := r.store.users[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	user.CounsellorQueryStatus = &status
	return nil
}

// --- BroadcastRepository fake ---

type memBroadcasts struct{ store *memStore }

func (r *memBroadcasts) GetByID(_ context.Context, id string) (*domain.BroadcastRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rec, ok := r.store.broadcasts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *rec
	return &clone, nil
}

func (r *memBroadcasts) ListFailed(_ context.Context, filter repository.BroadcastFilter) ([]domain.BroadcastRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var result []domain.BroadcastRecord
	for _, rec := range r.store.broadcasts {
		if rec.DeliveryStatus != domain.BroadcastFailed {
			continue
		}
		if filter.Phone != nil && rec.Phone != *filter.Phone {
			continue
		}
		if filter.Remediated != nil && rec.Remediated() != *filter.Remediated {
			continue
		}
		result = append(result, *rec)
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *memBroadcasts) MarkManuallySent(_ context.Context, id, operator string, at time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	rec, ok := r.store.broadcasts[id]
	if !ok {
		return false, pgx.ErrNoRows
	}
	if rec.ManuallySentAt != nil {
		return false, nil
	}
	rec.ManuallySentBy = &operator
	rec.ManuallySentAt = &at
	return true, nil
}

// --- WebhookEventRepository fake ---

type memWeblog struct {
	mu     sync.Mutex
	events []*domain.WebhookEvent
}

func (r *memWeblog) Create(_ context.Context, event *domain.WebhookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event.ID = uuid.NewString()
	event.CreatedAt = time.Now()
	r.events = append(r.events, event)
	return nil
}

func (r *memWeblog) MarkProcessed(_ context.Context, id, action string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, event := range r.events {
		if event.ID == id {
			event.Processed = true
			event.ActionTaken = &action
		}
	}
	return nil
}

func (r *memWeblog) List(_ context.Context, outgoing *bool, limit int) ([]domain.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.WebhookEvent
	for _, event := range r.events {
		if outgoing != nil && event.Outgoing != *outgoing {
			continue
		}
		result = append(result, *event)
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// --- EventDeduper fake ---

type memDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newMemDeduper() *memDeduper {
	return &memDeduper{seen: make(map[string]bool)}
}

func (d *memDeduper) FirstDelivery(_ context.Context, eventID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen[eventID] {
		return false, nil
	}
	d.seen[eventID] = true
	return true, nil
}
