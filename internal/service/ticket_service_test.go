package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/counsellor-desk/internal/domain"
	"github.com/spec-kit/counsellor-desk/internal/events"
	"github.com/spec-kit/counsellor-desk/internal/repository"
	"github.com/spec-kit/counsellor-desk/pkg/apperrors"
)

func newTicketService(store *memStore) (*TicketService, events.Dispatcher) {
	dispatcher := events.NewInMemoryDispatcher()
	svc := NewTicketService(TicketDependencies{
		TicketRepo:  &memTickets{store: store},
		MessageRepo: &memMessages{store: store},
		UserRepo:    &memUsers{store: store},
		Locks:       NewTicketLocks(),
		Dispatcher:  dispatcher,
	})
	return svc, dispatcher
}

func hoursAgo(h int) *time.Time {
	ts := time.Now().Add(-time.Duration(h) * time.Hour)
	return &ts
}

func TestSendReply_Success(t *testing.T) {
	store := newMemStore()
	user := store.addUser("919876543210", hoursAgo(1))
	ticket := store.addTicket(user.ID, domain.TicketCategoryQuery, domain.TicketStatusPending)
	svc, dispatcher := newTicketService(store)

	var queued []events.Event
	dispatcher.Subscribe(events.EventReplyQueued, func(_ context.Context, e events.Event) error {
		queued = append(queued, e)
		return nil
	})

	msg, err := svc.SendReply(context.Background(), ticket.ID, "  hello there  ", "c-1", "Counsellor Maya")
	require.NoError(t, err)
	require.NotNil(t, msg)

	assert.Equal(t, "hello there", msg.Body)
	assert.Equal(t, domain.DirectionOutgoing, msg.Direction)
	require.NotNil(t, msg.DeliveryStatus)
	assert.Equal(t, domain.DeliverySent, *msg.DeliveryStatus)
	require.NotNil(t, msg.SenderLabel)
	assert.Equal(t, "Counsellor Maya", *msg.SenderLabel)

	stored := store.getTicket(ticket.ID)
	assert.Equal(t, domain.TicketStatusInProgress, stored.Status)
	assert.Equal(t, 1, stored.MessageCount)
	assert.Equal(t, 1, store.threadLen(ticket.ID))

	require.Len(t, queued, 1)
	payload := queued[0].Payload.(events.ReplyQueuedPayload)
	assert.Equal(t, msg.ID, payload.MessageID)
	assert.Equal(t, "919876543210", payload.Phone)
}

func TestSendReply_InProgressStaysInProgress(t *testing.T) {
	store := newMemStore()
	user := store.addUser("919876543210", hoursAgo(2))
	ticket := store.addTicket(user.ID, domain.TicketCategoryConcern, domain.TicketStatusInProgress)
	svc, _ := newTicketService(store)

	_, err := svc.SendReply(context.Background(), ticket.ID, "following up", "c-1", "")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, store.getTicket(ticket.ID).Status)
}

func TestSendReply_UnknownTicket(t *testing.T) {
	store := newMemStore()
	svc, _ := newTicketService(store)

	_, err := svc.SendReply(context.Background(), "no-such-ticket", "hello", "c-1", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestSendReply_ResolvedTicketRejected(t *testing.T) {
	store := newMemStore()
	user := store.addUser("919876543210", hoursAgo(1))
	ticket := store.addTicket(user.ID, domain.TicketCategoryQuery, domain.TicketStatusResolved)
	svc, _ := newTicketService(store)

	_, err := svc.SendReply(context.Background(), ticket.ID, "hello", "c-1", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeTicketClosed))
	assert.Equal(t, 0, store.threadLen(ticket.ID))
}

func TestSendReply_ClosedWinsOverExpiredWindow(t *testing.T) {
	store := newMemStore()
	user := store.addUser("919876543210", hoursAgo(30))
	ticket := store.addTicket(user.ID, domain.TicketCategoryQuery, domain.TicketStatusResolved)
	svc, _ := newTicketService(store)

	_, err := svc.SendReply(context.Background(), ticket.ID, "hello", "c-1", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeTicketClosed))
}

func TestSendReply_WindowExpired(t *testing.T) {
	store := newMemStore()
	user := store.addUser("919876543210", hoursAgo(25))
	ticket := store.addTicket(user.ID, domain.TicketCategoryQuery, domain.TicketStatusPending)
	svc, _ := newTicketService(store)

	_, err := svc.SendReply(context.Background(), ticket.ID, "hello", "c-1", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeWindowExpired))

	stored := store.getTicket(ticket.ID)
	assert.Equal(t, domain.TicketStatusPending, stored.Status)
	assert.Equal(t, 0, stored.MessageCount)
}

func TestSendReply_NoInboundEver(t *testing.T) {
	store := newMemStore()
	user := store.addUser("919876543210", nil)
	ticket := store.addTicket(user.ID, domain.TicketCategoryQuery, domain.TicketStatusPending)
	svc, _ := newTicketService(store)

	_, err := svc.SendReply(context.Background(), ticket.ID, "hello", "c-1", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeWindowExpired))
}

func TestSendReply_WindowFromThreadWhenCacheUnset(t *testing.T) {
	store := newMemStore()
	user := store.addUser("919876543210", nil)
	ticket := store.addTicket(user.ID, domain.TicketCategoryQuery, domain.TicketStatusPending)
	svc, _ := newTicketService(store)

	inbound := &domain.Message{
		TicketID:  ticket.ID,
		Direction: domain.DirectionIncoming,
		Body:      "still there?",
		CreatedAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, (&memMessages{store: store}).Append(context.Background(), inbound))

	msg, err := svc.SendReply(context.Background(), ticket.ID, "yes, with you", "c-1", "")
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, 2, store.getTicket(ticket.ID).MessageCount)
}

func TestSendReply_EmptyAfterTrim(t *testing.T) {
	store := newMemStore()
	user := store.addUser("919876543210", hoursAgo(1))
	ticket := store.addTicket(user.ID, domain.TicketCategoryQuery, domain.TicketStatusPending)
	svc, _ := newTicketService(store)

	_, err := svc.SendReply(context.Background(), ticket.ID, "   \n\t ", "c-1", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeEmptyMessage))
	assert.Equal(t, 0, store.threadLen(ticket.ID))
}

func TestSendReply_ConcurrentRepliesKeepCountConsistent(t *testing.T) {
	store := newMemStore()
	user := store.addUser("919876543210", hoursAgo(1))
	ticket := store.addTicket(user.ID, domain.TicketCategoryQuery, domain.TicketStatusPending)
	svc, _ := newTicketService(store)

	const replies = 25
	var wg sync.WaitGroup
	for i := 0; i < replies; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SendReply(context.Background(), ticket.ID, "reply", "c-1", "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored := store.getTicket(ticket.ID)
	assert.Equal(t, replies, stored.MessageCount)
	assert.Equal(t, replies, store.threadLen(ticket.ID))
}

func TestSetStatus_SameStatusIsNoOp(t *testing.T) {
	store := newMemStore()
	user := store.addUser("919876543210", nil)
	ticket := store.addTicket(user.ID, domain.TicketCategoryQuery, domain.TicketStatusPending)
	svc, dispatcher := newTicketService(store)

	fired := 0
	dispatcher.Subscribe(events.EventTicketStatusChanged, func(context.Context, events.Event) error {
		fired++
		return nil
	})

	updated, err := svc.SetStatus(context.Background(), ticket.ID, domain.TicketStatusPending, "c-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusPending, updated.Status)
	assert.Equal(t, 0, fired)
}

func TestSetStatus_InvalidTransition(t *testing.T) {
	store := newMemStore()
	user := store.addUser("919876543210", nil)
	ticket := store.addTicket(user.ID, domain.TicketCategoryQuery, domain.TicketStatusInProgress)
	svc, _ := newTicketService(store)

	_, err := svc.SetStatus(context.Background(), ticket.ID, domain.TicketStatusPending, "c-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidTransition))
	assert.Equal(t, domain.TicketStatusInProgress, store.getTicket(ticket.ID).Status)
}

func TestSetStatus_UnknownStatusRejected(t *testing.T) {
	store := newMemStore()
	user := store.addUser("919876543210", nil)
	ticket := store.addTicket(user.ID, domain.TicketCategoryQuery, domain.TicketStatusPending)
	svc, _ := newTicketService(store)

	_, err := svc.SetStatus(context.Background(), ticket.ID, domain.TicketStatus("archived"), "c-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))
}

func TestSetStatus_ResolveStampsReopenClears(t *testing.T) {
	store := newMemStore()
	user := store.addUser("919876543210", nil)
	ticket := store.addTicket(user.ID, domain.TicketCategoryQuery, domain.TicketStatusInProgress)
	svc, _ := newTicketService(store)
	ctx := context.Background()

	resolved, err := svc.SetStatus(ctx, ticket.ID, domain.TicketStatusResolved, "c-1")
	require.NoError(t, err)
	require.NotNil(t, resolved.ResolvedAt)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, "c-1", *resolved.ResolvedBy)

	reopened, err := svc.SetStatus(ctx, ticket.ID, domain.TicketStatusPending, "c-2")
	require.NoError(t, err)
	assert.Nil(t, reopened.ResolvedAt)
	assert.Nil(t, reopened.ResolvedBy)

	again, err := svc.SetStatus(ctx, ticket.ID, domain.TicketStatusResolved, "c-2")
	require.NoError(t, err)
	require.NotNil(t, again.ResolvedBy)
	assert.Equal(t, "c-2", *again.ResolvedBy)
}

func TestSetStatus_UnknownTicket(t *testing.T) {
	store := newMemStore()
	svc, _ := newTicketService(store)

	_, err := svc.SetStatus(context.Background(), "missing", domain.TicketStatusResolved, "c-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestGetTicketDetail_ComposesThreadAndWindow(t *testing.T) {
	store := newMemStore()
	user := store.addUser("919876543210", hoursAgo(2))
	ticket := store.addTicket(user.ID, domain.TicketCategoryQuery, domain.TicketStatusInProgress)
	svc, _ := newTicketService(store)
	msgs := &memMessages{store: store}

	inbound := &domain.Message{
		TicketID:  ticket.ID,
		Direction: domain.DirectionIncoming,
		Body:      "I need help with my application",
		CreatedAt: time.Now().Add(-2 * time.Hour),
	}
	require.NoError(t, msgs.Append(context.Background(), inbound))
	outgoing := &domain.Message{
		TicketID:  ticket.ID,
		Direction: domain.DirectionOutgoing,
		Body:      "Happy to help",
	}
	require.NoError(t, msgs.Append(context.Background(), outgoing))

	detail, err := svc.GetTicketDetail(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, detail.Ticket.ID)
	assert.Equal(t, user.ID, detail.User.ID)
	assert.True(t, detail.Window.Active)
	assert.Equal(t, 22, detail.Window.HoursRemaining)
	require.Len(t, detail.Messages, 2)
	assert.Equal(t, domain.DirectionIncoming, detail.Messages[0].Direction)
	assert.Equal(t, domain.DirectionOutgoing, detail.Messages[1].Direction)
}

func TestGetTicketDetail_WindowFromThreadWhenCacheUnset(t *testing.T) {
	store := newMemStore()
	user := store.addUser("919876543210", nil)
	ticket := store.addTicket(user.ID, domain.TicketCategoryQuery, domain.TicketStatusInProgress)
	svc, _ := newTicketService(store)

	inbound := &domain.Message{
		TicketID:  ticket.ID,
		Direction: domain.DirectionIncoming,
		Body:      "checking in",
		CreatedAt: time.Now().Add(-3 * time.Hour),
	}
	require.NoError(t, (&memMessages{store: store}).Append(context.Background(), inbound))

	detail, err := svc.GetTicketDetail(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.True(t, detail.Window.Active)
	assert.Equal(t, 21, detail.Window.HoursRemaining)
}

func TestGetTicketDetail_UnknownTicket(t *testing.T) {
	store := newMemStore()
	svc, _ := newTicketService(store)

	_, err := svc.GetTicketDetail(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestListMessages_UnknownTicket(t *testing.T) {
	store := newMemStore()
	msgs := &memMessages{store: store}

	_, err := msgs.ListByTicket(context.Background(), "no-such-ticket")
	require.Error(t, err)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestListMessages_EmptyThreadIsNotAnError(t *testing.T) {
	store := newMemStore()
	user := store.addUser("919876543210", nil)
	ticket := store.addTicket(user.ID, domain.TicketCategoryQuery, domain.TicketStatusPending)
	msgs := &memMessages{store: store}

	thread, err := msgs.ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, thread)
}

func TestListTickets_FilterAndStats(t *testing.T) {
	store := newMemStore()
	user := store.addUser("919876543210", nil)
	store.addTicket(user.ID, domain.TicketCategoryQuery, domain.TicketStatusPending)
	store.addTicket(user.ID, domain.TicketCategoryQuery, domain.TicketStatusResolved)
	store.addTicket(user.ID, domain.TicketCategoryConcern, domain.TicketStatusInProgress)
	svc, _ := newTicketService(store)

	pending := domain.TicketStatusPending
	list, err := svc.ListTickets(context.Background(), repository.TicketFilter{Status: &pending})
	require.NoError(t, err)
	require.Len(t, list.Tickets, 1)
	assert.Equal(t, domain.TicketStatusPending, list.Tickets[0].Status)

	assert.Equal(t, 3, list.Stats.Total)
	assert.Equal(t, 1, list.Stats.Pending)
	assert.Equal(t, 1, list.Stats.InProgress)
	assert.Equal(t, 1, list.Stats.Resolved)
	assert.Equal(t, 2, list.Stats.Queries)
	assert.Equal(t, 1, list.Stats.Concerns)
}
