package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/counsellor-desk/internal/domain"
	"github.com/spec-kit/counsellor-desk/internal/events"
	"github.com/spec-kit/counsellor-desk/internal/repository"
)

// Transport sends a session message to the messaging provider. Implemented
// outside this core; a provider failure here is recorded as data on the
// message, not raised to the caller.
type Transport interface {
	SendSessionMessage(ctx context.Context, phone, body string) error
}

// DeliveryWorker forwards queued counsellor replies to the transport.
type DeliveryWorker struct {
	transport Transport
	messages  repository.MessageRepository
	logger    *zap.Logger
}

// NewDeliveryWorker constructs the worker.
func NewDeliveryWorker(transport Transport, messages repository.MessageRepository, logger *zap.Logger) *DeliveryWorker {
	return &DeliveryWorker{transport: transport, messages: messages, logger: logger}
}

// Register subscribes the worker to reply events.
func (w *DeliveryWorker) Register(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventReplyQueued, w.handleReplyQueued)
}

func (w *DeliveryWorker) handleReplyQueued(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ReplyQueuedPayload)
	if !ok {
		w.logger.Warn("unexpected reply payload", zap.String("event_id", event.ID))
		return nil
	}

	if err := w.transport.SendSessionMessage(ctx, payload.Phone, payload.Body); err != nil {
		w.logger.Error("transport send failed",
			zap.String("message_id", payload.MessageID),
			zap.Error(err))
		if updateErr := w.messages.UpdateDeliveryStatus(ctx, payload.MessageID, domain.DeliveryFailed); updateErr != nil {
			w.logger.Error("delivery status update failed",
				zap.String("message_id", payload.MessageID),
				zap.Error(updateErr))
		}
		return nil
	}

	w.logger.Info("reply handed to transport",
		zap.String("message_id", payload.MessageID),
		zap.String("ticket_id", event.TicketID))
	return nil
}

// LoggingTransport is the default stand-in when no provider client is
// configured. It accepts every message.
type LoggingTransport struct {
	logger *zap.Logger
}

// NewLoggingTransport constructs the stub.
func NewLoggingTransport(logger *zap.Logger) *LoggingTransport {
	return &LoggingTransport{logger: logger}
}

// SendSessionMessage logs and accepts the message.
func (t *LoggingTransport) SendSessionMessage(ctx context.Context, phone, body string) error {
	t.logger.Debug("transport stub send", zap.String("phone", phone), zap.Int("body_len", len(body)))
	return nil
}
