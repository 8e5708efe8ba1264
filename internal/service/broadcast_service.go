package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/counsellor-desk/internal/domain"
	"github.com/spec-kit/counsellor-desk/internal/events"
	"github.com/spec-kit/counsellor-desk/internal/repository"
	"github.com/spec-kit/counsellor-desk/pkg/apperrors"
)

// BroadcastService reads and remediates the broadcast failure ledger.
type BroadcastService struct {
	broadcasts repository.BroadcastRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewBroadcastService constructs the service.
func NewBroadcastService(broadcasts repository.BroadcastRepository, dispatcher events.Dispatcher, logger *zap.Logger) *BroadcastService {
	return &BroadcastService{broadcasts: broadcasts, dispatcher: dispatcher, logger: logger}
}

// ListFailed returns failed broadcast attempts, optionally filtered.
func (s *BroadcastService) ListFailed(ctx context.Context, filter repository.BroadcastFilter) ([]domain.BroadcastRecord, error) {
	if filter.Phone != nil {
		normalized := NormalizePhone(*filter.Phone)
		filter.Phone = &normalized
	}
	return s.broadcasts.ListFailed(ctx, filter)
}

// MarkManuallySent annotates a failed broadcast as handled outside the
// system. Remediation is set-once: a repeat call is an idempotent no-op, and
// the original delivery facts are never altered.
func (s *BroadcastService) MarkManuallySent(ctx context.Context, broadcastID, operatorID string) error {
	rec, err := s.broadcasts.GetByID(ctx, broadcastID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("broadcast", map[string]any{"broadcast_id": broadcastID})
		}
		return err
	}
	if rec.Remediated() {
		s.logger.Debug("broadcast already remediated",
			zap.String("broadcast_id", broadcastID),
			zap.Stringp("by", rec.ManuallySentBy))
		return nil
	}

	updated, err := s.broadcasts.MarkManuallySent(ctx, broadcastID, operatorID, time.Now())
	if err != nil {
		return err
	}
	if !updated {
		// Lost a race with another operator; same idempotent outcome.
		return nil
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventBroadcastRemediated,
			ActorID:   operatorID,
			Timestamp: time.Now(),
			Payload: events.BroadcastRemediatedPayload{
				BroadcastID: broadcastID,
				Operator:    operatorID,
			},
		})
	}
	return nil
}
