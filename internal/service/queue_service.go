package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/counsellor-desk/internal/domain"
	"github.com/spec-kit/counsellor-desk/internal/repository"
	"github.com/spec-kit/counsellor-desk/pkg/apperrors"
)

// QueueService is the legacy phone-keyed counsellor query queue. It predates
// the ticket system and shares no state with it.
type QueueService struct {
	users  repository.UserRepository
	logger *zap.Logger
}

// NewQueueService constructs the service.
func NewQueueService(users repository.UserRepository, logger *zap.Logger) *QueueService {
	return &QueueService{users: users, logger: logger}
}

// MarkResolved flips a pending counsellor query to resolved. Resolving an
// already-resolved query is a no-op success; a phone with no recorded query
// is NotFound.
func (s *QueueService) MarkResolved(ctx context.Context, phone, actorID string) error {
	phone = NormalizePhone(phone)
	user, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("counsellor query", map[string]any{"phone": phone})
		}
		return err
	}
	if user.CounsellorQuery == nil {
		return apperrors.NewNotFound("counsellor query", map[string]any{"phone": phone})
	}
	if user.CounsellorQueryStatus != nil && *user.CounsellorQueryStatus == domain.QueryStatusResolved {
		return nil
	}

	if err := s.users.SetCounsellorQueryStatus(ctx, user.ID, domain.QueryStatusResolved); err != nil {
		return mapUserErr(err, user.ID)
	}
	s.logger.Info("counsellor query resolved",
		zap.String("phone", phone),
		zap.String("actor_id", actorID))
	return nil
}
