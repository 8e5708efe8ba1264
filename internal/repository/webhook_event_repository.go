package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/counsellor-desk/internal/domain"
)

// WebhookEventRepository logs raw provider webhook deliveries for debugging.
type WebhookEventRepository interface {
	Create(ctx context.Context, event *domain.WebhookEvent) error
	MarkProcessed(ctx context.Context, id, action string) error
	List(ctx context.Context, outgoing *bool, limit int) ([]domain.WebhookEvent, error)
}

type webhookEventRepository struct {
	pool *pgxpool.Pool
}

// NewWebhookEventRepository builds the repository.
func NewWebhookEventRepository(pool *pgxpool.Pool) WebhookEventRepository {
	return &webhookEventRepository{pool: pool}
}

func (r *webhookEventRepository) Create(ctx context.Context, event *domain.WebhookEvent) error {
	const query = `
        INSERT INTO webhook_events (event_type, phone_number, is_outgoing, raw_payload)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		event.EventType,
		event.PhoneNumber,
		event.Outgoing,
		event.RawPayload,
	).Scan(&event.ID, &event.CreatedAt)
}

func (r *webhookEventRepository) MarkProcessed(ctx context.Context, id, action string) error {
	const query = `UPDATE webhook_events SET processed=TRUE, action_taken=$1 WHERE id=$2`
	_, err := r.pool.Exec(ctx, query, action, id)
	return err
}

func (r *webhookEventRepository) List(ctx context.Context, outgoing *bool, limit int) ([]domain.WebhookEvent, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if outgoing != nil {
		args = append(args, *outgoing)
		clauses = append(clauses, fmt.Sprintf("is_outgoing=$%d", len(args)))
	}
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
        SELECT id, event_type, phone_number, is_outgoing, raw_payload, processed, action_taken, created_at
        FROM webhook_events WHERE %s ORDER BY created_at DESC LIMIT %d`,
		strings.Join(clauses, " AND "), limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.WebhookEvent
	for rows.Next() {
		var event domain.WebhookEvent
		if err := rows.Scan(
			&event.ID,
			&event.EventType,
			&event.PhoneNumber,
			&event.Outgoing,
			&event.RawPayload,
			&event.Processed,
			&event.ActionTaken,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}
