package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/counsellor-desk/internal/domain"
)

// BroadcastFilter narrows the failed-broadcast listing.
type BroadcastFilter struct {
	Phone      *string
	Remediated *bool
	Limit      int
}

// BroadcastRepository reads and remediates the broadcast failure ledger.
// Records are created by the broadcast subsystem; this core never inserts or
// deletes them.
type BroadcastRepository interface {
	GetByID(ctx context.Context, id string) (*domain.BroadcastRecord, error)
	ListFailed(ctx context.Context, filter BroadcastFilter) ([]domain.BroadcastRecord, error)
	MarkManuallySent(ctx context.Context, id, operator string, at time.Time) (bool, error)
}

type broadcastRepository struct {
	pool *pgxpool.Pool
}

// NewBroadcastRepository instantiates the repository.
func NewBroadcastRepository(pool *pgxpool.Pool) BroadcastRepository {
	return &broadcastRepository{pool: pool}
}

const broadcastColumns = `id, phone, body, sent_at, delivery_status, failure_reason, manually_sent_by, manually_sent_at`

func (r *broadcastRepository) GetByID(ctx context.Context, id string) (*domain.BroadcastRecord, error) {
	var rec domain.BroadcastRecord
	if err := r.pool.QueryRow(ctx, `SELECT `+broadcastColumns+` FROM broadcasts WHERE id=$1`, id).Scan(
		&rec.ID,
		&rec.Phone,
		&rec.Body,
		&rec.SentAt,
		&rec.DeliveryStatus,
		&rec.FailureReason,
		&rec.ManuallySentBy,
		&rec.ManuallySentAt,
	); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *broadcastRepository) ListFailed(ctx context.Context, filter BroadcastFilter) ([]domain.BroadcastRecord, error) {
	clauses := []string{"delivery_status='failed'"}
	args := []any{}

	if filter.Phone != nil {
		args = append(args, *filter.Phone)
		clauses = append(clauses, fmt.Sprintf("phone=$%d", len(args)))
	}
	if filter.Remediated != nil {
		if *filter.Remediated {
			clauses = append(clauses, "manually_sent_at IS NOT NULL")
		} else {
			clauses = append(clauses, "manually_sent_at IS NULL")
		}
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`SELECT %s FROM broadcasts WHERE %s ORDER BY sent_at DESC LIMIT %d`,
		broadcastColumns, strings.Join(clauses, " AND "), limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.BroadcastRecord
	for rows.Next() {
		var rec domain.BroadcastRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.Phone,
			&rec.Body,
			&rec.SentAt,
			&rec.DeliveryStatus,
			&rec.FailureReason,
			&rec.ManuallySentBy,
			&rec.ManuallySentAt,
		); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// MarkManuallySent stamps remediation only when it is still unset. Returns
// false when the record was already remediated, without touching the delivery
// facts.
func (r *broadcastRepository) MarkManuallySent(ctx context.Context, id, operator string, at time.Time) (bool, error) {
	const query = `
        UPDATE broadcasts SET manually_sent_by=$1, manually_sent_at=$2
        WHERE id=$3 AND manually_sent_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, operator, at, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
