package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/counsellor-desk/internal/domain"
)

// MessageRepository owns the ordered conversation thread of a ticket. Append
// inserts the message and bumps the owning ticket's message_count inside one
// transaction so a reader never observes a count inconsistent with the thread
// length. Append and ListByTicket report pgx.ErrNoRows for an unknown ticket;
// an empty thread on an existing ticket is an empty slice, not an error.
type MessageRepository interface {
	Append(ctx context.Context, msg *domain.Message) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Message, error)
	LastInboundForUser(ctx context.Context, userID string) (*time.Time, error)
	UpdateDeliveryStatus(ctx context.Context, messageID string, status domain.DeliveryStatus) error
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository builds repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Append(ctx context.Context, msg *domain.Message) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Bump the count first: zero rows means the ticket does not exist and the
	// whole append must fail.
	cmd, err := tx.Exec(ctx,
		`UPDATE tickets SET message_count = message_count + 1, updated_at = NOW() WHERE id=$1`,
		msg.TicketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	const insert = `
        INSERT INTO messages (ticket_id, direction, body, media_url, media_filename, sender_label, delivery_status, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, seq`
	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	if err := tx.QueryRow(ctx, insert,
		msg.TicketID,
		msg.Direction,
		msg.Body,
		msg.MediaURL,
		msg.MediaFilename,
		msg.SenderLabel,
		msg.DeliveryStatus,
		createdAt,
	).Scan(&msg.ID, &msg.Seq); err != nil {
		return err
	}
	msg.CreatedAt = createdAt

	return tx.Commit(ctx)
}

func (r *messageRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Message, error) {
	// An empty thread and an unknown ticket are different answers.
	var exists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tickets WHERE id=$1)`, ticketID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, pgx.ErrNoRows
	}

	const query = `
        SELECT id, ticket_id, seq, direction, body, media_url, media_filename, sender_label, delivery_status, created_at
        FROM messages WHERE ticket_id=$1 ORDER BY created_at ASC, seq ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.TicketID,
			&msg.Seq,
			&msg.Direction,
			&msg.Body,
			&msg.MediaURL,
			&msg.MediaFilename,
			&msg.SenderLabel,
			&msg.DeliveryStatus,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}

func (r *messageRepository) LastInboundForUser(ctx context.Context, userID string) (*time.Time, error) {
	const query = `
        SELECT MAX(m.created_at)
        FROM messages m JOIN tickets t ON t.id = m.ticket_id
        WHERE t.user_id=$1 AND m.direction='incoming'`
	var last *time.Time
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&last); err != nil {
		return nil, err
	}
	return last, nil
}

func (r *messageRepository) UpdateDeliveryStatus(ctx context.Context, messageID string, status domain.DeliveryStatus) error {
	const query = `UPDATE messages SET delivery_status=$1 WHERE id=$2 AND direction='outgoing'`
	cmd, err := r.pool.Exec(ctx, query, status, messageID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
