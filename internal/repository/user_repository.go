package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/counsellor-desk/internal/domain"
)

// UserRepository manages conversation users keyed by phone number.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	UpsertByPhone(ctx context.Context, phone string, name, email *string) (*domain.User, error)
	TouchLastInbound(ctx context.Context, userID string, at time.Time) error
	SetCounsellorQuery(ctx context.Context, userID, query string) error
	SetCounsellorQueryStatus(ctx context.Context, userID string, status domain.CounsellorQueryStatus) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository instantiates the repository.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, phone_number, name, email, last_inbound_at,
        counsellor_query, counsellor_query_status, created_at, updated_at`

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *userRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return r.fetchSingle(ctx, `SELECT `+userColumns+` FROM users WHERE phone_number=$1`, phone)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.PhoneNumber,
		&user.Name,
		&user.Email,
		&user.LastInboundAt,
		&user.CounsellorQuery,
		&user.CounsellorQueryStatus,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpsertByPhone creates the user on first contact, or fills name/email when
// they were not known before.
func (r *userRepository) UpsertByPhone(ctx context.Context, phone string, name, email *string) (*domain.User, error) {
	const query = `
        INSERT INTO users (phone_number, name, email)
        VALUES ($1,$2,$3)
        ON CONFLICT (phone_number) DO UPDATE SET
            name = COALESCE(users.name, EXCLUDED.name),
            email = COALESCE(users.email, EXCLUDED.email),
            updated_at = NOW()
        RETURNING ` + userColumns
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, phone, name, email).Scan(
		&user.ID,
		&user.PhoneNumber,
		&user.Name,
		&user.Email,
		&user.LastInboundAt,
		&user.CounsellorQuery,
		&user.CounsellorQueryStatus,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) TouchLastInbound(ctx context.Context, userID string, at time.Time) error {
	// GREATEST guards against out-of-order webhook deliveries.
	const query = `
        UPDATE users SET last_inbound_at = GREATEST(COALESCE(last_inbound_at, 'epoch'::timestamptz), $1),
            updated_at = NOW()
        WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, at, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) SetCounsellorQuery(ctx context.Context, userID, query string) error {
	const stmt = `
        UPDATE users SET counsellor_query=$1, counsellor_query_status='pending', updated_at=NOW()
        WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, stmt, query, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) SetCounsellorQueryStatus(ctx context.Context, userID string, status domain.CounsellorQueryStatus) error {
	const stmt = `UPDATE users SET counsellor_query_status=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, stmt, status, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
