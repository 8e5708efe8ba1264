package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/counsellor-desk/internal/domain"
)

// CounsellorRepository manages counsellor accounts.
type CounsellorRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Counsellor, error)
	GetByEmail(ctx context.Context, email string) (*domain.Counsellor, error)
	Create(ctx context.Context, counsellor *domain.Counsellor) error
}

type counsellorRepository struct {
	pool *pgxpool.Pool
}

// NewCounsellorRepository instantiates the repository.
func NewCounsellorRepository(pool *pgxpool.Pool) CounsellorRepository {
	return &counsellorRepository{pool: pool}
}

func (r *counsellorRepository) GetByID(ctx context.Context, id string) (*domain.Counsellor, error) {
	return r.fetchSingle(ctx, `SELECT id, name, email, password_hash, role, created_at FROM counsellors WHERE id=$1`, id)
}

func (r *counsellorRepository) GetByEmail(ctx context.Context, email string) (*domain.Counsellor, error) {
	return r.fetchSingle(ctx, `SELECT id, name, email, password_hash, role, created_at FROM counsellors WHERE email=$1`, email)
}

func (r *counsellorRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Counsellor, error) {
	var c domain.Counsellor
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.PasswordHash,
		&c.Role,
		&c.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *counsellorRepository) Create(ctx context.Context, counsellor *domain.Counsellor) error {
	const query = `
        INSERT INTO counsellors (name, email, password_hash, role)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		counsellor.Name,
		counsellor.Email,
		counsellor.PasswordHash,
		counsellor.Role,
	).Scan(&counsellor.ID, &counsellor.CreatedAt)
}
