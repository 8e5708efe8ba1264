package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/counsellor-desk/internal/auth"
	"github.com/spec-kit/counsellor-desk/internal/config"
	"github.com/spec-kit/counsellor-desk/internal/domain"
	"github.com/spec-kit/counsellor-desk/internal/repository"
	"github.com/spec-kit/counsellor-desk/pkg/apperrors"
)

// AuthService authenticates counsellors and issues access tokens.
type AuthService struct {
	counsellors repository.CounsellorRepository
	tokens      *auth.TokenManager
	bcryptCost  int
}

// LoginResult carries the issued token and its expiry.
type LoginResult struct {
	Token      string
	ExpiresAt  time.Time
	Counsellor *domain.Counsellor
}

// NewAuthService constructs the service.
func NewAuthService(cfg config.AuthConfig, counsellors repository.CounsellorRepository) *AuthService {
	return &AuthService{
		counsellors: counsellors,
		tokens:      auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost:  cfg.BcryptCost,
	}
}

// TokenManager exposes the manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// Login verifies credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	counsellor, err := s.counsellors.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if err := auth.ComparePassword(counsellor.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(counsellor.ID, counsellor.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Counsellor: counsellor}, nil
}

// Register creates a counsellor account.
func (s *AuthService) Register(ctx context.Context, name, email, password string, role domain.CounsellorRole) (*domain.Counsellor, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	counsellor := &domain.Counsellor{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.counsellors.Create(ctx, counsellor); err != nil {
		return nil, err
	}
	return counsellor, nil
}
