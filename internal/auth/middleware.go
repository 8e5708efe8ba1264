package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/counsellor-desk/internal/domain"
	"github.com/spec-kit/counsellor-desk/internal/repository"
	"github.com/spec-kit/counsellor-desk/pkg/apperrors"
)

const principalKey = "auth_principal"

// Principal is the authenticated counsellor making the request.
type Principal struct {
	Counsellor *domain.Counsellor
	Role       domain.CounsellorRole
}

// AuthMiddleware validates bearer tokens and loads the counsellor principal.
type AuthMiddleware struct {
	tokens      *TokenManager
	counsellors repository.CounsellorRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, counsellors repository.CounsellorRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, counsellors: counsellors}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	counsellor, err := m.counsellors.GetByID(c.Context(), claims.CounsellorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("counsellor not found")
		}
		return apperrors.ToDomainError(err)
	}

	c.Locals(principalKey, &Principal{Counsellor: counsellor, Role: counsellor.Role})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated counsellor.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// RequireRole ensures the principal holds one of the allowed roles. With no
// arguments it only requires authentication.
func RequireRole(allowed ...domain.CounsellorRole) fiber.Handler {
	allowedSet := make(map[domain.CounsellorRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Counsellor == nil {
			return apperrors.NewUnauthorized("counsellor authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
