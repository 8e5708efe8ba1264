package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/counsellor-desk/internal/api/dto"
	"github.com/spec-kit/counsellor-desk/internal/domain"
	"github.com/spec-kit/counsellor-desk/internal/service"
	"github.com/spec-kit/counsellor-desk/pkg/apperrors"
)

// CounsellorsHandler serves counsellor authentication.
type CounsellorsHandler struct {
	service *service.AuthService
}

// NewCounsellorsHandler constructs handler.
func NewCounsellorsHandler(authService *service.AuthService) *CounsellorsHandler {
	return &CounsellorsHandler{service: authService}
}

// Login POST /auth/counsellors/login.
func (h *CounsellorsHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	result, err := h.service.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Name:      result.Counsellor.Name,
		Role:      string(result.Counsellor.Role),
	}})
}

// Register POST /api/admin/counsellors. Admin only.
func (h *CounsellorsHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterCounsellorRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || len(req.Password) < 8 {
		return apperrors.NewValidationError("name, email and a password of at least 8 characters are required", nil)
	}
	role := domain.CounsellorRole(req.Role)
	if role == "" {
		role = domain.RoleCounsellor
	}
	if role != domain.RoleCounsellor && role != domain.RoleAdmin {
		return apperrors.NewValidationError("unknown role", map[string]any{"role": req.Role})
	}

	counsellor, err := h.service.Register(c.Context(), req.Name, req.Email, req.Password, role)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.CounsellorResponse{
		ID:    counsellor.ID,
		Name:  counsellor.Name,
		Email: counsellor.Email,
		Role:  string(counsellor.Role),
	}})
}
