package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/counsellor-desk/internal/auth"
	"github.com/spec-kit/counsellor-desk/internal/service"
	"github.com/spec-kit/counsellor-desk/pkg/apperrors"
)

// QueriesHandler serves the legacy counsellor query queue.
type QueriesHandler struct {
	service *service.QueueService
}

// NewQueriesHandler constructs handler.
func NewQueriesHandler(queueService *service.QueueService) *QueriesHandler {
	return &QueriesHandler{service: queueService}
}

// Resolve POST /api/queries/:phone/resolve.
func (h *QueriesHandler) Resolve(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Counsellor == nil {
		return apperrors.NewUnauthorized("counsellor required")
	}

	if err := h.service.MarkResolved(c.Context(), c.Params("phone"), principal.Counsellor.ID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "resolved"}})
}
