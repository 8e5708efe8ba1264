package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/counsellor-desk/internal/api/dto"
	"github.com/spec-kit/counsellor-desk/internal/auth"
	"github.com/spec-kit/counsellor-desk/internal/repository"
	"github.com/spec-kit/counsellor-desk/internal/service"
	"github.com/spec-kit/counsellor-desk/pkg/apperrors"
)

// BroadcastsHandler serves the broadcast failure ledger.
type BroadcastsHandler struct {
	service *service.BroadcastService
}

// NewBroadcastsHandler constructs handler.
func NewBroadcastsHandler(broadcastService *service.BroadcastService) *BroadcastsHandler {
	return &BroadcastsHandler{service: broadcastService}
}

// ListFailed GET /api/broadcasts/failed.
func (h *BroadcastsHandler) ListFailed(c *fiber.Ctx) error {
	filter := repository.BroadcastFilter{}
	if phone := c.Query("phone"); phone != "" {
		filter.Phone = &phone
	}
	if remStr := c.Query("remediated"); remStr != "" {
		if rem, err := strconv.ParseBool(remStr); err == nil {
			filter.Remediated = &rem
		}
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}

	records, err := h.service.ListFailed(c.Context(), filter)
	if err != nil {
		return err
	}

	items := make([]dto.BroadcastResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, dto.BroadcastResponse{
			ID:             rec.ID,
			Phone:          rec.Phone,
			Body:           rec.Body,
			SentAt:         rec.SentAt,
			DeliveryStatus: rec.DeliveryStatus,
			FailureReason:  rec.FailureReason,
			ManuallySentBy: rec.ManuallySentBy,
			ManuallySentAt: rec.ManuallySentAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// MarkResent POST /api/broadcasts/:id/resend.
func (h *BroadcastsHandler) MarkResent(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Counsellor == nil {
		return apperrors.NewUnauthorized("counsellor required")
	}

	if err := h.service.MarkManuallySent(c.Context(), c.Params("id"), principal.Counsellor.ID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "remediated"}})
}
