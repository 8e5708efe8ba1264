package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/counsellor-desk/internal/api/dto"
	"github.com/spec-kit/counsellor-desk/internal/domain"
	"github.com/spec-kit/counsellor-desk/internal/service"
	"github.com/spec-kit/counsellor-desk/pkg/apperrors"
)

// WebhookHandler receives provider webhook deliveries and exposes the intake
// log.
type WebhookHandler struct {
	service *service.InboxService
}

// NewWebhookHandler constructs handler.
func NewWebhookHandler(inboxService *service.InboxService) *WebhookHandler {
	return &WebhookHandler{service: inboxService}
}

// Receive POST /webhook/wati.
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	var req dto.WebhookRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.WebhookInput{
		EventID:        req.EventID,
		EventType:      req.EventType,
		Outgoing:       req.Owner,
		RawPayload:     string(c.Body()),
		MessageID:      req.MessageID,
		DeliveryStatus: domain.DeliveryStatus(req.DeliveryStatus),
	}
	if !req.Owner && req.MessageID == "" {
		msg := service.InboundMessage{
			TicketID:          req.TicketID,
			Category:          domain.TicketCategory(req.Category),
			Phone:             req.WaID,
			Text:              req.Text,
			MediaURL:          req.MediaURL,
			MediaFilename:     req.MediaFilename,
			CounsellorRequest: req.CounsellorRequest,
		}
		if req.SenderName != "" {
			name := req.SenderName
			msg.SenderName = &name
		}
		if req.Timestamp != nil {
			msg.Timestamp = *req.Timestamp
		}
		input.Message = &msg
	}

	action, err := h.service.ProcessWebhook(c.Context(), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "processed", "action": action})
}

// ListEvents GET /api/webhook-events.
func (h *WebhookHandler) ListEvents(c *fiber.Ctx) error {
	var outgoing *bool
	if outStr := c.Query("is_outgoing"); outStr != "" {
		if out, err := strconv.ParseBool(outStr); err == nil {
			outgoing = &out
		}
	}
	limit := 50
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	eventLog, err := h.service.ListWebhookEvents(c.Context(), outgoing, limit)
	if err != nil {
		return err
	}

	items := make([]dto.WebhookEventResponse, 0, len(eventLog))
	for _, event := range eventLog {
		items = append(items, dto.WebhookEventResponse{
			ID:          event.ID,
			EventType:   event.EventType,
			PhoneNumber: event.PhoneNumber,
			Outgoing:    event.Outgoing,
			Processed:   event.Processed,
			ActionTaken: event.ActionTaken,
			CreatedAt:   event.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}
