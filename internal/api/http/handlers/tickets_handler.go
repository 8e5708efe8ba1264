package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/counsellor-desk/internal/api/dto"
	"github.com/spec-kit/counsellor-desk/internal/auth"
	"github.com/spec-kit/counsellor-desk/internal/domain"
	"github.com/spec-kit/counsellor-desk/internal/repository"
	"github.com/spec-kit/counsellor-desk/internal/service"
	"github.com/spec-kit/counsellor-desk/pkg/apperrors"
)

// TicketsHandler serves the counsellor ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// List GET /api/tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	filter := repository.TicketFilter{}
	if status := c.Query("status"); status != "" {
		s := domain.TicketStatus(status)
		filter.Status = &s
	}
	if category := c.Query("category"); category != "" {
		cat := domain.TicketCategory(category)
		filter.Category = &cat
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}

	list, err := h.service.ListTickets(c.Context(), filter)
	if err != nil {
		return err
	}

	items := make([]dto.TicketSummary, 0, len(list.Tickets))
	for i := range list.Tickets {
		items = append(items, ticketSummary(&list.Tickets[i]))
	}
	return c.JSON(fiber.Map{"data": dto.TicketListResponse{
		Tickets: items,
		Stats: dto.TicketStatsResponse{
			Total:      list.Stats.Total,
			Pending:    list.Stats.Pending,
			InProgress: list.Stats.InProgress,
			Resolved:   list.Stats.Resolved,
			Queries:    list.Stats.Queries,
			Concerns:   list.Stats.Concerns,
		},
	}})
}

// Get GET /api/tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	detail, err := h.service.GetTicketDetail(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}

	msgs := make([]dto.MessageResponse, 0, len(detail.Messages))
	for i := range detail.Messages {
		msgs = append(msgs, messageResponse(&detail.Messages[i]))
	}
	return c.JSON(fiber.Map{"data": dto.TicketDetailResponse{
		Ticket: ticketSummary(detail.Ticket),
		User: dto.UserResponse{
			ID:            detail.User.ID,
			PhoneNumber:   detail.User.PhoneNumber,
			Name:          detail.User.Name,
			Email:         detail.User.Email,
			LastInboundAt: detail.User.LastInboundAt,
		},
		Window: dto.WindowStatusResponse{
			Active:         detail.Window.Active,
			HoursRemaining: detail.Window.HoursRemaining,
		},
		Messages: msgs,
	}})
}

// Reply POST /api/tickets/:id/reply.
func (h *TicketsHandler) Reply(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Counsellor == nil {
		return apperrors.NewUnauthorized("counsellor required")
	}
	var req dto.SendReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	msg, err := h.service.SendReply(c.Context(), c.Params("id"), req.Text,
		principal.Counsellor.ID, principal.Counsellor.Name)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": messageResponse(msg)})
}

// SetStatus PATCH /api/tickets/:id/status.
func (h *TicketsHandler) SetStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Counsellor == nil {
		return apperrors.NewUnauthorized("counsellor required")
	}
	var req dto.SetStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.SetStatus(c.Context(), c.Params("id"), req.Status, principal.Counsellor.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:           ticket.ID,
		TicketNumber: ticket.TicketNumber,
		UserID:       ticket.UserID,
		Category:     ticket.Category,
		Status:       ticket.Status,
		MessageCount: ticket.MessageCount,
		CreatedAt:    ticket.CreatedAt,
		UpdatedAt:    ticket.UpdatedAt,
		ResolvedAt:   ticket.ResolvedAt,
		ResolvedBy:   ticket.ResolvedBy,
	}
}

func messageResponse(msg *domain.Message) dto.MessageResponse {
	return dto.MessageResponse{
		ID:             msg.ID,
		Direction:      msg.Direction,
		Body:           msg.Body,
		MediaURL:       msg.MediaURL,
		MediaFilename:  msg.MediaFilename,
		SenderLabel:    msg.SenderLabel,
		DeliveryStatus: msg.DeliveryStatus,
		CreatedAt:      msg.CreatedAt,
	}
}
