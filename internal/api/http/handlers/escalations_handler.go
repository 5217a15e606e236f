package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-engine/internal/api/dto"
	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/repository"
	"github.com/spec-kit/sla-engine/internal/service"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// EscalationsHandler exposes the calculator pass and escalation admin
// endpoints.
type EscalationsHandler struct {
	service *service.EscalationService
}

// NewEscalationsHandler constructs handler.
func NewEscalationsHandler(escalationService *service.EscalationService) *EscalationsHandler {
	return &EscalationsHandler{service: escalationService}
}

// CheckEscalations POST /sla/check/escalations.
func (h *EscalationsHandler) CheckEscalations(c *fiber.Ctx) error {
	result, err := h.service.CheckEscalations(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.EscalationResponse, 0, len(result.Created))
	for i := range result.Created {
		items = append(items, escalationResponse(&result.Created[i]))
	}
	return c.JSON(fiber.Map{
		"data": items,
		"pass": passResponse(result.Stats),
	})
}

// ListEscalations GET /sla/escalations.
func (h *EscalationsHandler) ListEscalations(c *fiber.Ctx) error {
	filter := repository.EscalationFilter{
		Unresolved: c.QueryBool("unresolved", false),
		Limit:      c.QueryInt("page_size", 50),
	}
	if ticketID := c.Query("ticket_id"); ticketID != "" {
		filter.TicketID = &ticketID
	}
	page := c.QueryInt("page", 1)
	if page > 1 {
		filter.Offset = (page - 1) * filter.Limit
	}

	records, err := h.service.ListEscalations(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.EscalationResponse, 0, len(records))
	for i := range records {
		items = append(items, escalationResponse(&records[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ResolveEscalation POST /sla/escalations/:id/resolve. Resolving twice is
// a no-op.
func (h *EscalationsHandler) ResolveEscalation(c *fiber.Ctx) error {
	var req dto.ResolveEscalationRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	record, err := h.service.ResolveEscalation(c.Context(), c.Params("id"), req.ResolvedBy)
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": escalationResponse(record)})
}

func escalationResponse(record *domain.EscalationRecord) dto.EscalationResponse {
	return dto.EscalationResponse{
		ID:          record.ID,
		TicketID:    record.TicketID,
		ViolationID: record.ViolationID,
		Level:       record.Level,
		EscalatedTo: record.EscalatedTo,
		Reason:      record.Reason,
		EscalatedAt: record.EscalatedAt,
		IsResolved:  record.IsResolved,
		ResolvedAt:  record.ResolvedAt,
		ResolvedBy:  record.ResolvedBy,
	}
}
