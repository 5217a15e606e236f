package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-engine/internal/api/dto"
	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/repository"
	"github.com/spec-kit/sla-engine/internal/service"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// ViolationsHandler exposes the detector pass and violation admin endpoints.
type ViolationsHandler struct {
	service *service.ViolationService
}

// NewViolationsHandler constructs handler.
func NewViolationsHandler(violationService *service.ViolationService) *ViolationsHandler {
	return &ViolationsHandler{service: violationService}
}

// CheckViolations POST /sla/check/violations. A pass with per-item
// failures still returns 200 with the error list; only failing to load the
// candidate set yields a 5xx.
func (h *ViolationsHandler) CheckViolations(c *fiber.Ctx) error {
	result, err := h.service.CheckViolations(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.ViolationResponse, 0, len(result.Created))
	for i := range result.Created {
		items = append(items, violationResponse(&result.Created[i]))
	}
	return c.JSON(fiber.Map{
		"data": items,
		"pass": passResponse(result.Stats),
	})
}

// ListViolations GET /sla/violations.
func (h *ViolationsHandler) ListViolations(c *fiber.Ctx) error {
	filter := repository.ViolationFilter{
		Unresolved: c.QueryBool("unresolved", false),
		Limit:      c.QueryInt("page_size", 50),
	}
	if ticketID := c.Query("ticket_id"); ticketID != "" {
		filter.TicketID = &ticketID
	}
	if vtype := c.Query("type"); vtype != "" {
		t := domain.ViolationType(vtype)
		filter.Type = &t
	}
	page := c.QueryInt("page", 1)
	if page > 1 {
		filter.Offset = (page - 1) * filter.Limit
	}

	violations, err := h.service.ListViolations(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.ViolationResponse, 0, len(violations))
	for i := range violations {
		items = append(items, violationResponse(&violations[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ResolveViolation POST /sla/violations/:id/resolve. Resolving twice is a
// no-op.
func (h *ViolationsHandler) ResolveViolation(c *fiber.Ctx) error {
	violation, err := h.service.ResolveViolation(c.Context(), c.Params("id"))
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": violationResponse(violation)})
}

// ResolveTicketViolations POST /sla/tickets/:id/violations/resolve. Called
// by the helpdesk application when a ticket reaches a terminal status.
func (h *ViolationsHandler) ResolveTicketViolations(c *fiber.Ctx) error {
	resolved, err := h.service.ResolveOpenViolationsForTicket(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"resolved": resolved}})
}

func violationResponse(v *domain.SLAViolation) dto.ViolationResponse {
	return dto.ViolationResponse{
		ID:            v.ID,
		TicketID:      v.TicketID,
		RuleID:        v.RuleID,
		ViolationType: v.Type,
		ExpectedTime:  v.ExpectedTime,
		ActualTime:    v.ActualTime,
		DurationHours: v.DurationHours,
		IsResolved:    v.IsResolved,
		ResolvedAt:    v.ResolvedAt,
	}
}

func passResponse(stats service.PassStats) dto.PassResponse {
	resp := dto.PassResponse{
		Created: stats.Created,
		Errors:  make([]dto.PassError, 0, len(stats.Errors)),
		Skipped: stats.Skipped,
	}
	for _, itemErr := range stats.Errors {
		resp.Errors = append(resp.Errors, dto.PassError{ItemID: itemErr.ItemID, Error: itemErr.Error})
	}
	return resp
}
