package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-engine/internal/api/dto"
	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/service"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// RulesHandler manages the SLA rule admin endpoints.
type RulesHandler struct {
	service *service.RuleService
}

// NewRulesHandler constructs handler.
func NewRulesHandler(ruleService *service.RuleService) *RulesHandler {
	return &RulesHandler{service: ruleService}
}

// CreateRule POST /sla/rules.
func (h *RulesHandler) CreateRule(c *fiber.Ctx) error {
	var req dto.CreateRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	rule, err := h.service.CreateRule(c.Context(), service.RuleInput{
		Priority:                req.Priority,
		InitialResponseHours:    req.InitialResponseHours,
		ResolutionHours:         req.ResolutionHours,
		EscalationLevels:        req.EscalationLevels,
		EscalationIntervalHours: req.EscalationIntervalHours,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ruleResponse(rule)})
}

// ListRules GET /sla/rules.
func (h *RulesHandler) ListRules(c *fiber.Ctx) error {
	onlyActive := c.QueryBool("active", false)
	rules, err := h.service.ListRules(c.Context(), onlyActive)
	if err != nil {
		return err
	}
	items := make([]dto.RuleResponse, 0, len(rules))
	for i := range rules {
		items = append(items, ruleResponse(&rules[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetRule GET /sla/rules/:id.
func (h *RulesHandler) GetRule(c *fiber.Ctx) error {
	rule, err := h.service.GetRule(c.Context(), c.Params("id"))
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": ruleResponse(rule)})
}

// UpdateRule PUT /sla/rules/:id.
func (h *RulesHandler) UpdateRule(c *fiber.Ctx) error {
	var req dto.CreateRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	rule, err := h.service.UpdateRule(c.Context(), c.Params("id"), service.RuleInput{
		Priority:                req.Priority,
		InitialResponseHours:    req.InitialResponseHours,
		ResolutionHours:         req.ResolutionHours,
		EscalationLevels:        req.EscalationLevels,
		EscalationIntervalHours: req.EscalationIntervalHours,
	})
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": ruleResponse(rule)})
}

// DeactivateRule DELETE /sla/rules/:id.
func (h *RulesHandler) DeactivateRule(c *fiber.Ctx) error {
	if err := h.service.DeactivateRule(c.Context(), c.Params("id")); err != nil {
		return apperrors.MapError(err)
	}
	return c.SendStatus(http.StatusNoContent)
}

// CreateEscalationRule POST /sla/rules/:id/escalations.
func (h *RulesHandler) CreateEscalationRule(c *fiber.Ctx) error {
	var req dto.CreateEscalationRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	var target domain.EscalationTarget
	switch {
	case req.EscalateToUserID != nil && req.EscalateToRole == nil:
		target = domain.UserTarget(*req.EscalateToUserID)
	case req.EscalateToRole != nil && req.EscalateToUserID == nil:
		target = domain.RoleTarget(domain.StaffRole(*req.EscalateToRole))
	default:
		return apperrors.NewValidationError("exactly one of escalate_to_user_id or escalate_to_role required", nil)
	}

	rule, err := h.service.CreateEscalationRule(c.Context(), c.Params("id"), service.EscalationRuleInput{
		Level:  req.Level,
		Target: target,
	})
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": escalationRuleResponse(rule)})
}

// ListEscalationRules GET /sla/rules/:id/escalations.
func (h *RulesHandler) ListEscalationRules(c *fiber.Ctx) error {
	rules, err := h.service.ListEscalationRules(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.EscalationRuleResponse, 0, len(rules))
	for i := range rules {
		items = append(items, escalationRuleResponse(&rules[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func ruleResponse(rule *domain.SLARule) dto.RuleResponse {
	return dto.RuleResponse{
		ID:                      rule.ID,
		Priority:                rule.Priority,
		InitialResponseHours:    rule.InitialResponseHours,
		ResolutionHours:         rule.ResolutionHours,
		EscalationLevels:        rule.EscalationLevels,
		EscalationIntervalHours: rule.EscalationIntervalHours,
		IsActive:                rule.IsActive,
		CreatedAt:               rule.CreatedAt,
		UpdatedAt:               rule.UpdatedAt,
	}
}

func escalationRuleResponse(rule *domain.EscalationRule) dto.EscalationRuleResponse {
	resp := dto.EscalationRuleResponse{
		ID:         rule.ID,
		RuleID:     rule.RuleID,
		Level:      rule.Level,
		TargetKind: string(rule.Target.Kind),
		IsActive:   rule.IsActive,
	}
	if rule.Target.Kind == domain.TargetKindUser {
		userID := rule.Target.UserID
		resp.EscalateToUserID = &userID
	} else if rule.Target.Kind == domain.TargetKindRole {
		role := string(rule.Target.Role)
		resp.EscalateToRole = &role
	}
	return resp
}
