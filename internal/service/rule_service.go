package service

import (
	"context"
	"fmt"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/repository"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// RuleService is the administrative surface over SLA rules and their
// escalation routing. Invalid input is rejected here and never reaches the
// evaluation passes.
type RuleService struct {
	rules repository.RuleRepository
}

// NewRuleService constructs the service.
func NewRuleService(rules repository.RuleRepository) *RuleService {
	return &RuleService{rules: rules}
}

// RuleInput describes rule creation/update payloads.
type RuleInput struct {
	Priority                domain.TicketPriority
	InitialResponseHours    float64
	ResolutionHours         float64
	EscalationLevels        int
	EscalationIntervalHours float64
}

func (in RuleInput) validate() error {
	details := map[string]any{}
	if !domain.ValidPriority(in.Priority) {
		details["priority"] = "unknown priority"
	}
	if in.InitialResponseHours <= 0 {
		details["initial_response_hours"] = "must be > 0"
	}
	if in.ResolutionHours <= 0 {
		details["resolution_hours"] = "must be > 0"
	}
	if in.EscalationLevels < 1 {
		details["escalation_levels"] = "must be >= 1"
	}
	if in.EscalationIntervalHours <= 0 {
		details["escalation_interval_hours"] = "must be > 0"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid SLA rule", details)
	}
	return nil
}

// CreateRule activates a new rule for a priority, replacing any previously
// active rule for that priority.
func (s *RuleService) CreateRule(ctx context.Context, input RuleInput) (*domain.SLARule, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	rule := &domain.SLARule{
		Priority:                input.Priority,
		InitialResponseHours:    input.InitialResponseHours,
		ResolutionHours:         input.ResolutionHours,
		EscalationLevels:        input.EscalationLevels,
		EscalationIntervalHours: input.EscalationIntervalHours,
	}
	if err := s.rules.Create(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// UpdateRule changes the budgets of an existing rule in place.
func (s *RuleService) UpdateRule(ctx context.Context, id string, input RuleInput) (*domain.SLARule, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}
	rule, err := s.rules.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rule.Priority != input.Priority {
		return nil, apperrors.NewValidationError("priority of an existing rule cannot change", nil)
	}
	rule.InitialResponseHours = input.InitialResponseHours
	rule.ResolutionHours = input.ResolutionHours
	rule.EscalationLevels = input.EscalationLevels
	rule.EscalationIntervalHours = input.EscalationIntervalHours
	if err := s.rules.Update(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// DeactivateRule soft-disables a rule. Violations referencing it survive.
func (s *RuleService) DeactivateRule(ctx context.Context, id string) error {
	return s.rules.Deactivate(ctx, id)
}

// GetRule fetches one rule by id.
func (s *RuleService) GetRule(ctx context.Context, id string) (*domain.SLARule, error) {
	return s.rules.GetByID(ctx, id)
}

// GetRuleByPriority fetches the active rule for a priority.
func (s *RuleService) GetRuleByPriority(ctx context.Context, priority domain.TicketPriority) (*domain.SLARule, error) {
	if !domain.ValidPriority(priority) {
		return nil, apperrors.NewValidationError("unknown priority", nil)
	}
	return s.rules.GetActiveByPriority(ctx, priority)
}

// ListRules lists rules, optionally only active ones.
func (s *RuleService) ListRules(ctx context.Context, onlyActive bool) ([]domain.SLARule, error) {
	return s.rules.List(ctx, onlyActive)
}

// EscalationRuleInput describes routing configuration payloads.
type EscalationRuleInput struct {
	Level  int
	Target domain.EscalationTarget
}

// CreateEscalationRule configures the routing target for one level of a
// rule.
func (s *RuleService) CreateEscalationRule(ctx context.Context, ruleID string, input EscalationRuleInput) (*domain.EscalationRule, error) {
	rule, err := s.rules.GetByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if input.Level < 1 || input.Level > rule.EscalationLevels {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("escalation level must be between 1 and %d", rule.EscalationLevels), nil)
	}
	if !input.Target.Valid() {
		return nil, apperrors.NewValidationError("exactly one of user or role target must be set", nil)
	}
	escRule := &domain.EscalationRule{
		RuleID:   rule.ID,
		Level:    input.Level,
		Target:   input.Target,
		IsActive: true,
	}
	if err := s.rules.CreateEscalationRule(ctx, escRule); err != nil {
		return nil, err
	}
	return escRule, nil
}

// ListEscalationRules lists routing configuration for a rule.
func (s *RuleService) ListEscalationRules(ctx context.Context, ruleID string) ([]domain.EscalationRule, error) {
	return s.rules.ListEscalationRules(ctx, ruleID)
}

// DeactivateEscalationRule soft-disables one routing entry.
func (s *RuleService) DeactivateEscalationRule(ctx context.Context, id string) error {
	return s.rules.DeactivateEscalationRule(ctx, id)
}
