package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-engine/internal/domain"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

func validRuleInput() RuleInput {
	return RuleInput{
		Priority:                domain.TicketPriorityHigh,
		InitialResponseHours:    1,
		ResolutionHours:         4,
		EscalationLevels:        3,
		EscalationIntervalHours: 2,
	}
}

func TestCreateRuleValidation(t *testing.T) {
	svc := NewRuleService(newFakeRuleRepo())
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*RuleInput)
		field  string
	}{
		{"unknown priority", func(in *RuleInput) { in.Priority = "CRITICAL" }, "priority"},
		{"zero response budget", func(in *RuleInput) { in.InitialResponseHours = 0 }, "initial_response_hours"},
		{"negative resolution budget", func(in *RuleInput) { in.ResolutionHours = -4 }, "resolution_hours"},
		{"zero levels", func(in *RuleInput) { in.EscalationLevels = 0 }, "escalation_levels"},
		{"zero interval", func(in *RuleInput) { in.EscalationIntervalHours = 0 }, "escalation_interval_hours"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validRuleInput()
			tt.mutate(&input)

			_, err := svc.CreateRule(ctx, input)
			require.Error(t, err)
			domainErr := apperrors.ToDomainError(err)
			assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
			assert.Contains(t, domainErr.Details, tt.field)
		})
	}
}

func TestCreateRuleReplacesActiveRuleForPriority(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRuleRepo()
	svc := NewRuleService(repo)

	first, err := svc.CreateRule(ctx, validRuleInput())
	require.NoError(t, err)
	assert.True(t, first.IsActive)

	input := validRuleInput()
	input.ResolutionHours = 8
	second, err := svc.CreateRule(ctx, input)
	require.NoError(t, err)

	active, err := svc.GetRuleByPriority(ctx, domain.TicketPriorityHigh)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
	assert.Equal(t, 8.0, active.ResolutionHours)

	replaced, err := svc.GetRule(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, replaced.IsActive)
}

func TestUpdateRuleKeepsPriority(t *testing.T) {
	ctx := context.Background()
	svc := NewRuleService(newFakeRuleRepo())

	rule, err := svc.CreateRule(ctx, validRuleInput())
	require.NoError(t, err)

	input := validRuleInput()
	input.Priority = domain.TicketPriorityLow
	_, err = svc.UpdateRule(ctx, rule.ID, input)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	input = validRuleInput()
	input.ResolutionHours = 6
	updated, err := svc.UpdateRule(ctx, rule.ID, input)
	require.NoError(t, err)
	assert.Equal(t, 6.0, updated.ResolutionHours)
	assert.Equal(t, domain.TicketPriorityHigh, updated.Priority)
}

func TestDeactivateRuleKeepsHistory(t *testing.T) {
	ctx := context.Background()
	svc := NewRuleService(newFakeRuleRepo())

	rule, err := svc.CreateRule(ctx, validRuleInput())
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateRule(ctx, rule.ID))

	kept, err := svc.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.False(t, kept.IsActive)

	_, err = svc.GetRuleByPriority(ctx, domain.TicketPriorityHigh)
	require.Error(t, err)
}

func TestGetRuleByPriorityRejectsUnknownPriority(t *testing.T) {
	svc := NewRuleService(newFakeRuleRepo())

	_, err := svc.GetRuleByPriority(context.Background(), "CRITICAL")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestCreateEscalationRuleBounds(t *testing.T) {
	ctx := context.Background()
	svc := NewRuleService(newFakeRuleRepo())

	rule, err := svc.CreateRule(ctx, validRuleInput()) // 3 levels
	require.NoError(t, err)

	for _, level := range []int{0, 4} {
		_, err = svc.CreateEscalationRule(ctx, rule.ID, EscalationRuleInput{
			Level:  level,
			Target: domain.UserTarget("u1"),
		})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
	}

	created, err := svc.CreateEscalationRule(ctx, rule.ID, EscalationRuleInput{
		Level:  3,
		Target: domain.RoleTarget(domain.StaffRoleAdmin),
	})
	require.NoError(t, err)
	assert.Equal(t, rule.ID, created.RuleID)
	assert.True(t, created.IsActive)
}

func TestCreateEscalationRuleRejectsInvalidTarget(t *testing.T) {
	ctx := context.Background()
	svc := NewRuleService(newFakeRuleRepo())

	rule, err := svc.CreateRule(ctx, validRuleInput())
	require.NoError(t, err)

	invalid := []domain.EscalationTarget{
		{},
		{Kind: domain.TargetKindUser},
		{Kind: domain.TargetKindUser, UserID: "u1", Role: domain.StaffRoleAdmin},
		{Kind: domain.TargetKindRole, Role: "SUPERVISOR"},
	}
	for _, target := range invalid {
		_, err = svc.CreateEscalationRule(ctx, rule.ID, EscalationRuleInput{Level: 1, Target: target})
		require.Error(t, err)
	}
}
