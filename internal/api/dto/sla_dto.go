package dto

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// CreateRuleRequest creates/replaces the active rule for a priority.
type CreateRuleRequest struct {
	Priority                domain.TicketPriority `json:"priority"`
	InitialResponseHours    float64               `json:"initial_response_hours"`
	ResolutionHours         float64               `json:"resolution_hours"`
	EscalationLevels        int                   `json:"escalation_levels"`
	EscalationIntervalHours float64               `json:"escalation_interval_hours"`
}

// RuleResponse is the wire form of an SLA rule.
type RuleResponse struct {
	ID                      string                `json:"id"`
	Priority                domain.TicketPriority `json:"priority"`
	InitialResponseHours    float64               `json:"initial_response_hours"`
	ResolutionHours         float64               `json:"resolution_hours"`
	EscalationLevels        int                   `json:"escalation_levels"`
	EscalationIntervalHours float64               `json:"escalation_interval_hours"`
	IsActive                bool                  `json:"is_active"`
	CreatedAt               time.Time             `json:"created_at"`
	UpdatedAt               time.Time             `json:"updated_at"`
}

// CreateEscalationRuleRequest configures routing for one level.
type CreateEscalationRuleRequest struct {
	Level            int     `json:"escalation_level"`
	EscalateToUserID *string `json:"escalate_to_user_id,omitempty"`
	EscalateToRole   *string `json:"escalate_to_role,omitempty"`
}

// EscalationRuleResponse is the wire form of a routing entry.
type EscalationRuleResponse struct {
	ID               string  `json:"id"`
	RuleID           string  `json:"sla_rule_id"`
	Level            int     `json:"escalation_level"`
	TargetKind       string  `json:"target_kind"`
	EscalateToUserID *string `json:"escalate_to_user_id,omitempty"`
	EscalateToRole   *string `json:"escalate_to_role,omitempty"`
	IsActive         bool    `json:"is_active"`
}

// ViolationResponse is the wire form of a violation.
type ViolationResponse struct {
	ID            string               `json:"id"`
	TicketID      string               `json:"ticket_id"`
	RuleID        string               `json:"sla_rule_id"`
	ViolationType domain.ViolationType `json:"violation_type"`
	ExpectedTime  time.Time            `json:"expected_time"`
	ActualTime    time.Time            `json:"actual_time"`
	DurationHours float64              `json:"violation_duration_hours"`
	IsResolved    bool                 `json:"is_resolved"`
	ResolvedAt    *time.Time           `json:"resolved_at,omitempty"`
}

// EscalationResponse is the wire form of an escalation record.
type EscalationResponse struct {
	ID          string     `json:"id"`
	TicketID    string     `json:"ticket_id"`
	ViolationID string     `json:"violation_id"`
	Level       int        `json:"escalation_level"`
	EscalatedTo string     `json:"escalated_to_user_id"`
	Reason      string     `json:"escalation_reason"`
	EscalatedAt time.Time  `json:"escalation_time"`
	IsResolved  bool       `json:"is_resolved"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy  *string    `json:"resolved_by_user_id,omitempty"`
}

// NotificationResponse is the wire form of a notification.
type NotificationResponse struct {
	ID       string                  `json:"id"`
	TicketID string                  `json:"ticket_id"`
	Type     domain.NotificationType `json:"notification_type"`
	Message  string                  `json:"message"`
	SentTo   *string                 `json:"sent_to_user_id,omitempty"`
	IsRead   bool                    `json:"is_read"`
	SentAt   time.Time               `json:"sent_at"`
	ReadAt   *time.Time              `json:"read_at,omitempty"`
}

// ResolveEscalationRequest carries the resolving operator.
type ResolveEscalationRequest struct {
	ResolvedBy *string `json:"resolved_by_user_id,omitempty"`
}

// PassResponse reports the outcome of a manual check pass.
type PassResponse struct {
	Created int         `json:"created"`
	Errors  []PassError `json:"errors"`
	Skipped bool        `json:"skipped,omitempty"`
}

// PassError is one failed item inside a pass.
type PassError struct {
	ItemID string `json:"item_id"`
	Error  string `json:"error"`
}
