package events

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventViolationDetected   EventType = "sla_violation_detected"
	EventViolationResolved   EventType = "sla_violation_resolved"
	EventEscalationTriggered EventType = "sla_escalation_triggered"
	EventEscalationResolved  EventType = "sla_escalation_resolved"
)

// Event represents a domain event emitted by the engine.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ViolationDetectedPayload payload.
type ViolationDetectedPayload struct {
	ViolationID   string               `json:"violation_id"`
	RuleID        string               `json:"rule_id"`
	ViolationType domain.ViolationType `json:"violation_type"`
	ExpectedTime  time.Time            `json:"expected_time"`
	DurationHours float64              `json:"duration_hours"`
}

// ViolationResolvedPayload payload.
type ViolationResolvedPayload struct {
	ViolationID   string               `json:"violation_id"`
	ViolationType domain.ViolationType `json:"violation_type"`
}

// EscalationTriggeredPayload payload.
type EscalationTriggeredPayload struct {
	EscalationID  string               `json:"escalation_id"`
	ViolationID   string               `json:"violation_id"`
	Level         int                  `json:"level"`
	EscalatedTo   string               `json:"escalated_to"`
	Reason        string               `json:"reason"`
	ViolationType domain.ViolationType `json:"violation_type"`
}

// EscalationResolvedPayload payload.
type EscalationResolvedPayload struct {
	EscalationID string  `json:"escalation_id"`
	Level        int     `json:"level"`
	ResolvedBy   *string `json:"resolved_by,omitempty"`
}
