package domain

import "time"

// EscalationRecord captures one escalation step actually triggered for a
// ticket. At most one unresolved record exists per (ticket, level).
type EscalationRecord struct {
	ID          string
	TicketID    string
	ViolationID string
	Level       int
	EscalatedTo string
	Reason      string
	EscalatedAt time.Time
	IsResolved  bool
	ResolvedAt  *time.Time
	ResolvedBy  *string
}
