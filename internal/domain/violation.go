package domain

import "time"

// ViolationType distinguishes which SLA budget was breached.
type ViolationType string

const (
	ViolationTypeResponse   ViolationType = "response"
	ViolationTypeResolution ViolationType = "resolution"
)

// SLAViolation records one breach episode of a ticket's SLA budget.
// At most one unresolved violation exists per (ticket, type).
type SLAViolation struct {
	ID            string
	TicketID      string
	RuleID        string
	Type          ViolationType
	ExpectedTime  time.Time
	ActualTime    time.Time
	DurationHours float64
	IsResolved    bool
	ResolvedAt    *time.Time
	CreatedAt     time.Time
}

// OverdueHours returns how long the violation has been overdue as of now.
// The stored duration is a snapshot from detection time and keeps growing
// while the violation stays unresolved.
func (v *SLAViolation) OverdueHours(now time.Time) float64 {
	overdue := now.Sub(v.ExpectedTime).Hours()
	if overdue < 0 {
		return 0
	}
	return overdue
}
