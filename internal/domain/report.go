package domain

import "time"

// ReportWindow is a supported compliance reporting range.
type ReportWindow string

const (
	ReportWindow7d  ReportWindow = "7d"
	ReportWindow30d ReportWindow = "30d"
	ReportWindow90d ReportWindow = "90d"
	ReportWindow1y  ReportWindow = "1y"
)

// Duration converts the window to a concrete span.
func (w ReportWindow) Duration() (time.Duration, bool) {
	switch w {
	case ReportWindow7d:
		return 7 * 24 * time.Hour, true
	case ReportWindow30d:
		return 30 * 24 * time.Hour, true
	case ReportWindow90d:
		return 90 * 24 * time.Hour, true
	case ReportWindow1y:
		return 365 * 24 * time.Hour, true
	}
	return 0, false
}

// PriorityCompliance breaks compliance numbers down for one priority.
type PriorityCompliance struct {
	Priority       TicketPriority `json:"priority"`
	TotalTickets   int            `json:"total_tickets"`
	CompliantCount int            `json:"compliant_count"`
	ComplianceRate float64        `json:"compliance_rate"`
}

// ComplianceReport aggregates historical tickets against their SLA budgets.
// ResponseViolations uses resolution timing as a proxy; no first-response
// timestamp is tracked on tickets.
type ComplianceReport struct {
	Window               ReportWindow         `json:"window"`
	From                 time.Time            `json:"from"`
	To                   time.Time            `json:"to"`
	TotalTickets         int                  `json:"total_tickets"`
	CompliantCount       int                  `json:"compliant_count"`
	ResolutionViolations int                  `json:"resolution_violations"`
	ResponseViolations   int                  `json:"response_violations"`
	ComplianceRate       float64              `json:"compliance_rate"`
	AvgResolutionHours   float64              `json:"avg_resolution_hours"`
	ByPriority           []PriorityCompliance `json:"by_priority"`
}
