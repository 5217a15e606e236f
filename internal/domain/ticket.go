package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen        TicketStatus = "OPEN"
	TicketStatusInProgress  TicketStatus = "IN_PROGRESS"
	TicketStatusPendingUser TicketStatus = "PENDING_USER"
	TicketStatusResolved    TicketStatus = "RESOLVED"
	TicketStatusClosed      TicketStatus = "CLOSED"
	TicketStatusCancelled   TicketStatus = "CANCELLED"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// TerminalStatuses are the states after which a ticket is no longer subject
// to SLA evaluation.
var TerminalStatuses = []TicketStatus{
	TicketStatusResolved,
	TicketStatusClosed,
	TicketStatusCancelled,
}

// IsTerminal reports whether the status ends SLA evaluation.
func (s TicketStatus) IsTerminal() bool {
	for _, terminal := range TerminalStatuses {
		if s == terminal {
			return true
		}
	}
	return false
}

// ValidPriority reports whether p is a known priority.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// Ticket is the engine's read-only view of a support ticket. Ticket
// persistence itself is owned by the helpdesk application.
type Ticket struct {
	ID         string
	Title      string
	Status     TicketStatus
	Priority   TicketPriority
	CreatedAt  time.Time
	ResolvedAt *time.Time
}
