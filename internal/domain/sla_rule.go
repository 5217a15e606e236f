package domain

import "time"

// SLARule is the active time budget for a ticket priority: hours allowed
// for first response and resolution, plus how escalation intervals are cut.
type SLARule struct {
	ID                      string
	Priority                TicketPriority
	InitialResponseHours    float64
	ResolutionHours         float64
	EscalationLevels        int
	EscalationIntervalHours float64
	IsActive                bool
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// TargetKind discriminates escalation routing targets.
type TargetKind string

const (
	TargetKindUser TargetKind = "USER"
	TargetKindRole TargetKind = "ROLE"
)

// EscalationTarget routes an escalation either to a specific staff member
// or to the first active holder of a role. Exactly one side is set.
type EscalationTarget struct {
	Kind   TargetKind
	UserID string
	Role   StaffRole
}

// UserTarget builds a direct-user target.
func UserTarget(userID string) EscalationTarget {
	return EscalationTarget{Kind: TargetKindUser, UserID: userID}
}

// RoleTarget builds a role-resolved target.
func RoleTarget(role StaffRole) EscalationTarget {
	return EscalationTarget{Kind: TargetKindRole, Role: role}
}

// Valid reports whether the target is internally consistent.
func (t EscalationTarget) Valid() bool {
	switch t.Kind {
	case TargetKindUser:
		return t.UserID != "" && t.Role == ""
	case TargetKindRole:
		return t.UserID == "" && ValidStaffRole(t.Role)
	}
	return false
}

// EscalationRule maps one escalation level of an SLA rule to its target.
type EscalationRule struct {
	ID        string
	RuleID    string
	Level     int
	Target    EscalationTarget
	IsActive  bool
	CreatedAt time.Time
}
