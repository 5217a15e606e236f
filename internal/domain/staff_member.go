package domain

import "time"

// StaffRole enumerates internal operator roles used as escalation targets.
type StaffRole string

const (
	StaffRoleAgent    StaffRole = "AGENT"
	StaffRoleTeamLead StaffRole = "TEAM_LEAD"
	StaffRoleAdmin    StaffRole = "ADMIN"
)

// ValidStaffRole reports whether r is a known role.
func ValidStaffRole(r StaffRole) bool {
	switch r {
	case StaffRoleAgent, StaffRoleTeamLead, StaffRoleAdmin:
		return true
	}
	return false
}

// StaffMember is the engine's read-only view of a support operator.
// Accounts and credentials are owned by the helpdesk application.
type StaffMember struct {
	ID        string
	Name      string
	Email     string
	Role      StaffRole
	Active    bool
	CreatedAt time.Time
}
