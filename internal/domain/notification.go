package domain

import "time"

// NotificationType classifies SLA notifications.
type NotificationType string

const (
	NotificationTypeWarning    NotificationType = "warning"
	NotificationTypeBreach     NotificationType = "breach"
	NotificationTypeEscalation NotificationType = "escalation"
)

// Notification is an SLA message addressed to a staff member. Breach
// notifications created before escalation routing carry no recipient.
// Delivery transports are out of scope; records are consumed in-app.
type Notification struct {
	ID       string
	TicketID string
	Type     NotificationType
	Message  string
	SentTo   *string
	IsRead   bool
	SentAt   time.Time
	ReadAt   *time.Time
}
