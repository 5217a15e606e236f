package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/repository"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// NotificationService persists SLA notifications. Delivery transports are
// external; records here feed the in-app inbox.
type NotificationService struct {
	notifications repository.NotificationRepository
	dispatcher    events.Dispatcher
	logger        *zap.Logger
	now           func() time.Time
}

// NewNotificationService creates the service.
func NewNotificationService(notifications repository.NotificationRepository, dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		dispatcher:    dispatcher,
		logger:        logger,
		now:           time.Now,
	}
}

// Notify creates a notification record. recipient may be nil for breach
// notifications emitted before escalation routing has picked a target.
func (n *NotificationService) Notify(ctx context.Context, ticketID string, ntype domain.NotificationType, message string, recipient *string) (*domain.Notification, error) {
	if strings.TrimSpace(message) == "" {
		return nil, apperrors.NewValidationError("message required", nil)
	}
	notification := &domain.Notification{
		TicketID: ticketID,
		Type:     ntype,
		Message:  strings.TrimSpace(message),
		SentTo:   recipient,
		SentAt:   n.now(),
	}
	if err := n.notifications.Create(ctx, notification); err != nil {
		return nil, err
	}
	return notification, nil
}

// MarkRead flips a notification to read. Marking twice is harmless.
func (n *NotificationService) MarkRead(ctx context.Context, id string) (*domain.Notification, error) {
	if _, err := n.notifications.MarkRead(ctx, id, n.now()); err != nil {
		return nil, err
	}
	return n.notifications.GetByID(ctx, id)
}

// List exposes the recipient-facing inbox.
func (n *NotificationService) List(ctx context.Context, filter repository.NotificationFilter) ([]domain.Notification, error) {
	return n.notifications.List(ctx, filter)
}

// RegisterHandlers subscribes to engine events so violation and escalation
// creation emit their notifications.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventViolationDetected, n.handleViolationDetected)
	n.dispatcher.Subscribe(events.EventEscalationTriggered, n.handleEscalationTriggered)
}

func (n *NotificationService) handleViolationDetected(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ViolationDetectedPayload)
	if !ok {
		return nil
	}
	message := fmt.Sprintf("%s SLA breached on ticket %s: %.1f hours past the deadline",
		payload.ViolationType, event.TicketID, payload.DurationHours)
	// Recipient is unknown until escalation routing runs.
	if _, err := n.Notify(ctx, event.TicketID, domain.NotificationTypeBreach, message, nil); err != nil {
		n.logger.Warn("breach notification failed",
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
		return err
	}
	return nil
}

func (n *NotificationService) handleEscalationTriggered(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.EscalationTriggeredPayload)
	if !ok {
		return nil
	}
	recipient := payload.EscalatedTo
	if _, err := n.Notify(ctx, event.TicketID, domain.NotificationTypeEscalation, payload.Reason, &recipient); err != nil {
		n.logger.Warn("escalation notification failed",
			zap.String("ticket_id", event.TicketID),
			zap.String("escalation_id", payload.EscalationID),
			zap.Error(err))
		return err
	}
	return nil
}
