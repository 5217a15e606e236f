package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-engine/internal/api/dto"
	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/repository"
	"github.com/spec-kit/sla-engine/internal/service"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// NotificationsHandler exposes the notification inbox endpoints.
type NotificationsHandler struct {
	service *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notificationService *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{service: notificationService}
}

// ListNotifications GET /sla/notifications.
func (h *NotificationsHandler) ListNotifications(c *fiber.Ctx) error {
	filter := repository.NotificationFilter{
		OnlyUnread: c.QueryBool("unread", false),
		Limit:      c.QueryInt("page_size", 50),
	}
	if userID := c.Query("user_id"); userID != "" {
		filter.UserID = &userID
	}
	if ticketID := c.Query("ticket_id"); ticketID != "" {
		filter.TicketID = &ticketID
	}
	page := c.QueryInt("page", 1)
	if page > 1 {
		filter.Offset = (page - 1) * filter.Limit
	}

	notifications, err := h.service.List(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		items = append(items, notificationResponse(&notifications[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// MarkRead POST /sla/notifications/:id/read. Marking twice is harmless.
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	notification, err := h.service.MarkRead(c.Context(), c.Params("id"))
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": notificationResponse(notification)})
}

func notificationResponse(n *domain.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:       n.ID,
		TicketID: n.TicketID,
		Type:     n.Type,
		Message:  n.Message,
		SentTo:   n.SentTo,
		IsRead:   n.IsRead,
		SentAt:   n.SentAt,
		ReadAt:   n.ReadAt,
	}
}
