package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// NotificationFilter captures listing parameters for notifications.
type NotificationFilter struct {
	UserID     *string
	TicketID   *string
	OnlyUnread bool
	Limit      int
	Offset     int
}

// NotificationRepository handles persistence for SLA notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	List(ctx context.Context, filter NotificationFilter) ([]domain.Notification, error)
	// MarkRead flips the read flag and reports whether the row
	// transitioned; marking twice is a no-op.
	MarkRead(ctx context.Context, id string, at time.Time) (bool, error)
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository instantiates the repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

const notificationColumns = `id, ticket_id, notification_type, message, sent_to_user_id,
       is_read, sent_at, read_at`

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	const query = `
        INSERT INTO sla_notifications (ticket_id, notification_type, message, sent_to_user_id, sent_at)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id`
	return r.pool.QueryRow(ctx, query,
		notification.TicketID,
		notification.Type,
		notification.Message,
		notification.SentTo,
		notification.SentAt,
	).Scan(&notification.ID)
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	const query = `SELECT ` + notificationColumns + ` FROM sla_notifications WHERE id=$1`
	var n domain.Notification
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&n.ID,
		&n.TicketID,
		&n.Type,
		&n.Message,
		&n.SentTo,
		&n.IsRead,
		&n.SentAt,
		&n.ReadAt,
	); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) List(ctx context.Context, filter NotificationFilter) ([]domain.Notification, error) {
	base := `SELECT ` + notificationColumns + ` FROM sla_notifications`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("sent_to_user_id=$%d", len(args)))
	}
	if filter.TicketID != nil {
		args = append(args, *filter.TicketID)
		clauses = append(clauses, fmt.Sprintf("ticket_id=$%d", len(args)))
	}
	if filter.OnlyUnread {
		clauses = append(clauses, "NOT is_read")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY sent_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(
			&n.ID,
			&n.TicketID,
			&n.Type,
			&n.Message,
			&n.SentTo,
			&n.IsRead,
			&n.SentAt,
			&n.ReadAt,
		); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, id string, at time.Time) (bool, error) {
	const query = `
        UPDATE sla_notifications SET is_read=TRUE, read_at=$1
        WHERE id=$2 AND NOT is_read`
	cmd, err := r.pool.Exec(ctx, query, at, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
