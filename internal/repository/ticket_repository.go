package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// TicketRepository is the engine's read-only view over the helpdesk's
// tickets table. Ticket writes belong to the helpdesk application.
type TicketRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// ListOpen returns tickets whose status is not terminal.
	ListOpen(ctx context.Context) ([]domain.Ticket, error)
	// ListCreatedSince returns tickets created in [from, now], any status.
	ListCreatedSince(ctx context.Context, from time.Time) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, title, status, priority, created_at, resolved_at`

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Status,
		&ticket.Priority,
		&ticket.CreatedAt,
		&ticket.ResolvedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListOpen(ctx context.Context) ([]domain.Ticket, error) {
	const query = `
        SELECT ` + ticketColumns + ` FROM tickets
        WHERE status NOT IN ($1,$2,$3)
        ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query,
		domain.TicketStatusResolved,
		domain.TicketStatusClosed,
		domain.TicketStatusCancelled,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListCreatedSince(ctx context.Context, from time.Time) ([]domain.Ticket, error) {
	const query = `
        SELECT ` + ticketColumns + ` FROM tickets
        WHERE created_at >= $1
        ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Title,
			&ticket.Status,
			&ticket.Priority,
			&ticket.CreatedAt,
			&ticket.ResolvedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
