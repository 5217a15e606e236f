package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// ViolationFilter captures listing parameters for violations.
type ViolationFilter struct {
	TicketID   *string
	Type       *domain.ViolationType
	Unresolved bool
	Limit      int
	Offset     int
}

// ViolationRepository handles persistence for SLA violations.
type ViolationRepository interface {
	// Create inserts the violation unless an unresolved one already exists
	// for the same (ticket, type). It reports whether a row was inserted.
	Create(ctx context.Context, violation *domain.SLAViolation) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.SLAViolation, error)
	ListUnresolved(ctx context.Context) ([]domain.SLAViolation, error)
	List(ctx context.Context, filter ViolationFilter) ([]domain.SLAViolation, error)
	// Resolve marks the violation resolved and reports whether the row
	// transitioned; resolving twice is a no-op.
	Resolve(ctx context.Context, id string, at time.Time) (bool, error)
	// ResolveAllForTicket closes every open violation of a ticket, used
	// when the ticket reaches a terminal status.
	ResolveAllForTicket(ctx context.Context, ticketID string, at time.Time) (int, error)
}

type violationRepository struct {
	pool *pgxpool.Pool
}

// NewViolationRepository instantiates the repository.
func NewViolationRepository(pool *pgxpool.Pool) ViolationRepository {
	return &violationRepository{pool: pool}
}

const violationColumns = `id, ticket_id, sla_rule_id, violation_type, expected_time,
       actual_time, violation_duration_hours, is_resolved, resolved_at, created_at`

func (r *violationRepository) Create(ctx context.Context, violation *domain.SLAViolation) (bool, error) {
	// The partial unique index on (ticket_id, violation_type) WHERE NOT
	// is_resolved makes this insert the atomic check-then-insert required
	// for concurrent passes.
	const query = `
        INSERT INTO sla_violations (ticket_id, sla_rule_id, violation_type,
            expected_time, actual_time, violation_duration_hours)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (ticket_id, violation_type) WHERE NOT is_resolved DO NOTHING
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		violation.TicketID,
		violation.RuleID,
		violation.Type,
		violation.ExpectedTime,
		violation.ActualTime,
		violation.DurationHours,
	).Scan(&violation.ID, &violation.CreatedAt)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *violationRepository) GetByID(ctx context.Context, id string) (*domain.SLAViolation, error) {
	const query = `SELECT ` + violationColumns + ` FROM sla_violations WHERE id=$1`
	var v domain.SLAViolation
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&v.ID,
		&v.TicketID,
		&v.RuleID,
		&v.Type,
		&v.ExpectedTime,
		&v.ActualTime,
		&v.DurationHours,
		&v.IsResolved,
		&v.ResolvedAt,
		&v.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *violationRepository) ListUnresolved(ctx context.Context) ([]domain.SLAViolation, error) {
	return r.List(ctx, ViolationFilter{Unresolved: true, Limit: 1000})
}

func (r *violationRepository) List(ctx context.Context, filter ViolationFilter) ([]domain.SLAViolation, error) {
	base := `SELECT ` + violationColumns + ` FROM sla_violations`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.TicketID != nil {
		args = append(args, *filter.TicketID)
		clauses = append(clauses, fmt.Sprintf("ticket_id=$%d", len(args)))
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		clauses = append(clauses, fmt.Sprintf("violation_type=$%d", len(args)))
	}
	if filter.Unresolved {
		clauses = append(clauses, "NOT is_resolved")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SLAViolation
	for rows.Next() {
		var v domain.SLAViolation
		if err := rows.Scan(
			&v.ID,
			&v.TicketID,
			&v.RuleID,
			&v.Type,
			&v.ExpectedTime,
			&v.ActualTime,
			&v.DurationHours,
			&v.IsResolved,
			&v.ResolvedAt,
			&v.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

func (r *violationRepository) Resolve(ctx context.Context, id string, at time.Time) (bool, error) {
	const query = `
        UPDATE sla_violations SET is_resolved=TRUE, resolved_at=$1
        WHERE id=$2 AND NOT is_resolved`
	cmd, err := r.pool.Exec(ctx, query, at, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *violationRepository) ResolveAllForTicket(ctx context.Context, ticketID string, at time.Time) (int, error) {
	const query = `
        UPDATE sla_violations SET is_resolved=TRUE, resolved_at=$1
        WHERE ticket_id=$2 AND NOT is_resolved`
	cmd, err := r.pool.Exec(ctx, query, at, ticketID)
	if err != nil {
		return 0, err
	}
	return int(cmd.RowsAffected()), nil
}
