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

// EscalationFilter captures listing parameters for escalation records.
type EscalationFilter struct {
	TicketID   *string
	Unresolved bool
	Limit      int
	Offset     int
}

// EscalationRepository handles persistence for escalation records.
type EscalationRepository interface {
	// Create inserts the record unless an unresolved one already exists for
	// the same (ticket, level). It reports whether a row was inserted.
	Create(ctx context.Context, record *domain.EscalationRecord) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.EscalationRecord, error)
	HasUnresolved(ctx context.Context, ticketID string, level int) (bool, error)
	List(ctx context.Context, filter EscalationFilter) ([]domain.EscalationRecord, error)
	// Resolve marks the record resolved and reports whether the row
	// transitioned; resolving twice is a no-op.
	Resolve(ctx context.Context, id string, resolvedBy *string, at time.Time) (bool, error)
}

type escalationRepository struct {
	pool *pgxpool.Pool
}

// NewEscalationRepository instantiates the repository.
func NewEscalationRepository(pool *pgxpool.Pool) EscalationRepository {
	return &escalationRepository{pool: pool}
}

const escalationColumns = `id, ticket_id, violation_id, escalation_level, escalated_to_user_id,
       escalation_reason, escalation_time, is_resolved, resolved_at, resolved_by_user_id`

func (r *escalationRepository) Create(ctx context.Context, record *domain.EscalationRecord) (bool, error) {
	// Partial unique index on (ticket_id, escalation_level) WHERE NOT
	// is_resolved keeps concurrent passes from re-notifying the same level.
	const query = `
        INSERT INTO escalation_records (ticket_id, violation_id, escalation_level,
            escalated_to_user_id, escalation_reason, escalation_time)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (ticket_id, escalation_level) WHERE NOT is_resolved DO NOTHING
        RETURNING id`
	err := r.pool.QueryRow(ctx, query,
		record.TicketID,
		record.ViolationID,
		record.Level,
		record.EscalatedTo,
		record.Reason,
		record.EscalatedAt,
	).Scan(&record.ID)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *escalationRepository) GetByID(ctx context.Context, id string) (*domain.EscalationRecord, error) {
	const query = `SELECT ` + escalationColumns + ` FROM escalation_records WHERE id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanEscalation(row)
}

func (r *escalationRepository) HasUnresolved(ctx context.Context, ticketID string, level int) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM escalation_records
            WHERE ticket_id=$1 AND escalation_level=$2 AND NOT is_resolved)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, ticketID, level).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *escalationRepository) List(ctx context.Context, filter EscalationFilter) ([]domain.EscalationRecord, error) {
	base := `SELECT ` + escalationColumns + ` FROM escalation_records`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.TicketID != nil {
		args = append(args, *filter.TicketID)
		clauses = append(clauses, fmt.Sprintf("ticket_id=$%d", len(args)))
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

	query := fmt.Sprintf(`%s WHERE %s ORDER BY escalation_time LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.EscalationRecord
	for rows.Next() {
		record, err := scanEscalation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *record)
	}
	return result, rows.Err()
}

func (r *escalationRepository) Resolve(ctx context.Context, id string, resolvedBy *string, at time.Time) (bool, error) {
	const query = `
        UPDATE escalation_records
        SET is_resolved=TRUE, resolved_at=$1, resolved_by_user_id=$2
        WHERE id=$3 AND NOT is_resolved`
	cmd, err := r.pool.Exec(ctx, query, at, resolvedBy, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func scanEscalation(row pgx.Row) (*domain.EscalationRecord, error) {
	var record domain.EscalationRecord
	if err := row.Scan(
		&record.ID,
		&record.TicketID,
		&record.ViolationID,
		&record.Level,
		&record.EscalatedTo,
		&record.Reason,
		&record.EscalatedAt,
		&record.IsResolved,
		&record.ResolvedAt,
		&record.ResolvedBy,
	); err != nil {
		return nil, err
	}
	return &record, nil
}
