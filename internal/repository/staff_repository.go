package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// StaffRepository is the engine's read-only view over the helpdesk's staff
// table, used to resolve escalation targets.
type StaffRepository interface {
	GetByID(ctx context.Context, id string) (*domain.StaffMember, error)
	// FirstActiveByRole returns the longest-standing active member with the
	// role, so role routing is deterministic across passes.
	FirstActiveByRole(ctx context.Context, role domain.StaffRole) (*domain.StaffMember, error)
}

type staffRepository struct {
	pool *pgxpool.Pool
}

// NewStaffRepository instantiates the repository.
func NewStaffRepository(pool *pgxpool.Pool) StaffRepository {
	return &staffRepository{pool: pool}
}

const staffColumns = `id, name, email, role, active_flag, created_at`

func (r *staffRepository) GetByID(ctx context.Context, id string) (*domain.StaffMember, error) {
	const query = `SELECT ` + staffColumns + ` FROM staff_members WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *staffRepository) FirstActiveByRole(ctx context.Context, role domain.StaffRole) (*domain.StaffMember, error) {
	const query = `
        SELECT ` + staffColumns + ` FROM staff_members
        WHERE role=$1 AND active_flag
        ORDER BY created_at, id
        LIMIT 1`
	return r.fetchSingle(ctx, query, role)
}

func (r *staffRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.StaffMember, error) {
	var staff domain.StaffMember
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&staff.ID,
		&staff.Name,
		&staff.Email,
		&staff.Role,
		&staff.Active,
		&staff.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &staff, nil
}
