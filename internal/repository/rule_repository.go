package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// RuleRepository handles persistence for SLA rules and their escalation
// routing rules.
type RuleRepository interface {
	Create(ctx context.Context, rule *domain.SLARule) error
	Update(ctx context.Context, rule *domain.SLARule) error
	Deactivate(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.SLARule, error)
	GetActiveByPriority(ctx context.Context, priority domain.TicketPriority) (*domain.SLARule, error)
	List(ctx context.Context, onlyActive bool) ([]domain.SLARule, error)

	CreateEscalationRule(ctx context.Context, rule *domain.EscalationRule) error
	GetEscalationRule(ctx context.Context, ruleID string, level int) (*domain.EscalationRule, error)
	ListEscalationRules(ctx context.Context, ruleID string) ([]domain.EscalationRule, error)
	DeactivateEscalationRule(ctx context.Context, id string) error
}

type ruleRepository struct {
	pool *pgxpool.Pool
}

// NewRuleRepository instantiates the repository.
func NewRuleRepository(pool *pgxpool.Pool) RuleRepository {
	return &ruleRepository{pool: pool}
}

const ruleColumns = `id, priority, initial_response_hours, resolution_hours,
       escalation_levels, escalation_interval_hours, is_active, created_at, updated_at`

// Create activates the rule for its priority. Any previously active rule
// for the same priority is deactivated in the same transaction so the
// partial unique index on (priority) WHERE is_active never trips for
// well-formed calls.
func (r *ruleRepository) Create(ctx context.Context, rule *domain.SLARule) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx,
		`UPDATE sla_rules SET is_active=FALSE, updated_at=NOW() WHERE priority=$1 AND is_active`,
		rule.Priority,
	); err != nil {
		return err
	}

	const query = `
        INSERT INTO sla_rules (priority, initial_response_hours, resolution_hours,
            escalation_levels, escalation_interval_hours, is_active)
        VALUES ($1,$2,$3,$4,$5,TRUE)
        RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, query,
		rule.Priority,
		rule.InitialResponseHours,
		rule.ResolutionHours,
		rule.EscalationLevels,
		rule.EscalationIntervalHours,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt); err != nil {
		return err
	}
	rule.IsActive = true

	return tx.Commit(ctx)
}

func (r *ruleRepository) Update(ctx context.Context, rule *domain.SLARule) error {
	const query = `
        UPDATE sla_rules
        SET initial_response_hours=$1, resolution_hours=$2, escalation_levels=$3,
            escalation_interval_hours=$4, updated_at=NOW()
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		rule.InitialResponseHours,
		rule.ResolutionHours,
		rule.EscalationLevels,
		rule.EscalationIntervalHours,
		rule.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ruleRepository) Deactivate(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE sla_rules SET is_active=FALSE, updated_at=NOW() WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ruleRepository) GetByID(ctx context.Context, id string) (*domain.SLARule, error) {
	return r.fetchSingle(ctx, `SELECT `+ruleColumns+` FROM sla_rules WHERE id=$1`, id)
}

func (r *ruleRepository) GetActiveByPriority(ctx context.Context, priority domain.TicketPriority) (*domain.SLARule, error) {
	return r.fetchSingle(ctx,
		`SELECT `+ruleColumns+` FROM sla_rules WHERE priority=$1 AND is_active`, priority)
}

func (r *ruleRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.SLARule, error) {
	var rule domain.SLARule
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&rule.ID,
		&rule.Priority,
		&rule.InitialResponseHours,
		&rule.ResolutionHours,
		&rule.EscalationLevels,
		&rule.EscalationIntervalHours,
		&rule.IsActive,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *ruleRepository) List(ctx context.Context, onlyActive bool) ([]domain.SLARule, error) {
	query := `SELECT ` + ruleColumns + ` FROM sla_rules`
	if onlyActive {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY priority, created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SLARule
	for rows.Next() {
		var rule domain.SLARule
		if err := rows.Scan(
			&rule.ID,
			&rule.Priority,
			&rule.InitialResponseHours,
			&rule.ResolutionHours,
			&rule.EscalationLevels,
			&rule.EscalationIntervalHours,
			&rule.IsActive,
			&rule.CreatedAt,
			&rule.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, rule)
	}
	return result, rows.Err()
}

func (r *ruleRepository) CreateEscalationRule(ctx context.Context, rule *domain.EscalationRule) error {
	const query = `
        INSERT INTO escalation_rules (sla_rule_id, escalation_level, target_kind,
            escalate_to_user_id, escalate_to_role, is_active)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		rule.RuleID,
		rule.Level,
		rule.Target.Kind,
		nullable(rule.Target.UserID),
		nullable(string(rule.Target.Role)),
		rule.IsActive,
	).Scan(&rule.ID, &rule.CreatedAt)
}

const escalationRuleColumns = `id, sla_rule_id, escalation_level, target_kind,
       escalate_to_user_id, escalate_to_role, is_active, created_at`

func (r *ruleRepository) GetEscalationRule(ctx context.Context, ruleID string, level int) (*domain.EscalationRule, error) {
	const query = `
        SELECT ` + escalationRuleColumns + `
        FROM escalation_rules
        WHERE sla_rule_id=$1 AND escalation_level=$2 AND is_active`
	row := r.pool.QueryRow(ctx, query, ruleID, level)
	return scanEscalationRule(row)
}

func (r *ruleRepository) ListEscalationRules(ctx context.Context, ruleID string) ([]domain.EscalationRule, error) {
	const query = `
        SELECT ` + escalationRuleColumns + `
        FROM escalation_rules WHERE sla_rule_id=$1 ORDER BY escalation_level`
	rows, err := r.pool.Query(ctx, query, ruleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.EscalationRule
	for rows.Next() {
		rule, err := scanEscalationRule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rule)
	}
	return result, rows.Err()
}

func (r *ruleRepository) DeactivateEscalationRule(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE escalation_rules SET is_active=FALSE WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanEscalationRule(row pgx.Row) (*domain.EscalationRule, error) {
	var (
		rule   domain.EscalationRule
		userID *string
		role   *string
	)
	if err := row.Scan(
		&rule.ID,
		&rule.RuleID,
		&rule.Level,
		&rule.Target.Kind,
		&userID,
		&role,
		&rule.IsActive,
		&rule.CreatedAt,
	); err != nil {
		return nil, err
	}
	if userID != nil {
		rule.Target.UserID = *userID
	}
	if role != nil {
		rule.Target.Role = domain.StaffRole(*role)
	}
	return &rule, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
