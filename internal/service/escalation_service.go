package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/observability"
	"github.com/spec-kit/sla-engine/internal/persistence"
	"github.com/spec-kit/sla-engine/internal/repository"
)

// EscalationService turns overdue violations into escalation records and
// routes them to a target staff member.
type EscalationService struct {
	violations  repository.ViolationRepository
	escalations repository.EscalationRepository
	rules       repository.RuleRepository
	staff       repository.StaffRepository
	dispatcher  events.Dispatcher
	lock        *persistence.PassLock
	metrics     *observability.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// EscalationDependencies bundles collaborators for the calculator.
type EscalationDependencies struct {
	ViolationRepo  repository.ViolationRepository
	EscalationRepo repository.EscalationRepository
	RuleRepo       repository.RuleRepository
	StaffRepo      repository.StaffRepository
	Dispatcher     events.Dispatcher
	Lock           *persistence.PassLock
	Metrics        *observability.Metrics
	Logger         *zap.Logger
}

// EscalationPassResult is the outcome of one calculator pass.
type EscalationPassResult struct {
	Created []domain.EscalationRecord
	Stats   PassStats
}

// NewEscalationService constructs the service.
func NewEscalationService(deps EscalationDependencies) *EscalationService {
	return &EscalationService{
		violations:  deps.ViolationRepo,
		escalations: deps.EscalationRepo,
		rules:       deps.RuleRepo,
		staff:       deps.StaffRepo,
		dispatcher:  deps.Dispatcher,
		lock:        deps.Lock,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		now:         time.Now,
	}
}

// CalculateEscalationLevel maps an overdue duration to a discrete level:
// level 0 is still inside the first interval past the breach, level n means
// n full intervals have elapsed.
func CalculateEscalationLevel(overdueHours, intervalHours float64) int {
	if intervalHours <= 0 || overdueHours <= 0 {
		return 0
	}
	return int(math.Floor(overdueHours / intervalHours))
}

// CheckEscalations runs one calculator pass over all unresolved violations.
// Overdue time is recomputed from expected_time at evaluation time, never
// read from the stored detection snapshot. Only the current level fires;
// intermediate levels skipped by a delayed pass are not backfilled.
func (s *EscalationService) CheckEscalations(ctx context.Context) (*EscalationPassResult, error) {
	release, ok := s.lock.Acquire(ctx, "escalations")
	if !ok {
		s.logger.Info("escalation pass already running; skipping")
		return &EscalationPassResult{Stats: PassStats{Skipped: true}}, nil
	}
	defer release()

	violations, err := s.violations.ListUnresolved(ctx)
	if err != nil {
		return nil, err
	}

	result := &EscalationPassResult{}
	for i := range violations {
		violation := &violations[i]
		result.Stats.Evaluated++

		record, err := s.escalate(ctx, violation)
		if err != nil {
			result.Stats.Errors = append(result.Stats.Errors, ItemError{ItemID: violation.ID, Error: err.Error()})
			s.logger.Warn("escalation check failed",
				zap.String("violation_id", violation.ID),
				zap.String("ticket_id", violation.TicketID),
				zap.Error(err))
			continue
		}
		if record != nil {
			result.Created = append(result.Created, *record)
		}
	}

	result.Stats.Created = len(result.Created)
	s.metrics.RecordPass("escalations", result.Stats.Evaluated, result.Stats.Created, len(result.Stats.Errors))
	s.logger.Info("escalation pass finished",
		zap.Int("evaluated", result.Stats.Evaluated),
		zap.Int("created", result.Stats.Created),
		zap.Int("failed", len(result.Stats.Errors)))
	return result, nil
}

func (s *EscalationService) escalate(ctx context.Context, violation *domain.SLAViolation) (*domain.EscalationRecord, error) {
	rule, err := s.rules.GetByID(ctx, violation.RuleID)
	if err != nil {
		// Rules referenced by violations are soft-disabled, never deleted,
		// so a missing rule is a real storage problem.
		return nil, err
	}

	now := s.now()
	overdue := violation.OverdueHours(now)
	level := CalculateEscalationLevel(overdue, rule.EscalationIntervalHours)
	if level == 0 {
		return nil, nil
	}
	if level > rule.EscalationLevels {
		level = rule.EscalationLevels
	}

	exists, err := s.escalations.HasUnresolved(ctx, violation.TicketID, level)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	escRule, err := s.rules.GetEscalationRule(ctx, rule.ID, level)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No routing configured for this level: skip silently.
			return nil, nil
		}
		return nil, err
	}

	target, err := s.resolveTarget(ctx, escRule.Target)
	if err != nil {
		return nil, err
	}
	if target == nil {
		s.logger.Debug("no resolvable escalation target",
			zap.String("ticket_id", violation.TicketID),
			zap.Int("level", level))
		return nil, nil
	}

	record := &domain.EscalationRecord{
		TicketID:    violation.TicketID,
		ViolationID: violation.ID,
		Level:       level,
		EscalatedTo: target.ID,
		Reason: fmt.Sprintf("%s SLA violated on ticket %s: overdue by %.1f hours (escalation level %d)",
			violation.Type, violation.TicketID, overdue, level),
		EscalatedAt: now,
	}
	inserted, err := s.escalations.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, nil
	}

	s.publish(ctx, events.Event{
		Type:     events.EventEscalationTriggered,
		TicketID: violation.TicketID,
		Payload: events.EscalationTriggeredPayload{
			EscalationID:  record.ID,
			ViolationID:   violation.ID,
			Level:         level,
			EscalatedTo:   target.ID,
			Reason:        record.Reason,
			ViolationType: violation.Type,
		},
	})
	return record, nil
}

// resolveTarget maps an escalation target variant to a concrete active
// staff member. A nil result means nobody resolves and the level is
// skipped.
func (s *EscalationService) resolveTarget(ctx context.Context, target domain.EscalationTarget) (*domain.StaffMember, error) {
	var (
		member *domain.StaffMember
		err    error
	)
	switch target.Kind {
	case domain.TargetKindUser:
		member, err = s.staff.GetByID(ctx, target.UserID)
	case domain.TargetKindRole:
		member, err = s.staff.FirstActiveByRole(ctx, target.Role)
	default:
		return nil, nil
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if !member.Active {
		return nil, nil
	}
	return member, nil
}

// ResolveEscalation marks an escalation record resolved. Resolving twice is
// a no-op, not an error.
func (s *EscalationService) ResolveEscalation(ctx context.Context, id string, resolvedBy *string) (*domain.EscalationRecord, error) {
	transitioned, err := s.escalations.Resolve(ctx, id, resolvedBy, s.now())
	if err != nil {
		return nil, err
	}
	record, err := s.escalations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if transitioned {
		s.publish(ctx, events.Event{
			Type:     events.EventEscalationResolved,
			TicketID: record.TicketID,
			Payload: events.EscalationResolvedPayload{
				EscalationID: record.ID,
				Level:        record.Level,
				ResolvedBy:   resolvedBy,
			},
		})
	}
	return record, nil
}

// ListEscalations exposes filtered listing for the admin surface.
func (s *EscalationService) ListEscalations(ctx context.Context, filter repository.EscalationFilter) ([]domain.EscalationRecord, error) {
	return s.escalations.List(ctx, filter)
}

func (s *EscalationService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
