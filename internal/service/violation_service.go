package service

import (
	"context"
	"errors"
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

// ViolationService detects SLA breaches on open tickets and owns the
// violation lifecycle.
type ViolationService struct {
	tickets    repository.TicketRepository
	rules      repository.RuleRepository
	violations repository.ViolationRepository
	dispatcher events.Dispatcher
	lock       *persistence.PassLock
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// ViolationDependencies bundles collaborators for the detector.
type ViolationDependencies struct {
	TicketRepo    repository.TicketRepository
	RuleRepo      repository.RuleRepository
	ViolationRepo repository.ViolationRepository
	Dispatcher    events.Dispatcher
	Lock          *persistence.PassLock
	Metrics       *observability.Metrics
	Logger        *zap.Logger
}

// ViolationPassResult is the outcome of one detector pass.
type ViolationPassResult struct {
	Created []domain.SLAViolation
	Stats   PassStats
}

// NewViolationService constructs the service.
func NewViolationService(deps ViolationDependencies) *ViolationService {
	return &ViolationService{
		tickets:    deps.TicketRepo,
		rules:      deps.RuleRepo,
		violations: deps.ViolationRepo,
		dispatcher: deps.Dispatcher,
		lock:       deps.Lock,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// CheckViolations runs one detection pass over all open tickets. Tickets
// whose priority has no active rule are skipped. A failure on one ticket is
// collected and does not abort the rest of the pass; only failing to load
// the ticket set at all returns an error.
func (s *ViolationService) CheckViolations(ctx context.Context) (*ViolationPassResult, error) {
	release, ok := s.lock.Acquire(ctx, "violations")
	if !ok {
		s.logger.Info("violation pass already running; skipping")
		return &ViolationPassResult{Stats: PassStats{Skipped: true}}, nil
	}
	defer release()

	tickets, err := s.tickets.ListOpen(ctx)
	if err != nil {
		return nil, err
	}

	result := &ViolationPassResult{}
	ruleCache := map[domain.TicketPriority]*domain.SLARule{}

	for i := range tickets {
		ticket := &tickets[i]
		rule, err := s.ruleFor(ctx, ruleCache, ticket.Priority)
		if err != nil {
			result.Stats.Errors = append(result.Stats.Errors, ItemError{ItemID: ticket.ID, Error: err.Error()})
			s.logger.Warn("rule lookup failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
			continue
		}
		if rule == nil {
			// No active rule for this priority: not an error, just skip.
			continue
		}
		result.Stats.Evaluated++

		for _, check := range []struct {
			vtype domain.ViolationType
			hours float64
		}{
			{domain.ViolationTypeResponse, rule.InitialResponseHours},
			{domain.ViolationTypeResolution, rule.ResolutionHours},
		} {
			created, err := s.detect(ctx, ticket, rule, check.vtype, check.hours)
			if err != nil {
				result.Stats.Errors = append(result.Stats.Errors, ItemError{ItemID: ticket.ID, Error: err.Error()})
				s.logger.Warn("violation check failed",
					zap.String("ticket_id", ticket.ID),
					zap.String("violation_type", string(check.vtype)),
					zap.Error(err))
				continue
			}
			if created != nil {
				result.Created = append(result.Created, *created)
			}
		}
	}

	result.Stats.Created = len(result.Created)
	s.metrics.RecordPass("violations", result.Stats.Evaluated, result.Stats.Created, len(result.Stats.Errors))
	s.logger.Info("violation pass finished",
		zap.Int("evaluated", result.Stats.Evaluated),
		zap.Int("created", result.Stats.Created),
		zap.Int("failed", len(result.Stats.Errors)))
	return result, nil
}

// detect creates a violation for one (ticket, type) when the deadline has
// passed and no unresolved violation exists yet. The conditional insert at
// the store makes repeated passes idempotent.
func (s *ViolationService) detect(ctx context.Context, ticket *domain.Ticket, rule *domain.SLARule, vtype domain.ViolationType, budgetHours float64) (*domain.SLAViolation, error) {
	now := s.now()
	expected := ticket.CreatedAt.Add(hoursToDuration(budgetHours))
	if !now.After(expected) {
		return nil, nil
	}

	violation := &domain.SLAViolation{
		TicketID:      ticket.ID,
		RuleID:        rule.ID,
		Type:          vtype,
		ExpectedTime:  expected,
		ActualTime:    now,
		DurationHours: now.Sub(expected).Hours(),
	}
	inserted, err := s.violations.Create(ctx, violation)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, nil
	}

	s.publish(ctx, events.Event{
		Type:     events.EventViolationDetected,
		TicketID: ticket.ID,
		Payload: events.ViolationDetectedPayload{
			ViolationID:   violation.ID,
			RuleID:        rule.ID,
			ViolationType: vtype,
			ExpectedTime:  expected,
			DurationHours: violation.DurationHours,
		},
	})
	return violation, nil
}

// ResolveViolation marks a violation resolved. Resolving an already
// resolved violation is a no-op, not an error.
func (s *ViolationService) ResolveViolation(ctx context.Context, id string) (*domain.SLAViolation, error) {
	transitioned, err := s.violations.Resolve(ctx, id, s.now())
	if err != nil {
		return nil, err
	}
	violation, err := s.violations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if transitioned {
		s.publish(ctx, events.Event{
			Type:     events.EventViolationResolved,
			TicketID: violation.TicketID,
			Payload: events.ViolationResolvedPayload{
				ViolationID:   violation.ID,
				ViolationType: violation.Type,
			},
		})
	}
	return violation, nil
}

// ResolveOpenViolationsForTicket closes every open violation of a ticket.
// The helpdesk application calls this when a ticket reaches a terminal
// status.
func (s *ViolationService) ResolveOpenViolationsForTicket(ctx context.Context, ticketID string) (int, error) {
	return s.violations.ResolveAllForTicket(ctx, ticketID, s.now())
}

// ListViolations exposes filtered listing for the admin surface.
func (s *ViolationService) ListViolations(ctx context.Context, filter repository.ViolationFilter) ([]domain.SLAViolation, error) {
	return s.violations.List(ctx, filter)
}

func (s *ViolationService) ruleFor(ctx context.Context, cache map[domain.TicketPriority]*domain.SLARule, priority domain.TicketPriority) (*domain.SLARule, error) {
	if rule, seen := cache[priority]; seen {
		return rule, nil
	}
	rule, err := s.rules.GetActiveByPriority(ctx, priority)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			cache[priority] = nil
			return nil, nil
		}
		return nil, err
	}
	cache[priority] = rule
	return rule, nil
}

func (s *ViolationService) publish(ctx context.Context, event events.Event) {
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

func hoursToDuration(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}
