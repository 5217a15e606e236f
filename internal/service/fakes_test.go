package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/repository"
)

// In-memory fakes mirroring the repositories' conditional-insert and
// conditional-update semantics, so pass idempotency can be exercised
// end to end without a database.

type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]domain.Ticket
	listErr error
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]domain.Ticket{}}
}

func (f *fakeTicketRepo) add(t domain.Ticket) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tickets[t.ID] = t
}

func (f *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (f *fakeTicketRepo) ListOpen(_ context.Context) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var result []domain.Ticket
	for _, t := range f.tickets {
		if !t.Status.IsTerminal() {
			result = append(result, t)
		}
	}
	sortTickets(result)
	return result, nil
}

func (f *fakeTicketRepo) ListCreatedSince(_ context.Context, from time.Time) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Ticket
	for _, t := range f.tickets {
		if !t.CreatedAt.Before(from) {
			result = append(result, t)
		}
	}
	sortTickets(result)
	return result, nil
}

func sortTickets(tickets []domain.Ticket) {
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].CreatedAt.Before(tickets[j].CreatedAt) })
}

type fakeRuleRepo struct {
	mu       sync.Mutex
	rules    map[string]domain.SLARule
	escRules []domain.EscalationRule
	getErr   map[domain.TicketPriority]error
}

func newFakeRuleRepo() *fakeRuleRepo {
	return &fakeRuleRepo{rules: map[string]domain.SLARule{}, getErr: map[domain.TicketPriority]error{}}
}

func (f *fakeRuleRepo) Create(_ context.Context, rule *domain.SLARule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, existing := range f.rules {
		if existing.Priority == rule.Priority && existing.IsActive {
			existing.IsActive = false
			f.rules[id] = existing
		}
	}
	rule.ID = uuid.NewString()
	rule.IsActive = true
	rule.CreatedAt = time.Now()
	rule.UpdatedAt = rule.CreatedAt
	f.rules[rule.ID] = *rule
	return nil
}

func (f *fakeRuleRepo) Update(_ context.Context, rule *domain.SLARule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rules[rule.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.rules[rule.ID] = *rule
	return nil
}

func (f *fakeRuleRepo) Deactivate(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rule, ok := f.rules[id]
	if !ok {
		return pgx.ErrNoRows
	}
	rule.IsActive = false
	f.rules[id] = rule
	return nil
}

func (f *fakeRuleRepo) GetByID(_ context.Context, id string) (*domain.SLARule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rule, ok := f.rules[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &rule, nil
}

func (f *fakeRuleRepo) GetActiveByPriority(_ context.Context, priority domain.TicketPriority) (*domain.SLARule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.getErr[priority]; err != nil {
		return nil, err
	}
	for _, rule := range f.rules {
		if rule.Priority == priority && rule.IsActive {
			r := rule
			return &r, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeRuleRepo) List(_ context.Context, onlyActive bool) ([]domain.SLARule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.SLARule
	for _, rule := range f.rules {
		if onlyActive && !rule.IsActive {
			continue
		}
		result = append(result, rule)
	}
	return result, nil
}

func (f *fakeRuleRepo) CreateEscalationRule(_ context.Context, rule *domain.EscalationRule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rule.ID = uuid.NewString()
	rule.CreatedAt = time.Now()
	f.escRules = append(f.escRules, *rule)
	return nil
}

func (f *fakeRuleRepo) GetEscalationRule(_ context.Context, ruleID string, level int) (*domain.EscalationRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rule := range f.escRules {
		if rule.RuleID == ruleID && rule.Level == level && rule.IsActive {
			r := rule
			return &r, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeRuleRepo) ListEscalationRules(_ context.Context, ruleID string) ([]domain.EscalationRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.EscalationRule
	for _, rule := range f.escRules {
		if rule.RuleID == ruleID {
			result = append(result, rule)
		}
	}
	return result, nil
}

func (f *fakeRuleRepo) DeactivateEscalationRule(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.escRules {
		if f.escRules[i].ID == id {
			f.escRules[i].IsActive = false
			return nil
		}
	}
	return pgx.ErrNoRows
}

type fakeViolationRepo struct {
	mu         sync.Mutex
	violations map[string]domain.SLAViolation
	createErr  map[string]error // keyed by ticket id
}

func newFakeViolationRepo() *fakeViolationRepo {
	return &fakeViolationRepo{violations: map[string]domain.SLAViolation{}, createErr: map[string]error{}}
}

func (f *fakeViolationRepo) Create(_ context.Context, violation *domain.SLAViolation) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.createErr[violation.TicketID]; err != nil {
		return false, err
	}
	for _, existing := range f.violations {
		if existing.TicketID == violation.TicketID && existing.Type == violation.Type && !existing.IsResolved {
			return false, nil
		}
	}
	violation.ID = uuid.NewString()
	violation.CreatedAt = violation.ActualTime
	f.violations[violation.ID] = *violation
	return true, nil
}

func (f *fakeViolationRepo) GetByID(_ context.Context, id string) (*domain.SLAViolation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.violations[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &v, nil
}

func (f *fakeViolationRepo) ListUnresolved(_ context.Context) ([]domain.SLAViolation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.SLAViolation
	for _, v := range f.violations {
		if !v.IsResolved {
			result = append(result, v)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (f *fakeViolationRepo) List(_ context.Context, filter repository.ViolationFilter) ([]domain.SLAViolation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.SLAViolation
	for _, v := range f.violations {
		if filter.TicketID != nil && v.TicketID != *filter.TicketID {
			continue
		}
		if filter.Type != nil && v.Type != *filter.Type {
			continue
		}
		if filter.Unresolved && v.IsResolved {
			continue
		}
		result = append(result, v)
	}
	return result, nil
}

func (f *fakeViolationRepo) Resolve(_ context.Context, id string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.violations[id]
	if !ok || v.IsResolved {
		return false, nil
	}
	v.IsResolved = true
	v.ResolvedAt = &at
	f.violations[id] = v
	return true, nil
}

func (f *fakeViolationRepo) ResolveAllForTicket(_ context.Context, ticketID string, at time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for id, v := range f.violations {
		if v.TicketID == ticketID && !v.IsResolved {
			v.IsResolved = true
			v.ResolvedAt = &at
			f.violations[id] = v
			count++
		}
	}
	return count, nil
}

func (f *fakeViolationRepo) unresolvedCount(ticketID string, vtype domain.ViolationType) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, v := range f.violations {
		if v.TicketID == ticketID && v.Type == vtype && !v.IsResolved {
			count++
		}
	}
	return count
}

type fakeEscalationRepo struct {
	mu      sync.Mutex
	records map[string]domain.EscalationRecord
}

func newFakeEscalationRepo() *fakeEscalationRepo {
	return &fakeEscalationRepo{records: map[string]domain.EscalationRecord{}}
}

func (f *fakeEscalationRepo) Create(_ context.Context, record *domain.EscalationRecord) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.records {
		if existing.TicketID == record.TicketID && existing.Level == record.Level && !existing.IsResolved {
			return false, nil
		}
	}
	record.ID = uuid.NewString()
	f.records[record.ID] = *record
	return true, nil
}

func (f *fakeEscalationRepo) GetByID(_ context.Context, id string) (*domain.EscalationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &record, nil
}

func (f *fakeEscalationRepo) HasUnresolved(_ context.Context, ticketID string, level int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, record := range f.records {
		if record.TicketID == ticketID && record.Level == level && !record.IsResolved {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeEscalationRepo) List(_ context.Context, filter repository.EscalationFilter) ([]domain.EscalationRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.EscalationRecord
	for _, record := range f.records {
		if filter.TicketID != nil && record.TicketID != *filter.TicketID {
			continue
		}
		if filter.Unresolved && record.IsResolved {
			continue
		}
		result = append(result, record)
	}
	return result, nil
}

func (f *fakeEscalationRepo) Resolve(_ context.Context, id string, resolvedBy *string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	if !ok || record.IsResolved {
		return false, nil
	}
	record.IsResolved = true
	record.ResolvedAt = &at
	record.ResolvedBy = resolvedBy
	f.records[id] = record
	return true, nil
}

func (f *fakeEscalationRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type fakeStaffRepo struct {
	mu    sync.Mutex
	staff map[string]domain.StaffMember
}

func newFakeStaffRepo() *fakeStaffRepo {
	return &fakeStaffRepo{staff: map[string]domain.StaffMember{}}
}

func (f *fakeStaffRepo) add(member domain.StaffMember) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.staff[member.ID] = member
}

func (f *fakeStaffRepo) GetByID(_ context.Context, id string) (*domain.StaffMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	member, ok := f.staff[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &member, nil
}

func (f *fakeStaffRepo) FirstActiveByRole(_ context.Context, role domain.StaffRole) (*domain.StaffMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var candidates []domain.StaffMember
	for _, member := range f.staff {
		if member.Role == role && member.Active {
			candidates = append(candidates, member)
		}
	}
	if len(candidates) == 0 {
		return nil, pgx.ErrNoRows
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].CreatedAt.Equal(candidates[j].CreatedAt) {
			return candidates[i].ID < candidates[j].ID
		}
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})
	return &candidates[0], nil
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications map[string]domain.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{notifications: map[string]domain.Notification{}}
}

func (f *fakeNotificationRepo) Create(_ context.Context, notification *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	notification.ID = uuid.NewString()
	f.notifications[notification.ID] = *notification
	return nil
}

func (f *fakeNotificationRepo) GetByID(_ context.Context, id string) (*domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notifications[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &n, nil
}

func (f *fakeNotificationRepo) List(_ context.Context, filter repository.NotificationFilter) ([]domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Notification
	for _, n := range f.notifications {
		if filter.UserID != nil && (n.SentTo == nil || *n.SentTo != *filter.UserID) {
			continue
		}
		if filter.TicketID != nil && n.TicketID != *filter.TicketID {
			continue
		}
		if filter.OnlyUnread && n.IsRead {
			continue
		}
		result = append(result, n)
	}
	return result, nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, id string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notifications[id]
	if !ok || n.IsRead {
		return false, nil
	}
	n.IsRead = true
	n.ReadAt = &at
	f.notifications[id] = n
	return true, nil
}

func (f *fakeNotificationRepo) byType(ntype domain.NotificationType) []domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.Notification
	for _, n := range f.notifications {
		if n.Type == ntype {
			result = append(result, n)
		}
	}
	return result
}

var errStorage = errors.New("storage unavailable")
