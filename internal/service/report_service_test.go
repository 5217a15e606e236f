package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-engine/internal/domain"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

func newReportFixture(now time.Time) (*ReportService, *fakeTicketRepo, *fakeRuleRepo) {
	tickets := newFakeTicketRepo()
	rules := newFakeRuleRepo()
	svc := NewReportService(tickets, rules)
	svc.now = func() time.Time { return now }
	return svc, tickets, rules
}

func resolvedTicket(id string, priority domain.TicketPriority, createdAt time.Time, resolutionHours float64) domain.Ticket {
	resolvedAt := createdAt.Add(hoursToDuration(resolutionHours))
	return domain.Ticket{
		ID:         id,
		Status:     domain.TicketStatusResolved,
		Priority:   priority,
		CreatedAt:  createdAt,
		ResolvedAt: &resolvedAt,
	}
}

func TestComplianceReportRejectsUnknownWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newReportFixture(now)

	_, err := svc.GetComplianceReport(context.Background(), "14d")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestComplianceReportAggregates(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, tickets, rules := newReportFixture(now)

	_ = rules.Create(ctx, &domain.SLARule{
		Priority:                domain.TicketPriorityHigh,
		InitialResponseHours:    1,
		ResolutionHours:         4,
		EscalationLevels:        3,
		EscalationIntervalHours: 2,
	})

	base := now.Add(-5 * 24 * time.Hour)
	tickets.add(resolvedTicket("fast", domain.TicketPriorityHigh, base, 2))
	tickets.add(resolvedTicket("slow", domain.TicketPriorityHigh, base, 6))
	tickets.add(domain.Ticket{
		ID:        "open",
		Status:    domain.TicketStatusOpen,
		Priority:  domain.TicketPriorityHigh,
		CreatedAt: now.Add(-10 * time.Hour),
	})
	// No active LOW rule, so this ticket is excluded entirely.
	tickets.add(resolvedTicket("unrated", domain.TicketPriorityLow, base, 100))
	// Outside the 7d window.
	tickets.add(resolvedTicket("ancient", domain.TicketPriorityHigh, now.Add(-30*24*time.Hour), 1))

	report, err := svc.GetComplianceReport(ctx, domain.ReportWindow7d)
	require.NoError(t, err)

	assert.Equal(t, domain.ReportWindow7d, report.Window)
	assert.Equal(t, now, report.To)
	assert.Equal(t, now.Add(-7*24*time.Hour), report.From)

	assert.Equal(t, 3, report.TotalTickets)
	assert.Equal(t, 1, report.CompliantCount)
	// "slow" missed the 4h budget; "open" has been pending 10h.
	assert.Equal(t, 2, report.ResolutionViolations)
	// All three exceeded the 1h response proxy.
	assert.Equal(t, 3, report.ResponseViolations)
	assert.InDelta(t, 33.33, report.ComplianceRate, 0.01)
	// Average over resolved tickets only: (2h + 6h) / 2.
	assert.InDelta(t, 4.0, report.AvgResolutionHours, 0.001)

	require.Len(t, report.ByPriority, 1)
	bucket := report.ByPriority[0]
	assert.Equal(t, domain.TicketPriorityHigh, bucket.Priority)
	assert.Equal(t, 3, bucket.TotalTickets)
	assert.Equal(t, 1, bucket.CompliantCount)
	assert.InDelta(t, 33.33, bucket.ComplianceRate, 0.01)
}

func TestComplianceReportEmptyWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, _, _ := newReportFixture(now)

	report, err := svc.GetComplianceReport(context.Background(), domain.ReportWindow30d)
	require.NoError(t, err)
	assert.Zero(t, report.TotalTickets)
	assert.Zero(t, report.ComplianceRate)
	assert.Empty(t, report.ByPriority)
}

func TestComplianceReportIsDeterministic(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, tickets, rules := newReportFixture(now)

	_ = rules.Create(ctx, &domain.SLARule{
		Priority:                domain.TicketPriorityUrgent,
		InitialResponseHours:    1,
		ResolutionHours:         2,
		EscalationLevels:        2,
		EscalationIntervalHours: 1,
	})
	_ = rules.Create(ctx, &domain.SLARule{
		Priority:                domain.TicketPriorityMedium,
		InitialResponseHours:    4,
		ResolutionHours:         24,
		EscalationLevels:        2,
		EscalationIntervalHours: 8,
	})

	base := now.Add(-3 * 24 * time.Hour)
	tickets.add(resolvedTicket("u1", domain.TicketPriorityUrgent, base, 1))
	tickets.add(resolvedTicket("u2", domain.TicketPriorityUrgent, base, 5))
	tickets.add(resolvedTicket("m1", domain.TicketPriorityMedium, base, 10))

	first, err := svc.GetComplianceReport(ctx, domain.ReportWindow7d)
	require.NoError(t, err)
	second, err := svc.GetComplianceReport(ctx, domain.ReportWindow7d)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Buckets come back in fixed priority order.
	require.Len(t, first.ByPriority, 2)
	assert.Equal(t, domain.TicketPriorityMedium, first.ByPriority[0].Priority)
	assert.Equal(t, domain.TicketPriorityUrgent, first.ByPriority[1].Priority)
}
