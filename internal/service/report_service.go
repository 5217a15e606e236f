package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/repository"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// ReportService aggregates historical tickets against their SLA budgets.
// It is read-only and safe to run concurrently with the evaluation passes.
type ReportService struct {
	tickets repository.TicketRepository
	rules   repository.RuleRepository
	now     func() time.Time
}

// NewReportService constructs the service.
func NewReportService(tickets repository.TicketRepository, rules repository.RuleRepository) *ReportService {
	return &ReportService{tickets: tickets, rules: rules, now: time.Now}
}

// GetComplianceReport computes compliance statistics for tickets created in
// the window. Tickets whose priority has no active rule are excluded.
// Response violations reuse resolution timing as a proxy; tickets carry no
// first-response timestamp.
func (s *ReportService) GetComplianceReport(ctx context.Context, window domain.ReportWindow) (*domain.ComplianceReport, error) {
	span, ok := window.Duration()
	if !ok {
		return nil, apperrors.NewValidationError("window must be one of 7d, 30d, 90d, 1y", nil)
	}

	now := s.now()
	from := now.Add(-span)
	tickets, err := s.tickets.ListCreatedSince(ctx, from)
	if err != nil {
		return nil, err
	}

	report := &domain.ComplianceReport{
		Window: window,
		From:   from,
		To:     now,
	}

	ruleCache := map[domain.TicketPriority]*domain.SLARule{}
	byPriority := map[domain.TicketPriority]*domain.PriorityCompliance{}
	var resolutionHoursSum float64
	var resolvedCount int

	for i := range tickets {
		ticket := &tickets[i]
		rule, seen := ruleCache[ticket.Priority]
		if !seen {
			rule, err = s.rules.GetActiveByPriority(ctx, ticket.Priority)
			if err != nil {
				if !errors.Is(err, pgx.ErrNoRows) {
					return nil, err
				}
				rule = nil
			}
			ruleCache[ticket.Priority] = rule
		}
		if rule == nil {
			continue
		}

		var actualHours float64
		if ticket.ResolvedAt != nil {
			actualHours = ticket.ResolvedAt.Sub(ticket.CreatedAt).Hours()
			resolutionHoursSum += actualHours
			resolvedCount++
		} else {
			actualHours = now.Sub(ticket.CreatedAt).Hours()
		}

		report.TotalTickets++
		compliant := actualHours <= rule.ResolutionHours
		if compliant {
			report.CompliantCount++
		} else {
			report.ResolutionViolations++
		}
		if actualHours > rule.InitialResponseHours {
			report.ResponseViolations++
		}

		bucket, exists := byPriority[ticket.Priority]
		if !exists {
			bucket = &domain.PriorityCompliance{Priority: ticket.Priority}
			byPriority[ticket.Priority] = bucket
		}
		bucket.TotalTickets++
		if compliant {
			bucket.CompliantCount++
		}
	}

	if report.TotalTickets > 0 {
		report.ComplianceRate = roundRate(float64(report.CompliantCount) / float64(report.TotalTickets) * 100)
	}
	if resolvedCount > 0 {
		report.AvgResolutionHours = roundRate(resolutionHoursSum / float64(resolvedCount))
	}

	for _, priority := range []domain.TicketPriority{
		domain.TicketPriorityLow,
		domain.TicketPriorityMedium,
		domain.TicketPriorityHigh,
		domain.TicketPriorityUrgent,
	} {
		bucket, exists := byPriority[priority]
		if !exists {
			continue
		}
		if bucket.TotalTickets > 0 {
			bucket.ComplianceRate = roundRate(float64(bucket.CompliantCount) / float64(bucket.TotalTickets) * 100)
		}
		report.ByPriority = append(report.ByPriority, *bucket)
	}

	return report, nil
}

func roundRate(v float64) float64 {
	return math.Round(v*100) / 100
}
