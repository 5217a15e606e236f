package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/service"
)

// ReportsHandler exposes the compliance report endpoint.
type ReportsHandler struct {
	service *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService) *ReportsHandler {
	return &ReportsHandler{service: reportService}
}

// ComplianceReport GET /sla/reports/compliance?window=7d|30d|90d|1y.
func (h *ReportsHandler) ComplianceReport(c *fiber.Ctx) error {
	window := domain.ReportWindow(c.Query("window", string(domain.ReportWindow30d)))
	report, err := h.service.GetComplianceReport(c.Context(), window)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}
