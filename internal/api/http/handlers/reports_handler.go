package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-engine/internal/api/dto"
	"github.com/spec-kit/sla-engine/internal/auth"
	"github.com/spec-kit/sla-engine/internal/service"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

const dateOnlyFormat = "2006-01-02"

// ReportsHandler serves technician performance rankings and breach reports.
type ReportsHandler struct {
	service *service.ReportService
	now     func() time.Time
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService) *ReportsHandler {
	return &ReportsHandler{service: reportService, now: time.Now}
}

// TechnicianPerformance GET /reports/technician-performance.
func (h *ReportsHandler) TechnicianPerformance(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	period := service.ReportPeriod(c.Query("period", string(service.PeriodThisWeek)))
	from, err := parseDateQuery(c.Query("date_from"), false)
	if err != nil {
		return apperrors.NewWindowInvalid("invalid date_from")
	}
	to, err := parseDateQuery(c.Query("date_to"), true)
	if err != nil {
		return apperrors.NewWindowInvalid("invalid date_to")
	}

	window, err := service.ResolveWindow(period, from, to, h.now())
	if err != nil {
		return err
	}

	var technicianFilter *string
	if id := strings.TrimSpace(c.Query("technician_id")); id != "" {
		technicianFilter = &id
	}

	snapshots, err := h.service.TechnicianPerformance(c.Context(), principal.OrgID, window, technicianFilter)
	if err != nil {
		return err
	}

	items := make([]dto.PerformanceSnapshotResponse, 0, len(snapshots))
	for _, snap := range snapshots {
		items = append(items, dto.NewPerformanceSnapshotResponse(snap))
	}
	return c.JSON(fiber.Map{
		"data": items,
		"window": fiber.Map{
			"period": period,
			"start":  window.Start,
			"end":    window.End,
		},
	})
}

// BreachReport GET /sla/breach-report.
func (h *ReportsHandler) BreachReport(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	start, err := parseDateQuery(c.Query("start_date"), false)
	if err != nil || start == nil {
		return apperrors.NewWindowInvalid("start_date required")
	}
	end, err := parseDateQuery(c.Query("end_date"), true)
	if err != nil || end == nil {
		return apperrors.NewWindowInvalid("end_date required")
	}

	records, err := h.service.BreachReport(c.Context(), principal.OrgID, *start, *end)
	if err != nil {
		return err
	}

	items := make([]dto.BreachRecordResponse, 0, len(records))
	for _, record := range records {
		items = append(items, dto.NewBreachRecordResponse(record))
	}
	return c.JSON(fiber.Map{"data": items})
}

// parseDateQuery accepts RFC3339 timestamps or bare dates. Bare end dates
// extend to the end of that day so inclusive ranges behave as users expect.
func parseDateQuery(value string, endOfDay bool) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		ts = ts.UTC()
		return &ts, nil
	}
	ts, err := time.Parse(dateOnlyFormat, value)
	if err != nil {
		return nil, err
	}
	ts = ts.UTC()
	if endOfDay {
		ts = ts.Add(24*time.Hour - time.Second)
	}
	return &ts, nil
}
