package service

import (
	"time"

	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// ReportPeriod names a reporting window.
type ReportPeriod string

const (
	PeriodThisWeek    ReportPeriod = "this_week"
	PeriodThisMonth   ReportPeriod = "this_month"
	PeriodThisQuarter ReportPeriod = "this_quarter"
	PeriodCustom      ReportPeriod = "custom"
)

// Window is an absolute, inclusive aggregation range in UTC.
type Window struct {
	Start time.Time
	End   time.Time
}

// ResolveWindow turns a named period or custom range into an absolute window.
// Named periods are resolved against now at call time, never cached:
// this_week starts Monday 00:00 UTC, this_month on the 1st, this_quarter on
// Jan/Apr/Jul/Oct 1st. Custom ranges must carry both bounds in order.
func ResolveWindow(period ReportPeriod, from, to *time.Time, now time.Time) (Window, error) {
	now = now.UTC()
	switch period {
	case PeriodThisWeek:
		day := now.Truncate(24 * time.Hour)
		offset := (int(now.Weekday()) + 6) % 7 // Monday = 0
		return Window{Start: day.AddDate(0, 0, -offset), End: now}, nil
	case PeriodThisMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Window{Start: start, End: now}, nil
	case PeriodThisQuarter:
		quarterMonth := time.Month((int(now.Month())-1)/3*3 + 1)
		start := time.Date(now.Year(), quarterMonth, 1, 0, 0, 0, 0, time.UTC)
		return Window{Start: start, End: now}, nil
	case PeriodCustom:
		if from == nil || to == nil {
			return Window{}, apperrors.NewWindowInvalid("custom period requires date_from and date_to")
		}
		start, end := from.UTC(), to.UTC()
		if end.Before(start) {
			return Window{}, apperrors.NewWindowInvalid("date_from must not be after date_to")
		}
		return Window{Start: start, End: end}, nil
	default:
		return Window{}, apperrors.NewWindowInvalid("period must be one of this_week, this_month, this_quarter, custom")
	}
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}
