package service

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// ReportTicketStore is the slice of ticket persistence the aggregator reads.
// The aggregator takes no locks and tolerates eventually-consistent reads;
// reports are explicitly "as of query time".
type ReportTicketStore interface {
	ListIntersectingWindow(ctx context.Context, orgID string, start, end time.Time) ([]domain.Ticket, error)
	ListBreachedInWindow(ctx context.Context, orgID string, start, end time.Time) ([]domain.Ticket, error)
}

// ReportTechnicianStore lists the organization's technician roster.
type ReportTechnicianStore interface {
	ListByOrg(ctx context.Context, orgID string) ([]domain.Technician, error)
}

// ReportService computes technician performance rankings and breach reports.
type ReportService struct {
	tickets     ReportTicketStore
	technicians ReportTechnicianStore
	logger      *zap.Logger
}

// NewReportService constructs the service.
func NewReportService(tickets ReportTicketStore, technicians ReportTechnicianStore, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{tickets: tickets, technicians: technicians, logger: logger}
}

type technicianAggregate struct {
	technicianID       string
	assignedTickets    map[string]struct{}
	totalResolved      int
	breachedResolved   int
	responseMinutes    float64
	responseSamples    int
	resolutionMinutes  float64
	resolutionSamples  int
	breachesResponse   int
	breachesResolution int
}

// TechnicianPerformance aggregates per-technician counters over the window
// and returns snapshots in deterministic rank order.
//
// A technician owns a ticket for total_assigned if any of their assignment
// intervals intersects the window. Resolution counters and timing averages
// only include tickets resolved inside the window, attributed to the
// technician holding the ticket at resolution time. Breach counters use the
// holder at the moment the breach was recorded.
func (s *ReportService) TechnicianPerformance(ctx context.Context, orgID string, window Window, technicianFilter *string) ([]domain.PerformanceSnapshot, error) {
	tickets, err := s.tickets.ListIntersectingWindow(ctx, orgID, window.Start, window.End)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	aggregates := make(map[string]*technicianAggregate)
	get := func(techID string) *technicianAggregate {
		agg, ok := aggregates[techID]
		if !ok {
			agg = &technicianAggregate{technicianID: techID, assignedTickets: make(map[string]struct{})}
			aggregates[techID] = agg
		}
		return agg
	}

	// Seed from the roster so idle technicians still report a row: zero
	// assigned tickets in the window is a valid result, not an absence.
	roster, err := s.technicians.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for i := range roster {
		get(roster[i].ID)
	}

	for i := range tickets {
		ticket := &tickets[i]
		spans := assignmentSpans(ticket)

		for _, span := range spans {
			if span.intersects(window) {
				get(span.technicianID).assignedTickets[ticket.ID] = struct{}{}
			}
		}

		if ticket.ResolvedAt != nil && window.Contains(*ticket.ResolvedAt) {
			if holder := holderAt(spans, *ticket.ResolvedAt); holder != nil {
				agg := get(*holder)
				agg.totalResolved++
				if ticket.SLAResponseBreached || ticket.SLAResolutionBreached {
					agg.breachedResolved++
				}
				if ticket.FirstResponseAt != nil {
					agg.responseMinutes += ticket.FirstResponseAt.Sub(ticket.CreatedAt).Minutes()
					agg.responseSamples++
				}
				agg.resolutionMinutes += ticket.ResolvedAt.Sub(ticket.CreatedAt).Minutes()
				agg.resolutionSamples++
			}
		}

		if ticket.SLAResponseBreached && ticket.SLAResponseBreachedAt != nil && window.Contains(*ticket.SLAResponseBreachedAt) {
			if holder := holderAt(spans, *ticket.SLAResponseBreachedAt); holder != nil {
				get(*holder).breachesResponse++
			}
		}
		if ticket.SLAResolutionBreached && ticket.SLAResolutionBreachedAt != nil && window.Contains(*ticket.SLAResolutionBreachedAt) {
			if holder := holderAt(spans, *ticket.SLAResolutionBreachedAt); holder != nil {
				get(*holder).breachesResolution++
			}
		}
	}

	snapshots := make([]domain.PerformanceSnapshot, 0, len(aggregates))
	for _, agg := range aggregates {
		if technicianFilter != nil && agg.technicianID != *technicianFilter {
			continue
		}
		snapshots = append(snapshots, agg.snapshot())
	}

	rankSnapshots(snapshots)
	return snapshots, nil
}

func (a *technicianAggregate) snapshot() domain.PerformanceSnapshot {
	snap := domain.PerformanceSnapshot{
		TechnicianID:          a.technicianID,
		TotalAssigned:         len(a.assignedTickets),
		TotalResolved:         a.totalResolved,
		SLABreachesResponse:   a.breachesResponse,
		SLABreachesResolution: a.breachesResolution,
	}

	// Zero assigned is a valid empty window, never a division error.
	if snap.TotalAssigned > 0 {
		snap.ResolutionRatePct = roundPct(float64(snap.TotalResolved) / float64(snap.TotalAssigned))
	}

	// Nothing resolved means no failures to report, by convention.
	snap.SLAComplianceRatePct = 100
	if snap.TotalResolved > 0 {
		snap.SLAComplianceRatePct = roundPct(float64(snap.TotalResolved-a.breachedResolved) / float64(snap.TotalResolved))
	}

	if a.responseSamples > 0 {
		avg := a.responseMinutes / float64(a.responseSamples)
		snap.AvgResponseTimeMinutes = &avg
	}
	if a.resolutionSamples > 0 {
		avg := a.resolutionMinutes / float64(a.resolutionSamples)
		snap.AvgResolutionTimeMinutes = &avg
	}
	return snap
}

// rankSnapshots orders descending by compliance, then resolution rate, then
// total resolved, with ascending technician ID as the final deterministic
// tie-break. Ranks are sequential 1..N; ties never share a rank number.
func rankSnapshots(snapshots []domain.PerformanceSnapshot) {
	sort.Slice(snapshots, func(i, j int) bool {
		a, b := snapshots[i], snapshots[j]
		if a.SLAComplianceRatePct != b.SLAComplianceRatePct {
			return a.SLAComplianceRatePct > b.SLAComplianceRatePct
		}
		if a.ResolutionRatePct != b.ResolutionRatePct {
			return a.ResolutionRatePct > b.ResolutionRatePct
		}
		if a.TotalResolved != b.TotalResolved {
			return a.TotalResolved > b.TotalResolved
		}
		return a.TechnicianID < b.TechnicianID
	})
	for i := range snapshots {
		snapshots[i].Rank = i + 1
	}
}

// BreachReport lists SLA breaches recorded inside the window, one record per
// breach kind. A ticket breaching both SLAs in the window yields two records.
func (s *ReportService) BreachReport(ctx context.Context, orgID string, start, end time.Time) ([]domain.BreachRecord, error) {
	if end.Before(start) {
		return nil, apperrors.NewWindowInvalid("start_date must not be after end_date")
	}
	tickets, err := s.tickets.ListBreachedInWindow(ctx, orgID, start, end)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	window := Window{Start: start, End: end}
	records := make([]domain.BreachRecord, 0, len(tickets))
	for i := range tickets {
		ticket := &tickets[i]
		if ticket.SLAResponseBreached && ticket.SLAResponseBreachedAt != nil && window.Contains(*ticket.SLAResponseBreachedAt) {
			records = append(records, breachRecord(ticket, domain.BreachTypeResponse, *ticket.SLAResponseBreachedAt))
		}
		if ticket.SLAResolutionBreached && ticket.SLAResolutionBreachedAt != nil && window.Contains(*ticket.SLAResolutionBreachedAt) {
			records = append(records, breachRecord(ticket, domain.BreachTypeResolution, *ticket.SLAResolutionBreachedAt))
		}
	}
	return records, nil
}

func breachRecord(ticket *domain.Ticket, kind domain.BreachType, at time.Time) domain.BreachRecord {
	return domain.BreachRecord{
		TicketID:             ticket.ID,
		ExternalKey:          ticket.ExternalKey,
		CustomerName:         ticket.CustomerName,
		Priority:             ticket.Priority,
		AssignedTechnicianID: ticket.AssignedTechnicianID,
		BreachType:           kind,
		BreachedAt:           at,
		AutoReassigned:       ticket.SLAAutoReassigned,
	}
}

// assignmentSpan is one technician's tenure on a ticket. A nil end means the
// tenure is still open.
type assignmentSpan struct {
	technicianID string
	from         time.Time
	to           *time.Time
}

func (s assignmentSpan) intersects(w Window) bool {
	if s.from.After(w.End) {
		return false
	}
	return s.to == nil || !s.to.Before(w.Start)
}

// assignmentSpans reconstructs the ticket's ownership timeline from the
// current assignee and the reassignment log. The log only records automatic
// transfers, so the final open span is always attributed to the current
// assignee.
func assignmentSpans(ticket *domain.Ticket) []assignmentSpan {
	entries := ticket.ReassignmentLog
	if len(entries) == 0 {
		if ticket.AssignedTechnicianID == nil {
			return nil
		}
		return []assignmentSpan{{technicianID: *ticket.AssignedTechnicianID, from: ticket.CreatedAt}}
	}

	var spans []assignmentSpan
	if entries[0].FromTechnicianID != nil {
		at := entries[0].At
		spans = append(spans, assignmentSpan{
			technicianID: *entries[0].FromTechnicianID,
			from:         ticket.CreatedAt,
			to:           &at,
		})
	}
	for i := range entries {
		span := assignmentSpan{technicianID: entries[i].ToTechnicianID, from: entries[i].At}
		if i+1 < len(entries) {
			next := entries[i+1].At
			span.to = &next
		}
		spans = append(spans, span)
	}
	if ticket.AssignedTechnicianID != nil && len(spans) > 0 {
		spans[len(spans)-1].technicianID = *ticket.AssignedTechnicianID
	}
	return spans
}

// holderAt returns the technician assigned at instant t, if any. A transfer
// instant counts toward the outgoing technician: auto-reassignment stamps the
// breach and the handover with the same timestamp, and the breach belongs to
// whoever held the ticket until that moment.
func holderAt(spans []assignmentSpan, t time.Time) *string {
	for i := range spans {
		span := spans[i]
		if t.Before(span.from) {
			continue
		}
		if span.to == nil || !t.After(*span.to) {
			tech := span.technicianID
			return &tech
		}
	}
	return nil
}

func roundPct(ratio float64) int {
	return int(math.Round(ratio * 100))
}
