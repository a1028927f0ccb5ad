package sla

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/observability"
)

// TicketStore is the slice of ticket persistence the detector needs.
type TicketStore interface {
	ListBreachCandidates(ctx context.Context, now time.Time, limit int) ([]domain.Ticket, error)
	MarkResponseBreached(ctx context.Context, id string, at time.Time, entry *domain.ReassignmentEntry) (bool, error)
	MarkResolutionBreached(ctx context.Context, id string, at time.Time) (bool, error)
}

// TechnicianStore reads the reassignment candidate pool.
type TechnicianStore interface {
	ListAvailableWithLoad(ctx context.Context, orgID string, excludeID *string) ([]domain.TechnicianLoad, error)
}

// Detector runs the recurring breach sweep. Correctness under concurrent
// instances rests entirely on the store's conditional updates: at most one
// instance wins a given flag transition, and only the winner reassigns.
type Detector struct {
	tickets     TicketStore
	technicians TechnicianStore
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	batchLimit  int
	now         func() time.Time
}

// DetectorDependencies bundles detector collaborators.
type DetectorDependencies struct {
	TicketStore     TicketStore
	TechnicianStore TechnicianStore
	Dispatcher      events.Dispatcher
	Metrics         *observability.Metrics
	Logger          *zap.Logger
	BatchLimit      int
	Now             func() time.Time
}

// NewDetector creates the detector.
func NewDetector(deps DetectorDependencies) *Detector {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	limit := deps.BatchLimit
	if limit <= 0 {
		limit = 200
	}
	return &Detector{
		tickets:     deps.TicketStore,
		technicians: deps.TechnicianStore,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      logger,
		batchLimit:  limit,
		now:         now,
	}
}

// Sweep runs one detection cycle. Candidates are processed independently: a
// failure on one ticket never stops the rest of the batch, and anything left
// unprocessed is picked up again on the next sweep because the candidate
// query filters on flags still being false.
func (d *Detector) Sweep(ctx context.Context) observability.SweepStats {
	var stats observability.SweepStats
	now := d.now().UTC()

	candidates, err := d.tickets.ListBreachCandidates(ctx, now, d.batchLimit)
	if err != nil {
		// StoreUnavailable: transient, retried on the next sweep.
		d.logger.Warn("sweep candidate scan failed", zap.Error(err))
		stats.Failures++
		d.metrics.RecordSweep(stats)
		return stats
	}
	stats.CandidatesSeen = int64(len(candidates))

	for i := range candidates {
		ticket := &candidates[i]
		if responseDue(ticket, now) {
			d.processResponseBreach(ctx, ticket, now, &stats)
		}
		if resolutionDue(ticket, now) {
			d.processResolutionBreach(ctx, ticket, now, &stats)
		}
	}

	d.metrics.RecordSweep(stats)
	return stats
}

func responseDue(t *domain.Ticket, now time.Time) bool {
	return !t.SLAResponseBreached && t.FirstResponseAt == nil && now.After(t.SLAResponseDeadline)
}

func resolutionDue(t *domain.Ticket, now time.Time) bool {
	return !t.SLAResolutionBreached && now.After(t.SLAResolutionDeadline)
}

func (d *Detector) processResponseBreach(ctx context.Context, ticket *domain.Ticket, now time.Time, stats *observability.SweepStats) {
	var entry *domain.ReassignmentEntry
	poolEmpty := false

	pool, err := d.technicians.ListAvailableWithLoad(ctx, ticket.OrgID, ticket.AssignedTechnicianID)
	switch {
	case err != nil:
		// The breach must still be recorded; only the reassignment is lost.
		d.logger.Warn("technician pool read failed, flagging breach without reassignment",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
	default:
		selected, selErr := SelectTechnician(pool)
		if errors.Is(selErr, ErrNoTechnicianAvailable) {
			poolEmpty = true
		} else {
			entry = &domain.ReassignmentEntry{
				FromTechnicianID: ticket.AssignedTechnicianID,
				ToTechnicianID:   selected,
				At:               now,
				Reason:           domain.ReassignmentReasonResponseBreach,
			}
		}
	}

	applied, err := d.tickets.MarkResponseBreached(ctx, ticket.ID, now, entry)
	if err != nil {
		stats.Failures++
		d.logger.Warn("response breach update failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
		return
	}
	if !applied {
		// ConcurrentUpdateLost: another sweep instance already transitioned
		// this flag and owns the reassignment. Not an error.
		stats.LostRaces++
		return
	}

	stats.ResponseBreaches++
	d.publish(ctx, events.EventSLAResponseBreached, ticket, events.SLABreachedPayload{
		BreachType:           domain.BreachTypeResponse,
		BreachedAt:           now,
		Deadline:             ticket.SLAResponseDeadline,
		AssignedTechnicianID: ticket.AssignedTechnicianID,
	})

	switch {
	case entry != nil:
		stats.Reassignments++
		d.logger.Info("ticket auto-reassigned after response breach",
			zap.String("ticket_id", ticket.ID),
			zap.String("to_technician_id", entry.ToTechnicianID))
		d.publish(ctx, events.EventTicketAutoReassigned, ticket, events.TicketAutoReassignedPayload{
			FromTechnicianID: entry.FromTechnicianID,
			ToTechnicianID:   entry.ToTechnicianID,
			Reason:           entry.Reason,
		})
	case poolEmpty:
		stats.NoTechnician++
		d.logger.Warn("no technician available for breached ticket",
			zap.String("ticket_id", ticket.ID),
			zap.String("org_id", ticket.OrgID))
		d.publish(ctx, events.EventNoTechnicianAvailable, ticket, events.NoTechnicianAvailablePayload{
			Priority:             ticket.Priority,
			AssignedTechnicianID: ticket.AssignedTechnicianID,
		})
	}
}

func (d *Detector) processResolutionBreach(ctx context.Context, ticket *domain.Ticket, now time.Time, stats *observability.SweepStats) {
	applied, err := d.tickets.MarkResolutionBreached(ctx, ticket.ID, now)
	if err != nil {
		stats.Failures++
		d.logger.Warn("resolution breach update failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
		return
	}
	if !applied {
		stats.LostRaces++
		return
	}

	stats.ResolutionBreaches++
	d.publish(ctx, events.EventSLAResolutionBreached, ticket, events.SLABreachedPayload{
		BreachType:           domain.BreachTypeResolution,
		BreachedAt:           now,
		Deadline:             ticket.SLAResolutionDeadline,
		AssignedTechnicianID: ticket.AssignedTechnicianID,
	})
	// No reassignment on resolution breaches: handing the ticket over this
	// late would reset response expectations unfairly. Escalation is
	// delegated to whoever subscribes to this event.
	d.publish(ctx, events.EventSLAEscalationRequired, ticket, events.SLAEscalationRequiredPayload{
		Priority:             ticket.Priority,
		AssignedTechnicianID: ticket.AssignedTechnicianID,
		ResolutionDeadline:   ticket.SLAResolutionDeadline,
	})
}

func (d *Detector) publish(ctx context.Context, eventType events.EventType, ticket *domain.Ticket, payload interface{}) {
	if d.dispatcher == nil {
		return
	}
	_ = d.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		OrgID:     ticket.OrgID,
		TicketID:  ticket.ID,
		Timestamp: d.now().UTC(),
		Payload:   payload,
	})
}
