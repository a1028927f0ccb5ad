package sla

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/observability"
)

type ticketStoreMock struct {
	listFn           func(ctx context.Context, now time.Time, limit int) ([]domain.Ticket, error)
	markResponseFn   func(ctx context.Context, id string, at time.Time, entry *domain.ReassignmentEntry) (bool, error)
	markResolutionFn func(ctx context.Context, id string, at time.Time) (bool, error)
}

func (m *ticketStoreMock) ListBreachCandidates(ctx context.Context, now time.Time, limit int) ([]domain.Ticket, error) {
	return m.listFn(ctx, now, limit)
}

func (m *ticketStoreMock) MarkResponseBreached(ctx context.Context, id string, at time.Time, entry *domain.ReassignmentEntry) (bool, error) {
	if m.markResponseFn == nil {
		return false, errors.New("unexpected MarkResponseBreached call")
	}
	return m.markResponseFn(ctx, id, at, entry)
}

func (m *ticketStoreMock) MarkResolutionBreached(ctx context.Context, id string, at time.Time) (bool, error) {
	if m.markResolutionFn == nil {
		return false, errors.New("unexpected MarkResolutionBreached call")
	}
	return m.markResolutionFn(ctx, id, at)
}

type technicianStoreMock struct {
	listFn func(ctx context.Context, orgID string, excludeID *string) ([]domain.TechnicianLoad, error)
}

func (m *technicianStoreMock) ListAvailableWithLoad(ctx context.Context, orgID string, excludeID *string) ([]domain.TechnicianLoad, error) {
	return m.listFn(ctx, orgID, excludeID)
}

type captureDispatcher struct {
	published []events.Event
}

func (d *captureDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *captureDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *captureDispatcher) typesSeen() []events.EventType {
	types := make([]events.EventType, 0, len(d.published))
	for _, e := range d.published {
		types = append(types, e.Type)
	}
	return types
}

func strPtr(s string) *string { return &s }

func overdueTicket(id string, deadlineOffset time.Duration, now time.Time) domain.Ticket {
	created := now.Add(-time.Hour)
	return domain.Ticket{
		ID:                    id,
		OrgID:                 "org-1",
		Priority:              domain.TicketPriorityHigh,
		Status:                domain.TicketStatusOpen,
		AssignedTechnicianID:  strPtr("tech-a"),
		CreatedAt:             created,
		SLAResponseDeadline:   now.Add(deadlineOffset),
		SLAResolutionDeadline: now.Add(4 * time.Hour),
	}
}

func TestDetectorSweepResponseBreach(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	t.Run("flags overdue ticket and reassigns to least loaded technician", func(t *testing.T) {
		// Response due 30 minutes ago, one minute past a 30-minute budget.
		ticket := overdueTicket("t-1", -time.Minute, now)
		var gotEntry *domain.ReassignmentEntry
		tickets := &ticketStoreMock{
			listFn: func(context.Context, time.Time, int) ([]domain.Ticket, error) {
				return []domain.Ticket{ticket}, nil
			},
			markResponseFn: func(_ context.Context, id string, at time.Time, entry *domain.ReassignmentEntry) (bool, error) {
				assert.Equal(t, "t-1", id)
				assert.Equal(t, now, at)
				gotEntry = entry
				return true, nil
			},
		}
		technicians := &technicianStoreMock{
			listFn: func(_ context.Context, orgID string, excludeID *string) ([]domain.TechnicianLoad, error) {
				assert.Equal(t, "org-1", orgID)
				require.NotNil(t, excludeID)
				assert.Equal(t, "tech-a", *excludeID)
				return []domain.TechnicianLoad{
					{TechnicianID: "tech-c", OpenTicketCount: 4},
					{TechnicianID: "tech-b", OpenTicketCount: 1},
				}, nil
			},
		}
		dispatcher := &captureDispatcher{}
		detector := NewDetector(DetectorDependencies{
			TicketStore:     tickets,
			TechnicianStore: technicians,
			Dispatcher:      dispatcher,
			Metrics:         observability.NewMetrics(),
			Now:             func() time.Time { return now },
		})

		stats := detector.Sweep(context.Background())

		assert.Equal(t, int64(1), stats.ResponseBreaches)
		assert.Equal(t, int64(1), stats.Reassignments)
		assert.Zero(t, stats.Failures)
		require.NotNil(t, gotEntry)
		assert.Equal(t, "tech-b", gotEntry.ToTechnicianID)
		assert.Equal(t, "tech-a", *gotEntry.FromTechnicianID)
		assert.Equal(t, domain.ReassignmentReasonResponseBreach, gotEntry.Reason)
		assert.Equal(t, []events.EventType{
			events.EventSLAResponseBreached,
			events.EventTicketAutoReassigned,
		}, dispatcher.typesSeen())
	})

	t.Run("empty technician pool still flags the breach", func(t *testing.T) {
		ticket := overdueTicket("t-2", -time.Minute, now)
		tickets := &ticketStoreMock{
			listFn: func(context.Context, time.Time, int) ([]domain.Ticket, error) {
				return []domain.Ticket{ticket}, nil
			},
			markResponseFn: func(_ context.Context, _ string, _ time.Time, entry *domain.ReassignmentEntry) (bool, error) {
				assert.Nil(t, entry)
				return true, nil
			},
		}
		technicians := &technicianStoreMock{
			listFn: func(context.Context, string, *string) ([]domain.TechnicianLoad, error) {
				return nil, nil
			},
		}
		dispatcher := &captureDispatcher{}
		detector := NewDetector(DetectorDependencies{
			TicketStore:     tickets,
			TechnicianStore: technicians,
			Dispatcher:      dispatcher,
			Now:             func() time.Time { return now },
		})

		stats := detector.Sweep(context.Background())

		assert.Equal(t, int64(1), stats.ResponseBreaches)
		assert.Zero(t, stats.Reassignments)
		assert.Equal(t, int64(1), stats.NoTechnician)
		assert.Equal(t, []events.EventType{
			events.EventSLAResponseBreached,
			events.EventNoTechnicianAvailable,
		}, dispatcher.typesSeen())
	})

	t.Run("technician pool read failure degrades to flag-only breach", func(t *testing.T) {
		ticket := overdueTicket("t-3", -time.Minute, now)
		tickets := &ticketStoreMock{
			listFn: func(context.Context, time.Time, int) ([]domain.Ticket, error) {
				return []domain.Ticket{ticket}, nil
			},
			markResponseFn: func(_ context.Context, _ string, _ time.Time, entry *domain.ReassignmentEntry) (bool, error) {
				assert.Nil(t, entry)
				return true, nil
			},
		}
		technicians := &technicianStoreMock{
			listFn: func(context.Context, string, *string) ([]domain.TechnicianLoad, error) {
				return nil, errors.New("pool query timeout")
			},
		}
		detector := NewDetector(DetectorDependencies{
			TicketStore:     tickets,
			TechnicianStore: technicians,
			Now:             func() time.Time { return now },
		})

		stats := detector.Sweep(context.Background())

		assert.Equal(t, int64(1), stats.ResponseBreaches)
		assert.Zero(t, stats.Reassignments)
		assert.Zero(t, stats.NoTechnician)
	})

	t.Run("lost race is a silent no-op", func(t *testing.T) {
		ticket := overdueTicket("t-4", -time.Minute, now)
		tickets := &ticketStoreMock{
			listFn: func(context.Context, time.Time, int) ([]domain.Ticket, error) {
				return []domain.Ticket{ticket}, nil
			},
			markResponseFn: func(context.Context, string, time.Time, *domain.ReassignmentEntry) (bool, error) {
				return false, nil
			},
		}
		technicians := &technicianStoreMock{
			listFn: func(context.Context, string, *string) ([]domain.TechnicianLoad, error) {
				return []domain.TechnicianLoad{{TechnicianID: "tech-b"}}, nil
			},
		}
		dispatcher := &captureDispatcher{}
		detector := NewDetector(DetectorDependencies{
			TicketStore:     tickets,
			TechnicianStore: technicians,
			Dispatcher:      dispatcher,
			Now:             func() time.Time { return now },
		})

		stats := detector.Sweep(context.Background())

		assert.Equal(t, int64(1), stats.LostRaces)
		assert.Zero(t, stats.ResponseBreaches)
		assert.Empty(t, dispatcher.published)
	})

	t.Run("ticket inside its response window is untouched", func(t *testing.T) {
		ticket := overdueTicket("t-5", 10*time.Minute, now)
		tickets := &ticketStoreMock{
			listFn: func(context.Context, time.Time, int) ([]domain.Ticket, error) {
				return []domain.Ticket{ticket}, nil
			},
		}
		detector := NewDetector(DetectorDependencies{
			TicketStore: tickets,
			TechnicianStore: &technicianStoreMock{listFn: func(context.Context, string, *string) ([]domain.TechnicianLoad, error) {
				return nil, nil
			}},
			Now: func() time.Time { return now },
		})

		stats := detector.Sweep(context.Background())

		assert.Zero(t, stats.ResponseBreaches)
		assert.Zero(t, stats.ResolutionBreaches)
	})
}

func TestDetectorSweepResolutionBreach(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	t.Run("flags resolution breach and requests escalation without reassignment", func(t *testing.T) {
		responded := now.Add(-3 * time.Hour)
		ticket := domain.Ticket{
			ID:                    "t-10",
			OrgID:                 "org-1",
			Priority:              domain.TicketPriorityCritical,
			Status:                domain.TicketStatusInProgress,
			AssignedTechnicianID:  strPtr("tech-a"),
			CreatedAt:             now.Add(-5 * time.Hour),
			FirstResponseAt:       &responded,
			SLAResponseDeadline:   now.Add(-4 * time.Hour),
			SLAResolutionDeadline: now.Add(-time.Minute),
		}
		tickets := &ticketStoreMock{
			listFn: func(context.Context, time.Time, int) ([]domain.Ticket, error) {
				return []domain.Ticket{ticket}, nil
			},
			markResolutionFn: func(_ context.Context, id string, at time.Time) (bool, error) {
				assert.Equal(t, "t-10", id)
				assert.Equal(t, now, at)
				return true, nil
			},
		}
		dispatcher := &captureDispatcher{}
		detector := NewDetector(DetectorDependencies{
			TicketStore: tickets,
			TechnicianStore: &technicianStoreMock{listFn: func(context.Context, string, *string) ([]domain.TechnicianLoad, error) {
				t.Fatal("resolution breaches must not read the technician pool")
				return nil, nil
			}},
			Dispatcher: dispatcher,
			Now:        func() time.Time { return now },
		})

		stats := detector.Sweep(context.Background())

		assert.Equal(t, int64(1), stats.ResolutionBreaches)
		assert.Zero(t, stats.Reassignments)
		assert.Equal(t, []events.EventType{
			events.EventSLAResolutionBreached,
			events.EventSLAEscalationRequired,
		}, dispatcher.typesSeen())
	})

	t.Run("ticket past both deadlines breaches both in one sweep", func(t *testing.T) {
		ticket := domain.Ticket{
			ID:                    "t-11",
			OrgID:                 "org-1",
			Status:                domain.TicketStatusOpen,
			CreatedAt:             now.Add(-6 * time.Hour),
			SLAResponseDeadline:   now.Add(-5 * time.Hour),
			SLAResolutionDeadline: now.Add(-time.Hour),
		}
		tickets := &ticketStoreMock{
			listFn: func(context.Context, time.Time, int) ([]domain.Ticket, error) {
				return []domain.Ticket{ticket}, nil
			},
			markResponseFn: func(context.Context, string, time.Time, *domain.ReassignmentEntry) (bool, error) {
				return true, nil
			},
			markResolutionFn: func(context.Context, string, time.Time) (bool, error) {
				return true, nil
			},
		}
		detector := NewDetector(DetectorDependencies{
			TicketStore: tickets,
			TechnicianStore: &technicianStoreMock{listFn: func(context.Context, string, *string) ([]domain.TechnicianLoad, error) {
				return []domain.TechnicianLoad{{TechnicianID: "tech-b"}}, nil
			}},
			Now: func() time.Time { return now },
		})

		stats := detector.Sweep(context.Background())

		assert.Equal(t, int64(1), stats.ResponseBreaches)
		assert.Equal(t, int64(1), stats.ResolutionBreaches)
	})
}

func TestDetectorSweepFailures(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	t.Run("candidate scan failure is recorded and sweep ends", func(t *testing.T) {
		tickets := &ticketStoreMock{
			listFn: func(context.Context, time.Time, int) ([]domain.Ticket, error) {
				return nil, errors.New("store unavailable")
			},
		}
		metrics := observability.NewMetrics()
		detector := NewDetector(DetectorDependencies{
			TicketStore: tickets,
			TechnicianStore: &technicianStoreMock{listFn: func(context.Context, string, *string) ([]domain.TechnicianLoad, error) {
				return nil, nil
			}},
			Metrics: metrics,
			Now:     func() time.Time { return now },
		})

		stats := detector.Sweep(context.Background())

		assert.Equal(t, int64(1), stats.Failures)
		assert.Equal(t, int64(1), metrics.SweepSnapshot().Sweeps)
	})

	t.Run("one failing ticket does not stop the batch", func(t *testing.T) {
		first := overdueTicket("t-20", -time.Minute, now)
		second := overdueTicket("t-21", -time.Minute, now)
		tickets := &ticketStoreMock{
			listFn: func(context.Context, time.Time, int) ([]domain.Ticket, error) {
				return []domain.Ticket{first, second}, nil
			},
			markResponseFn: func(_ context.Context, id string, _ time.Time, _ *domain.ReassignmentEntry) (bool, error) {
				if id == "t-20" {
					return false, errors.New("update failed")
				}
				return true, nil
			},
		}
		detector := NewDetector(DetectorDependencies{
			TicketStore: tickets,
			TechnicianStore: &technicianStoreMock{listFn: func(context.Context, string, *string) ([]domain.TechnicianLoad, error) {
				return []domain.TechnicianLoad{{TechnicianID: "tech-b"}}, nil
			}},
			Now: func() time.Time { return now },
		})

		stats := detector.Sweep(context.Background())

		assert.Equal(t, int64(1), stats.Failures)
		assert.Equal(t, int64(1), stats.ResponseBreaches)
	})
}
