package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/sla"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

type ticketRepoMock struct {
	createFn           func(ctx context.Context, ticket *domain.Ticket) error
	getByIDFn          func(ctx context.Context, id string) (*domain.Ticket, error)
	recordFirstRespFn  func(ctx context.Context, id string, at time.Time) error
	markResolvedFn     func(ctx context.Context, id string, at time.Time) error
	createCalls        int
	firstResponseCalls int
	markResolvedCalls  int
}

func (m *ticketRepoMock) Create(ctx context.Context, ticket *domain.Ticket) error {
	m.createCalls++
	if m.createFn == nil {
		ticket.ID = "generated-id"
		return nil
	}
	return m.createFn(ctx, ticket)
}

func (m *ticketRepoMock) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if m.getByIDFn == nil {
		return nil, pgx.ErrNoRows
	}
	return m.getByIDFn(ctx, id)
}

func (m *ticketRepoMock) ListBreachCandidates(context.Context, time.Time, int) ([]domain.Ticket, error) {
	return nil, errors.New("not implemented")
}

func (m *ticketRepoMock) MarkResponseBreached(context.Context, string, time.Time, *domain.ReassignmentEntry) (bool, error) {
	return false, errors.New("not implemented")
}

func (m *ticketRepoMock) MarkResolutionBreached(context.Context, string, time.Time) (bool, error) {
	return false, errors.New("not implemented")
}

func (m *ticketRepoMock) RecordFirstResponse(ctx context.Context, id string, at time.Time) error {
	m.firstResponseCalls++
	if m.recordFirstRespFn == nil {
		return nil
	}
	return m.recordFirstRespFn(ctx, id, at)
}

func (m *ticketRepoMock) MarkResolved(ctx context.Context, id string, at time.Time) error {
	m.markResolvedCalls++
	if m.markResolvedFn == nil {
		return nil
	}
	return m.markResolvedFn(ctx, id, at)
}

func (m *ticketRepoMock) ListIntersectingWindow(context.Context, string, time.Time, time.Time) ([]domain.Ticket, error) {
	return nil, errors.New("not implemented")
}

func (m *ticketRepoMock) ListBreachedInWindow(context.Context, string, time.Time, time.Time) ([]domain.Ticket, error) {
	return nil, errors.New("not implemented")
}

type fixedPolicyStore struct {
	policy *domain.SLAPolicy
	err    error
}

func (s *fixedPolicyStore) GetByOrgPriority(context.Context, string, domain.TicketPriority) (*domain.SLAPolicy, error) {
	return s.policy, s.err
}

func newTestTicketService(repo *ticketRepoMock, store sla.PolicyStore, now time.Time) *TicketService {
	return NewTicketService(TicketDependencies{
		TicketRepo: repo,
		Resolver:   sla.NewResolver(store, nil, 0, nil),
		Dispatcher: events.NewInMemoryDispatcher(nil),
		Now:        func() time.Time { return now },
	})
}

func TestCreateTicket(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	store := &fixedPolicyStore{policy: &domain.SLAPolicy{
		OrgID:             "org-1",
		Priority:          domain.TicketPriorityHigh,
		ResponseMinutes:   30,
		ResolutionMinutes: 240,
	}}

	t.Run("stamps deadlines from the resolved policy", func(t *testing.T) {
		repo := &ticketRepoMock{}
		svc := newTestTicketService(repo, store, now)

		ticket, err := svc.CreateTicket(ctx, "org-1", TicketCreateInput{
			CustomerName: "Garage Muller",
			Priority:     domain.TicketPriorityHigh,
		})

		require.NoError(t, err)
		assert.Equal(t, now.Add(30*time.Minute), ticket.SLAResponseDeadline)
		assert.Equal(t, now.Add(240*time.Minute), ticket.SLAResolutionDeadline)
		assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
		assert.NotEmpty(t, ticket.ExternalKey)
		assert.Equal(t, 1, repo.createCalls)
	})

	t.Run("missing policy fails creation with POLICY_NOT_FOUND", func(t *testing.T) {
		repo := &ticketRepoMock{}
		svc := newTestTicketService(repo, &fixedPolicyStore{err: pgx.ErrNoRows}, now)

		_, err := svc.CreateTicket(ctx, "org-1", TicketCreateInput{
			CustomerName: "Garage Muller",
			Priority:     domain.TicketPriorityLow,
		})

		require.Error(t, err)
		domainErr := apperrors.ToDomainError(err)
		assert.Equal(t, "POLICY_NOT_FOUND", domainErr.Code)
		assert.Equal(t, 422, domainErr.HTTPStatus)
		assert.Zero(t, repo.createCalls, "no ticket may be created unstamped")
	})

	t.Run("unknown priority is rejected before policy lookup", func(t *testing.T) {
		repo := &ticketRepoMock{}
		svc := newTestTicketService(repo, store, now)

		_, err := svc.CreateTicket(ctx, "org-1", TicketCreateInput{
			CustomerName: "Garage Muller",
			Priority:     domain.TicketPriority("urgent"),
		})

		require.Error(t, err)
		assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
		assert.Zero(t, repo.createCalls)
	})

	t.Run("blank customer name is rejected", func(t *testing.T) {
		svc := newTestTicketService(&ticketRepoMock{}, store, now)

		_, err := svc.CreateTicket(ctx, "org-1", TicketCreateInput{
			CustomerName: "   ",
			Priority:     domain.TicketPriorityHigh,
		})

		require.Error(t, err)
		assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
	})
}

func TestGetTicket(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	store := &fixedPolicyStore{err: pgx.ErrNoRows}

	t.Run("foreign organization tickets look like missing tickets", func(t *testing.T) {
		repo := &ticketRepoMock{
			getByIDFn: func(_ context.Context, id string) (*domain.Ticket, error) {
				return &domain.Ticket{ID: id, OrgID: "org-2"}, nil
			},
		}
		svc := newTestTicketService(repo, store, now)

		_, err := svc.GetTicket(ctx, "org-1", "t-1")

		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
	})
}

func TestResolveTicket(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	store := &fixedPolicyStore{err: pgx.ErrNoRows}

	t.Run("terminal tickets conflict", func(t *testing.T) {
		repo := &ticketRepoMock{
			getByIDFn: func(_ context.Context, id string) (*domain.Ticket, error) {
				return &domain.Ticket{ID: id, OrgID: "org-1", Status: domain.TicketStatusResolved}, nil
			},
		}
		svc := newTestTicketService(repo, store, now)

		_, err := svc.ResolveTicket(ctx, "org-1", "t-1")

		require.Error(t, err)
		assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
		assert.Zero(t, repo.markResolvedCalls)
	})

	t.Run("resolution writes through the repository", func(t *testing.T) {
		repo := &ticketRepoMock{
			getByIDFn: func(_ context.Context, id string) (*domain.Ticket, error) {
				return &domain.Ticket{ID: id, OrgID: "org-1", Status: domain.TicketStatusInProgress}, nil
			},
		}
		svc := newTestTicketService(repo, store, now)

		_, err := svc.ResolveTicket(ctx, "org-1", "t-1")

		require.NoError(t, err)
		assert.Equal(t, 1, repo.markResolvedCalls)
	})
}
