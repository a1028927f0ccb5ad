package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/events"
	"github.com/spec-kit/sla-engine/internal/repository"
	"github.com/spec-kit/sla-engine/internal/sla"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// TicketService owns the intake and progress surface of the engine: deadline
// stamping at creation, first-response and resolution writes. Everything else
// about ticket CRUD belongs to the external platform.
type TicketService struct {
	tickets    repository.TicketRepository
	resolver   *sla.Resolver
	dispatcher events.Dispatcher
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Resolver   *sla.Resolver
	Dispatcher events.Dispatcher
	Now        func() time.Time
}

// TicketCreateInput describes ticket intake payload.
type TicketCreateInput struct {
	CustomerName         string
	Priority             domain.TicketPriority
	AssignedTechnicianID *string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		resolver:   deps.Resolver,
		dispatcher: deps.Dispatcher,
		now:        now,
	}
}

// CreateTicket stamps SLA deadlines and persists the ticket. A missing policy
// fails the whole creation: no ticket may exist unstamped, or it would never
// be monitored.
func (s *TicketService) CreateTicket(ctx context.Context, orgID string, input TicketCreateInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.CustomerName) == "" {
		return nil, apperrors.NewValidationError("customer_name required", nil)
	}
	if !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
	}

	policy, err := s.resolver.Resolve(ctx, orgID, input.Priority)
	if err != nil {
		if errors.Is(err, sla.ErrPolicyNotFound) {
			return nil, apperrors.NewPolicyNotFound(orgID, string(input.Priority))
		}
		return nil, apperrors.MapError(err)
	}

	createdAt := s.now().UTC()
	responseDeadline, resolutionDeadline := sla.ComputeDeadlines(createdAt, *policy)

	ticket := &domain.Ticket{
		ExternalKey:           generateTicketKey(),
		OrgID:                 orgID,
		CustomerName:          strings.TrimSpace(input.CustomerName),
		Priority:              input.Priority,
		Status:                domain.TicketStatusOpen,
		AssignedTechnicianID:  input.AssignedTechnicianID,
		CreatedAt:             createdAt,
		SLAResponseDeadline:   responseDeadline,
		SLAResolutionDeadline: resolutionDeadline,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketSLAStamped,
		OrgID:    ticket.OrgID,
		TicketID: ticket.ID,
		Payload: events.TicketSLAStampedPayload{
			Priority:           ticket.Priority,
			ResponseDeadline:   ticket.SLAResponseDeadline,
			ResolutionDeadline: ticket.SLAResolutionDeadline,
		},
	})
	return ticket, nil
}

// GetTicket fetches a ticket scoped to the caller's organization.
func (s *TicketService) GetTicket(ctx context.Context, orgID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if ticket.OrgID != orgID {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	return ticket, nil
}

// RecordFirstResponse marks the first technician action on the ticket. The
// timestamp is set once; repeat calls are no-ops.
func (s *TicketService) RecordFirstResponse(ctx context.Context, orgID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, orgID, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.IsTerminal() {
		return nil, apperrors.NewConflict("ticket already resolved or closed", map[string]any{"status": ticket.Status})
	}
	if err := s.tickets.RecordFirstResponse(ctx, ticketID, s.now().UTC()); err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.GetTicket(ctx, orgID, ticketID)
}

// ResolveTicket marks the ticket resolved. Breach flags already set stay set;
// no new breach evaluation applies afterwards.
func (s *TicketService) ResolveTicket(ctx context.Context, orgID, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, orgID, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.IsTerminal() {
		return nil, apperrors.NewConflict("ticket already resolved or closed", map[string]any{"status": ticket.Status})
	}
	if err := s.tickets.MarkResolved(ctx, ticketID, s.now().UTC()); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewConflict("ticket already resolved", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return s.GetTicket(ctx, orgID, ticketID)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func generateTicketKey() string {
	return "TCK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
