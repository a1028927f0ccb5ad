package dto

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	CustomerName         string                `json:"customer_name"`
	Priority             domain.TicketPriority `json:"priority"`
	AssignedTechnicianID *string               `json:"assigned_technician_id"`
}

// ReassignmentEntryResponse is one provenance record.
type ReassignmentEntryResponse struct {
	FromTechnicianID *string   `json:"from_technician_id"`
	ToTechnicianID   string    `json:"to_technician_id"`
	At               time.Time `json:"at"`
	Reason           string    `json:"reason"`
}

// TicketResponse exposes the SLA-relevant ticket state.
type TicketResponse struct {
	ID                      string                      `json:"id"`
	ExternalKey             string                      `json:"external_key"`
	CustomerName            string                      `json:"customer_name"`
	Priority                domain.TicketPriority       `json:"priority"`
	Status                  domain.TicketStatus         `json:"status"`
	AssignedTechnicianID    *string                     `json:"assigned_technician_id"`
	CreatedAt               time.Time                   `json:"created_at"`
	FirstResponseAt         *time.Time                  `json:"first_response_at"`
	ResolvedAt              *time.Time                  `json:"resolved_at"`
	SLAResponseDeadline     time.Time                   `json:"sla_response_deadline"`
	SLAResolutionDeadline   time.Time                   `json:"sla_resolution_deadline"`
	SLAResponseBreached     bool                        `json:"sla_response_breached"`
	SLAResponseBreachedAt   *time.Time                  `json:"sla_response_breached_at"`
	SLAResolutionBreached   bool                        `json:"sla_resolution_breached"`
	SLAResolutionBreachedAt *time.Time                  `json:"sla_resolution_breached_at"`
	SLAAutoReassigned       bool                        `json:"sla_auto_reassigned"`
	ReassignmentLog         []ReassignmentEntryResponse `json:"reassignment_log"`
}

// NewTicketResponse maps the domain ticket.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	log := make([]ReassignmentEntryResponse, 0, len(ticket.ReassignmentLog))
	for _, entry := range ticket.ReassignmentLog {
		log = append(log, ReassignmentEntryResponse{
			FromTechnicianID: entry.FromTechnicianID,
			ToTechnicianID:   entry.ToTechnicianID,
			At:               entry.At,
			Reason:           entry.Reason,
		})
	}
	return TicketResponse{
		ID:                      ticket.ID,
		ExternalKey:             ticket.ExternalKey,
		CustomerName:            ticket.CustomerName,
		Priority:                ticket.Priority,
		Status:                  ticket.Status,
		AssignedTechnicianID:    ticket.AssignedTechnicianID,
		CreatedAt:               ticket.CreatedAt,
		FirstResponseAt:         ticket.FirstResponseAt,
		ResolvedAt:              ticket.ResolvedAt,
		SLAResponseDeadline:     ticket.SLAResponseDeadline,
		SLAResolutionDeadline:   ticket.SLAResolutionDeadline,
		SLAResponseBreached:     ticket.SLAResponseBreached,
		SLAResponseBreachedAt:   ticket.SLAResponseBreachedAt,
		SLAResolutionBreached:   ticket.SLAResolutionBreached,
		SLAResolutionBreachedAt: ticket.SLAResolutionBreachedAt,
		SLAAutoReassigned:       ticket.SLAAutoReassigned,
		ReassignmentLog:         log,
	}
}
