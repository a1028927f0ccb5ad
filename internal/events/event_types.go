package events

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketSLAStamped      EventType = "ticket_sla_stamped"
	EventSLAResponseBreached   EventType = "sla_response_breached"
	EventSLAResolutionBreached EventType = "sla_resolution_breached"
	EventTicketAutoReassigned  EventType = "ticket_auto_reassigned"
	EventSLAEscalationRequired EventType = "sla_escalation_required"
	EventNoTechnicianAvailable EventType = "sla_no_technician_available"
)

// Event represents a domain event emitted by the engine.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	OrgID     string      `json:"org_id"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketSLAStampedPayload payload.
type TicketSLAStampedPayload struct {
	Priority           domain.TicketPriority `json:"priority"`
	ResponseDeadline   time.Time             `json:"response_deadline"`
	ResolutionDeadline time.Time             `json:"resolution_deadline"`
}

// SLABreachedPayload payload for both breach kinds.
type SLABreachedPayload struct {
	BreachType           domain.BreachType `json:"breach_type"`
	BreachedAt           time.Time         `json:"breached_at"`
	Deadline             time.Time         `json:"deadline"`
	AssignedTechnicianID *string           `json:"assigned_technician_id,omitempty"`
}

// TicketAutoReassignedPayload payload.
type TicketAutoReassignedPayload struct {
	FromTechnicianID *string `json:"from_technician_id,omitempty"`
	ToTechnicianID   string  `json:"to_technician_id"`
	Reason           string  `json:"reason"`
}

// SLAEscalationRequiredPayload payload. Emitted on resolution breaches so an
// external escalation path (manager notification) can pick the ticket up.
type SLAEscalationRequiredPayload struct {
	Priority             domain.TicketPriority `json:"priority"`
	AssignedTechnicianID *string               `json:"assigned_technician_id,omitempty"`
	ResolutionDeadline   time.Time             `json:"resolution_deadline"`
}

// NoTechnicianAvailablePayload payload. The ticket stays breached and
// unassigned; operators need to see it.
type NoTechnicianAvailablePayload struct {
	Priority             domain.TicketPriority `json:"priority"`
	AssignedTechnicianID *string               `json:"assigned_technician_id,omitempty"`
}
