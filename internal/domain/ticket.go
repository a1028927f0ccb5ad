package domain

import "time"

// TicketStatus enumerates lifecycle states for service tickets.
type TicketStatus string

const (
	TicketStatusOpen            TicketStatus = "open"
	TicketStatusInProgress      TicketStatus = "in_progress"
	TicketStatusWaitingForParts TicketStatus = "waiting_for_parts"
	TicketStatusResolved        TicketStatus = "resolved"
	TicketStatusClosed          TicketStatus = "closed"
)

// IsTerminal reports whether the status excludes the ticket from SLA evaluation.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// TicketPriority enumerates SLA urgency classes.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "low"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityCritical TicketPriority = "critical"
)

// KnownPriorities lists every priority an organization's policy set must cover.
var KnownPriorities = []TicketPriority{
	TicketPriorityLow,
	TicketPriorityMedium,
	TicketPriorityHigh,
	TicketPriorityCritical,
}

// Valid reports whether the priority is one of the known classes.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// ReassignmentReasonResponseBreach marks ownership transfers triggered by a
// response-SLA breach.
const ReassignmentReasonResponseBreach = "sla_response_breach"

// ReassignmentEntry is one provenance record in a ticket's reassignment log.
type ReassignmentEntry struct {
	FromTechnicianID *string   `json:"from_technician_id"`
	ToTechnicianID   string    `json:"to_technician_id"`
	At               time.Time `json:"at"`
	Reason           string    `json:"reason"`
}

// Ticket is the SLA-relevant projection of a workshop service ticket.
//
// Deadlines are stamped once at creation and immutable thereafter. Breach
// flags are monotonic (false to true only) and written exclusively by the
// breach detector, as is SLAAutoReassigned. FirstResponseAt and ResolvedAt
// are written by the ticket progress path and only read during sweeps.
type Ticket struct {
	ID                      string
	ExternalKey             string
	OrgID                   string
	CustomerName            string
	Priority                TicketPriority
	Status                  TicketStatus
	AssignedTechnicianID    *string
	CreatedAt               time.Time
	UpdatedAt               time.Time
	FirstResponseAt         *time.Time
	ResolvedAt              *time.Time
	SLAResponseDeadline     time.Time
	SLAResolutionDeadline   time.Time
	SLAResponseBreached     bool
	SLAResponseBreachedAt   *time.Time
	SLAResolutionBreached   bool
	SLAResolutionBreachedAt *time.Time
	SLAAutoReassigned       bool
	ReassignmentLog         []ReassignmentEntry
}
