package domain

import "time"

// SLAPolicy maps one (organization, priority) pair to its time budgets.
// Policies are created at organization setup and superseded by admin upserts;
// changes never restamp deadlines on existing tickets.
type SLAPolicy struct {
	OrgID             string
	Priority          TicketPriority
	ResponseMinutes   int
	ResolutionMinutes int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ResponseBudget returns the response window as a duration.
func (p SLAPolicy) ResponseBudget() time.Duration {
	return time.Duration(p.ResponseMinutes) * time.Minute
}

// ResolutionBudget returns the resolution window as a duration.
func (p SLAPolicy) ResolutionBudget() time.Duration {
	return time.Duration(p.ResolutionMinutes) * time.Minute
}
