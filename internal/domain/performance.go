package domain

import "time"

// PerformanceSnapshot is the per-technician aggregation output for one
// reporting window. It is computed on demand and never persisted; values are
// "as of query time".
//
// AvgResponseTimeMinutes and AvgResolutionTimeMinutes are nil when the
// technician has no resolved tickets with the relevant timestamps in the
// window. They are reported as null, never as zero.
type PerformanceSnapshot struct {
	TechnicianID             string
	TotalAssigned            int
	TotalResolved            int
	ResolutionRatePct        int
	AvgResponseTimeMinutes   *float64
	AvgResolutionTimeMinutes *float64
	SLAComplianceRatePct     int
	SLABreachesResponse      int
	SLABreachesResolution    int
	Rank                     int
}

// BreachType distinguishes the two SLA breach kinds in reports.
type BreachType string

const (
	BreachTypeResponse   BreachType = "response"
	BreachTypeResolution BreachType = "resolution"
)

// BreachRecord is one row of the breach report.
type BreachRecord struct {
	TicketID             string
	ExternalKey          string
	CustomerName         string
	Priority             TicketPriority
	AssignedTechnicianID *string
	BreachType           BreachType
	BreachedAt           time.Time
	AutoReassigned       bool
}
