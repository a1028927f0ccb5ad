package dto

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// PerformanceSnapshotResponse is one row of the technician performance
// ranking. Display fields (technician_name, avatar_initials) are merged in
// by the caller from the external user-profile service.
type PerformanceSnapshotResponse struct {
	TechnicianID             string   `json:"technician_id"`
	TotalAssigned            int      `json:"total_assigned"`
	TotalResolved            int      `json:"total_resolved"`
	ResolutionRatePct        int      `json:"resolution_rate_pct"`
	AvgResponseTimeMinutes   *float64 `json:"avg_response_time_minutes"`
	AvgResolutionTimeMinutes *float64 `json:"avg_resolution_time_minutes"`
	SLAComplianceRatePct     int      `json:"sla_compliance_rate_pct"`
	SLABreachesResponse      int      `json:"sla_breaches_response"`
	SLABreachesResolution    int      `json:"sla_breaches_resolution"`
	Rank                     int      `json:"rank"`
}

// NewPerformanceSnapshotResponse maps the domain snapshot.
func NewPerformanceSnapshotResponse(snap domain.PerformanceSnapshot) PerformanceSnapshotResponse {
	return PerformanceSnapshotResponse{
		TechnicianID:             snap.TechnicianID,
		TotalAssigned:            snap.TotalAssigned,
		TotalResolved:            snap.TotalResolved,
		ResolutionRatePct:        snap.ResolutionRatePct,
		AvgResponseTimeMinutes:   snap.AvgResponseTimeMinutes,
		AvgResolutionTimeMinutes: snap.AvgResolutionTimeMinutes,
		SLAComplianceRatePct:     snap.SLAComplianceRatePct,
		SLABreachesResponse:      snap.SLABreachesResponse,
		SLABreachesResolution:    snap.SLABreachesResolution,
		Rank:                     snap.Rank,
	}
}

// BreachRecordResponse is one row of the breach report.
type BreachRecordResponse struct {
	TicketID             string                `json:"ticket_id"`
	ExternalKey          string                `json:"external_key"`
	CustomerName         string                `json:"customer_name"`
	Priority             domain.TicketPriority `json:"priority"`
	AssignedTechnicianID *string               `json:"assigned_technician_id"`
	BreachType           domain.BreachType     `json:"breach_type"`
	BreachedAt           time.Time             `json:"breached_at"`
	AutoReassigned       bool                  `json:"auto_reassigned"`
}

// NewBreachRecordResponse maps the domain record.
func NewBreachRecordResponse(record domain.BreachRecord) BreachRecordResponse {
	return BreachRecordResponse{
		TicketID:             record.TicketID,
		ExternalKey:          record.ExternalKey,
		CustomerName:         record.CustomerName,
		Priority:             record.Priority,
		AssignedTechnicianID: record.AssignedTechnicianID,
		BreachType:           record.BreachType,
		BreachedAt:           record.BreachedAt,
		AutoReassigned:       record.AutoReassigned,
	}
}
