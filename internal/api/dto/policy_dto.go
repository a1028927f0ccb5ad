package dto

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// UpsertPolicyRequest payload.
type UpsertPolicyRequest struct {
	ResponseMinutes   int `json:"response_minutes"`
	ResolutionMinutes int `json:"resolution_minutes"`
}

// PolicyResponse exposes one priority's SLA budgets.
type PolicyResponse struct {
	Priority          domain.TicketPriority `json:"priority"`
	ResponseMinutes   int                   `json:"response_minutes"`
	ResolutionMinutes int                   `json:"resolution_minutes"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// NewPolicyResponse maps the domain policy.
func NewPolicyResponse(policy *domain.SLAPolicy) PolicyResponse {
	return PolicyResponse{
		Priority:          policy.Priority,
		ResponseMinutes:   policy.ResponseMinutes,
		ResolutionMinutes: policy.ResolutionMinutes,
		CreatedAt:         policy.CreatedAt,
		UpdatedAt:         policy.UpdatedAt,
	}
}
