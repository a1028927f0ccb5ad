package service

import (
	"context"

	"github.com/spec-kit/sla-engine/internal/domain"
	"github.com/spec-kit/sla-engine/internal/repository"
	"github.com/spec-kit/sla-engine/internal/sla"
	apperrors "github.com/spec-kit/sla-engine/pkg/util"
)

// PolicyService manages SLA policy administration.
type PolicyService struct {
	policies repository.PolicyRepository
	resolver *sla.Resolver
}

// NewPolicyService constructs the service.
func NewPolicyService(policies repository.PolicyRepository, resolver *sla.Resolver) *PolicyService {
	return &PolicyService{policies: policies, resolver: resolver}
}

// PolicyUpsertInput describes an admin policy change.
type PolicyUpsertInput struct {
	Priority          domain.TicketPriority
	ResponseMinutes   int
	ResolutionMinutes int
}

// ListPolicies returns all policies of the organization.
func (s *PolicyService) ListPolicies(ctx context.Context, orgID string) ([]domain.SLAPolicy, error) {
	policies, err := s.policies.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return policies, nil
}

// UpsertPolicy creates or supersedes the policy for one priority. Existing
// tickets keep their stamped deadlines; only new tickets see the change.
func (s *PolicyService) UpsertPolicy(ctx context.Context, orgID string, input PolicyUpsertInput) (*domain.SLAPolicy, error) {
	if !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
	}
	if input.ResponseMinutes <= 0 || input.ResolutionMinutes <= 0 {
		return nil, apperrors.NewValidationError("response_minutes and resolution_minutes must be positive", nil)
	}
	if input.ResolutionMinutes < input.ResponseMinutes {
		return nil, apperrors.NewValidationError("resolution_minutes must not be shorter than response_minutes", nil)
	}

	policy := &domain.SLAPolicy{
		OrgID:             orgID,
		Priority:          input.Priority,
		ResponseMinutes:   input.ResponseMinutes,
		ResolutionMinutes: input.ResolutionMinutes,
	}
	if err := s.policies.Upsert(ctx, policy); err != nil {
		return nil, apperrors.MapError(err)
	}
	if s.resolver != nil {
		s.resolver.Invalidate(ctx, orgID, input.Priority)
	}
	return policy, nil
}
