package sla

import (
	"time"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// ComputeDeadlines derives the absolute response and resolution deadlines for
// a ticket created at createdAt under the given policy.
//
// Deadlines are computed and stored in UTC so DST transitions in the
// organization's operating timezone cannot shift them. The function is pure
// and idempotent: a retried creation request yields identical deadlines.
func ComputeDeadlines(createdAt time.Time, policy domain.SLAPolicy) (response, resolution time.Time) {
	created := createdAt.UTC()
	return created.Add(policy.ResponseBudget()), created.Add(policy.ResolutionBudget())
}
