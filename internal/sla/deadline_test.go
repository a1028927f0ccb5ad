package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/sla-engine/internal/domain"
)

func TestComputeDeadlines(t *testing.T) {
	policy := domain.SLAPolicy{
		OrgID:             "org-1",
		Priority:          domain.TicketPriorityHigh,
		ResponseMinutes:   30,
		ResolutionMinutes: 240,
	}
	createdAt := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	t.Run("offsets deadlines by policy budgets", func(t *testing.T) {
		response, resolution := ComputeDeadlines(createdAt, policy)

		assert.Equal(t, createdAt.Add(30*time.Minute), response)
		assert.Equal(t, createdAt.Add(240*time.Minute), resolution)
	})

	t.Run("is deterministic for the same inputs", func(t *testing.T) {
		r1, s1 := ComputeDeadlines(createdAt, policy)
		r2, s2 := ComputeDeadlines(createdAt, policy)

		assert.True(t, r1.Equal(r2))
		assert.True(t, s1.Equal(s2))
	})

	t.Run("normalizes zoned creation times to UTC", func(t *testing.T) {
		zone := time.FixedZone("UTC+2", 2*60*60)
		zoned := createdAt.In(zone)

		response, resolution := ComputeDeadlines(zoned, policy)

		assert.Equal(t, time.UTC, response.Location())
		assert.Equal(t, time.UTC, resolution.Location())
		assert.True(t, response.Equal(createdAt.Add(30*time.Minute)))
	})
}
