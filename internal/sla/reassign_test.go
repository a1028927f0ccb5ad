package sla

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/sla-engine/internal/domain"
)

func TestSelectTechnician(t *testing.T) {
	t.Run("picks technician with fewest open tickets", func(t *testing.T) {
		pool := []domain.TechnicianLoad{
			{TechnicianID: "tech-a", OpenTicketCount: 3},
			{TechnicianID: "tech-b", OpenTicketCount: 1},
			{TechnicianID: "tech-c", OpenTicketCount: 2},
		}

		selected, err := SelectTechnician(pool)

		assert.NoError(t, err)
		assert.Equal(t, "tech-b", selected)
	})

	t.Run("breaks load ties by lowest technician id", func(t *testing.T) {
		pool := []domain.TechnicianLoad{
			{TechnicianID: "tech-b", OpenTicketCount: 1},
			{TechnicianID: "tech-a", OpenTicketCount: 1},
			{TechnicianID: "tech-c", OpenTicketCount: 1},
		}

		selected, err := SelectTechnician(pool)

		assert.NoError(t, err)
		assert.Equal(t, "tech-a", selected)
	})

	t.Run("empty pool returns ErrNoTechnicianAvailable", func(t *testing.T) {
		_, err := SelectTechnician(nil)

		assert.ErrorIs(t, err, ErrNoTechnicianAvailable)
	})

	t.Run("is deterministic over repeated runs", func(t *testing.T) {
		pool := []domain.TechnicianLoad{
			{TechnicianID: "tech-z", OpenTicketCount: 0},
			{TechnicianID: "tech-y", OpenTicketCount: 0},
		}

		first, err := SelectTechnician(pool)
		assert.NoError(t, err)
		for i := 0; i < 10; i++ {
			again, err := SelectTechnician(pool)
			assert.NoError(t, err)
			assert.Equal(t, first, again)
		}
	})
}
