package sla

import (
	"github.com/spec-kit/sla-engine/internal/domain"
)

// SelectTechnician picks the replacement technician from the candidate pool:
// fewest currently-open tickets wins, ties broken by lowest technician ID so
// repeated runs over the same pool are deterministic. Returns
// ErrNoTechnicianAvailable on an empty pool.
func SelectTechnician(pool []domain.TechnicianLoad) (string, error) {
	if len(pool) == 0 {
		return "", ErrNoTechnicianAvailable
	}
	best := pool[0]
	for _, candidate := range pool[1:] {
		if candidate.OpenTicketCount < best.OpenTicketCount {
			best = candidate
			continue
		}
		if candidate.OpenTicketCount == best.OpenTicketCount && candidate.TechnicianID < best.TechnicianID {
			best = candidate
		}
	}
	return best.TechnicianID, nil
}
