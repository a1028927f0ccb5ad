package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// TechnicianRepository reads technician records owned by the external staff
// system. Open-ticket load is always derived with a fresh count query.
type TechnicianRepository interface {
	ListByOrg(ctx context.Context, orgID string) ([]domain.Technician, error)
	ListAvailableWithLoad(ctx context.Context, orgID string, excludeID *string) ([]domain.TechnicianLoad, error)
}

type technicianRepository struct {
	pool *pgxpool.Pool
}

// NewTechnicianRepository instantiates the repository.
func NewTechnicianRepository(pool *pgxpool.Pool) TechnicianRepository {
	return &technicianRepository{pool: pool}
}

func (r *technicianRepository) ListByOrg(ctx context.Context, orgID string) ([]domain.Technician, error) {
	const query = `
        SELECT id, org_id, name, status, created_at, updated_at
        FROM technicians WHERE org_id=$1 ORDER BY id`

	rows, err := r.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Technician
	for rows.Next() {
		var tech domain.Technician
		if err := rows.Scan(
			&tech.ID,
			&tech.OrgID,
			&tech.Name,
			&tech.Status,
			&tech.CreatedAt,
			&tech.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, tech)
	}
	return result, rows.Err()
}

func (r *technicianRepository) ListAvailableWithLoad(ctx context.Context, orgID string, excludeID *string) ([]domain.TechnicianLoad, error) {
	const query = `
        SELECT t.id, COUNT(k.id)
        FROM technicians t
        LEFT JOIN tickets k
               ON k.assigned_technician_id = t.id
              AND k.status NOT IN ('resolved','closed')
        WHERE t.org_id = $1
          AND t.status = 'available'
          AND ($2::text IS NULL OR t.id::text <> $2)
        GROUP BY t.id
        ORDER BY COUNT(k.id), t.id`

	rows, err := r.pool.Query(ctx, query, orgID, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TechnicianLoad
	for rows.Next() {
		var load domain.TechnicianLoad
		if err := rows.Scan(&load.TechnicianID, &load.OpenTicketCount); err != nil {
			return nil, err
		}
		result = append(result, load)
	}
	return result, rows.Err()
}
