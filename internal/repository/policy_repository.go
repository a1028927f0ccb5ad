package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// PolicyRepository handles persistence for SLA policies. Policies are only
// ever superseded via Upsert, never deleted.
type PolicyRepository interface {
	GetByOrgPriority(ctx context.Context, orgID string, priority domain.TicketPriority) (*domain.SLAPolicy, error)
	ListByOrg(ctx context.Context, orgID string) ([]domain.SLAPolicy, error)
	Upsert(ctx context.Context, policy *domain.SLAPolicy) error
}

type policyRepository struct {
	pool *pgxpool.Pool
}

// NewPolicyRepository instantiates the repository.
func NewPolicyRepository(pool *pgxpool.Pool) PolicyRepository {
	return &policyRepository{pool: pool}
}

func (r *policyRepository) GetByOrgPriority(ctx context.Context, orgID string, priority domain.TicketPriority) (*domain.SLAPolicy, error) {
	const query = `
        SELECT org_id, priority, response_minutes, resolution_minutes, created_at, updated_at
        FROM sla_policies WHERE org_id=$1 AND priority=$2`

	var policy domain.SLAPolicy
	if err := r.pool.QueryRow(ctx, query, orgID, priority).Scan(
		&policy.OrgID,
		&policy.Priority,
		&policy.ResponseMinutes,
		&policy.ResolutionMinutes,
		&policy.CreatedAt,
		&policy.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &policy, nil
}

func (r *policyRepository) ListByOrg(ctx context.Context, orgID string) ([]domain.SLAPolicy, error) {
	const query = `
        SELECT org_id, priority, response_minutes, resolution_minutes, created_at, updated_at
        FROM sla_policies WHERE org_id=$1 ORDER BY priority`

	rows, err := r.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SLAPolicy
	for rows.Next() {
		var policy domain.SLAPolicy
		if err := rows.Scan(
			&policy.OrgID,
			&policy.Priority,
			&policy.ResponseMinutes,
			&policy.ResolutionMinutes,
			&policy.CreatedAt,
			&policy.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, policy)
	}
	return result, rows.Err()
}

func (r *policyRepository) Upsert(ctx context.Context, policy *domain.SLAPolicy) error {
	const query = `
        INSERT INTO sla_policies (org_id, priority, response_minutes, resolution_minutes)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (org_id, priority)
        DO UPDATE SET response_minutes=EXCLUDED.response_minutes,
                      resolution_minutes=EXCLUDED.resolution_minutes,
                      updated_at=NOW()
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		policy.OrgID,
		policy.Priority,
		policy.ResponseMinutes,
		policy.ResolutionMinutes,
	).Scan(&policy.CreatedAt, &policy.UpdatedAt)
}
