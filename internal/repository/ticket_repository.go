package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/sla-engine/internal/domain"
)

const ticketColumns = `id, external_key, org_id, customer_name, priority, status, assigned_technician_id,
               created_at, updated_at, first_response_at, resolved_at,
               sla_response_deadline, sla_resolution_deadline,
               sla_response_breached, sla_response_breached_at,
               sla_resolution_breached, sla_resolution_breached_at,
               sla_auto_reassigned, reassignment_log`

// TicketRepository encapsulates SLA-relevant ticket persistence.
//
// MarkResponseBreached and MarkResolutionBreached are conditional updates:
// they succeed only while the breach flag is still false, so at most one
// concurrent sweep instance wins a given transition.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListBreachCandidates(ctx context.Context, now time.Time, limit int) ([]domain.Ticket, error)
	MarkResponseBreached(ctx context.Context, id string, at time.Time, entry *domain.ReassignmentEntry) (bool, error)
	MarkResolutionBreached(ctx context.Context, id string, at time.Time) (bool, error)
	RecordFirstResponse(ctx context.Context, id string, at time.Time) error
	MarkResolved(ctx context.Context, id string, at time.Time) error
	ListIntersectingWindow(ctx context.Context, orgID string, start, end time.Time) ([]domain.Ticket, error)
	ListBreachedInWindow(ctx context.Context, orgID string, start, end time.Time) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	// created_at is supplied, not defaulted: deadlines were computed from it
	// and the two must agree exactly.
	const query = `
        INSERT INTO tickets (external_key, org_id, customer_name, priority, status, assigned_technician_id,
                             created_at, sla_response_deadline, sla_resolution_deadline, reassignment_log)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,'[]'::jsonb)
        RETURNING id, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ExternalKey,
		ticket.OrgID,
		ticket.CustomerName,
		ticket.Priority,
		ticket.Status,
		ticket.AssignedTechnicianID,
		ticket.CreatedAt,
		ticket.SLAResponseDeadline,
		ticket.SLAResolutionDeadline,
	).Scan(&ticket.ID, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	row := r.pool.QueryRow(ctx, query, id)
	return scanTicketRow(row)
}

func (r *ticketRepository) ListBreachCandidates(ctx context.Context, now time.Time, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 200
	}
	query := fmt.Sprintf(`
        SELECT %s FROM tickets
        WHERE status NOT IN ('resolved','closed')
          AND ((sla_response_breached = FALSE AND first_response_at IS NULL AND sla_response_deadline < $1)
            OR (sla_resolution_breached = FALSE AND sla_resolution_deadline < $1))
        ORDER BY created_at
        LIMIT $2`, ticketColumns)

	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) MarkResponseBreached(ctx context.Context, id string, at time.Time, entry *domain.ReassignmentEntry) (bool, error) {
	if entry == nil {
		const query = `
            UPDATE tickets
            SET sla_response_breached = TRUE, sla_response_breached_at = $2, updated_at = NOW()
            WHERE id = $1
              AND sla_response_breached = FALSE
              AND first_response_at IS NULL
              AND status NOT IN ('resolved','closed')`
		cmd, err := r.pool.Exec(ctx, query, id, at)
		if err != nil {
			return false, err
		}
		return cmd.RowsAffected() > 0, nil
	}

	logEntry, err := json.Marshal([]domain.ReassignmentEntry{*entry})
	if err != nil {
		return false, err
	}
	// Flag transition and reassignment ride one statement so no partial state
	// is ever observable. A lost race updates zero rows and writes nothing.
	const query = `
        UPDATE tickets
        SET sla_response_breached = TRUE,
            sla_response_breached_at = $2,
            assigned_technician_id = $3,
            sla_auto_reassigned = TRUE,
            reassignment_log = reassignment_log || $4::jsonb,
            updated_at = NOW()
        WHERE id = $1
          AND sla_response_breached = FALSE
          AND sla_auto_reassigned = FALSE
          AND first_response_at IS NULL
          AND status NOT IN ('resolved','closed')`
	cmd, err := r.pool.Exec(ctx, query, id, at, entry.ToTechnicianID, logEntry)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *ticketRepository) MarkResolutionBreached(ctx context.Context, id string, at time.Time) (bool, error) {
	const query = `
        UPDATE tickets
        SET sla_resolution_breached = TRUE, sla_resolution_breached_at = $2, updated_at = NOW()
        WHERE id = $1
          AND sla_resolution_breached = FALSE
          AND status NOT IN ('resolved','closed')`
	cmd, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *ticketRepository) RecordFirstResponse(ctx context.Context, id string, at time.Time) error {
	// Set-once: a second response leaves the original timestamp in place.
	const query = `
        UPDATE tickets
        SET first_response_at = $2,
            status = CASE WHEN status = 'open' THEN 'in_progress' ELSE status END,
            updated_at = NOW()
        WHERE id = $1 AND first_response_at IS NULL`
	_, err := r.pool.Exec(ctx, query, id, at)
	return err
}

func (r *ticketRepository) MarkResolved(ctx context.Context, id string, at time.Time) error {
	const query = `
        UPDATE tickets
        SET resolved_at = $2, status = 'resolved', updated_at = NOW()
        WHERE id = $1 AND resolved_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) ListIntersectingWindow(ctx context.Context, orgID string, start, end time.Time) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM tickets
        WHERE org_id = $1
          AND created_at <= $3
          AND (resolved_at IS NULL OR resolved_at >= $2)
        ORDER BY created_at`, ticketColumns)

	rows, err := r.pool.Query(ctx, query, orgID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListBreachedInWindow(ctx context.Context, orgID string, start, end time.Time) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM tickets
        WHERE org_id = $1
          AND ((sla_response_breached AND sla_response_breached_at >= $2 AND sla_response_breached_at <= $3)
            OR (sla_resolution_breached AND sla_resolution_breached_at >= $2 AND sla_resolution_breached_at <= $3))
        ORDER BY COALESCE(sla_response_breached_at, sla_resolution_breached_at)`, ticketColumns)

	rows, err := r.pool.Query(ctx, query, orgID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicketRow(row rowScanner) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var logRaw []byte
	if err := row.Scan(
		&ticket.ID,
		&ticket.ExternalKey,
		&ticket.OrgID,
		&ticket.CustomerName,
		&ticket.Priority,
		&ticket.Status,
		&ticket.AssignedTechnicianID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.FirstResponseAt,
		&ticket.ResolvedAt,
		&ticket.SLAResponseDeadline,
		&ticket.SLAResolutionDeadline,
		&ticket.SLAResponseBreached,
		&ticket.SLAResponseBreachedAt,
		&ticket.SLAResolutionBreached,
		&ticket.SLAResolutionBreachedAt,
		&ticket.SLAAutoReassigned,
		&logRaw,
	); err != nil {
		return nil, err
	}
	if len(logRaw) > 0 {
		if err := json.Unmarshal(logRaw, &ticket.ReassignmentLog); err != nil {
			return nil, fmt.Errorf("decode reassignment_log for ticket %s: %w", ticket.ID, err)
		}
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicketRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
