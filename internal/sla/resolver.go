package sla

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-engine/internal/domain"
)

// PolicyStore reads persisted SLA policies.
type PolicyStore interface {
	GetByOrgPriority(ctx context.Context, orgID string, priority domain.TicketPriority) (*domain.SLAPolicy, error)
}

// Resolver maps (organization, priority) to SLA time budgets. Lookups are
// read-through cached in Redis; the cache is best-effort and a miss or cache
// outage falls back to the store. Safe for concurrent use.
type Resolver struct {
	store  PolicyStore
	cache  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewResolver creates a resolver. cache may be nil to disable caching.
func NewResolver(store PolicyStore, cache *redis.Client, ttl time.Duration, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{store: store, cache: cache, ttl: ttl, logger: logger}
}

// Resolve returns the policy for the priority, or ErrPolicyNotFound.
func (r *Resolver) Resolve(ctx context.Context, orgID string, priority domain.TicketPriority) (*domain.SLAPolicy, error) {
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrPolicyNotFound, priority)
	}

	key := policyCacheKey(orgID, priority)
	if r.cache != nil {
		raw, err := r.cache.Get(ctx, key).Bytes()
		if err == nil {
			var policy domain.SLAPolicy
			if err := json.Unmarshal(raw, &policy); err == nil {
				return &policy, nil
			}
			r.logger.Warn("corrupt policy cache entry, falling through", zap.String("key", key))
		}
	}

	policy, err := r.store.GetByOrgPriority(ctx, orgID, priority)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: org %s priority %s", ErrPolicyNotFound, orgID, priority)
		}
		return nil, err
	}

	if r.cache != nil {
		if raw, err := json.Marshal(policy); err == nil {
			if err := r.cache.Set(ctx, key, raw, r.ttl).Err(); err != nil {
				r.logger.Warn("policy cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return policy, nil
}

// Invalidate drops the cached entry after a policy upsert.
func (r *Resolver) Invalidate(ctx context.Context, orgID string, priority domain.TicketPriority) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Del(ctx, policyCacheKey(orgID, priority)).Err(); err != nil {
		r.logger.Warn("policy cache invalidation failed", zap.Error(err))
	}
}

func policyCacheKey(orgID string, priority domain.TicketPriority) string {
	return fmt.Sprintf("sla:policy:%s:%s", orgID, priority)
}
