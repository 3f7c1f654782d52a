package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"learning-entitlement/internal/domain/model"
	"learning-entitlement/internal/domain/ports/repository"
	"learning-entitlement/internal/infra/metrics"
	red "learning-entitlement/internal/infra/redis"
)

var _ repository.ProgressRepository = (*progressRepoCacheDecorator)(nil)

// progressRepoCacheDecorator caches learning-path STRUCTURE only. Per-user
// completion facts change on every chapter completed and always go to the
// store, so a stale cache can never hold a lock open or closed.
type progressRepoCacheDecorator struct {
	inner repository.ProgressRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewProgressRepoCacheDecorator(inner repository.ProgressRepository, cache red.RedisClient, ttl time.Duration) repository.ProgressRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &progressRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *progressRepoCacheDecorator) FindPath(ctx context.Context, tx repository.Tx, pathID string) (*model.LearningPath, error) {
	key := fmt.Sprintf("path:%s", pathID)
	// Redis being unreachable is treated like a miss, never a failed read.
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var path model.LearningPath
		if json.Unmarshal([]byte(val), &path) == nil {
			metrics.IncCacheRequest("path", "hit")
			return &path, nil
		}
	}

	metrics.IncCacheRequest("path", "miss")
	path, err := d.inner.FindPath(ctx, tx, pathID)
	if err != nil {
		return nil, err
	}
	if path != nil {
		if bytes, err := json.Marshal(path); err == nil {
			_ = d.cache.Set(ctx, key, bytes, d.ttl)
		}
	}
	return path, nil
}

func (d *progressRepoCacheDecorator) FindFacts(ctx context.Context, tx repository.Tx, userID, pathID string) (*model.ProgressFacts, error) {
	return d.inner.FindFacts(ctx, tx, userID, pathID)
}
