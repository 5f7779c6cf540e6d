package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/inventory-ledger/internal/core/domain"
	"github.com/rl1809/inventory-ledger/internal/logger"
	"github.com/rl1809/inventory-ledger/internal/port"
)

const DefaultCacheTTL = time.Hour

func ItemKey(id int64) string {
	return fmt.Sprintf("item_%d", id)
}

func TransactionKey(id int64) string {
	return fmt.Sprintf("transaction_%d", id)
}

func TransactionDetailKey(role domain.Role, id int64) string {
	return role.CacheKeyPrefix() + TransactionKey(id)
}

// transactionKeys lists every cached view of one ledger entry.
func transactionKeys(id int64) []string {
	return []string{
		TransactionKey(id),
		TransactionDetailKey(domain.RoleAdmin, id),
		TransactionDetailKey(domain.RoleStaff, id),
	}
}

// Remember returns the cached value under key or computes and stores it.
// Cache errors are logged and bypassed; only compute errors are returned.
func Remember[T any](ctx context.Context, cache port.CacheRepository, log logrus.FieldLogger, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	var cached T
	found, err := cache.Get(ctx, key, &cached)
	if err != nil {
		logger.LogError(log, "cache", "Remember", "cache read failed", key, err)
	} else if found {
		return cached, nil
	}

	value, err := compute(ctx)
	if err != nil {
		return value, err
	}

	if err := cache.Set(ctx, key, value, ttl); err != nil {
		logger.LogError(log, "cache", "Remember", "cache write failed", key, err)
	}
	return value, nil
}

type cacheStore struct {
	backend port.CacheRepository
	ttl     time.Duration
	logger  *logrus.Logger
}

func newCacheStore(backend port.CacheRepository, ttl time.Duration, logger *logrus.Logger) cacheStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return cacheStore{backend: backend, ttl: ttl, logger: logger}
}

func (c cacheStore) forget(ctx context.Context, keys ...string) {
	if err := c.backend.Forget(ctx, keys...); err != nil {
		logger.LogError(c.logger, "cache", "forget", "cache invalidation failed", keys, err)
	}
}

// invalidate forgets keys now and once more after the enclosing unit
// commits, so a read that re-cached the pre-commit value is dropped too.
// A read computed before the commit and written after the second forget
// still lands; it lives until its TTL. Stock checks never read the cache.
func (c cacheStore) invalidate(ctx context.Context, keys ...string) {
	c.forget(ctx, keys...)
	if inUnit(ctx) {
		AfterCommit(ctx, func(ctx context.Context) {
			c.forget(ctx, keys...)
		})
	}
}
