package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/inventory-ledger/internal/logger"
)

var ErrLockNotObtained = errors.New("item lock not obtained")

// RedisLocker serializes stock mutations per item across service instances.
type RedisLocker struct {
	locker  *redislock.Client
	ttl     time.Duration
	backoff time.Duration
	retries int
	logger  *logrus.Logger
}

func NewRedisLocker(client *redis.Client, ttl, backoff time.Duration, retries int, logger *logrus.Logger) *RedisLocker {
	return &RedisLocker{
		locker:  redislock.New(client),
		ttl:     ttl,
		backoff: backoff,
		retries: retries,
		logger:  logger,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, itemID int64) (func(), error) {
	key := fmt.Sprintf("lock:item:%d", itemID)
	lock, err := l.locker.Obtain(ctx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.backoff), l.retries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockNotObtained
	}
	if err != nil {
		return nil, err
	}

	return func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.LogError(l.logger, "storage", "RedisLocker.Lock", "failed to release item lock", key, err)
		}
	}, nil
}
