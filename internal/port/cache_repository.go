package port

import (
	"context"
	"time"
)

type CacheRepository interface {
	// Get decodes the value under key into dest, reporting whether it was present
	Get(ctx context.Context, key string, dest any) (bool, error)

	Set(ctx context.Context, key string, value any, ttl time.Duration) error

	Forget(ctx context.Context, keys ...string) error
}

type IdempotencyStore interface {
	// Claim sets a key for idempotency check, returns false if already exists
	Claim(ctx context.Context, key string) (bool, error)

	// Release drops a claimed key so the request can be retried
	Release(ctx context.Context, key string) error
}

// ItemLocker serializes stock mutations per item across callers.
type ItemLocker interface {
	Lock(ctx context.Context, itemID int64) (unlock func(), err error)
}
