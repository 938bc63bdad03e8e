package repository

import (
	"context"
	"time"
)

// Locker is a best-effort lease used to narrow the race window around a
// redemption. It is an optimization, not the correctness mechanism: the
// conditional Claim write stays authoritative even with no locker wired.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}
