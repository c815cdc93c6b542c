package contracts

import (
	"context"
	"time"
)

// LockerService guards work that only one instance may run at a time, such
// as polling a payment intent or sweeping the journal. Each acquisition gets
// its own token and only that token may release or extend the lock.
type LockerService interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (acquired bool, token string, err error)
	Unlock(ctx context.Context, key, token string) error
	// Refresh fails once the lock has expired or changed hands.
	Refresh(ctx context.Context, key, token string, ttl time.Duration) error
}
