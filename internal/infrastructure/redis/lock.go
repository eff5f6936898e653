package redis

import (
	"context"
	"fmt"
	"time"

	domainErrors "github.com/cassiomorais/paycore/internal/domain/errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// Release only succeeds for the holder, so an instance that lost its
	// lease cannot free a lock someone else re-acquired.
	releaseLockScript = redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`)

	extendLockScript = redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("pexpire", KEYS[1], ARGV[2])
		else
			return 0
		end
	`)
)

// DistributedLock guards cross-instance critical sections. The worker takes
// one per outbox drain cycle so only a single instance dispatches at a time.
// The token is random per lock instance; release and extend are fenced on it.
type DistributedLock struct {
	client   *redis.Client
	key      string
	token    string
	ttl      time.Duration
	acquired bool
}

func NewDistributedLock(client *redis.Client, key string, ttl time.Duration) *DistributedLock {
	return &DistributedLock{
		client: client,
		key:    "lock:" + key,
		token:  uuid.New().String(),
		ttl:    ttl,
	}
}

// Acquire takes the lock if free. A false return without error means
// another instance holds it; callers skip the cycle rather than wait.
func (l *DistributedLock) Acquire(ctx context.Context) (bool, error) {
	success, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", domainErrors.ErrLockAcquisitionFailed, err)
	}

	l.acquired = success
	return success, nil
}

// Extend pushes the lease out for a drain cycle running longer than the TTL.
func (l *DistributedLock) Extend(ctx context.Context, additionalTTL time.Duration) error {
	if !l.acquired {
		return domainErrors.ErrLockNotHeld
	}

	result, err := extendLockScript.Run(
		ctx,
		l.client,
		[]string{l.key},
		l.token,
		additionalTTL.Milliseconds(),
	).Result()
	if err != nil {
		return fmt.Errorf("extend lock: %w", err)
	}

	if val, ok := result.(int64); !ok || val == 0 {
		l.acquired = false
		return domainErrors.ErrLockNotHeld
	}
	return nil
}

// Release frees the lock. Releasing a lock that expired is reported as
// ErrLockNotHeld so the holder learns its lease lapsed mid-cycle.
func (l *DistributedLock) Release(ctx context.Context) error {
	if !l.acquired {
		return nil
	}

	result, err := releaseLockScript.Run(
		ctx,
		l.client,
		[]string{l.key},
		l.token,
	).Result()
	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}

	l.acquired = false
	if val, ok := result.(int64); !ok || val == 0 {
		return domainErrors.ErrLockNotHeld
	}
	return nil
}
