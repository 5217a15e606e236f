package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// PassLock is a Redis advisory lock serializing evaluation passes across
// scheduler instances. Idempotency is still enforced at the store; the lock
// only avoids two instances doing the same full scan at once.
type PassLock struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewPassLock builds a lock helper. A nil client disables locking and every
// acquire succeeds, which keeps single-instance deployments working without
// Redis.
func NewPassLock(r *Redis, ttl time.Duration, logger *zap.Logger) *PassLock {
	lock := &PassLock{logger: logger, ttl: ttl}
	if r != nil {
		lock.client = r.Client
	}
	return lock
}

// Acquire attempts to take the named lock. It returns a release function and
// whether the lock was obtained.
func (l *PassLock) Acquire(ctx context.Context, name string) (func(), bool) {
	if l == nil || l.client == nil {
		return func() {}, true
	}

	key := "sla:pass-lock:" + name
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		// Redis being down must not stop SLA evaluation.
		l.logger.Warn("pass lock unavailable; proceeding unlocked", zap.Error(err))
		return func() {}, true
	}
	if !ok {
		return nil, false
	}

	release := func() {
		// Delete only our own token so an expired lock taken over by
		// another pass is not released from here.
		const script = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`
		if err := l.client.Eval(context.Background(), script, []string{key}, token).Err(); err != nil {
			l.logger.Warn("pass lock release failed", zap.String("lock", name), zap.Error(err))
		}
	}
	return release, true
}
