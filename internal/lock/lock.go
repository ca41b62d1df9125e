// Package lock provides a Redis backed mutual exclusion for scan passes that run
// in more than one process against the same database.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/feral-file/ff-token-scanner/internal/adapter"
	"github.com/feral-file/ff-token-scanner/internal/logger"
)

// ErrLockHeld is returned when another holder owns the lock
var ErrLockHeld = errors.New("lock held by another holder")

// releaseScript deletes the key only when it still carries the caller's token
const releaseScript = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`

// releaseTimeout bounds the release call, which runs on a fresh context
const releaseTimeout = 5 * time.Second

// Locker acquires named locks with a ttl
//
//go:generate mockgen -source=lock.go -destination=../mocks/lock.go -package=mocks -mock_names=Locker=MockLocker
type Locker interface {
	// Acquire returns a release function or ErrLockHeld. Release is idempotent.
	Acquire(ctx context.Context, name string, ttl time.Duration) (func(), error)
}

type redisLocker struct {
	client adapter.RedisClient
	prefix string
}

// NewRedisLocker creates a Locker using SET NX with a random token per acquisition
func NewRedisLocker(client adapter.RedisClient, prefix string) Locker {
	if prefix == "" {
		prefix = "token-scanner:lock:"
	}
	return &redisLocker{client: client, prefix: prefix}
}

func (l *redisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (func(), error) {
	key := l.prefix + name
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			// the caller's context may already be cancelled at release time
			releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()

			deleted, err := l.client.Eval(releaseCtx, releaseScript, []string{key}, token)
			if err != nil {
				logger.Warn("failed to release lock", zap.String("lock", name), zap.Error(err))
				return
			}
			if deleted == 0 {
				logger.Warn("lock expired before release", zap.String("lock", name))
			}
		})
	}
	return release, nil
}

type noopLocker struct{}

// NewNoopLocker returns a Locker that always succeeds, for single-process deployments
func NewNoopLocker() Locker {
	return noopLocker{}
}

func (noopLocker) Acquire(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}
