// Package locks serializes concurrent mutations of one relationship tuple.
package locks

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"videotube/internal/observability"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when a lock could not be taken in time.
var ErrNotAcquired = errors.New("lock not acquired")

// Unlock releases a held lock. It is safe to call more than once.
type Unlock func()

// Locker grants exclusive access to a key.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// Key builds a lock name from its parts.
func Key(parts ...string) string {
	k := "lock"
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

// RedisLocker is a distributed Locker backed by redsync, shared by all replicas.
type RedisLocker struct {
	rs     *redsync.Redsync
	expiry time.Duration
	tries  int
	delay  time.Duration
}

// NewRedisLocker builds a RedisLocker on client. Locks expire after ttl even
// if the holder dies; acquisition gives up after wait.
func NewRedisLocker(client *redis.Client, ttl, wait time.Duration) *RedisLocker {
	delay := 10 * time.Millisecond
	tries := int(wait/delay) + 1
	return &RedisLocker{
		rs:     redsync.New(goredis.NewPool(client)),
		expiry: ttl,
		tries:  tries,
		delay:  delay,
	}
}

// Lock acquires key or returns an error wrapping ErrNotAcquired.
func (l *RedisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	mutex := l.rs.NewMutex(key,
		redsync.WithExpiry(l.expiry),
		redsync.WithTries(l.tries),
		redsync.WithRetryDelay(l.delay),
	)
	if err := mutex.LockContext(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, err)
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		// release even if the request context is already cancelled
		unlockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if ok, err := mutex.UnlockContext(unlockCtx); err != nil || !ok {
			observability.Logger.WarnContext(ctx, "lock release failed; it will expire",
				slog.String("key", key), slog.Any("error", err))
		}
	}, nil
}

// LocalLocker is an in-process Locker. Keys hash onto a fixed set of stripes,
// so unrelated keys may occasionally share a stripe.
type LocalLocker struct {
	stripes []chan struct{}
	wait    time.Duration
}

// NewLocalLocker returns a LocalLocker with n stripes that waits at most wait.
func NewLocalLocker(n int, wait time.Duration) *LocalLocker {
	if n <= 0 {
		n = 256
	}
	stripes := make([]chan struct{}, n)
	for i := range stripes {
		stripes[i] = make(chan struct{}, 1)
	}
	return &LocalLocker{stripes: stripes, wait: wait}
}

func (l *LocalLocker) stripe(key string) chan struct{} {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return l.stripes[h.Sum32()%uint32(len(l.stripes))]
}

// Lock acquires key, honouring ctx and the configured wait.
func (l *LocalLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	ch := l.stripe(key)

	var timeout <-chan time.Time
	if l.wait > 0 {
		timer := time.NewTimer(l.wait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timeout:
		return nil, fmt.Errorf("%w: %s", ErrNotAcquired, key)
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		<-ch
	}, nil
}

// New picks a RedisLocker when client is non-nil and a LocalLocker otherwise.
func New(client *redis.Client, ttl, wait time.Duration) Locker {
	if client != nil {
		return NewRedisLocker(client, ttl, wait)
	}
	return NewLocalLocker(256, wait)
}
