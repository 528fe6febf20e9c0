package locks

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lockers(t *testing.T) map[string]Locker {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return map[string]Locker{
		"local": NewLocalLocker(16, 200*time.Millisecond),
		"redis": NewRedisLocker(client, 2*time.Second, 200*time.Millisecond),
	}
}

func TestLocker_MutualExclusion(t *testing.T) {
	for name, l := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			if rl, ok := l.(*RedisLocker); ok {
				// enough budget for every goroutine to get its turn
				rl.tries = 500
			}
			if ll, ok := l.(*LocalLocker); ok {
				ll.wait = 5 * time.Second
			}

			var inside, maxInside int32
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					unlock, err := l.Lock(context.Background(), Key("u1", "v1", "video"))
					if !assert.NoError(t, err) {
						return
					}
					n := atomic.AddInt32(&inside, 1)
					for {
						m := atomic.LoadInt32(&maxInside)
						if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
							break
						}
					}
					time.Sleep(2 * time.Millisecond)
					atomic.AddInt32(&inside, -1)
					unlock()
				}()
			}
			wg.Wait()
			assert.Equal(t, int32(1), maxInside)
		})
	}
}

func TestLocker_ContentionTimesOut(t *testing.T) {
	for name, l := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			unlock, err := l.Lock(context.Background(), "lock:busy")
			require.NoError(t, err)
			defer unlock()

			_, err = l.Lock(context.Background(), "lock:busy")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNotAcquired))
		})
	}
}

func TestLocker_IndependentKeys(t *testing.T) {
	l := NewLocalLocker(1024, 50*time.Millisecond)
	unlockA, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlockA()

	// find a key on another stripe
	other := "b"
	for i := 0; l.stripe(other) == l.stripe("a"); i++ {
		other = string(rune('b' + i))
	}
	unlockB, err := l.Lock(context.Background(), other)
	require.NoError(t, err)
	unlockB()
}

func TestLocalLocker_ContextCancel(t *testing.T) {
	l := NewLocalLocker(4, 0)
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock()
	unlock2, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	unlock2()
}

func TestKey(t *testing.T) {
	assert.Equal(t, "lock:reaction:u1:v1:video", Key("reaction", "u1", "v1", "video"))
}

func TestNewPicksImplementation(t *testing.T) {
	_, ok := New(nil, time.Second, time.Second).(*LocalLocker)
	assert.True(t, ok)
	mr := miniredis.RunT(t)
	_, ok = New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Second, time.Second).(*RedisLocker)
	assert.True(t, ok)
}
