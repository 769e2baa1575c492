package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"admission-gate-service/domain"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/txix-open/isp-kit/test"
)

func newRedisCounter(t *testing.T) Counter {
	test, _ := test.New(t)
	redisHost := test.Config().Optional().String("REDIS_HOST", "localhost")
	redisPort := test.Config().Optional().String("REDIS_PORT", "6379")
	cli := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", redisHost, redisPort)})
	t.Cleanup(func() {
		_ = cli.FlushDB(context.Background()).Err()
		_ = cli.Close()
	})
	return NewCounter(cli, time.Second)
}

func TestCounter_FirstIncrementArmsWindow(t *testing.T) {
	counter := newRedisCounter(t)
	ctx := context.Background()
	key := fmt.Sprintf("ip:%s", uuid.New().String())

	count, ttl, err := counter.IncrementAndGet(ctx, domain.TierCritical, key, 60*time.Second)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.InDelta(t, 60*time.Second, ttl, float64(2*time.Second))

	count, secondTtl, err := counter.IncrementAndGet(ctx, domain.TierCritical, key, 60*time.Second)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
	require.LessOrEqual(t, secondTtl, ttl)
	require.Positive(t, secondTtl)
}

func TestCounter_ConcurrentIncrements(t *testing.T) {
	counter := newRedisCounter(t)
	ctx := context.Background()
	key := fmt.Sprintf("user:%s", uuid.New().String())
	callers := 50

	counts := make(chan int64, callers)
	wg := sync.WaitGroup{}
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			count, _, err := counter.IncrementAndGet(ctx, domain.TierHigh, key, time.Minute)
			if err != nil {
				t.Error(err)
				return
			}
			counts <- count
		}()
	}
	wg.Wait()
	close(counts)

	seen := make(map[int64]bool)
	for count := range counts {
		require.False(t, seen[count], "count %d returned twice", count)
		seen[count] = true
	}
	require.Len(t, seen, callers)

	count, _, err := counter.IncrementAndGet(ctx, domain.TierHigh, key, time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, callers+1, count)
}

func TestCounter_KeyLayout(t *testing.T) {
	require.Equal(t, "ratelimit:critical:user:42", counterKey(domain.TierCritical, "user:42"))
	require.Equal(t, "ratelimit:low:ip:203.0.113.7", counterKey(domain.TierLow, "ip:203.0.113.7"))
}

func TestCounter_Unavailable(t *testing.T) {
	cli := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() {
		_ = cli.Close()
	})
	counter := NewCounter(cli, 100*time.Millisecond)

	_, _, err := counter.IncrementAndGet(context.Background(), domain.TierLow, "ip:203.0.113.9", time.Minute)
	require.True(t, errors.Is(err, domain.ErrStoreUnavailable))
}
