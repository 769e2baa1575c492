package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"admission-gate-service/domain"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const defaultTimeout = 200 * time.Millisecond

// incrementScript bumps the counter and arms the window expiry in one
// round trip. Splitting INCR and PEXPIRE across two calls would leak
// permanent counters when the connection dies between them. A key that
// somehow lost its expiry gets re-armed instead of living forever.
var incrementScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
    ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

type Counter struct {
	cli     redis.UniversalClient
	timeout time.Duration
}

func NewCounter(cli redis.UniversalClient, timeout time.Duration) Counter {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return Counter{
		cli:     cli,
		timeout: timeout,
	}
}

func (r Counter) IncrementAndGet(
	ctx context.Context,
	tier domain.Tier,
	identityKey string,
	window time.Duration,
) (int64, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	values, err := incrementScript.Run(ctx, r.cli, []string{counterKey(tier, identityKey)}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, errors.WithMessagef(domain.ErrStoreUnavailable, "increment script: %v", err)
	}
	if len(values) != 2 {
		return 0, 0, errors.WithMessagef(domain.ErrStoreUnavailable, "increment script: unexpected reply %v", values)
	}

	count := values[0]
	ttl := time.Duration(values[1]) * time.Millisecond
	if ttl <= 0 {
		ttl = window
	}
	return count, ttl, nil
}

func counterKey(tier domain.Tier, identityKey string) string {
	return fmt.Sprintf("ratelimit:%s:%s", strings.ToLower(tier.String()), identityKey)
}
