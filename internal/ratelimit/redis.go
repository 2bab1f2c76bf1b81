package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// The counter and its expiry are set in one step so a crash between INCR
// and PEXPIRE cannot leave a key without a TTL.
var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisLimiter is a fixed window counter shared by every API instance.
// Windows expire through key TTLs, so there is nothing to sweep.
type RedisLimiter struct {
	client redis.Scripter
	limit  int
	window time.Duration
}

func NewRedisLimiter(client redis.Scripter, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window}
}

func (r *RedisLimiter) Check(ctx context.Context, key string) (Decision, error) {
	if r.limit <= 0 || r.window <= 0 {
		return Decision{Allowed: true}, nil
	}

	res, err := fixedWindowScript.Run(ctx, r.client, []string{redisKeyPrefix + key}, r.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{Allowed: true}, fmt.Errorf("rate limit check: %w", err)
	}
	if len(res) != 2 {
		return Decision{Allowed: true}, fmt.Errorf("rate limit check: unexpected reply %v", res)
	}

	count, ttl := res[0], time.Duration(res[1])*time.Millisecond
	if count <= int64(r.limit) {
		return Decision{Allowed: true}, nil
	}
	if ttl <= 0 {
		ttl = r.window
	}
	return Decision{Allowed: false, RetryAfter: ttl}, nil
}
