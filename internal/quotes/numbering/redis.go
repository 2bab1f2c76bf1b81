package numbering

import (
	"context"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisCounterPrefix = "quote_counter:"

// RedisCounter uses INCR, which is atomic on the server. Durability follows
// the Redis persistence settings.
type RedisCounter struct {
	client redis.UniversalClient
}

func NewRedisCounter(client redis.UniversalClient) *RedisCounter {
	return &RedisCounter{client: client}
}

func (c *RedisCounter) Next(ctx context.Context, companyID uuid.UUID) (int64, error) {
	return c.client.Incr(ctx, redisCounterPrefix+companyID.String()).Result()
}
