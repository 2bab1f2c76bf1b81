package numbering

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisCounter_ConcurrentIncrements(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	g := NewGenerator(NewRedisCounter(client), WithClock(fixedClock()))
	company := uuid.New()

	const n = 50
	var (
		mu   sync.Mutex
		seen = make(map[string]bool, n)
		wg   sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := g.Next(context.Background(), company)
			require.NoError(t, err)
			require.False(t, num.Degraded)
			mu.Lock()
			seen[num.Value] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, seen, n)
	val, err := mr.Get(redisCounterPrefix + company.String())
	require.NoError(t, err)
	require.Equal(t, "50", val)
}

func TestRedisCounter_DownFallsBack(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	num, err := NewGenerator(NewRedisCounter(client)).Next(context.Background(), uuid.New())
	require.NoError(t, err)
	require.True(t, num.Degraded)
}
