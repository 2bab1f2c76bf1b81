package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"paintquote_backend/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestRunOnce_PublishesExpiredConversations(t *testing.T) {
	defer goleak.VerifyNone(t)

	bus := events.NewInMemoryBus(nil)
	var (
		mu  sync.Mutex
		got []int
	)
	bus.Subscribe(events.ConversationsExpired{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.(events.ConversationsExpired).Count)
		return nil
	}))

	sweeps := []int{3, 0}
	var call int
	j := NewJanitor(nil, time.Minute, ConversationJob(SweeperFunc(func(context.Context) (int, error) {
		n := sweeps[call]
		call++
		return n, nil
	}), bus))

	j.RunOnce(context.Background())
	j.RunOnce(context.Background())
	bus.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{3}, got)
}

func TestRunOnce_FailingJobDoesNotStopOthers(t *testing.T) {
	var ran atomic.Bool
	j := NewJanitor(nil, time.Minute,
		Job{Name: "broken", Sweeper: SweeperFunc(func(context.Context) (int, error) {
			return 0, errors.New("redis down")
		})},
		Job{Name: "limiter", Sweeper: SweeperFunc(func(context.Context) (int, error) {
			ran.Store(true)
			return 1, nil
		})},
	)

	j.RunOnce(context.Background())
	assert.True(t, ran.Load())
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	swept := make(chan struct{}, 8)
	j := NewJanitor(nil, 5*time.Millisecond, Job{Name: "tick", Sweeper: SweeperFunc(func(context.Context) (int, error) {
		select {
		case swept <- struct{}{}:
		default:
		}
		return 0, nil
	})})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Run(ctx)
		close(done)
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-swept:
		case <-time.After(2 * time.Second):
			t.Fatal("janitor did not tick")
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop after cancel")
	}
}

func TestRun_NoJobsReturnsImmediately(t *testing.T) {
	done := make(chan struct{})
	go func() {
		NewJanitor(nil, 0).Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail(t, "janitor without jobs should return")
	}
}
