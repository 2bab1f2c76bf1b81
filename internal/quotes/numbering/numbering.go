// Package numbering issues per-company quote numbers. The primary path is
// an atomic increment in a shared store; when that store is unavailable a
// time-based fallback keeps quote creation going without collisions.
package numbering

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"paintquote_backend/platform/logger"

	"github.com/felixgeelhaar/fortify/timeout"
	"github.com/google/uuid"
)

// ErrCounterUnavailable wraps any failure of the atomic counter backend.
var ErrCounterUnavailable = errors.New("quote counter unavailable")

const defaultCounterTimeout = 2 * time.Second

// Counter atomically increments and returns a company's counter. Two calls
// for the same company never return the same value.
type Counter interface {
	Next(ctx context.Context, companyID uuid.UUID) (int64, error)
}

// CounterFunc adapts a function to Counter.
type CounterFunc func(ctx context.Context, companyID uuid.UUID) (int64, error)

func (f CounterFunc) Next(ctx context.Context, companyID uuid.UUID) (int64, error) {
	return f(ctx, companyID)
}

// Number is an issued quote number.
type Number struct {
	Value string
	// Degraded is set when the fallback path produced the number.
	Degraded bool
}

// Generator formats counter values as Q-{year}-{00042}.
type Generator struct {
	counter Counter
	timeout time.Duration
	now     func() time.Time
	log     *logger.Logger

	lastFallbackMillis atomic.Int64
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithTimeout bounds each counter call.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithLogger sets the logger used for degraded-mode events.
func WithLogger(log *logger.Logger) Option {
	return func(g *Generator) {
		if log != nil {
			g.log = log
		}
	}
}

// NewGenerator returns a generator backed by counter.
func NewGenerator(counter Counter, opts ...Option) *Generator {
	g := &Generator{
		counter: counter,
		timeout: defaultCounterTimeout,
		now:     time.Now,
		log:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next issues a number for companyID. It only fails when ctx is done; a
// broken counter degrades to the fallback format instead.
func (g *Generator) Next(ctx context.Context, companyID uuid.UUID) (Number, error) {
	year := g.now().UTC().Year()

	n, err := g.increment(ctx, companyID)
	if err == nil {
		return Number{Value: Format(year, n)}, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Number{}, ctxErr
	}

	g.log.WithContext(ctx).CounterDegraded(companyID.String(), err)
	value, ferr := g.fallback(year)
	if ferr != nil {
		return Number{}, ferr
	}
	return Number{Value: value, Degraded: true}, nil
}

func (g *Generator) increment(ctx context.Context, companyID uuid.UUID) (int64, error) {
	if g.counter == nil {
		return 0, ErrCounterUnavailable
	}
	t := timeout.New[int64](timeout.Config{DefaultTimeout: g.timeout})
	n, err := t.Execute(ctx, g.timeout, func(ctx context.Context) (int64, error) {
		return g.counter.Next(ctx, companyID)
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCounterUnavailable, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: counter returned %d", ErrCounterUnavailable, n)
	}
	return n, nil
}

// Format renders the primary form.
func Format(year int, n int64) string {
	return fmt.Sprintf("Q-%d-%05d", year, n)
}

// fallback renders Q-{year}-{base36 millis}-{4 base36 random}. Millis are
// forced strictly increasing within the process, so this process never
// repeats a value; the random suffix separates concurrent processes.
func (g *Generator) fallback(year int) (string, error) {
	millis := g.nextFallbackMillis()
	suffix, err := randomBase36(4)
	if err != nil {
		return "", fmt.Errorf("fallback quote number: %w", err)
	}
	return fmt.Sprintf("Q-%d-%s-%s", year, strings.ToUpper(strconv.FormatInt(millis, 36)), suffix), nil
}

func (g *Generator) nextFallbackMillis() int64 {
	now := g.now().UnixMilli()
	for {
		last := g.lastFallbackMillis.Load()
		next := now
		if next <= last {
			next = last + 1
		}
		if g.lastFallbackMillis.CompareAndSwap(last, next) {
			return next
		}
	}
}

const base36Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

func randomBase36(n int) (string, error) {
	var sb strings.Builder
	limit := big.NewInt(int64(len(base36Alphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		sb.WriteByte(base36Alphabet[idx.Int64()])
	}
	return sb.String(), nil
}
