package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"paintquote_backend/internal/quotes/domain"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix  = "quote_chat:"
	maxTxAttempts   = 100
	defaultRedisTTL = 2 * time.Hour
)

// RedisStore keeps each session as one JSON value whose TTL is refreshed on
// every write, so idle sessions expire without a sweep. Updates use
// WATCH/MULTI and retry when another writer got there first.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisStore(client redis.UniversalClient, idleTTL time.Duration) *RedisStore {
	if idleTTL <= 0 {
		idleTTL = defaultRedisTTL
	}
	return &RedisStore{client: client, ttl: idleTTL, now: time.Now}
}

func sessionKey(id string) string {
	return redisKeyPrefix + id
}

func (r *RedisStore) Get(ctx context.Context, id string) (Session, error) {
	s, err := r.load(ctx, r.client, sessionKey(id))
	if err != nil {
		return Session{}, err
	}
	return *s, nil
}

func (r *RedisStore) Append(ctx context.Context, id string, owner Owner, turn domain.ConversationTurn) (Session, error) {
	var out Session
	err := r.update(ctx, id, true, func(s *Session, now time.Time) (bool, error) {
		if s.ID == "" {
			*s = *newSession(id, owner, now)
		}
		if _, err := appendTurn(s, owner, turn, now); err != nil {
			return false, err
		}
		out = s.Clone()
		return true, nil
	})
	return out, err
}

func (r *RedisStore) Apply(ctx context.Context, id string, seq int64, res Result) (bool, error) {
	applied := false
	err := r.update(ctx, id, false, func(s *Session, now time.Time) (bool, error) {
		applied = applyResult(s, seq, res, now)
		return applied, nil
	})
	return applied, err
}

func (r *RedisStore) MarkPriced(ctx context.Context, id string, ref QuoteRef) error {
	return r.update(ctx, id, false, func(s *Session, now time.Time) (bool, error) {
		markPriced(s, ref, now)
		return true, nil
	})
}

func (r *RedisStore) Evict(ctx context.Context, id string) error {
	return r.client.Del(ctx, sessionKey(id)).Err()
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *RedisStore) load(ctx context.Context, c getter, key string) (*Session, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode conversation: %w", err)
	}
	return &s, nil
}

// update runs fn against the current session inside an optimistic
// transaction. With create set, a missing session is passed in as an empty
// value; otherwise it yields ErrNotFound. fn returns false to skip the write.
func (r *RedisStore) update(ctx context.Context, id string, create bool, fn func(*Session, time.Time) (bool, error)) error {
	key := sessionKey(id)
	txf := func(tx *redis.Tx) error {
		s, err := r.load(ctx, tx, key)
		if errors.Is(err, ErrNotFound) && create {
			s, err = &Session{}, nil
		}
		if err != nil {
			return err
		}

		write, err := fn(s, r.now())
		if err != nil || !write {
			return err
		}
		raw, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("encode conversation: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, r.ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update conversation %s: too much contention", id)
}
