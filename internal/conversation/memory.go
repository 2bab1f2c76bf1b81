package conversation

import (
	"context"
	"sync"
	"time"

	"paintquote_backend/internal/quotes/domain"
)

// MemoryStore keeps sessions in process memory. The mutex only guards map
// and slice updates; callers never hold it across an extraction call.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	idleTTL  time.Duration
	now      func() time.Time
}

// NewMemoryStore returns a store whose Sweep drops sessions idle for longer
// than idleTTL.
func NewMemoryStore(idleTTL time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Append(_ context.Context, id string, owner Owner, turn domain.ConversationTurn) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	s, ok := m.sessions[id]
	if !ok {
		s = newSession(id, owner, now)
	}
	if _, err := appendTurn(s, owner, turn, now); err != nil {
		return Session{}, err
	}
	m.sessions[id] = s
	return s.Clone(), nil
}

func (m *MemoryStore) Apply(_ context.Context, id string, seq int64, res Result) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return false, ErrNotFound
	}
	return applyResult(s, seq, res, m.now()), nil
}

func (m *MemoryStore) MarkPriced(_ context.Context, id string, ref QuoteRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	markPriced(s, ref, m.now())
	return nil
}

func (m *MemoryStore) Evict(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Sweep removes sessions idle past the TTL and returns how many it removed.
func (m *MemoryStore) Sweep(_ context.Context) (int, error) {
	if m.idleTTL <= 0 {
		return 0, nil
	}
	cutoff := m.now().Add(-m.idleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of live sessions.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
