// Package conversation stores in-progress quote chats. A session is keyed
// by its id, owned by the company/user that opened it, and evicted after a
// period of inactivity.
package conversation

import (
	"context"
	"errors"
	"time"

	"paintquote_backend/internal/quotes/domain"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned for unknown or evicted sessions.
	ErrNotFound = errors.New("conversation not found")
	// ErrOwnerMismatch is returned when a session is touched by a company or
	// user other than the one that opened it.
	ErrOwnerMismatch = errors.New("conversation belongs to another owner")
)

// MaxTurns bounds the stored transcript; the oldest turns are dropped first.
const MaxTurns = 200

// Owner identifies who opened a session.
type Owner struct {
	CompanyID uuid.UUID `json:"companyId"`
	UserID    uuid.UUID `json:"userId"`
}

// QuoteRef points at the quote a session was finalized into.
type QuoteRef struct {
	ID     uuid.UUID `json:"id"`
	Number string    `json:"number"`
}

// Session is a snapshot of one conversation.
type Session struct {
	ID        string                    `json:"id"`
	Owner     Owner                     `json:"owner"`
	Turns     []domain.ConversationTurn `json:"turns"`
	Data      domain.ParsedQuoteData    `json:"data"`
	Stage     domain.Stage              `json:"stage"`
	Questions []string                  `json:"questions"`
	Quote     *QuoteRef                 `json:"quote,omitempty"`

	// LastSeq is the sequence of the newest user turn; AppliedSeq the
	// sequence whose extraction result is reflected in Data.
	LastSeq    int64     `json:"lastSeq"`
	AppliedSeq int64     `json:"appliedSeq"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Clone returns a copy that shares no slices with s.
func (s Session) Clone() Session {
	out := s
	out.Turns = append([]domain.ConversationTurn(nil), s.Turns...)
	out.Data = s.Data.Clone()
	out.Questions = append([]string(nil), s.Questions...)
	if s.Quote != nil {
		q := *s.Quote
		out.Quote = &q
	}
	return out
}

// Result is the outcome of processing one user turn.
type Result struct {
	Data      domain.ParsedQuoteData
	Stage     domain.Stage
	Questions []string
	Reply     *domain.ConversationTurn
}

// Store is the session store contract. Implementations must make Append and
// Apply atomic per session; no lock may be held between calls.
type Store interface {
	// Get returns a snapshot of the session.
	Get(ctx context.Context, id string) (Session, error)
	// Append adds a user turn, creating the session on first use. The
	// returned snapshot's LastSeq is the turn's arrival sequence.
	Append(ctx context.Context, id string, owner Owner, turn domain.ConversationTurn) (Session, error)
	// Apply stores res only when seq is newer than the last applied
	// sequence. It reports whether res was applied.
	Apply(ctx context.Context, id string, seq int64, res Result) (bool, error)
	// MarkPriced moves the session to the priced stage.
	MarkPriced(ctx context.Context, id string, ref QuoteRef) error
	// Evict removes the session. Evicting an unknown session is not an error.
	Evict(ctx context.Context, id string) error
}

func newSession(id string, owner Owner, now time.Time) *Session {
	return &Session{
		ID:        id,
		Owner:     owner,
		Stage:     domain.StageCollecting,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// appendTurn mutates s in place and returns the new sequence.
func appendTurn(s *Session, owner Owner, turn domain.ConversationTurn, now time.Time) (int64, error) {
	if s.Owner != owner {
		return 0, ErrOwnerMismatch
	}
	if turn.At.IsZero() {
		turn.At = now
	}
	s.Turns = append(s.Turns, turn)
	if len(s.Turns) > MaxTurns {
		s.Turns = append([]domain.ConversationTurn(nil), s.Turns[len(s.Turns)-MaxTurns:]...)
	}
	s.LastSeq++
	s.UpdatedAt = now
	return s.LastSeq, nil
}

func applyResult(s *Session, seq int64, res Result, now time.Time) bool {
	if seq <= s.AppliedSeq || seq > s.LastSeq {
		return false
	}
	s.AppliedSeq = seq
	s.Data = res.Data.Clone()
	s.Stage = res.Stage
	s.Questions = append([]string(nil), res.Questions...)
	if res.Reply != nil {
		reply := *res.Reply
		if reply.At.IsZero() {
			reply.At = now
		}
		s.Turns = append(s.Turns, reply)
		if len(s.Turns) > MaxTurns {
			s.Turns = append([]domain.ConversationTurn(nil), s.Turns[len(s.Turns)-MaxTurns:]...)
		}
	}
	s.UpdatedAt = now
	return true
}

func markPriced(s *Session, ref QuoteRef, now time.Time) {
	s.Stage = domain.StagePriced
	r := ref
	s.Quote = &r
	s.UpdatedAt = now
}
