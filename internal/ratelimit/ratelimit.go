// Package ratelimit enforces per-(company, user) quotas on quote chat and
// quote creation. It is best-effort abuse prevention: backends fail open.
package ratelimit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Scopes in use.
const (
	ScopeChat  = "chat"
	ScopeQuote = "quote"
)

// Decision is the outcome of a check. RetryAfter is set when Allowed is false.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter checks and consumes one unit of quota for key.
type Limiter interface {
	Check(ctx context.Context, key string) (Decision, error)
}

// Key builds the limiter key for a scope and a company/user pair.
func Key(scope string, companyID, userID uuid.UUID) string {
	return scope + ":" + companyID.String() + ":" + userID.String()
}

// Unlimited allows everything. Used when a quota is disabled.
type Unlimited struct{}

func (Unlimited) Check(context.Context, string) (Decision, error) {
	return Decision{Allowed: true}, nil
}
