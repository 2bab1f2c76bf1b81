// Package events defines the quote domain events. The bus itself lives in
// platform/events and is re-exported here so modules import one package.
package events

import (
	"paintquote_backend/platform/events"

	"github.com/google/uuid"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Quotes Domain Events
// =============================================================================

// QuoteCreated is published after a priced quote draft has been persisted.
type QuoteCreated struct {
	BaseEvent
	QuoteID     uuid.UUID `json:"quoteId"`
	CompanyID   uuid.UUID `json:"companyId"`
	CreatedBy   uuid.UUID `json:"createdBy"`
	SessionID   string    `json:"sessionId,omitempty"`
	QuoteNumber string    `json:"quoteNumber"`
	Total       float64   `json:"total"`
	Forced      bool      `json:"forced"`
	Degraded    bool      `json:"degradedNumber"`
}

func (e QuoteCreated) EventName() string { return "quotes.quote.created" }

// =============================================================================
// Conversation Events
// =============================================================================

// ConversationsExpired is published by the janitor after idle chat sessions
// were evicted.
type ConversationsExpired struct {
	BaseEvent
	Count int `json:"count"`
}

func (e ConversationsExpired) EventName() string { return "quotes.conversation.expired" }
