// Package quotes provides the quote chat and pricing module.
package quotes

import (
	"fmt"
	"time"

	"paintquote_backend/internal/conversation"
	"paintquote_backend/internal/events"
	apphttp "paintquote_backend/internal/http"
	"paintquote_backend/internal/quotes/confidence"
	"paintquote_backend/internal/quotes/extraction"
	"paintquote_backend/internal/quotes/handler"
	"paintquote_backend/internal/quotes/numbering"
	"paintquote_backend/internal/quotes/pricing"
	"paintquote_backend/internal/quotes/repository"
	"paintquote_backend/internal/quotes/service"
	"paintquote_backend/internal/quotes/transport"
	"paintquote_backend/internal/ratelimit"
	"paintquote_backend/platform/ai/completion"
	"paintquote_backend/platform/logger"
	"paintquote_backend/platform/phone"
	"paintquote_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ModuleDeps are the infrastructure pieces the composition root selects.
// A nil Counter numbers quotes with the Postgres counter table.
type ModuleDeps struct {
	Pool           *pgxpool.Pool
	Store          conversation.Store
	Completion     completion.Service
	Counter        numbering.Counter
	CounterTimeout time.Duration
	Policy         pricing.Policy
	PhoneRegion    string
	CriticalFields int
	ChatLimiter    ratelimit.Limiter
	QuoteLimiter   ratelimit.Limiter
	EventBus       events.Bus
	Validator      *validator.Validator
	Logger         *logger.Logger
}

// Module represents the quotes domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new quotes module with all dependencies wired
func NewModule(d ModuleDeps) (*Module, error) {
	if err := d.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("pricing policy: %w", err)
	}
	if err := transport.RegisterValidators(d.Validator); err != nil {
		return nil, fmt.Errorf("register quote validators: %w", err)
	}

	extractor, err := extraction.New(d.Completion, phone.NewNormalizer(d.PhoneRegion), d.Policy.DefaultCoats)
	if err != nil {
		return nil, err
	}
	extractor.WithVocabulary(d.Policy)

	repo := repository.New(d.Pool)
	counter := d.Counter
	if counter == nil {
		counter = numbering.CounterFunc(repo.NextQuoteCounter)
	}

	numbers := numbering.NewGenerator(counter,
		numbering.WithTimeout(d.CounterTimeout),
		numbering.WithLogger(d.Logger),
	)

	svc := service.New(service.Deps{
		Repo:         repo,
		Store:        d.Store,
		Extractor:    extractor,
		Pricing:      pricing.New(d.Policy),
		Confidence:   confidence.NewEngine(d.CriticalFields),
		Numbers:      numbers,
		ChatLimiter:  d.ChatLimiter,
		QuoteLimiter: d.QuoteLimiter,
		Bus:          d.EventBus,
		Log:          d.Logger,
	})

	return &Module{
		handler: handler.New(svc, d.Validator),
		service: svc,
	}, nil
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "quotes"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterChatRoutes(ctx.Protected.Group("/quote-chat"))
	m.handler.RegisterRoutes(ctx.Protected.Group("/quotes"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
