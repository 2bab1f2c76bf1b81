// Package service orchestrates the quote chat pipeline: collecting a
// conversation, extracting structured data from it, pricing it and
// turning it into a numbered quote.
package service

import (
	"context"
	"errors"
	"time"

	"paintquote_backend/internal/conversation"
	"paintquote_backend/internal/events"
	"paintquote_backend/internal/quotes/confidence"
	"paintquote_backend/internal/quotes/domain"
	"paintquote_backend/internal/quotes/numbering"
	"paintquote_backend/internal/quotes/pricing"
	"paintquote_backend/internal/ratelimit"
	"paintquote_backend/platform/apperr"
	"paintquote_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Repository is the persistence the pipeline needs.
type Repository interface {
	GetChargeRates(ctx context.Context, companyID uuid.UUID) (domain.ChargeRates, error)
	GetSettings(ctx context.Context, companyID uuid.UUID) (domain.QuoteSettings, error)
	CreateQuote(ctx context.Context, q domain.Quote) error
}

// Extractor turns a transcript into structured data.
type Extractor interface {
	Extract(ctx context.Context, turns []domain.ConversationTurn) (domain.ParsedQuoteData, error)
}

// NumberIssuer hands out quote numbers.
type NumberIssuer interface {
	Next(ctx context.Context, companyID uuid.UUID) (numbering.Number, error)
}

// Deps are the collaborators of a Service. ChatLimiter, QuoteLimiter, Bus
// and Log are optional.
type Deps struct {
	Repo         Repository
	Store        conversation.Store
	Extractor    Extractor
	Pricing      *pricing.Engine
	Confidence   *confidence.Engine
	Numbers      NumberIssuer
	ChatLimiter  ratelimit.Limiter
	QuoteLimiter ratelimit.Limiter
	Bus          events.Bus
	Log          *logger.Logger
}

// Service provides the quote chat business logic.
type Service struct {
	repo         Repository
	store        conversation.Store
	extractor    Extractor
	pricing      *pricing.Engine
	confidence   *confidence.Engine
	numbers      NumberIssuer
	chatLimiter  ratelimit.Limiter
	quoteLimiter ratelimit.Limiter
	bus          events.Bus
	log          *logger.Logger
	now          func() time.Time
}

// New creates a new quote chat service.
func New(d Deps) *Service {
	s := &Service{
		repo:         d.Repo,
		store:        d.Store,
		extractor:    d.Extractor,
		pricing:      d.Pricing,
		confidence:   d.Confidence,
		numbers:      d.Numbers,
		chatLimiter:  d.ChatLimiter,
		quoteLimiter: d.QuoteLimiter,
		bus:          d.Bus,
		log:          d.Log,
		now:          time.Now,
	}
	if s.pricing == nil {
		s.pricing = pricing.New(pricing.DefaultPolicy())
	}
	if s.confidence == nil {
		s.confidence = confidence.NewEngine(confidence.DefaultCriticalFields)
	}
	if s.chatLimiter == nil {
		s.chatLimiter = ratelimit.Unlimited{}
	}
	if s.quoteLimiter == nil {
		s.quoteLimiter = ratelimit.Unlimited{}
	}
	if s.log == nil {
		s.log = logger.Discard()
	}
	return s
}

// checkLimit consumes one unit of the scope's quota. Limiter failures let
// the request through.
func (s *Service) checkLimit(ctx context.Context, limiter ratelimit.Limiter, scope string, companyID, userID uuid.UUID) error {
	decision, err := limiter.Check(ctx, ratelimit.Key(scope, companyID, userID))
	if err != nil {
		s.log.WithContext(ctx).Warn("rate_limit_check_failed", "scope", scope, "error", err.Error())
		return nil
	}
	if decision.Allowed {
		return nil
	}
	s.log.WithContext(ctx).RateLimitExceeded(scope, companyID.String(), userID.String(), decision.RetryAfter)
	return apperr.RateLimited("too many requests, please try again later", decision.RetryAfter)
}

// loadPricingInputs fetches the company's rates and settings concurrently.
func (s *Service) loadPricingInputs(ctx context.Context, companyID uuid.UUID) (domain.ChargeRates, domain.QuoteSettings, error) {
	var (
		rates    domain.ChargeRates
		settings domain.QuoteSettings
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rates, err = s.repo.GetChargeRates(gctx, companyID)
		return err
	})
	g.Go(func() error {
		var err error
		settings, err = s.repo.GetSettings(gctx, companyID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.WithContext(ctx).DatabaseError("load pricing inputs", err)
		return nil, domain.QuoteSettings{}, err
	}
	return rates, settings, nil
}

// price runs the pricing engine and maps its errors.
func (s *Service) price(surfaces []domain.Surface, rates domain.ChargeRates, settings domain.QuoteSettings) (domain.Breakdown, error) {
	breakdown, err := s.pricing.PriceQuote(surfaces, rates, settings)
	if err != nil {
		return domain.Breakdown{}, mapPricingError(err)
	}
	return breakdown.Rounded(), nil
}

func mapPricingError(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidSettings):
		return apperr.Wrap(apperr.KindValidation, err.Error(), err)
	case errors.Is(err, domain.ErrUnknownSurfaceType):
		return apperr.Wrap(apperr.KindValidation, err.Error(), err)
	default:
		return err
	}
}

// loadOwned returns the session when it belongs to the caller. Sessions of
// other owners look exactly like missing ones.
func (s *Service) loadOwned(ctx context.Context, companyID, userID uuid.UUID, sessionID string) (conversation.Session, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return conversation.Session{}, mapStoreError(err)
	}
	if sess.Owner != (conversation.Owner{CompanyID: companyID, UserID: userID}) {
		return conversation.Session{}, apperr.NotFound(conversationNotFoundMsg)
	}
	return sess, nil
}

const conversationNotFoundMsg = "conversation not found"

func mapStoreError(err error) error {
	if errors.Is(err, conversation.ErrNotFound) || errors.Is(err, conversation.ErrOwnerMismatch) {
		return apperr.NotFound(conversationNotFoundMsg)
	}
	return err
}

// GetSession returns the caller's session.
func (s *Service) GetSession(ctx context.Context, companyID, userID uuid.UUID, sessionID string) (conversation.Session, error) {
	return s.loadOwned(ctx, companyID, userID, sessionID)
}

// EvictSession discards the caller's session.
func (s *Service) EvictSession(ctx context.Context, companyID, userID uuid.UUID, sessionID string) error {
	if _, err := s.loadOwned(ctx, companyID, userID, sessionID); err != nil {
		return err
	}
	return s.store.Evict(ctx, sessionID)
}

// Preview prices explicit surfaces with the company's rates and settings
// without persisting anything or issuing a number.
func (s *Service) Preview(ctx context.Context, companyID uuid.UUID, surfaces []domain.Surface, override *domain.SettingsOverride) (domain.Breakdown, error) {
	if len(surfaces) == 0 {
		return domain.Breakdown{}, apperr.Validation("at least one surface is required")
	}
	rates, settings, err := s.loadPricingInputs(ctx, companyID)
	if err != nil {
		return domain.Breakdown{}, err
	}
	return s.price(surfaces, rates, domain.MergeSettings(settings, override))
}
