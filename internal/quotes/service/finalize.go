package service

import (
	"context"
	"fmt"

	"paintquote_backend/internal/conversation"
	"paintquote_backend/internal/events"
	"paintquote_backend/internal/quotes/confidence"
	"paintquote_backend/internal/quotes/domain"
	"paintquote_backend/internal/ratelimit"
	"paintquote_backend/platform/apperr"

	"github.com/google/uuid"
)

const opFinalize = "quotes.service.Finalize"

// FinalizeInput asks for a session to be turned into a quote.
type FinalizeInput struct {
	CompanyID uuid.UUID
	UserID    uuid.UUID
	SessionID string
	// Force skips the missing-field check. The readiness gate always applies.
	Force    bool
	Override *domain.SettingsOverride
}

// FinalizeResult is the created quote.
type FinalizeResult struct {
	Quote domain.Quote
	// DegradedNumber is set when the number came from the fallback path.
	DegradedNumber bool
}

// NotReadyDetails tells the caller what is still missing.
type NotReadyDetails struct {
	MissingFields []string `json:"missingFields"`
	Questions     []string `json:"questions"`
}

// Finalize prices the session's data and persists it as a draft quote.
func (s *Service) Finalize(ctx context.Context, in FinalizeInput) (FinalizeResult, error) {
	if err := s.checkLimit(ctx, s.quoteLimiter, ratelimit.ScopeQuote, in.CompanyID, in.UserID); err != nil {
		return FinalizeResult{}, err
	}

	sess, err := s.loadOwned(ctx, in.CompanyID, in.UserID, in.SessionID)
	if err != nil {
		return FinalizeResult{}, err
	}
	if sess.Stage == domain.StagePriced {
		msg := "conversation was already turned into a quote"
		if sess.Quote != nil {
			msg = fmt.Sprintf("conversation was already turned into quote %s", sess.Quote.Number)
		}
		return FinalizeResult{}, apperr.Conflict(msg).WithOp(opFinalize)
	}

	data := s.confidence.Assess(sess.Data)
	details := NotReadyDetails{
		MissingFields: data.Confidence.MissingFields,
		Questions:     confidence.ClarificationQuestions(data),
	}
	if !confidence.IsReadyForPricing(data) {
		return FinalizeResult{}, apperr.Wrap(apperr.KindValidation, "quote is not ready for pricing", domain.ErrNotReady).
			WithOp(opFinalize).WithDetails(details)
	}
	if !in.Force && len(details.MissingFields) > 0 {
		return FinalizeResult{}, apperr.Validation("quote details are incomplete; answer the open questions or force creation").
			WithOp(opFinalize).WithDetails(details)
	}

	stage, err := confidence.Finalize(sess.Stage, data, in.Force)
	if err != nil {
		return FinalizeResult{}, err
	}
	if stage != domain.StagePriced {
		return FinalizeResult{}, apperr.Wrap(apperr.KindValidation, "quote is not ready for pricing", domain.ErrNotReady).
			WithOp(opFinalize).WithDetails(details)
	}

	rates, companySettings, err := s.loadPricingInputs(ctx, in.CompanyID)
	if err != nil {
		return FinalizeResult{}, err
	}
	breakdown, err := s.price(data.Surfaces, rates, domain.MergeSettings(companySettings, data.Settings, in.Override))
	if err != nil {
		return FinalizeResult{}, err
	}

	breakdown.Assumptions = mergeAssumptions(data.Confidence.Assumptions, breakdown.Assumptions)

	number, err := s.numbers.Next(ctx, in.CompanyID)
	if err != nil {
		return FinalizeResult{}, fmt.Errorf("issue quote number: %w", err)
	}

	now := s.now()
	quote := domain.Quote{
		ID:          uuid.New(),
		CompanyID:   in.CompanyID,
		CreatedBy:   in.UserID,
		QuoteNumber: number.Value,
		Status:      domain.QuoteStatusDraft,
		ProjectType: data.ProjectType,
		Customer:    data.Customer,
		Surfaces:    data.Surfaces,
		Settings:    breakdown.Settings,
		Breakdown:   breakdown,
		Analysis:    data.Analysis,
		Forced:      in.Force && len(details.MissingFields) > 0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateQuote(ctx, quote); err != nil {
		s.log.WithContext(ctx).DatabaseError("create quote", err)
		return FinalizeResult{}, err
	}

	if err := s.store.MarkPriced(ctx, in.SessionID, conversation.QuoteRef{ID: quote.ID, Number: quote.QuoteNumber}); err != nil {
		// The quote exists; a session that expired meanwhile does not undo it.
		s.log.WithContext(ctx).Warn("mark_session_priced_failed", "session_id", in.SessionID, "error", err.Error())
	}

	s.log.WithContext(ctx).QuoteCreated(in.CompanyID.String(), quote.ID.String(), quote.QuoteNumber, breakdown.Total)
	if s.bus != nil {
		s.bus.Publish(ctx, events.QuoteCreated{
			BaseEvent:   events.NewBaseEvent(),
			QuoteID:     quote.ID,
			CompanyID:   quote.CompanyID,
			CreatedBy:   quote.CreatedBy,
			SessionID:   in.SessionID,
			QuoteNumber: quote.QuoteNumber,
			Total:       breakdown.Total,
			Forced:      quote.Forced,
			Degraded:    number.Degraded,
		})
	}

	return FinalizeResult{Quote: quote, DegradedNumber: number.Degraded}, nil
}

// mergeAssumptions keeps extraction notes first so the quote discloses
// dropped surfaces alongside pricing notes.
func mergeAssumptions(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, a := range list {
			if seen[a] {
				continue
			}
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}
