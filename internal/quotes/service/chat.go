package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"paintquote_backend/internal/conversation"
	"paintquote_backend/internal/quotes/confidence"
	"paintquote_backend/internal/quotes/domain"
	"paintquote_backend/internal/ratelimit"
	"paintquote_backend/platform/apperr"
	"paintquote_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	opHandleMessage = "quotes.service.HandleMessage"

	// MaxMessageLength bounds one chat message in runes.
	MaxMessageLength = 4000
)

// MessageInput is one user chat message.
type MessageInput struct {
	CompanyID uuid.UUID
	UserID    uuid.UUID
	SessionID string
	Text      string
}

// TurnResult is what the caller sees after a message was processed.
type TurnResult struct {
	Session conversation.Session
	// Reply is empty when a newer message overtook this one.
	Reply   string
	Applied bool
	// Preview is set once the data is ready to price.
	Preview *domain.Breakdown
}

// HandleMessage appends a user message, re-extracts the whole transcript and
// stores the result unless a newer message of the same session already
// did. No lock is held while the completion service runs.
func (s *Service) HandleMessage(ctx context.Context, in MessageInput) (TurnResult, error) {
	text := sanitize.ChatMessage(in.Text, MaxMessageLength)
	if strings.TrimSpace(text) == "" {
		return TurnResult{}, apperr.Validation("message must not be empty").WithOp(opHandleMessage)
	}
	if err := s.checkLimit(ctx, s.chatLimiter, ratelimit.ScopeChat, in.CompanyID, in.UserID); err != nil {
		return TurnResult{}, err
	}

	if existing, err := s.store.Get(ctx, in.SessionID); err == nil && existing.Stage == domain.StagePriced {
		if existing.Owner != (conversation.Owner{CompanyID: in.CompanyID, UserID: in.UserID}) {
			return TurnResult{}, apperr.NotFound(conversationNotFoundMsg)
		}
		return TurnResult{}, apperr.Conflict("this conversation was already turned into a quote; start a new one").WithOp(opHandleMessage)
	}

	owner := conversation.Owner{CompanyID: in.CompanyID, UserID: in.UserID}
	snapshot, err := s.store.Append(ctx, in.SessionID, owner, domain.ConversationTurn{
		Role:    domain.RoleUser,
		Content: text,
		At:      s.now(),
	})
	if err != nil {
		return TurnResult{}, mapStoreError(err)
	}
	seq := snapshot.LastSeq

	extracted, err := s.extractor.Extract(ctx, snapshot.Turns)
	if err != nil {
		s.log.WithContext(ctx).ExtractionFailed(in.SessionID, err)
		if errors.Is(err, domain.ErrExtractionFailure) {
			return TurnResult{}, apperr.Wrap(apperr.KindUnavailable,
				"we could not understand that message, please rephrase", err).WithOp(opHandleMessage)
		}
		return TurnResult{}, err
	}

	data := s.confidence.Assess(extracted)
	stage, err := confidence.NextStage(snapshot.Stage, data)
	if err != nil {
		return TurnResult{}, err
	}
	questions := confidence.ClarificationQuestions(data)

	var (
		preview    *domain.Breakdown
		previewErr error
	)
	if confidence.IsReadyForPricing(data) {
		preview, previewErr = s.previewFor(ctx, in.CompanyID, data)
	}

	reply := composeReply(data, questions, preview, previewErr)
	applied, err := s.store.Apply(ctx, in.SessionID, seq, conversation.Result{
		Data:      data,
		Stage:     stage,
		Questions: questions,
		Reply: &domain.ConversationTurn{
			Role:    domain.RoleAssistant,
			Content: reply,
			At:      s.now(),
		},
	})
	if err != nil {
		return TurnResult{}, mapStoreError(err)
	}

	latest, err := s.store.Get(ctx, in.SessionID)
	if err != nil {
		return TurnResult{}, mapStoreError(err)
	}
	if !applied {
		return TurnResult{Session: latest}, nil
	}
	return TurnResult{Session: latest, Reply: reply, Applied: true, Preview: preview}, nil
}

// previewFor prices the extracted data for the assistant reply. Failures
// only cost the preview; the chat turn itself still succeeds and the
// reply explains what blocked pricing.
func (s *Service) previewFor(ctx context.Context, companyID uuid.UUID, data domain.ParsedQuoteData) (*domain.Breakdown, error) {
	rates, settings, err := s.loadPricingInputs(ctx, companyID)
	if err != nil {
		s.log.WithContext(ctx).Warn("chat_preview_failed", "stage", "load", "error", err.Error())
		return nil, err
	}
	breakdown, err := s.price(data.Surfaces, rates, domain.MergeSettings(settings, data.Settings))
	if err != nil {
		s.log.WithContext(ctx).Warn("chat_preview_failed", "stage", "price", "error", err.Error())
		return nil, err
	}
	return &breakdown, nil
}

// composeReply builds the assistant message. It only ever quotes numbers
// the pricing engine produced.
func composeReply(data domain.ParsedQuoteData, questions []string, preview *domain.Breakdown, previewErr error) string {
	var b strings.Builder

	switch {
	case preview != nil && confidence.CanAutoComplete(data):
		fmt.Fprintf(&b, "Thanks, I have everything I need. The estimated total is $%.2f for %s. ",
			preview.Total, surfaceCount(len(data.Surfaces)))
		b.WriteString("Confirm and I will create the quote.")
		return b.String()
	case preview != nil:
		fmt.Fprintf(&b, "I can already price this: the estimated total is $%.2f for %s.",
			preview.Total, surfaceCount(len(data.Surfaces)))
		if len(questions) > 0 {
			b.WriteString(" Before I create the quote, could you tell me:")
		}
	case previewErr != nil && errors.Is(previewErr, domain.ErrInvalidSettings):
		fmt.Fprintf(&b, "I have the surface details, but I can't price this yet: %s. Could you confirm the correct value?",
			settingsProblem(previewErr))
	case previewErr != nil:
		b.WriteString("I have the surface details, but I couldn't calculate a price right now. ")
		b.WriteString("Your details are saved; send another message or try again shortly.")
	case len(questions) > 0:
		b.WriteString("To put your quote together I still need a few details:")
	default:
		b.WriteString("Thanks, noted. Tell me about the surfaces you want painted.")
		return b.String()
	}

	for _, q := range questions {
		b.WriteString("\n- ")
		b.WriteString(q)
	}
	return b.String()
}

// settingsProblem strips the sentinel prefix so the reply names only the
// offending setting, e.g. "taxRatePercent must not exceed 100 (got 150)".
func settingsProblem(err error) string {
	msg := err.Error()
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	return strings.TrimPrefix(msg, domain.ErrInvalidSettings.Error()+": ")
}

func surfaceCount(n int) string {
	if n == 1 {
		return "1 surface"
	}
	return fmt.Sprintf("%d surfaces", n)
}
