package transport

import (
	"time"

	"paintquote_backend/internal/conversation"
	"paintquote_backend/internal/quotes/domain"
	"paintquote_backend/platform/validator"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// SendMessageRequest is one chat message from the contractor.
type SendMessageRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

// SettingsOverrideRequest overrides company settings for a single quote.
type SettingsOverrideRequest struct {
	TaxRatePercent      *float64 `json:"taxRatePercent" validate:"omitempty,percent"`
	OverheadPercent     *float64 `json:"overheadPercent" validate:"omitempty,min=0"`
	ProfitMarginPercent *float64 `json:"profitMarginPercent" validate:"omitempty,min=0"`
	LaborPercentOfCost  *float64 `json:"laborPercentOfCost" validate:"omitempty,percent"`
}

// SurfaceRequest describes one surface to price. Type accepts the canonical
// names and their common synonyms.
type SurfaceRequest struct {
	Type        string   `json:"type" validate:"required,surface_type"`
	Area        float64  `json:"area" validate:"min=0"`
	LinearFeet  float64  `json:"linearFeet" validate:"min=0"`
	Count       float64  `json:"count" validate:"min=0"`
	Coats       int      `json:"coats" validate:"min=0,max=10"`
	Condition   string   `json:"condition" validate:"omitempty,oneof=excellent good fair poor"`
	PrepWork    []string `json:"prepWork" validate:"omitempty,max=20,dive,required,max=64"`
	Description string   `json:"description" validate:"max=500"`
}

// CalculateRequest is the body of POST /quotes/calculate.
type CalculateRequest struct {
	Surfaces []SurfaceRequest         `json:"surfaces" validate:"required,min=1,max=100,dive"`
	Settings *SettingsOverrideRequest `json:"settings" validate:"omitempty"`
}

// FinalizeRequest is the body of POST /quote-chat/sessions/:sessionId/finalize.
type FinalizeRequest struct {
	Force    bool                     `json:"force"`
	Settings *SettingsOverrideRequest `json:"settings" validate:"omitempty"`
}

// RegisterValidators adds the quote-specific validation tags.
func RegisterValidators(val *validator.Validator) error {
	return val.RegisterValidation("surface_type", func(fl govalidator.FieldLevel) bool {
		_, err := domain.NormalizeSurfaceType(fl.Field().String())
		return err == nil
	})
}

// ToDomain converts the override; nil stays nil.
func (r *SettingsOverrideRequest) ToDomain() *domain.SettingsOverride {
	if r == nil {
		return nil
	}
	return &domain.SettingsOverride{
		TaxRatePercent:      r.TaxRatePercent,
		OverheadPercent:     r.OverheadPercent,
		ProfitMarginPercent: r.ProfitMarginPercent,
		LaborPercentOfCost:  r.LaborPercentOfCost,
	}
}

// ToSurfaces normalizes validated surface requests.
func ToSurfaces(reqs []SurfaceRequest) ([]domain.Surface, error) {
	out := make([]domain.Surface, 0, len(reqs))
	for _, r := range reqs {
		t, err := domain.NormalizeSurfaceType(r.Type)
		if err != nil {
			return nil, err
		}
		var prep []domain.PrepWork
		for _, p := range r.PrepWork {
			if tag := domain.NormalizeTag(p); tag != "" {
				prep = append(prep, domain.PrepWork(tag))
			}
		}
		out = append(out, domain.Surface{
			Type:        t,
			Area:        r.Area,
			LinearFeet:  r.LinearFeet,
			Count:       r.Count,
			Coats:       r.Coats,
			Condition:   domain.Condition(r.Condition),
			PrepWork:    prep,
			Description: r.Description,
		})
	}
	return out, nil
}

// ── Responses ─────────────────────────────────────────────────────────────────

// QuoteRefResponse points at the quote a session produced.
type QuoteRefResponse struct {
	ID     uuid.UUID `json:"id"`
	Number string    `json:"number"`
}

// SessionResponse is the client view of a chat session.
type SessionResponse struct {
	SessionID string                    `json:"sessionId"`
	Stage     domain.Stage              `json:"stage"`
	Turns     []domain.ConversationTurn `json:"turns"`
	Data      domain.ParsedQuoteData    `json:"data"`
	Questions []string                  `json:"questions"`
	Quote     *QuoteRefResponse         `json:"quote,omitempty"`
	UpdatedAt time.Time                 `json:"updatedAt"`
}

// MessageResponse is returned after a chat message was processed.
type MessageResponse struct {
	Session SessionResponse   `json:"session"`
	Reply   string            `json:"reply,omitempty"`
	Applied bool              `json:"applied"`
	Preview *domain.Breakdown `json:"preview,omitempty"`
}

// QuoteResponse is a created quote.
type QuoteResponse struct {
	ID             uuid.UUID          `json:"id"`
	QuoteNumber    string             `json:"quoteNumber"`
	Status         domain.QuoteStatus `json:"status"`
	ProjectType    domain.ProjectType `json:"projectType"`
	Customer       domain.Customer    `json:"customer"`
	Breakdown      domain.Breakdown   `json:"breakdown"`
	Analysis       domain.Analysis    `json:"analysis"`
	Forced         bool               `json:"forced"`
	DegradedNumber bool               `json:"degradedNumber"`
	CreatedAt      time.Time          `json:"createdAt"`
}

// NewSessionResponse maps a stored session.
func NewSessionResponse(s conversation.Session) SessionResponse {
	resp := SessionResponse{
		SessionID: s.ID,
		Stage:     s.Stage,
		Turns:     s.Turns,
		Data:      s.Data,
		Questions: s.Questions,
		UpdatedAt: s.UpdatedAt,
	}
	if resp.Turns == nil {
		resp.Turns = []domain.ConversationTurn{}
	}
	if resp.Questions == nil {
		resp.Questions = []string{}
	}
	if s.Quote != nil {
		resp.Quote = &QuoteRefResponse{ID: s.Quote.ID, Number: s.Quote.Number}
	}
	return resp
}

// NewQuoteResponse maps a created quote.
func NewQuoteResponse(q domain.Quote, degraded bool) QuoteResponse {
	return QuoteResponse{
		ID:             q.ID,
		QuoteNumber:    q.QuoteNumber,
		Status:         q.Status,
		ProjectType:    q.ProjectType,
		Customer:       q.Customer,
		Breakdown:      q.Breakdown,
		Analysis:       q.Analysis,
		Forced:         q.Forced,
		DegradedNumber: degraded,
		CreatedAt:      q.CreatedAt,
	}
}
