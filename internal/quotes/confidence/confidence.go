// Package confidence decides whether extracted quote data is complete
// enough to price and what to ask the customer when it is not.
package confidence

import (
	"fmt"
	"math"

	"paintquote_backend/internal/quotes/domain"
)

// DefaultCriticalFields is the denominator of the completeness score.
const DefaultCriticalFields = 10

const (
	FieldCustomerName    = "customer.name"
	FieldCustomerContact = "customer.contact"
	FieldSurfaces        = "surfaces"
)

// Engine scores ParsedQuoteData.
type Engine struct {
	totalCriticalFields int
}

// NewEngine returns an engine; a non-positive total selects the default.
func NewEngine(totalCriticalFields int) *Engine {
	if totalCriticalFields < 1 {
		totalCriticalFields = DefaultCriticalFields
	}
	return &Engine{totalCriticalFields: totalCriticalFields}
}

// Assess returns a copy of data with Score and MissingFields recomputed.
// Assumptions gathered during extraction are preserved.
func (e *Engine) Assess(data domain.ParsedQuoteData) domain.ParsedQuoteData {
	out := data.Clone()
	missing := MissingFields(data)
	out.Confidence.MissingFields = missing
	out.Confidence.Score = e.Score(len(missing))
	if out.Confidence.Assumptions == nil {
		out.Confidence.Assumptions = []string{}
	}
	return out
}

// Score maps a missing-field count to 0..100.
func (e *Engine) Score(missing int) int {
	total := float64(e.totalCriticalFields)
	score := int(math.Round(100 * (total - float64(missing)) / total))
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}

// MissingFields lists the critical gaps in a stable order: name, contact,
// surfaces, then one entry per unmeasured surface.
func MissingFields(data domain.ParsedQuoteData) []string {
	missing := []string{}
	if !data.Customer.HasName() {
		missing = append(missing, FieldCustomerName)
	}
	if !data.Customer.HasContact() {
		missing = append(missing, FieldCustomerContact)
	}
	if len(data.Surfaces) == 0 {
		missing = append(missing, FieldSurfaces)
	}
	for i, s := range data.Surfaces {
		if !s.HasMeasurement() {
			missing = append(missing, fmt.Sprintf("surfaces[%d].%s", i, s.Kind().Field()))
		}
	}
	return missing
}

// IsReadyForPricing is the minimum-data gate: a customer name, at least
// one surface, and a positive value in every surface's matching
// measurement field.
func IsReadyForPricing(data domain.ParsedQuoteData) bool {
	if !data.Customer.HasName() || len(data.Surfaces) == 0 {
		return false
	}
	for _, s := range data.Surfaces {
		if !s.Type.Valid() || !s.HasMeasurement() {
			return false
		}
	}
	return true
}

// CanAutoComplete is true when nothing at all is missing, so the assistant
// may offer to finalize without the user asking.
func CanAutoComplete(data domain.ParsedQuoteData) bool {
	return IsReadyForPricing(data) && len(MissingFields(data)) == 0
}

// ClarificationQuestions returns deduplicated follow-ups in the same order
// as MissingFields.
func ClarificationQuestions(data domain.ParsedQuoteData) []string {
	var questions []string
	add := func(q string) {
		for _, existing := range questions {
			if existing == q {
				return
			}
		}
		questions = append(questions, q)
	}

	if !data.Customer.HasName() {
		add("What is the customer's name?")
	}
	if !data.Customer.HasContact() {
		add("How can we reach the customer? An email address, phone number or property address works.")
	}
	if len(data.Surfaces) == 0 {
		add("Which surfaces should be painted (for example walls, ceilings, trim or doors), and roughly how large are they?")
	}
	for _, s := range data.Surfaces {
		if !s.HasMeasurement() {
			add(surfaceQuestion(s))
		}
	}
	return questions
}

func surfaceQuestion(s domain.Surface) string {
	label := s.Type.Label()
	if s.Description != "" {
		label = fmt.Sprintf("%s (%s)", label, s.Description)
	}
	switch s.Kind() {
	case domain.KindArea:
		return fmt.Sprintf("Roughly how many sq ft of %s need painting?", label)
	case domain.KindLinear:
		return fmt.Sprintf("How many linear feet of %s need painting?", label)
	default:
		return fmt.Sprintf("How many %s need painting (count)?", label)
	}
}
