// Package extraction turns a chat transcript into ParsedQuoteData through
// the completion service, with a strict parse, validate and normalize
// boundary in front of pricing.
package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"paintquote_backend/internal/quotes/domain"
	"paintquote_backend/internal/quotes/pricing"
	"paintquote_backend/platform/ai/completion"
	"paintquote_backend/platform/phone"
	"paintquote_backend/platform/sanitize"

	"github.com/xeipuuv/gojsonschema"
)

// Extractor calls the completion service once per Extract.
type Extractor struct {
	completion   completion.Service
	phone        *phone.Normalizer
	schema       *gojsonschema.Schema
	defaultCoats int
	vocabulary   Vocabulary
}

// Vocabulary reports which condition and prep work tags pricing knows.
type Vocabulary interface {
	KnowsCondition(c domain.Condition) bool
	KnowsPrepWork(p domain.PrepWork) bool
}

// New builds an extractor. defaultCoats fills in coats the user never stated.
func New(svc completion.Service, phoneNormalizer *phone.Normalizer, defaultCoats int) (*Extractor, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(extractionSchema))
	if err != nil {
		return nil, fmt.Errorf("compile extraction schema: %w", err)
	}
	if phoneNormalizer == nil {
		phoneNormalizer = phone.NewNormalizer(phone.DefaultRegion)
	}
	if defaultCoats < 1 {
		defaultCoats = 2
	}
	return &Extractor{
		completion:   svc,
		phone:        phoneNormalizer,
		schema:       schema,
		defaultCoats: defaultCoats,
		vocabulary:   pricing.DefaultPolicy(),
	}, nil
}

// WithVocabulary swaps the tag vocabulary used to flag unknown conditions
// and prep work. A nil vocabulary keeps the stock policy.
func (e *Extractor) WithVocabulary(v Vocabulary) *Extractor {
	if v != nil {
		e.vocabulary = v
	}
	return e
}

// Extract sends the transcript to the completion service and normalizes the
// answer. Any completion error, missing JSON object or schema violation is
// an ErrExtractionFailure; nothing is retried and nothing is partially
// recovered.
func (e *Extractor) Extract(ctx context.Context, turns []domain.ConversationTurn) (domain.ParsedQuoteData, error) {
	text, err := e.completion.Complete(ctx, completion.Request{
		System:      systemPrompt,
		Prompt:      buildPrompt(turns),
		Temperature: 0,
		JSON:        true,
	})
	if err != nil {
		return domain.ParsedQuoteData{}, fmt.Errorf("%w: completion: %v", domain.ErrExtractionFailure, err)
	}
	return e.ParseAndNormalize(text)
}

// parse locates, validates and decodes the JSON object in completion text.
func (e *Extractor) parse(text string) (rawExtraction, error) {
	block, ok := firstJSONObject(text)
	if !ok {
		return rawExtraction{}, fmt.Errorf("%w: no JSON object in completion", domain.ErrExtractionFailure)
	}

	result, err := e.schema.Validate(gojsonschema.NewStringLoader(block))
	if err != nil {
		return rawExtraction{}, fmt.Errorf("%w: malformed JSON: %v", domain.ErrExtractionFailure, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			msgs = append(msgs, re.String())
		}
		return rawExtraction{}, fmt.Errorf("%w: schema: %s", domain.ErrExtractionFailure, strings.Join(msgs, "; "))
	}

	var raw rawExtraction
	if err := json.Unmarshal([]byte(block), &raw); err != nil {
		return rawExtraction{}, fmt.Errorf("%w: decode: %v", domain.ErrExtractionFailure, err)
	}
	return raw, nil
}

// ParseAndNormalize is parse followed by normalization, for callers that
// already hold completion text.
func (e *Extractor) ParseAndNormalize(text string) (domain.ParsedQuoteData, error) {
	raw, err := e.parse(text)
	if err != nil {
		return domain.ParsedQuoteData{}, err
	}
	return e.normalize(raw), nil
}

func (e *Extractor) normalize(raw rawExtraction) domain.ParsedQuoteData {
	var assumptions []string
	note := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		for _, existing := range assumptions {
			if existing == msg {
				return
			}
		}
		assumptions = append(assumptions, msg)
	}

	out := domain.ParsedQuoteData{
		Customer: domain.Customer{
			Name:    sanitize.Text(deref(raw.Customer.Name)),
			Email:   strings.ToLower(strings.TrimSpace(deref(raw.Customer.Email))),
			Phone:   e.phone.NormalizeE164(deref(raw.Customer.Phone)),
			Address: sanitize.Text(deref(raw.Customer.Address)),
		},
		ProjectType: domain.ProjectResidential,
		Surfaces:    make([]domain.Surface, 0, len(raw.Surfaces)),
	}

	switch pt := strings.ToLower(strings.TrimSpace(deref(raw.ProjectType))); pt {
	case "", string(domain.ProjectResidential):
	case string(domain.ProjectCommercial):
		out.ProjectType = domain.ProjectCommercial
	default:
		note("Project type %q not recognized; treated as residential", pt)
	}

	for _, rs := range raw.Surfaces {
		s, ok := e.normalizeSurface(rs, note)
		if ok {
			out.Surfaces = append(out.Surfaces, s)
		}
	}

	if raw.Settings != nil {
		o := &domain.SettingsOverride{
			TaxRatePercent:      raw.Settings.TaxRatePercent,
			OverheadPercent:     raw.Settings.OverheadPercent,
			ProfitMarginPercent: raw.Settings.ProfitMarginPercent,
			LaborPercentOfCost:  raw.Settings.LaborPercentOfCost,
		}
		if !o.IsZero() {
			out.Settings = o
		}
	}

	out.Analysis = normalizeAnalysis(raw)
	out.Confidence.Assumptions = assumptions
	return out
}

func (e *Extractor) normalizeSurface(rs rawSurface, note func(string, ...any)) (domain.Surface, bool) {
	st, err := domain.NormalizeSurfaceType(rs.Type)
	if err != nil {
		note("Surface %q is not a recognized surface type and was not priced", strings.TrimSpace(rs.Type))
		return domain.Surface{}, false
	}

	s := domain.Surface{
		Type:        st,
		Description: sanitize.Text(deref(rs.Description)),
	}

	kind := st.Kind()
	fields := []struct {
		kind  domain.MeasurementKind
		value *float64
	}{
		{domain.KindArea, rs.Area},
		{domain.KindLinear, rs.LinearFeet},
		{domain.KindUnit, rs.Count},
	}
	for _, f := range fields {
		if f.value == nil || *f.value <= 0 {
			continue
		}
		if f.kind != kind {
			note("%s value on %s ignored; %s are measured in %s", f.kind.Field(), st.Label(), st.Label(), kind.Unit())
			continue
		}
		switch kind {
		case domain.KindArea:
			s.Area = *f.value
		case domain.KindLinear:
			s.LinearFeet = *f.value
		case domain.KindUnit:
			s.Count = math.Round(*f.value)
		}
	}

	if rs.Coats != nil && *rs.Coats > 0 {
		s.Coats = *rs.Coats
	} else {
		s.Coats = e.defaultCoats
		if kind != domain.KindUnit {
			note("Number of coats for %s not stated; assumed %d", st.Label(), e.defaultCoats)
		}
	}

	if c := domain.NormalizeTag(deref(rs.Condition)); c != "" {
		s.Condition = domain.Condition(c)
		if !e.vocabulary.KnowsCondition(s.Condition) {
			note("Unrecognized condition %q on %s priced as standard condition", c, st.Label())
		}
	}

	for _, tag := range rs.PrepWork {
		p := domain.PrepWork(domain.NormalizeTag(tag))
		if p == "" || containsPrep(s.PrepWork, p) {
			continue
		}
		if !e.vocabulary.KnowsPrepWork(p) {
			note("Unrecognized prep work %q on %s was not priced", string(p), st.Label())
		}
		s.PrepWork = append(s.PrepWork, p)
	}

	return s, true
}

func normalizeAnalysis(raw rawExtraction) domain.Analysis {
	a := domain.Analysis{Complexity: domain.ComplexityModerate, Recommendations: []string{}}
	if raw.Analysis == nil {
		return a
	}
	switch c := domain.Complexity(strings.ToLower(strings.TrimSpace(deref(raw.Analysis.Complexity)))); c {
	case domain.ComplexitySimple, domain.ComplexityModerate, domain.ComplexityComplex:
		a.Complexity = c
	}
	if d := raw.Analysis.EstimatedDurationDays; d != nil && *d > 0 {
		a.EstimatedDurationDays = *d
	}
	for _, r := range raw.Analysis.Recommendations {
		if r = sanitize.Text(r); r != "" {
			a.Recommendations = append(a.Recommendations, r)
		}
	}
	return a
}

func containsPrep(list []domain.PrepWork, p domain.PrepWork) bool {
	for _, existing := range list {
		if existing == p {
			return true
		}
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
