package pricing

import (
	"fmt"
	"math"

	"paintquote_backend/internal/quotes/domain"
)

// Engine prices surfaces under a Policy.
type Engine struct {
	policy Policy
}

// New returns an engine for policy.
func New(policy Policy) *Engine {
	return &Engine{policy: policy}
}

// Policy returns the engine's policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// PriceSurface computes the cost of a single surface with the policy's
// labor share. Unknown condition or prep tags do not fail; they are
// returned as assumptions.
func (e *Engine) PriceSurface(s domain.Surface, rates domain.ChargeRates) (domain.PricedSurface, []string, error) {
	return e.priceSurface(s, rates, e.policy.LaborShare)
}

func (e *Engine) priceSurface(s domain.Surface, rates domain.ChargeRates, laborShare float64) (domain.PricedSurface, []string, error) {
	kind := s.Kind()
	if kind == 0 {
		return domain.PricedSurface{}, nil, fmt.Errorf("%w: %q", domain.ErrUnknownSurfaceType, s.Type)
	}
	rate, err := e.policy.RateFor(s.Type, rates)
	if err != nil {
		return domain.PricedSurface{}, nil, err
	}

	var assumptions []string
	measurement := s.Measurement()
	if measurement < 0 {
		measurement = 0
	}

	coats := s.Coats
	if coats <= 0 {
		coats = e.policy.DefaultCoats
	}

	var base float64
	switch kind {
	case domain.KindArea, domain.KindLinear:
		base = measurement * rate * float64(coats)
	case domain.KindUnit:
		// Unit rates already cover a full job per unit.
		base = measurement * rate
	}

	condMult := 1.0
	if s.Condition != "" {
		if m, ok := e.policy.ConditionMultipliers[s.Condition]; ok {
			condMult = m
		} else {
			assumptions = append(assumptions, fmt.Sprintf("Unrecognized condition %q on %s priced as standard condition", s.Condition, s.Type.Label()))
		}
	}

	prepMult := 1.0
	for _, tag := range s.PrepWork {
		bonus, ok := e.policy.PrepWorkBonuses[tag]
		if !ok {
			assumptions = append(assumptions, fmt.Sprintf("Unrecognized prep work %q on %s was not priced", tag, s.Type.Label()))
			continue
		}
		prepMult += bonus
	}
	prepMult = math.Max(prepMult, 1.0)

	cost := base * condMult * prepMult
	labor := cost * laborShare

	return domain.PricedSurface{
		Surface:             s,
		Rate:                rate,
		Measurement:         measurement,
		Unit:                kind.Unit(),
		Coats:               coats,
		BaseCost:            base,
		ConditionMultiplier: condMult,
		PrepMultiplier:      prepMult,
		Cost:                cost,
		LaborCost:           labor,
		MaterialsCost:       cost - labor,
	}, assumptions, nil
}

// Aggregate applies overhead, profit and tax in that order. Accumulation
// is unrounded; call Breakdown.Rounded for presentation.
func Aggregate(surfaces []domain.PricedSurface, settings domain.QuoteSettings) (domain.Breakdown, error) {
	if err := settings.Validate(); err != nil {
		return domain.Breakdown{}, err
	}

	b := domain.Breakdown{
		Surfaces: surfaces,
		Settings: settings,
	}
	for _, s := range surfaces {
		b.Subtotal += s.Cost
		b.LaborCost += s.LaborCost
		b.MaterialsCost += s.MaterialsCost
	}

	b.Overhead = b.Subtotal * settings.OverheadPercent / 100
	withOverhead := b.Subtotal + b.Overhead
	b.Profit = withOverhead * settings.ProfitMarginPercent / 100
	withProfit := withOverhead + b.Profit
	b.Tax = withProfit * settings.TaxRatePercent / 100
	b.Total = withProfit + b.Tax
	return b, nil
}

// PriceQuote prices every surface and aggregates them. Settings are
// validated before any surface is touched; an unknown surface type fails
// the whole call.
func (e *Engine) PriceQuote(surfaces []domain.Surface, rates domain.ChargeRates, settings domain.QuoteSettings) (domain.Breakdown, error) {
	if err := settings.Validate(); err != nil {
		return domain.Breakdown{}, err
	}

	laborShare := e.policy.LaborShare
	if settings.LaborPercentOfCost > 0 {
		laborShare = settings.LaborPercentOfCost / 100
	}

	priced := make([]domain.PricedSurface, 0, len(surfaces))
	var assumptions []string
	for _, s := range surfaces {
		ps, notes, err := e.priceSurface(s, rates, laborShare)
		if err != nil {
			return domain.Breakdown{}, err
		}
		priced = append(priced, ps)
		assumptions = appendUnique(assumptions, notes...)
	}

	b, err := Aggregate(priced, settings)
	if err != nil {
		return domain.Breakdown{}, err
	}
	b.Assumptions = assumptions
	return b, nil
}

func appendUnique(dst []string, items ...string) []string {
	for _, item := range items {
		seen := false
		for _, existing := range dst {
			if existing == item {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, item)
		}
	}
	return dst
}
