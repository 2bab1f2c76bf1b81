// Package pricing turns surfaces and company settings into an itemized
// quote. Everything here is pure: identical inputs give identical output.
package pricing

import (
	"fmt"
	"os"

	"paintquote_backend/internal/quotes/domain"

	"gopkg.in/yaml.v3"
)

// Policy holds the business constants behind surface pricing. They are
// product decisions, kept overridable rather than hard-coded.
type Policy struct {
	DefaultRates         map[domain.SurfaceType]float64 `yaml:"defaultRates" json:"defaultRates"`
	ConditionMultipliers map[domain.Condition]float64   `yaml:"conditionMultipliers" json:"conditionMultipliers"`
	PrepWorkBonuses      map[domain.PrepWork]float64    `yaml:"prepWorkBonuses" json:"prepWorkBonuses"`
	LaborShare           float64                        `yaml:"laborShare" json:"laborShare"`
	DefaultCoats         int                            `yaml:"defaultCoats" json:"defaultCoats"`
}

// DefaultPolicy returns the stock rate table and multipliers.
func DefaultPolicy() Policy {
	return Policy{
		DefaultRates: map[domain.SurfaceType]float64{
			domain.Walls:           3.50,
			domain.Ceilings:        4.00,
			domain.Baseboards:      2.50,
			domain.CrownMolding:    3.50,
			domain.Doors:           75,
			domain.Windows:         50,
			domain.ExteriorWalls:   4.50,
			domain.Fascia:          3.00,
			domain.Soffits:         3.50,
			domain.ExteriorDoors:   95,
			domain.ExteriorWindows: 65,
		},
		ConditionMultipliers: map[domain.Condition]float64{
			domain.ConditionExcellent: 0.9,
			domain.ConditionGood:      1.0,
			domain.ConditionFair:      1.2,
			domain.ConditionPoor:      1.5,
		},
		PrepWorkBonuses: map[domain.PrepWork]float64{
			domain.PrepPatchNailHoles:  0.10,
			domain.PrepCaulkGaps:       0.10,
			domain.PrepSandSurfaces:    0.15,
			domain.PrepSpotPrime:       0.15,
			domain.PrepPrimeAll:        0.40,
			domain.PrepScrapePeeling:   0.30,
			domain.PrepPressureWash:    0.20,
			domain.PrepMildewTreatment: 0.20,
			domain.PrepRemoveWallpaper: 0.60,
			domain.PrepRepairDrywall:   0.75,
		},
		LaborShare:   0.4,
		DefaultCoats: 2,
	}
}

// LoadPolicy reads a YAML overlay from path. An empty path yields the
// default policy.
func LoadPolicy(path string) (Policy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read pricing policy: %w", err)
	}
	return ParsePolicy(raw)
}

// ParsePolicy overlays the YAML document onto DefaultPolicy. Map entries
// are merged key by key; scalars replace the default when present.
func ParsePolicy(raw []byte) (Policy, error) {
	var overlay struct {
		DefaultRates         map[string]float64 `yaml:"defaultRates"`
		ConditionMultipliers map[string]float64 `yaml:"conditionMultipliers"`
		PrepWorkBonuses      map[string]float64 `yaml:"prepWorkBonuses"`
		LaborShare           *float64           `yaml:"laborShare"`
		DefaultCoats         *int               `yaml:"defaultCoats"`
	}
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return Policy{}, fmt.Errorf("parse pricing policy: %w", err)
	}

	p := DefaultPolicy()
	for k, v := range overlay.DefaultRates {
		st, err := domain.NormalizeSurfaceType(k)
		if err != nil {
			return Policy{}, fmt.Errorf("pricing policy defaultRates: %w", err)
		}
		p.DefaultRates[st] = v
	}
	for k, v := range overlay.ConditionMultipliers {
		p.ConditionMultipliers[domain.Condition(domain.NormalizeTag(k))] = v
	}
	for k, v := range overlay.PrepWorkBonuses {
		p.PrepWorkBonuses[domain.PrepWork(domain.NormalizeTag(k))] = v
	}
	if overlay.LaborShare != nil {
		p.LaborShare = *overlay.LaborShare
	}
	if overlay.DefaultCoats != nil {
		p.DefaultCoats = *overlay.DefaultCoats
	}

	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate checks the policy is usable for pricing.
func (p Policy) Validate() error {
	for _, st := range domain.AllSurfaceTypes() {
		rate, ok := p.DefaultRates[st]
		if !ok {
			return fmt.Errorf("pricing policy: no default rate for %s", st)
		}
		if rate < 0 {
			return fmt.Errorf("pricing policy: negative rate for %s", st)
		}
	}
	for c, m := range p.ConditionMultipliers {
		if m <= 0 {
			return fmt.Errorf("pricing policy: condition multiplier for %s must be positive", c)
		}
	}
	if p.LaborShare < 0 || p.LaborShare > 1 {
		return fmt.Errorf("pricing policy: laborShare must be within [0, 1]")
	}
	if p.DefaultCoats < 1 {
		return fmt.Errorf("pricing policy: defaultCoats must be at least 1")
	}
	return nil
}

// KnowsCondition reports whether c has a multiplier in the policy.
func (p Policy) KnowsCondition(c domain.Condition) bool {
	_, ok := p.ConditionMultipliers[c]
	return ok
}

// KnowsPrepWork reports whether tag has a bonus in the policy.
func (p Policy) KnowsPrepWork(tag domain.PrepWork) bool {
	_, ok := p.PrepWorkBonuses[tag]
	return ok
}

// RateFor resolves the unit price: company override first, then the policy default.
func (p Policy) RateFor(t domain.SurfaceType, rates domain.ChargeRates) (float64, error) {
	if rate, ok := rates[t]; ok {
		return rate, nil
	}
	if rate, ok := p.DefaultRates[t]; ok {
		return rate, nil
	}
	return 0, fmt.Errorf("%w: %q", domain.ErrUnknownSurfaceType, t)
}
