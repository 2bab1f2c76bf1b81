package domain

import "fmt"

// QuoteSettings are the percentages applied on top of the surface subtotal.
// A zero LaborPercentOfCost means the pricing policy's labor share is used.
type QuoteSettings struct {
	TaxRatePercent      float64 `json:"taxRatePercent"`
	OverheadPercent     float64 `json:"overheadPercent"`
	ProfitMarginPercent float64 `json:"profitMarginPercent"`
	LaborPercentOfCost  float64 `json:"laborPercentOfCost"`
}

// Validate rejects negative values, a tax rate above 100% and a labor share
// above 100%. Values are never clamped.
func (s QuoteSettings) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"taxRatePercent", s.TaxRatePercent},
		{"overheadPercent", s.OverheadPercent},
		{"profitMarginPercent", s.ProfitMarginPercent},
		{"laborPercentOfCost", s.LaborPercentOfCost},
	}
	for _, f := range fields {
		if f.value < 0 {
			return fmt.Errorf("%w: %s must not be negative (got %v)", ErrInvalidSettings, f.name, f.value)
		}
	}
	if s.TaxRatePercent > 100 {
		return fmt.Errorf("%w: taxRatePercent must not exceed 100 (got %v)", ErrInvalidSettings, s.TaxRatePercent)
	}
	if s.LaborPercentOfCost > 100 {
		return fmt.Errorf("%w: laborPercentOfCost must not exceed 100 (got %v)", ErrInvalidSettings, s.LaborPercentOfCost)
	}
	return nil
}

// SettingsOverride carries per-quote values; nil fields keep the company default.
type SettingsOverride struct {
	TaxRatePercent      *float64 `json:"taxRatePercent,omitempty"`
	OverheadPercent     *float64 `json:"overheadPercent,omitempty"`
	ProfitMarginPercent *float64 `json:"profitMarginPercent,omitempty"`
	LaborPercentOfCost  *float64 `json:"laborPercentOfCost,omitempty"`
}

// IsZero reports whether no field is set.
func (o *SettingsOverride) IsZero() bool {
	return o == nil || (o.TaxRatePercent == nil && o.OverheadPercent == nil &&
		o.ProfitMarginPercent == nil && o.LaborPercentOfCost == nil)
}

// Clone deep-copies the override.
func (o *SettingsOverride) Clone() *SettingsOverride {
	if o == nil {
		return nil
	}
	return &SettingsOverride{
		TaxRatePercent:      clonePtr(o.TaxRatePercent),
		OverheadPercent:     clonePtr(o.OverheadPercent),
		ProfitMarginPercent: clonePtr(o.ProfitMarginPercent),
		LaborPercentOfCost:  clonePtr(o.LaborPercentOfCost),
	}
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// MergeSettings applies the overrides in order; later overrides win.
func MergeSettings(company QuoteSettings, overrides ...*SettingsOverride) QuoteSettings {
	out := company
	for _, o := range overrides {
		if o == nil {
			continue
		}
		if o.TaxRatePercent != nil {
			out.TaxRatePercent = *o.TaxRatePercent
		}
		if o.OverheadPercent != nil {
			out.OverheadPercent = *o.OverheadPercent
		}
		if o.ProfitMarginPercent != nil {
			out.ProfitMarginPercent = *o.ProfitMarginPercent
		}
		if o.LaborPercentOfCost != nil {
			out.LaborPercentOfCost = *o.LaborPercentOfCost
		}
	}
	return out
}

// ChargeRates maps a surface type to the company's unit price for it.
// Missing entries fall back to the pricing policy defaults.
type ChargeRates map[SurfaceType]float64
