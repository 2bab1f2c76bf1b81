package domain

import (
	"errors"
	"testing"
)

func TestMeasurementReadsOnlyMatchingField(t *testing.T) {
	for _, st := range AllSurfaceTypes() {
		s := Surface{Type: st, Area: 100, LinearFeet: 200, Count: 3}
		var want float64
		switch st.Kind() {
		case KindArea:
			want = 100
		case KindLinear:
			want = 200
		case KindUnit:
			want = 3
		}
		if got := s.Measurement(); got != want {
			t.Fatalf("%s: Measurement() = %v, want %v", st, got, want)
		}
	}
}

func TestHasMeasurement(t *testing.T) {
	if (Surface{Type: Walls, Count: 4}).HasMeasurement() {
		t.Fatal("walls measured by count should not count as measured")
	}
	if !(Surface{Type: Doors, Count: 4}).HasMeasurement() {
		t.Fatal("doors with count should be measured")
	}
	if (Surface{Type: Baseboards, LinearFeet: -5}).HasMeasurement() {
		t.Fatal("negative measurement should not count")
	}
}

func TestQuoteSettingsValidate(t *testing.T) {
	valid := QuoteSettings{TaxRatePercent: 8.25, OverheadPercent: 15, ProfitMarginPercent: 300, LaborPercentOfCost: 40}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid settings, got %v", err)
	}

	invalid := []QuoteSettings{
		{TaxRatePercent: -1},
		{OverheadPercent: -0.01},
		{ProfitMarginPercent: -5},
		{LaborPercentOfCost: -1},
		{TaxRatePercent: 101},
		{LaborPercentOfCost: 100.5},
	}
	for _, s := range invalid {
		if err := s.Validate(); !errors.Is(err, ErrInvalidSettings) {
			t.Fatalf("expected ErrInvalidSettings for %+v, got %v", s, err)
		}
	}
}

func TestMergeSettingsOverrideWins(t *testing.T) {
	company := QuoteSettings{TaxRatePercent: 8, OverheadPercent: 10, ProfitMarginPercent: 20}
	tax := 0.0
	profit := 35.0
	got := MergeSettings(company, &SettingsOverride{TaxRatePercent: &tax}, nil, &SettingsOverride{ProfitMarginPercent: &profit})

	if got.TaxRatePercent != 0 || got.OverheadPercent != 10 || got.ProfitMarginPercent != 35 {
		t.Fatalf("unexpected merge result: %+v", got)
	}
	if company.TaxRatePercent != 8 {
		t.Fatal("company settings must not be mutated")
	}
}

func TestBreakdownRounded(t *testing.T) {
	b := Breakdown{Subtotal: 10.005, Tax: 1070.6445, Total: 14047.1695, Surfaces: []PricedSurface{{Cost: 1.234}}}
	r := b.Rounded()
	if r.Tax != 1070.64 || r.Total != 14047.17 || r.Surfaces[0].Cost != 1.23 {
		t.Fatalf("unexpected rounding: %+v", r)
	}
	if b.Surfaces[0].Cost != 1.234 {
		t.Fatal("Rounded must not mutate the receiver")
	}
}

func TestCloneIsDeep(t *testing.T) {
	tax := 5.0
	d := ParsedQuoteData{
		Surfaces: []Surface{{Type: Walls, PrepWork: []PrepWork{PrepPrimeAll}}},
		Settings: &SettingsOverride{TaxRatePercent: &tax},
	}
	c := d.Clone()
	c.Surfaces[0].PrepWork[0] = PrepCaulkGaps
	*c.Settings.TaxRatePercent = 9

	if d.Surfaces[0].PrepWork[0] != PrepPrimeAll {
		t.Fatal("clone shares prep work slice")
	}
	if *d.Settings.TaxRatePercent != 5 {
		t.Fatal("clone shares settings pointer")
	}
}
