package pricing

import (
	"os"
	"path/filepath"
	"testing"

	"paintquote_backend/internal/quotes/domain"
)

func TestDefaultPolicyIsValid(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}
}

func TestParsePolicyOverlaysDefaults(t *testing.T) {
	raw := []byte(`
defaultRates:
  wall: 4.25
  front door: 120
conditionMultipliers:
  Poor: 1.6
prepWorkBonuses:
  lead abatement: 1.5
laborShare: 0.45
`)
	p, err := ParsePolicy(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.DefaultRates[domain.Walls] != 4.25 {
		t.Fatalf("expected walls rate override, got %v", p.DefaultRates[domain.Walls])
	}
	if p.DefaultRates[domain.ExteriorDoors] != 120 {
		t.Fatalf("expected synonym key to resolve, got %v", p.DefaultRates[domain.ExteriorDoors])
	}
	if p.DefaultRates[domain.Ceilings] != 4.00 {
		t.Fatalf("untouched default should survive, got %v", p.DefaultRates[domain.Ceilings])
	}
	if p.ConditionMultipliers[domain.ConditionPoor] != 1.6 {
		t.Fatalf("expected poor multiplier 1.6, got %v", p.ConditionMultipliers[domain.ConditionPoor])
	}
	if p.PrepWorkBonuses["lead_abatement"] != 1.5 {
		t.Fatalf("expected new prep tag, got %v", p.PrepWorkBonuses)
	}
	if p.LaborShare != 0.45 || p.DefaultCoats != 2 {
		t.Fatalf("unexpected scalars: %v %v", p.LaborShare, p.DefaultCoats)
	}
}

func TestParsePolicyRejectsBadValues(t *testing.T) {
	cases := []string{
		"defaultRates:\n  deck: 2\n",
		"laborShare: 1.5\n",
		"defaultCoats: 0\n",
		"conditionMultipliers:\n  good: 0\n",
		"defaultRates: [1, 2]\n",
	}
	for _, raw := range cases {
		if _, err := ParsePolicy([]byte(raw)); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestLoadPolicy(t *testing.T) {
	p, err := LoadPolicy("")
	if err != nil || p.LaborShare != 0.4 {
		t.Fatalf("empty path should give defaults: %v %v", p.LaborShare, err)
	}

	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte("defaultCoats: 3\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	p, err = LoadPolicy(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.DefaultCoats != 3 {
		t.Fatalf("expected defaultCoats 3, got %d", p.DefaultCoats)
	}

	if _, err := LoadPolicy(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
