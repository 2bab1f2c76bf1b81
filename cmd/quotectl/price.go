package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"paintquote_backend/internal/quotes/domain"
	"paintquote_backend/internal/quotes/pricing"
	"paintquote_backend/internal/quotes/transport"
	"paintquote_backend/platform/validator"

	"github.com/spf13/cobra"
)

// priceInput is the document read by `quotectl price`. Rates not listed
// fall back to the policy defaults.
type priceInput struct {
	Surfaces    []transport.SurfaceRequest `json:"surfaces" validate:"required,min=1,max=100,dive"`
	Settings    domain.QuoteSettings       `json:"settings"`
	ChargeRates map[string]float64         `json:"chargeRates"`
}

var (
	priceFile   string
	policyFile  string
	priceIndent bool
)

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Price a JSON list of surfaces",
	Long:  `Reads surfaces, settings and optional charge rates from a JSON file and prints the rounded breakdown.`,
	Args:  cobra.NoArgs,
	RunE:  runPrice,
}

func init() {
	priceCmd.Flags().StringVarP(&priceFile, "file", "f", "", "quote JSON file (- for stdin)")
	priceCmd.Flags().StringVar(&policyFile, "policy", "", "pricing policy YAML overlay")
	priceCmd.Flags().BoolVar(&priceIndent, "pretty", true, "indent JSON output")
	_ = priceCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(priceCmd)
}

func runPrice(cmd *cobra.Command, _ []string) error {
	raw, err := readInput(priceFile)
	if err != nil {
		return err
	}

	var in priceInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return fmt.Errorf("parse %s: %w", priceFile, err)
	}

	val := validator.New()
	if err := transport.RegisterValidators(val); err != nil {
		return err
	}
	if err := val.Struct(in); err != nil {
		return fmt.Errorf("invalid quote: %w", err)
	}

	surfaces, err := transport.ToSurfaces(in.Surfaces)
	if err != nil {
		return err
	}
	rates, err := parseRates(in.ChargeRates)
	if err != nil {
		return err
	}

	policy, err := pricing.LoadPolicy(policyFile)
	if err != nil {
		return err
	}
	if err := policy.Validate(); err != nil {
		return fmt.Errorf("pricing policy: %w", err)
	}

	breakdown, err := pricing.New(policy).PriceQuote(surfaces, rates, in.Settings)
	if err != nil {
		return err
	}
	return writeJSON(cmd, breakdown.Rounded(), priceIndent)
}

func parseRates(raw map[string]float64) (domain.ChargeRates, error) {
	rates := make(domain.ChargeRates, len(raw))
	for key, rate := range raw {
		t, err := domain.NormalizeSurfaceType(key)
		if err != nil {
			return nil, err
		}
		if rate < 0 {
			return nil, fmt.Errorf("charge rate for %s must not be negative", t)
		}
		rates[t] = rate
	}
	return rates, nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return raw, nil
}
