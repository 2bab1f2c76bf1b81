package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"paintquote_backend/internal/quotes/confidence"
	"paintquote_backend/internal/quotes/domain"
	"paintquote_backend/internal/quotes/extraction"
	"paintquote_backend/internal/quotes/pricing"
	"paintquote_backend/platform/ai/completion"
	"paintquote_backend/platform/config"
	"paintquote_backend/platform/phone"

	"github.com/spf13/cobra"
)

// cliCompletion satisfies config.CompletionConfig from flags and the
// environment, so extraction runs without the server's database settings.
type cliCompletion struct {
	provider string
	model    string
	timeout  time.Duration
}

func (c cliCompletion) GetCompletionProvider() string       { return strings.ToLower(c.provider) }
func (c cliCompletion) GetGeminiAPIKey() string             { return os.Getenv("GEMINI_API_KEY") }
func (c cliCompletion) GetMoonshotAPIKey() string           { return os.Getenv("MOONSHOT_API_KEY") }
func (c cliCompletion) GetCompletionTimeout() time.Duration { return c.timeout }

func (c cliCompletion) GetGeminiModel() string {
	if c.model != "" {
		return c.model
	}
	return "gemini-2.5-flash"
}

func (c cliCompletion) GetMoonshotModel() string {
	return c.model
}

var _ config.CompletionConfig = cliCompletion{}

type extractOutput struct {
	Data      domain.ParsedQuoteData `json:"data"`
	Ready     bool                   `json:"readyForPricing"`
	Questions []string               `json:"questions"`
}

var (
	extractFile   string
	extractRegion string
	extractFlags  cliCompletion
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract quote data from a chat transcript",
	Long: `Sends a JSON transcript ([{"role":"user","content":"..."}]) to the completion
provider and prints the normalized quote data with its clarification questions.`,
	Args: cobra.NoArgs,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractFile, "file", "f", "", "transcript JSON file (- for stdin)")
	extractCmd.Flags().StringVar(&extractFlags.provider, "provider", config.ProviderGemini, "completion provider (gemini or moonshot)")
	extractCmd.Flags().StringVar(&extractFlags.model, "model", "", "provider model name")
	extractCmd.Flags().DurationVar(&extractFlags.timeout, "timeout", 60*time.Second, "completion timeout")
	extractCmd.Flags().StringVar(&extractRegion, "region", "US", "default phone region")
	_ = extractCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	raw, err := readInput(extractFile)
	if err != nil {
		return err
	}

	var turns []domain.ConversationTurn
	if err := json.Unmarshal(raw, &turns); err != nil {
		return fmt.Errorf("parse %s: %w", extractFile, err)
	}
	if len(turns) == 0 {
		return fmt.Errorf("transcript %s has no turns", extractFile)
	}

	svc, err := completion.NewFromConfig(cmd.Context(), extractFlags)
	if err != nil {
		return err
	}
	extractor, err := extraction.New(svc, phone.NewNormalizer(strings.ToUpper(extractRegion)), pricing.DefaultPolicy().DefaultCoats)
	if err != nil {
		return err
	}

	data, err := extractor.Extract(cmd.Context(), turns)
	if err != nil {
		return err
	}
	data = confidence.NewEngine(0).Assess(data)

	return writeJSON(cmd, extractOutput{
		Data:      data,
		Ready:     confidence.IsReadyForPricing(data),
		Questions: confidence.ClarificationQuestions(data),
	}, true)
}

func writeJSON(cmd *cobra.Command, v any, indent bool) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
