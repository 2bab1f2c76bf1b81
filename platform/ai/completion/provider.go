package completion

import (
	"context"
	"errors"
	"fmt"

	"paintquote_backend/platform/ai/moonshot"
	"paintquote_backend/platform/config"
)

// NewFromConfig builds the configured provider wrapped in the completion
// timeout.
func NewFromConfig(ctx context.Context, cfg config.CompletionConfig) (Service, error) {
	var svc Service
	switch cfg.GetCompletionProvider() {
	case config.ProviderMoonshot:
		if cfg.GetMoonshotAPIKey() == "" {
			return nil, errors.New("MOONSHOT_API_KEY is required for the moonshot provider")
		}
		svc = NewLLMService(moonshot.NewModel(moonshot.Config{
			APIKey: cfg.GetMoonshotAPIKey(),
			Model:  cfg.GetMoonshotModel(),
		}))
	case config.ProviderGemini:
		gemini, err := NewGeminiService(ctx, cfg.GetGeminiAPIKey(), cfg.GetGeminiModel())
		if err != nil {
			return nil, err
		}
		svc = gemini
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.GetCompletionProvider())
	}
	return WithTimeout(svc, cfg.GetCompletionTimeout()), nil
}
