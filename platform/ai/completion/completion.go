// Package completion is the black-box text-completion contract used by the
// quote extractor: a prompt goes in, model text comes out. Providers are
// swappable behind the Service interface.
package completion

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/timeout"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// ErrEmptyCompletion is returned when the provider answers with no text.
var ErrEmptyCompletion = errors.New("completion: empty response")

// Request is a single completion call.
type Request struct {
	System      string
	Prompt      string
	Temperature float32
	// JSON asks the provider for JSON mode where it supports one.
	JSON bool
}

// Service produces model text for a prompt.
type Service interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ServiceFunc adapts a function to Service. Mostly useful in tests.
type ServiceFunc func(ctx context.Context, req Request) (string, error)

func (f ServiceFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// LLMService drives any ADK model.LLM (e.g. the Moonshot adapter).
type LLMService struct {
	llm model.LLM
}

func NewLLMService(llm model.LLM) *LLMService {
	return &LLMService{llm: llm}
}

func (s *LLMService) Complete(ctx context.Context, req Request) (string, error) {
	llmReq := &model.LLMRequest{
		Model:    s.llm.Name(),
		Contents: []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)},
		Config:   buildConfig(req),
	}

	var sb strings.Builder
	for resp, err := range s.llm.GenerateContent(ctx, llmReq, false) {
		if err != nil {
			return "", err
		}
		if resp == nil || resp.Content == nil {
			continue
		}
		for _, part := range resp.Content.Parts {
			if part != nil {
				sb.WriteString(part.Text)
			}
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

// GeminiService calls the Gemini API directly through the genai SDK.
type GeminiService struct {
	client *genai.Client
	model  string
}

// NewGeminiService builds a Gemini-backed completion service.
func NewGeminiService(ctx context.Context, apiKey, modelName string) (*GeminiService, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("completion: gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiService{client: client, model: modelName}, nil
}

func (s *GeminiService) Complete(ctx context.Context, req Request) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}
	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, buildConfig(req))
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

func buildConfig(req Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(req.Temperature),
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}

// WithTimeout bounds every call to inner by d. The call is never retried:
// a failed extraction is reported to the user instead.
func WithTimeout(inner Service, d time.Duration) Service {
	return &timedService{inner: inner, d: d}
}

type timedService struct {
	inner Service
	d     time.Duration
}

func (s *timedService) Complete(ctx context.Context, req Request) (string, error) {
	t := timeout.New[string](timeout.Config{DefaultTimeout: s.d})
	return t.Execute(ctx, s.d, func(ctx context.Context) (string, error) {
		return s.inner.Complete(ctx, req)
	})
}
