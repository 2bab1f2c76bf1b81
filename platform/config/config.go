// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// RedisConfig provides settings for the shared Redis connection.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// CompletionConfig provides settings for the text-completion backend.
type CompletionConfig interface {
	GetCompletionProvider() string
	GetGeminiAPIKey() string
	GetGeminiModel() string
	GetMoonshotAPIKey() string
	GetMoonshotModel() string
	GetCompletionTimeout() time.Duration
}

// ConversationConfig provides settings for the chat session store.
type ConversationConfig interface {
	GetConversationBackend() string
	GetConversationIdleTTL() time.Duration
	GetJanitorInterval() time.Duration
}

// RateLimitConfig provides settings for the per-account limiters.
type RateLimitConfig interface {
	GetRateLimitBackend() string
	GetQuoteRateLimit() int
	GetQuoteRateWindow() time.Duration
	GetChatRateLimit() int
	GetChatRateWindow() time.Duration
}

// NumberingConfig provides settings for quote number generation.
type NumberingConfig interface {
	GetCounterBackend() string
	GetCounterTimeout() time.Duration
}

// DynamoDBConfig provides settings for the DynamoDB counter backend.
type DynamoDBConfig interface {
	GetAWSRegion() string
	GetDynamoDBEndpoint() string
	GetDynamoDBCounterTable() string
}

// PricingConfig provides settings for the pricing policy.
type PricingConfig interface {
	GetPricingPolicyFile() string
	GetPhoneDefaultRegion() string
	GetConfidenceCriticalFields() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                      string
	HTTPAddr                 string
	DatabaseURL              string
	MigrationsEnabled        bool
	JWTAccessSecret          string
	CORSAllowAll             bool
	CORSOrigins              []string
	CORSAllowCreds           bool
	RedisURL                 string
	RedisTLSInsecure         bool
	CompletionProvider       string
	GeminiAPIKey             string
	GeminiModel              string
	MoonshotAPIKey           string
	MoonshotModel            string
	CompletionTimeout        time.Duration
	ConversationBackend      string
	ConversationIdleTTL      time.Duration
	JanitorInterval          time.Duration
	RateLimitBackend         string
	QuoteRateLimit           int
	QuoteRateWindow          time.Duration
	ChatRateLimit            int
	ChatRateWindow           time.Duration
	CounterBackend           string
	CounterTimeout           time.Duration
	AWSRegion                string
	DynamoDBEndpoint         string
	DynamoDBCounterTable     string
	PricingPolicyFile        string
	PhoneDefaultRegion       string
	ConfidenceCriticalFields int
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// RedisConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) IsRedisEnabled() bool      { return c.RedisURL != "" }

// CompletionConfig implementation
func (c *Config) GetCompletionProvider() string       { return c.CompletionProvider }
func (c *Config) GetGeminiAPIKey() string             { return c.GeminiAPIKey }
func (c *Config) GetGeminiModel() string              { return c.GeminiModel }
func (c *Config) GetMoonshotAPIKey() string           { return c.MoonshotAPIKey }
func (c *Config) GetMoonshotModel() string            { return c.MoonshotModel }
func (c *Config) GetCompletionTimeout() time.Duration { return c.CompletionTimeout }

// ConversationConfig implementation
func (c *Config) GetConversationBackend() string        { return c.ConversationBackend }
func (c *Config) GetConversationIdleTTL() time.Duration { return c.ConversationIdleTTL }
func (c *Config) GetJanitorInterval() time.Duration     { return c.JanitorInterval }

// RateLimitConfig implementation
func (c *Config) GetRateLimitBackend() string       { return c.RateLimitBackend }
func (c *Config) GetQuoteRateLimit() int            { return c.QuoteRateLimit }
func (c *Config) GetQuoteRateWindow() time.Duration { return c.QuoteRateWindow }
func (c *Config) GetChatRateLimit() int             { return c.ChatRateLimit }
func (c *Config) GetChatRateWindow() time.Duration  { return c.ChatRateWindow }

// NumberingConfig implementation
func (c *Config) GetCounterBackend() string        { return c.CounterBackend }
func (c *Config) GetCounterTimeout() time.Duration { return c.CounterTimeout }

// DynamoDBConfig implementation
func (c *Config) GetAWSRegion() string            { return c.AWSRegion }
func (c *Config) GetDynamoDBEndpoint() string     { return c.DynamoDBEndpoint }
func (c *Config) GetDynamoDBCounterTable() string { return c.DynamoDBCounterTable }

// PricingConfig implementation
func (c *Config) GetPricingPolicyFile() string     { return c.PricingPolicyFile }
func (c *Config) GetPhoneDefaultRegion() string    { return c.PhoneDefaultRegion }
func (c *Config) GetConfidenceCriticalFields() int { return c.ConfidenceCriticalFields }

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendDynamoDB = "dynamodb"

	ProviderGemini   = "gemini"
	ProviderMoonshot = "moonshot"
)

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                      getEnv("APP_ENV", "development"),
		HTTPAddr:                 getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		MigrationsEnabled:        strings.EqualFold(getEnv("MIGRATIONS_ENABLED", "true"), "true"),
		JWTAccessSecret:          getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:             corsAllowAll,
		CORSOrigins:              corsOrigins,
		CORSAllowCreds:           strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:                 getEnv("REDIS_URL", ""),
		RedisTLSInsecure:         strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		CompletionProvider:       strings.ToLower(getEnv("COMPLETION_PROVIDER", ProviderGemini)),
		GeminiAPIKey:             getEnv("GEMINI_API_KEY", ""),
		GeminiModel:              getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		MoonshotAPIKey:           getEnv("MOONSHOT_API_KEY", ""),
		MoonshotModel:            getEnv("MOONSHOT_MODEL", "kimi-k2-turbo-preview"),
		CompletionTimeout:        mustDuration(getEnv("COMPLETION_TIMEOUT", "60s")),
		ConversationBackend:      strings.ToLower(getEnv("CONVERSATION_BACKEND", BackendMemory)),
		ConversationIdleTTL:      mustDuration(getEnv("CONVERSATION_IDLE_TTL", "2h")),
		JanitorInterval:          mustDuration(getEnv("JANITOR_INTERVAL", "5m")),
		RateLimitBackend:         strings.ToLower(getEnv("RATE_LIMIT_BACKEND", BackendMemory)),
		QuoteRateLimit:           mustInt(getEnv("QUOTE_RATE_LIMIT", "30")),
		QuoteRateWindow:          mustDuration(getEnv("QUOTE_RATE_WINDOW", "60m")),
		ChatRateLimit:            mustInt(getEnv("CHAT_RATE_LIMIT", "120")),
		ChatRateWindow:           mustDuration(getEnv("CHAT_RATE_WINDOW", "60m")),
		CounterBackend:           strings.ToLower(getEnv("COUNTER_BACKEND", BackendPostgres)),
		CounterTimeout:           mustDuration(getEnv("COUNTER_TIMEOUT", "2s")),
		AWSRegion:                getEnv("AWS_REGION", "us-east-1"),
		DynamoDBEndpoint:         getEnv("DYNAMODB_ENDPOINT", ""),
		DynamoDBCounterTable:     getEnv("DYNAMODB_COUNTER_TABLE", "quote_counters"),
		PricingPolicyFile:        getEnv("PRICING_POLICY_FILE", ""),
		PhoneDefaultRegion:       strings.ToUpper(getEnv("PHONE_DEFAULT_REGION", "US")),
		ConfidenceCriticalFields: mustInt(getEnv("CONFIDENCE_CRITICAL_FIELDS", "10")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTAccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	switch c.CompletionProvider {
	case ProviderGemini, ProviderMoonshot:
	default:
		return fmt.Errorf("COMPLETION_PROVIDER must be %q or %q", ProviderGemini, ProviderMoonshot)
	}
	if err := oneOf("CONVERSATION_BACKEND", c.ConversationBackend, BackendMemory, BackendRedis); err != nil {
		return err
	}
	if err := oneOf("RATE_LIMIT_BACKEND", c.RateLimitBackend, BackendMemory, BackendRedis); err != nil {
		return err
	}
	if err := oneOf("COUNTER_BACKEND", c.CounterBackend, BackendPostgres, BackendRedis, BackendDynamoDB); err != nil {
		return err
	}

	needsRedis := c.ConversationBackend == BackendRedis || c.RateLimitBackend == BackendRedis || c.CounterBackend == BackendRedis
	if needsRedis && c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required when a redis backend is selected")
	}

	if c.QuoteRateLimit < 1 || c.ChatRateLimit < 1 {
		return fmt.Errorf("QUOTE_RATE_LIMIT and CHAT_RATE_LIMIT must be positive")
	}
	if c.QuoteRateWindow <= 0 || c.ChatRateWindow <= 0 {
		return fmt.Errorf("QUOTE_RATE_WINDOW and CHAT_RATE_WINDOW must be positive durations")
	}
	if c.ConversationIdleTTL <= 0 || c.JanitorInterval <= 0 {
		return fmt.Errorf("CONVERSATION_IDLE_TTL and JANITOR_INTERVAL must be positive durations")
	}
	if c.CompletionTimeout <= 0 || c.CounterTimeout <= 0 {
		return fmt.Errorf("COMPLETION_TIMEOUT and COUNTER_TIMEOUT must be positive durations")
	}
	if c.ConfidenceCriticalFields < 1 {
		return fmt.Errorf("CONFIDENCE_CRITICAL_FIELDS must be positive")
	}
	return nil
}

func oneOf(name, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s, got %q", name, strings.Join(allowed, ", "), value)
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
