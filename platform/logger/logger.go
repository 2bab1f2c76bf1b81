// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Context key types for storing values in context
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// UserIDKey is the context key for user ID
	UserIDKey contextKey = "user_id"
	// TraceIDKey is the context key for trace ID
	TraceIDKey contextKey = "trace_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// New creates a new logger based on environment
func New(env string) *Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter creates a logger writing to w. Development uses the text
// handler at debug level, every other environment JSON at info level.
func NewWithWriter(env string, w io.Writer) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithContext returns a logger with context values extracted.
// Supports request_id, user_id, and trace_id from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = newLogger.WithRequestID(requestID)
	}

	if userID, ok := ctx.Value(UserIDKey).(string); ok && userID != "" {
		newLogger = newLogger.WithUserID(userID)
	}

	if traceID, ok := ctx.Value(TraceIDKey).(string); ok && traceID != "" {
		newLogger = &Logger{
			Logger: newLogger.With(slog.String("trace_id", traceID)),
		}
	}

	return newLogger
}

// WithRequestID returns a logger with request ID
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("request_id", requestID)),
	}
}

// WithUserID returns a logger with user ID
func (l *Logger) WithUserID(userID string) *Logger {
	return &Logger{
		Logger: l.With(slog.String("user_id", userID)),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// HTTPError logs an HTTP error
func (l *Logger) HTTPError(method, path string, status int, err error, clientIP string) {
	l.Error("http_error",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
		slog.String("client_ip", clientIP),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs rate limit events for a company/user pair.
func (l *Logger) RateLimitExceeded(scope, companyID, userID string, retryAfter time.Duration) {
	l.Warn("rate_limit_exceeded",
		slog.String("scope", scope),
		slog.String("company_id", companyID),
		slog.String("user_id", userID),
		slog.Float64("retry_after_s", retryAfter.Seconds()),
	)
}

// IPRateLimited logs a request rejected by the per-IP abuse guard.
func (l *Logger) IPRateLimited(clientIP, path string, retryAfter time.Duration) {
	l.Warn("ip_rate_limited",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
		slog.Float64("retry_after_s", retryAfter.Seconds()),
	)
}

// ExtractionFailed logs a failed conversation extraction.
func (l *Logger) ExtractionFailed(sessionID string, err error) {
	l.Warn("extraction_failed",
		slog.String("session_id", sessionID),
		slog.String("error", err.Error()),
	)
}

// CounterDegraded logs that quote numbering fell back to the degraded path.
func (l *Logger) CounterDegraded(companyID string, err error) {
	l.Warn("quote_counter_degraded",
		slog.String("company_id", companyID),
		slog.String("error", err.Error()),
	)
}

// QuoteCreated logs a finalized quote.
func (l *Logger) QuoteCreated(companyID, quoteID, quoteNumber string, total float64) {
	l.Info("quote_created",
		slog.String("company_id", companyID),
		slog.String("quote_id", quoteID),
		slog.String("quote_number", quoteNumber),
		slog.Float64("total", total),
	)
}
