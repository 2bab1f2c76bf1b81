// Package http holds what the router needs from the composition root and
// the contract HTTP-facing modules implement.
package http

import (
	"context"

	"paintquote_backend/platform/config"
	"paintquote_backend/platform/httpkit"
	"paintquote_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// RouterConfig is the slice of configuration the router reads.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker backs GET /api/health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Module mounts a bounded context's endpoints.
type Module interface {
	// Name is used in startup logs.
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext is handed to every module during route registration.
type RouterContext struct {
	// V1 is the public /api/v1 group.
	V1 *gin.RouterGroup
	// Protected is V1 behind AuthRequired; handlers can rely on an identity.
	Protected *gin.RouterGroup
	Logger    *logger.Logger
}

// App is assembled in cmd/api and consumed by router.New.
type App struct {
	Config RouterConfig
	Logger *logger.Logger
	// Health may be nil, in which case the health endpoint always reports ok.
	Health HealthChecker
	// IPLimiter guards every route per client IP. The composition root owns
	// it so the janitor can sweep idle IPs; nil gets a private default.
	IPLimiter *httpkit.IPRateLimiter
	Modules   []Module
}
