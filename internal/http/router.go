// Package httpapi wires the HTTP transport (Gin) to middleware and route
// handlers. It centralizes cross-cutting concerns such as tracing,
// correlation IDs, logging, panic recovery, metrics, compression, rate
// limiting, CORS and security headers.
//
// Every failure, including those raised by middleware, is rendered by
// handlers.Error.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-mongo-skeleton/internal/clock"
	"github.com/tbourn/go-mongo-skeleton/internal/config"
	"github.com/tbourn/go-mongo-skeleton/internal/http/handlers"
	"github.com/tbourn/go-mongo-skeleton/internal/http/middleware"
)

// Deps are the shared resources attached to every request.
type Deps struct {
	Clock *clock.Clock
	DB    middleware.Pinger
}

// NewEngine returns a gin.Engine with all routes registered.
func NewEngine(deps Deps, cfg config.Config) *gin.Engine {
	r := gin.New()
	RegisterRoutes(r, deps, cfg)
	return r
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access log
//  4. Recovery: capture panics after logger
//  5. Metrics
//  6. Resources: clock cell and database handle
//  7. Gzip (HTTP_GZIP)
//  8. Rate limiter per IP (RATE_RPS > 0)
//  9. CORS and security headers
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery(middleware.RecoveryOptions{
		Stack:   cfg.Diagnostics.Backtrace > 0,
		OnError: handlers.Error,
	}))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(middleware.Resources(deps.Clock, deps.DB))

	if cfg.HTTP.Gzip {
		r.Use(gzip.Gzip(gzip.DefaultCompression))
	}

	if cfg.HTTP.RateRPS > 0 {
		rl := middleware.NewRateLimiter(cfg.HTTP.RateRPS, cfg.HTTP.RateBurst, middleware.KeyByIP())
		r.Use(rl.Handler(handlers.Error))
	}

	r.Use(cors.New(corsConfig(cfg.HTTP.AllowedOrigins)))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.HTTP.EnableHSTS,
		HSTSMaxAge:   cfg.HTTP.HSTSMaxAge,
		EnablePolicy: true,
	}))

	// Unknown methods on known paths fall through to NoRoute as well.
	r.NoRoute(handlers.NotFound)

	r.GET("/health", handlers.Health)
	r.GET("/ready", handlers.Ready)
}

// corsConfig allows every origin when none are configured. Credentials are
// never allowed.
func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}
