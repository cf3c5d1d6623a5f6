// Package middleware provides the storefront's HTTP middleware: request ids,
// security headers, sessions, authentication, locale negotiation, rate
// limiting and observability.
package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gmja/storefront/internal/infrastructure/logger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware
type TracingConfig struct {
	ServiceName string
	Enabled     bool
	// SkipPaths are never traced (health checks, scrapes)
	SkipPaths []string
}

// DefaultTracingConfig returns default tracing configuration
func DefaultTracingConfig(serviceName string) TracingConfig {
	return TracingConfig{
		ServiceName: serviceName,
		Enabled:     true,
		SkipPaths:   []string{"/health", "/metrics"},
	}
}

// Tracing wraps otelgin. Spans are named after the gin route pattern.
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return otelgin.Middleware(cfg.ServiceName,
		otelgin.WithFilter(func(r *http.Request) bool {
			return !slices.Contains(cfg.SkipPaths, r.URL.Path)
		}),
	)
}

// SpanEnricher must be registered after Tracing. Once the request is handled
// it adds the request id, route name and user id to the span and marks
// responses >= 500 as failed.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		enrichSpan(c)
	}
}

func enrichSpan(c *gin.Context) {
	span := trace.SpanFromContext(c.Request.Context())
	if !span.IsRecording() {
		return
	}
	if id := c.GetString(logger.GinRequestIDKey); id != "" {
		span.SetAttributes(attribute.String("request_id", id))
	}
	if route := c.GetString(logger.GinRouteNameKey); route != "" {
		span.SetAttributes(attribute.String("route_name", route))
	}
	if uid := c.GetString(logger.GinUserIDKey); uid != "" {
		span.SetAttributes(attribute.String("user_id", uid))
	}
	if status := c.Writer.Status(); status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(status))
	}
}
