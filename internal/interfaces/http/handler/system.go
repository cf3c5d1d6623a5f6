package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gmja/storefront/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

// SystemHandler serves the liveness and metrics endpoints
type SystemHandler struct {
	name      string
	version   string
	startTime time.Time
	db        Pinger
	metrics   *middleware.HTTPMetrics
	logger    *zap.Logger
}

// NewSystemHandler creates the system endpoints
func NewSystemHandler(app *App, version string) *SystemHandler {
	return &SystemHandler{
		name:      app.Config.App.Name,
		version:   version,
		startTime: time.Now(),
		db:        app.DB,
		metrics:   app.Metrics,
		logger:    app.Logger,
	}
}

// HealthResponse is the body of /health
type HealthResponse struct {
	Status    string `json:"status" example:"healthy"`
	Name      string `json:"name" example:"GrandmarketJa"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
	Database  string `json:"database" example:"ok"`
}

// Health reports 200 when the database answers and 503 otherwise
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Database:  "ok",
	}
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			if h.logger != nil {
				h.logger.Warn("Health check failed", zap.Error(err))
			}
			resp.Status = "unhealthy"
			resp.Database = "error"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Metrics exposes the Prometheus registry, or 404 when metrics are off
func (h *SystemHandler) Metrics(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusNotFound)
		return
	}
	gin.WrapH(h.metrics.Handler())(c)
}
