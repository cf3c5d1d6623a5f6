package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gmja/storefront/internal/infrastructure/logger"
	"github.com/gmja/storefront/internal/interfaces/http/middleware"
	"github.com/gmja/storefront/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// Server is the assembled HTTP layer
type Server struct {
	Engine *gin.Engine
	URLs   *router.URLConf
	Links  *Links

	limiters []*middleware.RateLimiter
}

// Close stops the rate limiters' cleanup goroutines
func (s *Server) Close() {
	for _, rl := range s.limiters {
		rl.Stop()
	}
}

// NewServer builds the engine: global middleware, the root URL table, the
// ambient /health and /metrics endpoints and the 404/405 handlers
func NewServer(app *App, version string) (*Server, error) {
	cfg := app.Config
	log := app.Logger
	if log == nil {
		log = zap.NewNop()
	}

	links := &Links{}
	pages, err := NewRenderer(links, app.I18n, cfg.URLs.StaticURL, cfg.App.Debug)
	if err != nil {
		return nil, err
	}
	srv := &Server{Links: links}

	var authThrottle gin.HandlerFunc
	if cfg.HTTP.AuthRateLimitEnabled {
		rl := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		srv.limiters = append(srv.limiters, rl)
		authThrottle = middleware.RateLimit(rl)
	}

	errs := NewErrorHandler(pages, apiPrefixes(cfg)...)
	schema := NewSchemaHandler(app, links, version)
	v := &views{
		toolbar:      NewToolbarHandler(app, pages, links),
		language:     NewLanguageHandler(app),
		home:         NewHomeHandler(app, pages),
		admin:        NewAdminHandler(app, pages, links, authThrottle),
		users:        NewUserPageHandler(app, pages, links),
		accounts:     NewAccountHandler(app, pages, links, authThrottle),
		shop:         NewStorefrontHandler(app, pages, links),
		shopAPI:      NewStorefrontAPIHandler(app, authThrottle),
		activity:     NewActivityHandler(app),
		files:        NewFileHandler(app, errs.NotFound),
		viewset:      NewUserViewSet(app, links),
		token:        NewAuthTokenHandler(app),
		schema:       schema,
		docs:         NewDocsHandler(links),
		errors:       errs,
		authThrottle: authThrottle,
		docsGuard:    middleware.SwaggerProtection(cfg.Swagger, docsAuth(links)),
	}

	urls, err := RootTable(cfg, app.Media, v).Compile()
	if err != nil {
		return nil, err
	}
	links.Set(urls)
	srv.URLs = urls

	middleware.SetupValidator()

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log, errs.Recovered))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{middleware.RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	security := middleware.DefaultSecurityConfig()
	security.HSTSEnabled = cfg.IsProduction()
	engine.Use(middleware.SecureWithConfig(security))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rl := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		srv.limiters = append(srv.limiters, rl)
		engine.Use(middleware.RateLimit(rl))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	if app.Metrics != nil {
		engine.Use(app.Metrics.Middleware())
	}
	if cfg.Telemetry.Enabled {
		tracing := middleware.DefaultTracingConfig(cfg.Telemetry.ServiceName)
		engine.Use(middleware.Tracing(tracing))
		engine.Use(middleware.SpanEnricher())
	}
	if cfg.Telemetry.ProfilingEnabled {
		engine.Use(middleware.Profiling(middleware.DefaultProfilingConfig()))
	}

	engine.Use(middleware.Sessions(app.Sessions, cfg.Session.Name))
	engine.Use(middleware.Locale(app.I18n, cfg.I18n.CookieName))
	engine.Use(middleware.Authentication(app.Auth))
	if app.Requests != nil {
		engine.Use(app.Requests.Middleware())
	}

	system := NewSystemHandler(app, version)
	engine.GET("/health", system.Health)
	engine.GET("/metrics", system.Metrics)

	urls.Mount(engine, errs.NotFound)
	engine.NoRoute(errs.NotFound)
	engine.NoMethod(errs.MethodNotAllowed)

	log.Info("URL table compiled", zap.Int("routes", len(urls.Routes())), zap.Bool("debug", cfg.App.Debug))
	srv.Engine = engine
	return srv, nil
}
