package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	activityapp "github.com/gmja/storefront/internal/application/activity"
	"github.com/gmja/storefront/internal/application/admin"
	basketapp "github.com/gmja/storefront/internal/application/basket"
	catalogapp "github.com/gmja/storefront/internal/application/catalog"
	identityapp "github.com/gmja/storefront/internal/application/identity"
	orderapp "github.com/gmja/storefront/internal/application/order"
	wishlistapp "github.com/gmja/storefront/internal/application/wishlist"
	"github.com/gmja/storefront/internal/domain/activity"
	"github.com/gmja/storefront/internal/i18n"
	"github.com/gmja/storefront/internal/infrastructure/auth"
	"github.com/gmja/storefront/internal/infrastructure/cache"
	"github.com/gmja/storefront/internal/infrastructure/config"
	"github.com/gmja/storefront/internal/infrastructure/event"
	"github.com/gmja/storefront/internal/infrastructure/logger"
	"github.com/gmja/storefront/internal/infrastructure/persistence"
	"github.com/gmja/storefront/internal/infrastructure/scheduler"
	"github.com/gmja/storefront/internal/infrastructure/storage"
	"github.com/gmja/storefront/internal/infrastructure/telemetry"
	"github.com/gmja/storefront/internal/interfaces/http/handler"
	"github.com/gmja/storefront/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting storefront",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.Bool("debug", cfg.App.Debug),
		zap.String("version", version),
	)

	if err := logger.InitSentry(cfg.Sentry.DSN, cfg.Sentry.Environment, version); err != nil {
		log.Warn("Error reporting disabled", zap.Error(err))
	}
	defer logger.FlushSentry(2 * time.Second)

	ctx := context.Background()

	tracer, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, version, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	profiler, err := telemetry.NewProfiler(cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() { _ = profiler.Stop() }()

	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{
		Logger:   log,
		LogLevel: logger.MapGormLogLevel(cfg.Log.Level),
		Tracing:  cfg.Telemetry.Enabled,
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Database.Driver == "sqlite" {
		if err := persistence.AutoMigrate(ctx, db.DB); err != nil {
			log.Fatal("Failed to create schema", zap.Error(err))
		}
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	// Redis backs the cache and the token blacklist when reachable
	var (
		pageCache cache.Cache
		blacklist auth.TokenBlacklist
	)
	if rdb := cache.ConnectOptional(ctx, cfg.Redis, log); rdb != nil {
		defer func() { _ = rdb.Close() }()
		pageCache = cache.NewRedisCache(rdb, "gmja:")
		blacklist = auth.NewRedisTokenBlacklist(rdb)
	} else {
		mem := cache.NewInMemoryCache()
		defer mem.Close()
		pageCache = mem
		blacklist = auth.NewInMemoryTokenBlacklist()
	}

	media, err := storage.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize media storage", zap.Error(err))
	}

	// Repositories
	users := persistence.NewGormUserRepository(db.DB)
	products := persistence.NewGormProductRepository(db.DB)
	categories := persistence.NewGormCategoryRepository(db.DB)
	orders := persistence.NewGormOrderRepository(db.DB)

	// Activity streams record what the other services publish
	bus := event.NewInMemoryEventBus(log)
	activitySvc := activityapp.NewActivityService(
		persistence.NewGormActionRepository(db.DB),
		persistence.NewGormFollowRepository(db.DB),
		activityapp.Finders{
			activity.ContentTypeUser:     activityapp.Finder(users.FindByID),
			activity.ContentTypeProduct:  activityapp.Finder(products.FindByID),
			activity.ContentTypeCategory: activityapp.Finder(categories.FindByID),
			activity.ContentTypeOrder:    activityapp.Finder(orders.FindByID),
		},
		log,
	)
	stream := activityapp.NewStreamHandler(activitySvc)
	bus.Subscribe(stream, stream.EventTypes()...)
	log.Info("Event handlers registered", zap.Strings("activity_stream_events", stream.EventTypes()))

	// Services
	catalogSvc := catalogapp.NewCatalogService(products, categories, persistence.NewGormReviewRepository(db.DB),
		pageCache, media, bus, cfg.URLs.MediaURL, log)
	bus.Subscribe(catalogapp.NewStockHandler(catalogSvc))
	baskets := basketapp.NewBasketService(persistence.NewGormBasketRepository(db.DB), products, log)
	orderSvc := orderapp.NewOrderService(orders, bus, log)
	userSvc := identityapp.NewUserService(users, log)
	authSvc := identityapp.NewAuthService(users, persistence.NewGormAuthTokenRepository(db.DB),
		auth.NewJWTService(cfg.JWT), blacklist, bus, log)

	bundle, err := i18n.NewBundle(cfg.I18n.DefaultLanguage, cfg.I18n.Languages)
	if err != nil {
		log.Fatal("Failed to load translations", zap.Error(err))
	}
	sessionStore, err := middleware.NewSessionStore(cfg.App.SecretKey, cfg.Cookie, cfg.Session.MaxAge)
	if err != nil {
		log.Fatal("Failed to create session store", zap.Error(err))
	}

	if cfg.Scheduler.Enabled {
		jobs := scheduler.NewScheduler(cfg.Scheduler, log)
		if err := jobs.Register(scheduler.PurgeBaskets(baskets, cfg.Scheduler)); err != nil {
			log.Fatal("Failed to register housekeeping task", zap.Error(err))
		}
		if err := jobs.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := jobs.Stop(stopCtx); err != nil {
				log.Error("Error stopping scheduler", zap.Error(err))
			}
		}()
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	app := &handler.App{
		Config:   cfg,
		Logger:   log,
		Auth:     authSvc,
		Users:    userSvc,
		Catalog:  catalogSvc,
		Baskets:  baskets,
		Checkout: orderapp.NewCheckoutService(baskets, products, persistence.NewGormCheckoutStore(db.DB), bus, log),
		Orders:   orderSvc,
		Wishlist: wishlistapp.NewWishlistService(persistence.NewGormWishlistRepository(db.DB), products, cfg.URLs.MediaURL),
		Activity: activitySvc,
		Admin:    admin.Default(catalogSvc, userSvc, orderSvc, activitySvc),
		Media:    media,
		I18n:     bundle,
		Sessions: sessionStore,
		DB:       db,
		Metrics:  middleware.NewHTTPMetrics("gmja"),
	}
	if cfg.DebugToolbarInstalled() {
		app.Requests = middleware.NewRequestRecorder(100, "/"+handler.ToolbarPrefix)
	}

	server, err := handler.NewServer(app, version)
	if err != nil {
		log.Fatal("Failed to build URL table", zap.Error(err))
	}
	defer server.Close()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        server.Engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
