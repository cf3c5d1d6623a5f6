package handler

import (
	"context"

	activityapp "github.com/gmja/storefront/internal/application/activity"
	"github.com/gmja/storefront/internal/application/admin"
	basketapp "github.com/gmja/storefront/internal/application/basket"
	catalogapp "github.com/gmja/storefront/internal/application/catalog"
	identityapp "github.com/gmja/storefront/internal/application/identity"
	orderapp "github.com/gmja/storefront/internal/application/order"
	wishlistapp "github.com/gmja/storefront/internal/application/wishlist"
	"github.com/gmja/storefront/internal/i18n"
	"github.com/gmja/storefront/internal/infrastructure/config"
	"github.com/gmja/storefront/internal/infrastructure/storage"
	"github.com/gmja/storefront/internal/interfaces/http/middleware"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// Pinger reports whether the database answers
type Pinger interface {
	Ping(ctx context.Context) error
}

// App carries everything the HTTP layer is built from. cmd/server fills it
// in; tests fill it with in-memory infrastructure.
type App struct {
	Config *config.Config
	Logger *zap.Logger

	Auth     *identityapp.AuthService
	Users    *identityapp.UserService
	Catalog  *catalogapp.CatalogService
	Baskets  *basketapp.BasketService
	Checkout *orderapp.CheckoutService
	Orders   *orderapp.OrderService
	Wishlist *wishlistapp.WishlistService
	Activity *activityapp.ActivityService
	Admin    *admin.Registry

	Media    storage.MediaStorage
	I18n     *i18n.Bundle
	Sessions sessions.Store
	DB       Pinger

	// Metrics and Requests are optional
	Metrics  *middleware.HTTPMetrics
	Requests *middleware.RequestRecorder
}

// loginURL is the configured login page
func (a *App) loginURL() string {
	return a.Config.URLs.LoginURL
}
