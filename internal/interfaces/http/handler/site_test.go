package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	activityapp "github.com/gmja/storefront/internal/application/activity"
	"github.com/gmja/storefront/internal/application/admin"
	basketapp "github.com/gmja/storefront/internal/application/basket"
	catalogapp "github.com/gmja/storefront/internal/application/catalog"
	identityapp "github.com/gmja/storefront/internal/application/identity"
	orderapp "github.com/gmja/storefront/internal/application/order"
	wishlistapp "github.com/gmja/storefront/internal/application/wishlist"
	"github.com/gmja/storefront/internal/domain/activity"
	"github.com/gmja/storefront/internal/domain/catalog"
	"github.com/gmja/storefront/internal/domain/identity"
	"github.com/gmja/storefront/internal/i18n"
	"github.com/gmja/storefront/internal/infrastructure/auth"
	"github.com/gmja/storefront/internal/infrastructure/cache"
	"github.com/gmja/storefront/internal/infrastructure/config"
	"github.com/gmja/storefront/internal/infrastructure/event"
	"github.com/gmja/storefront/internal/infrastructure/persistence"
	"github.com/gmja/storefront/internal/infrastructure/persistence/persistencetest"
	"github.com/gmja/storefront/internal/infrastructure/storage"
	"github.com/gmja/storefront/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// site is the whole HTTP layer over an in-memory SQLite database
type site struct {
	t          *testing.T
	db         *gorm.DB
	app        *App
	srv        *Server
	users      *persistence.GormUserRepository
	products   *persistence.GormProductRepository
	categories *persistence.GormCategoryRepository
}

// newSite builds the site from the default configuration with rate limits
// off. configure runs before anything is wired.
func newSite(t *testing.T, configure ...func(*config.Config)) *site {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Defaults()
	cfg.App.Name = "GrandmarketJa"
	cfg.HTTP.RateLimitEnabled = false
	cfg.HTTP.AuthRateLimitEnabled = false
	cfg.URLs.MediaRoot = t.TempDir()
	cfg.URLs.StaticRoot = t.TempDir()
	for _, fn := range configure {
		fn(cfg)
	}

	log := zap.NewNop()
	db := persistencetest.NewSQLite(t)
	users := persistence.NewGormUserRepository(db)
	products := persistence.NewGormProductRepository(db)
	categories := persistence.NewGormCategoryRepository(db)
	orders := persistence.NewGormOrderRepository(db)

	c := cache.NewInMemoryCache()
	t.Cleanup(c.Close)
	media, err := storage.NewLocalStorage(cfg.URLs.MediaRoot, cfg.URLs.MediaURL)
	require.NoError(t, err)

	bus := event.NewInMemoryEventBus(log)
	activitySvc := activityapp.NewActivityService(
		persistence.NewGormActionRepository(db),
		persistence.NewGormFollowRepository(db),
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

	catalogSvc := catalogapp.NewCatalogService(products, categories, persistence.NewGormReviewRepository(db),
		c, media, bus, cfg.URLs.MediaURL, log)
	bus.Subscribe(catalogapp.NewStockHandler(catalogSvc))
	baskets := basketapp.NewBasketService(persistence.NewGormBasketRepository(db), products, log)
	orderSvc := orderapp.NewOrderService(orders, bus, log)
	userSvc := identityapp.NewUserService(users, log)

	bundle, err := i18n.NewBundle(cfg.I18n.DefaultLanguage, cfg.I18n.Languages)
	require.NoError(t, err)
	sessions, err := middleware.NewSessionStore(cfg.App.SecretKey, cfg.Cookie, cfg.Session.MaxAge)
	require.NoError(t, err)

	app := &App{
		Config: cfg,
		Logger: log,
		Auth: identityapp.NewAuthService(users, persistence.NewGormAuthTokenRepository(db),
			auth.NewJWTService(cfg.JWT), auth.NewInMemoryTokenBlacklist(), bus, log),
		Users:    userSvc,
		Catalog:  catalogSvc,
		Baskets:  baskets,
		Checkout: orderapp.NewCheckoutService(baskets, products, persistence.NewGormCheckoutStore(db), bus, log),
		Orders:   orderSvc,
		Wishlist: wishlistapp.NewWishlistService(persistence.NewGormWishlistRepository(db), products, cfg.URLs.MediaURL),
		Activity: activitySvc,
		Admin:    admin.Default(catalogSvc, userSvc, orderSvc, activitySvc),
		Media:    media,
		I18n:     bundle,
		Sessions: sessions,
		Requests: middleware.NewRequestRecorder(50, "/"+ToolbarPrefix),
	}

	srv, err := NewServer(app, "test")
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	return &site{t: t, db: db, app: app, srv: srv, users: users, products: products, categories: categories}
}

func (s *site) user(username string, staff bool) *identity.User {
	s.t.Helper()
	newUser := identity.NewUser
	if staff {
		newUser = identity.NewSuperuser
	}
	u, err := newUser(username, username+"@example.com", "correct-horse-battery")
	require.NoError(s.t, err)
	require.NoError(s.t, s.users.Create(context.Background(), u))
	return u
}

func (s *site) product(title, price string, stock int) *catalog.Product {
	s.t.Helper()
	p, err := catalog.NewProduct(catalog.ProductInput{
		Title: title, Price: decimal.RequireFromString(price), Stock: stock, IsActive: true,
	})
	require.NoError(s.t, err)
	require.NoError(s.t, s.products.Save(context.Background(), p))
	return p
}

// token returns an API token for a user created with s.user
func (s *site) token(username string) string {
	s.t.Helper()
	tok, err := s.app.Auth.ObtainToken(context.Background(), username, "correct-horse-battery")
	require.NoError(s.t, err)
	return tok.Key
}

func (s *site) url(name string, args ...any) string {
	s.t.Helper()
	path, err := s.srv.Links.Reverse(name, args...)
	require.NoError(s.t, err)
	return path
}

// browser keeps cookies between requests like a user agent
type browser struct {
	s       *site
	cookies map[string]*http.Cookie
	header  http.Header
}

func (s *site) browser() *browser {
	return &browser{s: s, cookies: map[string]*http.Cookie{}, header: http.Header{}}
}

func (b *browser) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range b.header {
		req.Header[k] = v
	}
	for _, c := range b.cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	w := httptest.NewRecorder()
	b.s.srv.Engine.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return w
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(http.MethodGet, path, nil, "")
}

func (b *browser) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	return b.do(http.MethodPost, path, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

func (b *browser) sendJSON(method, path string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(b.s.t, err)
		r = bytes.NewReader(raw)
	}
	return b.do(method, path, r, "application/json")
}

// login signs in through the account form
func (b *browser) login(username string) {
	b.s.t.Helper()
	w := b.postForm(b.s.url("account:login"), url.Values{
		"username": {username},
		"password": {"correct-horse-battery"},
	})
	require.Equal(b.s.t, http.StatusFound, w.Code, w.Body.String())
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
