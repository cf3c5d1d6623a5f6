package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gmja/storefront/internal/infrastructure/config"
	"github.com/gmja/storefront/internal/infrastructure/storage"
	"github.com/gmja/storefront/internal/interfaces/http/middleware"
	"github.com/gmja/storefront/internal/interfaces/http/router"
)

// Root prefixes
const (
	ToolbarPrefix    = "__debug__/"
	ShopPrefix       = "GrandmarketJa/"
	ShopAPIPrefix    = "GrandmarketJa/api/"
	ActivityPrefix   = "GrandmarketJa/activity/"
	APIPrefix        = "gmja/api/"
	AuthTokenPattern = "gmja/api/auth-token/"
	SchemaPattern    = "gmja/api/schema/"
	DocsPattern      = "gmja/api/docs/"
)

// views is every handler mounted by the root table
type views struct {
	toolbar  *ToolbarHandler
	language *LanguageHandler
	home     *HomeHandler
	admin    *AdminHandler
	users    *UserPageHandler
	accounts *AccountHandler
	shop     *StorefrontHandler
	shopAPI  *StorefrontAPIHandler
	activity *ActivityHandler
	files    *FileHandler
	viewset  *UserViewSet
	token    *AuthTokenHandler
	schema   *SchemaHandler
	docs     *DocsHandler
	errors   *ErrorHandler

	// authThrottle limits credential posts; nil when disabled
	authThrottle gin.HandlerFunc
	docsGuard    gin.HandlerFunc
}

// RootTable is the site's URL dispatch table. Order is resolution order.
// Debug-only entries are present only when cfg.App.Debug is set, and the
// toolbar only when it is also installed, in which case it is the first
// entry.
func RootTable(cfg *config.Config, media storage.MediaStorage, v *views) *router.Table {
	t := router.NewTable().
		Include("i18n/", "", v.language.Routes()).
		GET("GrandmarketJa/home", "home", v.home.Home).
		Include(cfg.URLs.AdminURL, "admin", v.admin.Routes()).
		Include("GrandmarketJa/users/", "users", v.users.Routes()).
		Include("GrandmarketJa/accounts/", "account", v.accounts.Routes()).
		Include(ShopPrefix, "storefront", v.shop.Routes()).
		Include(ShopAPIPrefix, "api", v.shopAPI.Routes()).
		Include(ActivityPrefix, "actstream", v.activity.Routes())

	if serveMedia(cfg, media) {
		t.Include(rootPrefix(cfg.URLs.MediaURL), "", v.files.MediaRoutes())
	}
	if cfg.App.Debug {
		t.Include(rootPrefix(cfg.URLs.StaticURL), "", v.files.StaticRoutes())
	}

	token := []gin.HandlerFunc{v.token.ObtainToken}
	if v.authThrottle != nil {
		token = append([]gin.HandlerFunc{v.authThrottle}, token...)
	}
	t.Include(APIPrefix, "api-v1", v.viewset.Routes()).
		POST(AuthTokenPattern, "obtain_auth_token", token...).
		GET(SchemaPattern, "api-schema", v.docsGuard, v.schema.Schema).
		Subtree(DocsPattern, "api-docs", v.docsGuard, v.docs.UI)

	if cfg.App.Debug {
		t.Extend(v.errors.DebugRoutes())
	}
	if cfg.DebugToolbarInstalled() {
		t.Prepend(router.Include{Prefix: ToolbarPrefix, Namespace: "djdt", Table: v.toolbar.Routes()})
	}
	return t
}

// serveMedia reports whether media is routed: local files only in debug
// mode, object storage always (the route redirects to the bucket)
func serveMedia(cfg *config.Config, media storage.MediaStorage) bool {
	if media == nil {
		return false
	}
	if _, local := media.(*storage.LocalStorage); local {
		return cfg.App.Debug
	}
	return true
}

// rootPrefix turns a URL setting like "/media/" into a table prefix
func rootPrefix(url string) string {
	return strings.TrimPrefix(url, "/")
}

// apiPrefixes are the rooted prefixes answered with JSON errors
func apiPrefixes(cfg *config.Config) []string {
	return []string{
		"/" + ShopAPIPrefix,
		"/" + ActivityPrefix,
		"/" + APIPrefix,
		"/" + cfg.URLs.AdminURL,
	}
}

// docsAuth lets staff through to the schema and docs
func docsAuth(links *Links) gin.HandlerFunc {
	return middleware.StaffRequired(func() string { return links.URL("admin:login") })
}
