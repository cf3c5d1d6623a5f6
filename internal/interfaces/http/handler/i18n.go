package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/gmja/storefront/internal/i18n"
	"github.com/gmja/storefront/internal/infrastructure/config"
	"github.com/gmja/storefront/internal/interfaces/http/middleware"
	"github.com/gmja/storefront/internal/interfaces/http/router"
)

// LanguageHandler switches the interface language
type LanguageHandler struct {
	bundle *i18n.Bundle
	cookie config.CookieConfig
	name   string
	maxAge int
}

// NewLanguageHandler creates the language switcher
func NewLanguageHandler(app *App) *LanguageHandler {
	return &LanguageHandler{
		bundle: app.I18n,
		cookie: app.Config.Cookie,
		name:   app.Config.I18n.CookieName,
		maxAge: int(app.Config.Session.MaxAge.Seconds()),
	}
}

// Routes returns the i18n URL table
func (h *LanguageHandler) Routes() *router.Table {
	return router.NewTable().POST("setlang/", "set_language", h.SetLanguage)
}

// SetLanguage stores a supported language in the language cookie and
// redirects to next, the referer or the site root, whichever is the first
// safe same-site URL. Unsupported languages are ignored.
func (h *LanguageHandler) SetLanguage(c *gin.Context) {
	if lang := c.PostForm("language"); lang != "" && h.bundle.Supported(lang) {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     h.name,
			Value:    lang,
			Path:     h.cookie.Path,
			Domain:   h.cookie.Domain,
			MaxAge:   h.maxAge,
			Secure:   h.cookie.Secure,
			SameSite: middleware.ParseSameSite(h.cookie.SameSite),
		})
	}

	next := c.PostForm("next")
	if next == "" {
		next = c.Query("next")
	}
	if !isSafeRedirect(next) {
		next = refererPath(c)
	}
	c.Redirect(http.StatusFound, safeNext(next, "/"))
}

// refererPath returns the path of a same-host referer, or ""
func refererPath(c *gin.Context) string {
	ref, err := url.Parse(c.Request.Referer())
	if err != nil || ref.Host != c.Request.Host {
		return ""
	}
	return ref.RequestURI()
}
