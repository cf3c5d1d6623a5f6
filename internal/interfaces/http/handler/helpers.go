package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	basketapp "github.com/gmja/storefront/internal/application/basket"
	"github.com/gmja/storefront/internal/domain/shared"
	"github.com/gmja/storefront/internal/infrastructure/logger"
	"github.com/gmja/storefront/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

const maxPageSize = 100

// uintParam reads a path parameter the URL table already validated as int
func uintParam(c *gin.Context, name string) uint {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}

// listFilter reads page, page_size, q and ordering from the query string
func listFilter(c *gin.Context) shared.Filter {
	f := shared.DefaultFilter()
	if page, err := strconv.Atoi(c.Query("page")); err == nil {
		f.Page = page
	}
	if size, err := strconv.Atoi(c.Query("page_size")); err == nil {
		f.PageSize = size
	}
	f.Search = strings.TrimSpace(c.Query("q"))
	return f.WithOrdering(c.Query("ordering")).Normalize(maxPageSize)
}

// basketRef identifies the shopper's basket for this request
func basketRef(c *gin.Context) basketapp.Ref {
	if u := middleware.CurrentUser(c); u != nil {
		id := u.ID
		return basketapp.Ref{UserID: &id}
	}
	return basketapp.Ref{BasketID: middleware.SessionBasketID(c)}
}

// rememberBasket keeps an anonymous shopper's basket in the session
func rememberBasket(c *gin.Context, ref basketapp.Ref, basketID uint) {
	if ref.Anonymous() && basketID != 0 && basketID != ref.BasketID {
		middleware.SetSessionBasketID(c, basketID)
	}
}

// isSafeRedirect accepts only relative URLs on this host: a single leading
// slash, no scheme and no host
func isSafeRedirect(target string) bool {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, `/\`) {
		return false
	}
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}

// safeNext returns next when it is a safe redirect target, otherwise fallback
func safeNext(next, fallback string) string {
	if isSafeRedirect(next) {
		return next
	}
	return fallback
}

// redirect saves the session and answers 302
func redirect(c *gin.Context, location string) {
	saveSession(c)
	c.Redirect(http.StatusFound, location)
}

func saveSession(c *gin.Context) {
	if err := middleware.SaveSession(c); err != nil {
		_ = c.Error(err)
	}
}

// absoluteURL builds an absolute URL for path on the request's host
func absoluteURL(c *gin.Context, path string) string {
	scheme := "http"
	if c.Request.TLS != nil || strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + path
}

// wantsJSON reports whether a request should be answered with the JSON
// error envelope rather than an HTML page
func wantsJSON(c *gin.Context, apiPrefixes []string) bool {
	path := c.Request.URL.Path
	for _, p := range apiPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// translate formats key in the request's language
func translate(c *gin.Context, key string, args ...any) string {
	if p := middleware.Printer(c); p != nil {
		return p.Sprintf(key, args...)
	}
	return fmt.Sprintf(key, args...)
}

// translateText translates a message that is not a format string. Text
// carrying a '%' is returned untranslated.
func translateText(c *gin.Context, text string) string {
	if strings.Contains(text, "%") {
		return text
	}
	return middleware.Printer(c).Sprintf(text)
}

// flash queues a translated message for the next page
func flash(c *gin.Context, key string, args ...any) {
	middleware.AddFlash(c, translate(c, key, args...))
}

// formErrors turns a failed form submission into messages for the page.
// Field errors name the field; domain errors keep their message; anything
// else is logged and reported generically.
func formErrors(c *gin.Context, err error) []string {
	if details := middleware.ValidationDetails(err); len(details) > 0 {
		out := make([]string, 0, len(details))
		for _, d := range details {
			out = append(out, d.Field+": "+d.Message)
		}
		return out
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) && statusForError(err) < http.StatusInternalServerError {
		return []string{translateText(c, domainErr.Message)}
	}
	logger.GetGinLogger(c).Error("Form submission failed", zap.Error(err))
	return []string{translate(c, "Server Error")}
}

// onlyPost applies mw to POST requests of a form view
func onlyPost(mw gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		mw(c)
	}
}
