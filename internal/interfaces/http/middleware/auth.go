package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	identityapp "github.com/gmja/storefront/internal/application/identity"
	"github.com/gmja/storefront/internal/domain/identity"
	"github.com/gmja/storefront/internal/infrastructure/logger"
	"github.com/gmja/storefront/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Context keys and headers used by authentication
const (
	PrincipalKey  = "principal"
	AuthHeaderKey = "Authorization"
)

// Authenticator resolves credentials into a principal
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (*identityapp.Principal, error)
	AuthenticateSession(ctx context.Context, token string) (*identityapp.Principal, error)
}

// Authentication identifies the user without requiring one. An
// Authorization header (Token or Bearer) takes precedence over the session;
// a bad header is rejected with 401. A stale session token is dropped and
// the request continues anonymously.
func Authentication(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if header := c.GetHeader(AuthHeaderKey); header != "" {
			principal, err := authn.Authenticate(ctx, header)
			if err != nil {
				abortUnauthenticated(c, err)
				return
			}
			setPrincipal(c, principal)
			c.Next()
			return
		}

		if token := SessionAuthToken(c); token != "" {
			principal, err := authn.AuthenticateSession(ctx, token)
			switch {
			case err == nil:
				setPrincipal(c, principal)
			case errors.Is(err, identityapp.ErrNotAuthenticated):
				SetSessionAuthToken(c, "")
				if saveErr := SaveSession(c); saveErr != nil {
					logger.GetGinLogger(c).Warn("Failed to clear session token", zap.Error(saveErr))
				}
			default:
				logger.GetGinLogger(c).Error("Session authentication failed", zap.Error(err))
			}
		}
		c.Next()
	}
}

func setPrincipal(c *gin.Context, p *identityapp.Principal) {
	c.Set(PrincipalKey, p)
	uid := strconv.FormatUint(uint64(p.User.ID), 10)
	c.Set(logger.GinUserIDKey, uid)
	ctx, _ := logger.WithUserID(c.Request.Context(), logger.GetGinLogger(c), uid)
	c.Request = c.Request.WithContext(ctx)
}

func abortUnauthenticated(c *gin.Context, err error) {
	if !errors.Is(err, identityapp.ErrNotAuthenticated) {
		logger.GetGinLogger(c).Error("Authentication failed", zap.Error(err))
	}
	c.Header("WWW-Authenticate", `Token realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeUnauthorized,
		identityapp.ErrNotAuthenticated.Message,
		c.GetString(logger.GinRequestIDKey),
	))
}

// CurrentPrincipal returns the authenticated principal or nil
func CurrentPrincipal(c *gin.Context) *identityapp.Principal {
	if v, ok := c.Get(PrincipalKey); ok {
		if p, ok := v.(*identityapp.Principal); ok {
			return p
		}
	}
	return nil
}

// CurrentUser returns the authenticated user or nil
func CurrentUser(c *gin.Context) *identity.User {
	if p := CurrentPrincipal(c); p != nil {
		return p.User
	}
	return nil
}

// LoginRequired redirects anonymous visitors to loginURL?next=<path>
func LoginRequired(loginURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentPrincipal(c) == nil {
			c.Redirect(http.StatusFound, LoginURLWithNext(loginURL, c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		c.Next()
	}
}

// APIAuthRequired answers anonymous API requests with 401
func APIAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentPrincipal(c) == nil {
			abortUnauthenticated(c, identityapp.ErrNotAuthenticated)
			return
		}
		c.Next()
	}
}

// StaffRequired lets active staff through. Anonymous visitors are sent to
// loginURL; authenticated non-staff users get 403.
func StaffRequired(loginURL func() string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := CurrentPrincipal(c)
		if principal == nil {
			c.Redirect(http.StatusFound, LoginURLWithNext(loginURL(), c.Request.URL.RequestURI()))
			c.Abort()
			return
		}
		if !principal.IsStaff() {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden,
				"You do not have permission to perform this action.",
				c.GetString(logger.GinRequestIDKey),
			))
			return
		}
		c.Next()
	}
}

// LoginURLWithNext appends next to the login URL's query
func LoginURLWithNext(loginURL, next string) string {
	u, err := url.Parse(loginURL)
	if err != nil {
		return loginURL
	}
	q := u.Query()
	q.Set("next", next)
	u.RawQuery = q.Encode()
	return u.String()
}
