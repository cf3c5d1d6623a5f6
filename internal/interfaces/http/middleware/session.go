package middleware

import (
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gmja/storefront/internal/infrastructure/config"
	"github.com/gmja/storefront/internal/infrastructure/logger"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
	"golang.org/x/crypto/hkdf"
)

const (
	sessionContextKey = "session"

	sessionAuthToken = "auth_token"
	sessionBasketID  = "basket_id"
	sessionLastOrder = "last_order"
)

// NewSessionStore builds the signed and encrypted cookie store. Both keys are
// derived from the secret key so rotating it logs everyone out.
func NewSessionStore(secretKey string, cookie config.CookieConfig, maxAge time.Duration) (*sessions.CookieStore, error) {
	hashKey, err := deriveKey(secretKey, "gmja session signing", 64)
	if err != nil {
		return nil, err
	}
	blockKey, err := deriveKey(secretKey, "gmja session encryption", 32)
	if err != nil {
		return nil, err
	}

	store := sessions.NewCookieStore(hashKey, blockKey)
	store.Options = &sessions.Options{
		Path:     cookie.Path,
		Domain:   cookie.Domain,
		MaxAge:   int(maxAge.Seconds()),
		Secure:   cookie.Secure,
		HttpOnly: true,
		SameSite: ParseSameSite(cookie.SameSite),
	}
	store.MaxAge(store.Options.MaxAge)
	return store, nil
}

func deriveKey(secret, info string, size int) ([]byte, error) {
	key := make([]byte, size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("failed to derive session key: %w", err)
	}
	return key, nil
}

// ParseSameSite maps the cookie setting onto http.SameSite; unknown values are lax
func ParseSameSite(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// Sessions loads the session named name for every request. A cookie that
// fails verification starts a fresh session.
func Sessions(store sessions.Store, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := store.Get(c.Request, name)
		if err != nil {
			logger.GetGinLogger(c).Debug("Discarding invalid session cookie", zap.Error(err))
			session, _ = store.New(c.Request, name)
		}
		c.Set(sessionContextKey, session)
		c.Next()
	}
}

// Session returns the request's session, or nil outside Sessions
func Session(c *gin.Context) *sessions.Session {
	if v, ok := c.Get(sessionContextKey); ok {
		if s, ok := v.(*sessions.Session); ok {
			return s
		}
	}
	return nil
}

// SaveSession writes the session cookie. It must run before the response
// body or a redirect is written.
func SaveSession(c *gin.Context) error {
	s := Session(c)
	if s == nil {
		return nil
	}
	return s.Save(c.Request, c.Writer)
}

// SessionAuthToken returns the login token kept in the session
func SessionAuthToken(c *gin.Context) string {
	if s := Session(c); s != nil {
		token, _ := s.Values[sessionAuthToken].(string)
		return token
	}
	return ""
}

// SetSessionAuthToken stores the login token in the session
func SetSessionAuthToken(c *gin.Context, token string) {
	if s := Session(c); s != nil {
		s.Values[sessionAuthToken] = token
	}
}

// SessionBasketID returns the anonymous basket remembered by the session
func SessionBasketID(c *gin.Context) uint {
	if s := Session(c); s != nil {
		id, _ := s.Values[sessionBasketID].(uint)
		return id
	}
	return 0
}

// SetSessionBasketID remembers the anonymous basket; zero forgets it
func SetSessionBasketID(c *gin.Context, id uint) {
	s := Session(c)
	if s == nil {
		return
	}
	if id == 0 {
		delete(s.Values, sessionBasketID)
		return
	}
	s.Values[sessionBasketID] = id
}

// SessionLastOrder returns the number of the order this session placed last
func SessionLastOrder(c *gin.Context) string {
	if s := Session(c); s != nil {
		number, _ := s.Values[sessionLastOrder].(string)
		return number
	}
	return ""
}

// SetSessionLastOrder remembers a placed order so a guest can see its
// confirmation page
func SetSessionLastOrder(c *gin.Context, number string) {
	if s := Session(c); s != nil {
		s.Values[sessionLastOrder] = number
	}
}

// FlushSession drops every value, as logging out does
func FlushSession(c *gin.Context) {
	if s := Session(c); s != nil {
		for k := range s.Values {
			delete(s.Values, k)
		}
	}
}

// AddFlash queues a message for the next rendered page
func AddFlash(c *gin.Context, message string) {
	if s := Session(c); s != nil {
		s.AddFlash(message)
	}
}

// Flashes pops the queued messages. The session must be saved afterwards
// for them to stay consumed.
func Flashes(c *gin.Context) []string {
	s := Session(c)
	if s == nil {
		return nil
	}
	raw := s.Flashes()
	messages := make([]string, 0, len(raw))
	for _, m := range raw {
		if str, ok := m.(string); ok {
			messages = append(messages, str)
		}
	}
	return messages
}
