package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gmja/storefront/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionStore(t *testing.T) {
	store, err := NewSessionStore("secret", config.CookieConfig{
		Path:     "/",
		Domain:   "shop.example",
		Secure:   true,
		SameSite: "Strict",
	}, 2*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 7200, store.Options.MaxAge)
	assert.True(t, store.Options.HttpOnly)
	assert.True(t, store.Options.Secure)
	assert.Equal(t, http.SameSiteStrictMode, store.Options.SameSite)
	assert.Equal(t, "shop.example", store.Options.Domain)
}

func TestDeriveKey(t *testing.T) {
	a, err := deriveKey("secret", "one", 32)
	require.NoError(t, err)
	b, err := deriveKey("secret", "two", 32)
	require.NoError(t, err)
	again, err := deriveKey("secret", "one", 32)
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, again)
}

func TestParseSameSite(t *testing.T) {
	assert.Equal(t, http.SameSiteStrictMode, ParseSameSite("strict"))
	assert.Equal(t, http.SameSiteNoneMode, ParseSameSite("None"))
	assert.Equal(t, http.SameSiteLaxMode, ParseSameSite("lax"))
	assert.Equal(t, http.SameSiteLaxMode, ParseSameSite(""))
}

func TestSessionValues(t *testing.T) {
	store, err := NewSessionStore("secret", config.CookieConfig{Path: "/"}, time.Hour)
	require.NoError(t, err)

	router := gin.New()
	router.Use(Sessions(store, "sessionid"))
	router.POST("/basket", func(c *gin.Context) {
		SetSessionBasketID(c, 42)
		SetSessionAuthToken(c, "jwt")
		SetSessionLastOrder(c, "100001")
		AddFlash(c, "Product added to your basket")
		require.NoError(t, SaveSession(c))
		c.Status(http.StatusNoContent)
	})
	router.GET("/basket", func(c *gin.Context) {
		flashes := Flashes(c)
		require.NoError(t, SaveSession(c))
		c.String(http.StatusOK, "%d|%s|%s|%s", SessionBasketID(c), SessionAuthToken(c), SessionLastOrder(c), strings.Join(flashes, ","))
	})
	router.POST("/logout", func(c *gin.Context) {
		FlushSession(c)
		require.NoError(t, SaveSession(c))
		c.Status(http.StatusNoContent)
	})

	w := serve(router, httptest.NewRequest(http.MethodPost, "/basket", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sessionid", cookies[0].Name)

	get := func(cookies []*http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/basket", nil)
		for _, ck := range cookies {
			req.AddCookie(ck)
		}
		return serve(router, req)
	}

	first := get(cookies)
	assert.Equal(t, "42|jwt|100001|Product added to your basket", first.Body.String())

	// flashes are consumed once
	second := get(first.Result().Cookies())
	assert.Equal(t, "42|jwt|100001|", second.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	for _, ck := range second.Result().Cookies() {
		req.AddCookie(ck)
	}
	out := serve(router, req)
	assert.Equal(t, "0|||", get(out.Result().Cookies()).Body.String())
}

func TestSessionHelpers_NoSession(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	assert.Nil(t, Session(c))
	assert.Empty(t, SessionAuthToken(c))
	assert.Zero(t, SessionBasketID(c))
	assert.Nil(t, Flashes(c))
	assert.NoError(t, SaveSession(c))
	SetSessionBasketID(c, 1)
	SetSessionAuthToken(c, "x")
	AddFlash(c, "x")
	FlushSession(c)
}
