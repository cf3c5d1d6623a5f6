package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gmja/storefront/internal/domain/basket"
	"github.com/gmja/storefront/internal/domain/shared"
	"github.com/gmja/storefront/internal/i18n"
	"github.com/gmja/storefront/internal/infrastructure/logger"
	"github.com/gmja/storefront/internal/interfaces/http/dto"
	"github.com/gmja/storefront/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(req *http.Request) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c, w
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*gin.Context)
		expectedID string
	}{
		{
			name:       "from context",
			setup:      func(c *gin.Context) { c.Set(logger.GinRequestIDKey, "ctx-request-id") },
			expectedID: "ctx-request-id",
		},
		{
			name:       "from header when context empty",
			setup:      func(c *gin.Context) { c.Request.Header.Set(middleware.RequestIDHeader, "header-request-id") },
			expectedID: "header-request-id",
		},
		{
			name:       "empty when not set",
			setup:      func(*gin.Context) {},
			expectedID: "",
		},
		{
			name: "context takes precedence over header",
			setup: func(c *gin.Context) {
				c.Set(logger.GinRequestIDKey, "ctx-id")
				c.Request.Header.Set(middleware.RequestIDHeader, "header-id")
			},
			expectedID: "ctx-id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext(httptest.NewRequest(http.MethodGet, "/", nil))
			tt.setup(c)
			assert.Equal(t, tt.expectedID, getRequestID(c))
		})
	}
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"wrapped not found", errors.Join(errors.New("lookup"), shared.ErrNotFound), http.StatusNotFound, dto.ErrCodeNotFound},
		{"business rule", basket.ErrEmptyBasket, http.StatusUnprocessableEntity, dto.ErrCodeEmptyBasket},
		{"insufficient stock", shared.ErrInsufficientStock, http.StatusUnprocessableEntity, dto.ErrCodeInsufficientStock},
		{"unmapped input code", shared.NewDomainError("INVALID_SLUG", "bad slug"), http.StatusBadRequest, "INVALID_SLUG"},
		{"plain error", errors.New("database down"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	h := &BaseHandler{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext(httptest.NewRequest(http.MethodGet, "/", nil))
			c.Set(logger.GinRequestIDKey, "req-1")

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
		})
	}

	t.Run("nil error writes nothing", func(t *testing.T) {
		c, w := newTestContext(httptest.NewRequest(http.MethodGet, "/", nil))
		h.HandleError(c, nil)
		assert.Zero(t, w.Body.Len())
	})
}

func TestBaseHandler_BindError(t *testing.T) {
	middleware.SetupValidator()

	type body struct {
		Email string `json:"email" binding:"required,email"`
	}
	h := &BaseHandler{}

	t.Run("validation details", func(t *testing.T) {
		c, w := newTestContext(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope"}`)))
		c.Request.Header.Set("Content-Type", "application/json")
		var b body
		h.BindError(c, c.ShouldBindJSON(&b))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "email", resp.Error.Details[0].Field)
	})

	t.Run("malformed json", func(t *testing.T) {
		c, w := newTestContext(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`)))
		c.Request.Header.Set("Content-Type", "application/json")
		var b body
		h.BindError(c, c.ShouldBindJSON(&b))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeInvalidJSON, resp.Error.Code)
	})
}

func TestBaseHandler_Envelopes(t *testing.T) {
	h := &BaseHandler{}

	c, w := newTestContext(httptest.NewRequest(http.MethodGet, "/", nil))
	h.Created(c, gin.H{"id": 1})
	assert.Equal(t, http.StatusCreated, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	c, w = newTestContext(httptest.NewRequest(http.MethodGet, "/", nil))
	h.SuccessWithMeta(c, []int{1, 2}, 12, 2, 5)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(12), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)

	assert.Equal(t, http.StatusNotFound, statusForError(shared.ErrNotFound))
	assert.Equal(t, http.StatusInternalServerError, statusForError(errors.New("x")))
}

func TestFormErrors_DomainMessage(t *testing.T) {
	bundle, err := i18n.NewBundle("en", []string{"es"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"literal percent", shared.NewDomainError("INVALID_STATE", "Discount of 100% exceeds the price"), "Discount of 100% exceeds the price"},
		{"verb in user input", shared.NewDomainError("INVALID_STATE", `Unknown order status "%s%d"`), `Unknown order status "%s%d"`},
		{"catalog key", shared.NewDomainError("INVALID_STATE", "Sign in"), "Iniciar sesión"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/GrandmarketJa/checkout/", nil)
			req.Header.Set("Accept-Language", "es")
			c, _ := newTestContext(req)
			middleware.Locale(bundle, "django_language")(c)

			assert.Equal(t, []string{tt.expected}, formErrors(c, tt.err))
		})
	}
}
