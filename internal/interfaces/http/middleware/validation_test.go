package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gmja/storefront/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupForm struct {
	Username string `json:"username" form:"username" binding:"required,username,max=150"`
	Email    string `json:"email" binding:"omitempty,email"`
	Slug     string `form:"slug" binding:"omitempty,slug"`
	Age      int    `json:"age" binding:"omitempty,min=18"`
}

func TestFormatValidationErrors(t *testing.T) {
	SetupValidator()
	SetupValidator()

	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req signupForm
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req))
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("reports every invalid field by its json name", func(t *testing.T) {
		w := post(`{"username": "ann lee", "email": "nope", "age": 10}`)
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)

		fields := map[string]string{}
		for _, d := range resp.Error.Details {
			fields[d.Field] = d.Message
		}
		assert.Contains(t, fields["username"], "valid username")
		assert.Equal(t, "Enter a valid email address", fields["email"])
		assert.Equal(t, "Must be at least 18", fields["age"])
	})

	t.Run("accepts valid input", func(t *testing.T) {
		w := post(`{"username": "ann.lee@shop", "email": "ann@example.com", "age": 30}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestSlugTag(t *testing.T) {
	SetupValidator()

	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req signupForm
		req.Username = "x"
		if err := c.ShouldBind(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	send := func(slug string) int {
		req := httptest.NewRequest(http.MethodPost, "/test?username=x", strings.NewReader("username=x&slug="+slug))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, send("dark-rum_1"))
	assert.Equal(t, http.StatusBadRequest, send("dark%20rum"))
}

func TestValidationDetails_NonValidatorError(t *testing.T) {
	assert.Nil(t, ValidationDetails(errors.New("boom")))
}
