package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	identityapp "github.com/gmja/storefront/internal/application/identity"
	"github.com/gmja/storefront/internal/domain/identity"
)

const fieldRequired = "This field is required."

type authTokenRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// AuthTokenHandler hands out API tokens for a username and password. Its
// error bodies follow the REST framework's serializer errors:
// field -> messages, with "non_field_errors" for bad credentials.
type AuthTokenHandler struct {
	BaseHandler
	auth *identityapp.AuthService
}

// NewAuthTokenHandler creates the token view
func NewAuthTokenHandler(app *App) *AuthTokenHandler {
	return &AuthTokenHandler{auth: app.Auth}
}

// ObtainToken returns the caller's token, creating it on first use
func (h *AuthTokenHandler) ObtainToken(c *gin.Context) {
	var req authTokenRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"non_field_errors": []string{"Invalid data."}})
		return
	}

	fieldErrors := gin.H{}
	if strings.TrimSpace(req.Username) == "" {
		fieldErrors["username"] = []string{fieldRequired}
	}
	if req.Password == "" {
		fieldErrors["password"] = []string{fieldRequired}
	}
	if len(fieldErrors) > 0 {
		c.JSON(http.StatusBadRequest, fieldErrors)
		return
	}

	token, err := h.auth.ObtainToken(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"non_field_errors": []string{identity.ErrInvalidCredentials.Message + "."}})
			return
		}
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token.Key})
}
