package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	identityapp "github.com/gmja/storefront/internal/application/identity"
	"github.com/gmja/storefront/internal/domain/identity"
	"github.com/gmja/storefront/internal/domain/shared"
	"github.com/gmja/storefront/internal/interfaces/http/middleware"
	"github.com/gmja/storefront/internal/interfaces/http/router"
)

// UserResource is a user as the API router exposes it
type UserResource struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	URL      string `json:"url"`
}

// UserUpdateRequest is the body of PUT and PATCH on a user. Fields left
// out of a PATCH keep their value.
type UserUpdateRequest struct {
	Name  *string `json:"name" binding:"omitempty,max=255"`
	Email *string `json:"email" binding:"omitempty,email"`
}

// UserViewSet serves the users resource of the API router
type UserViewSet struct {
	BaseHandler
	users *identityapp.UserService
	links *Links
}

// NewUserViewSet creates the users viewset
func NewUserViewSet(app *App, links *Links) *UserViewSet {
	return &UserViewSet{users: app.Users, links: links}
}

// Routes returns the API router table. "me" is listed before the detail
// route so it is never taken for a username.
func (h *UserViewSet) Routes() *router.Table {
	return router.NewTable().
		Use(middleware.APIAuthRequired()).
		GET("users/", "user-list", h.List).
		GET("users/me/", "user-me", h.Me).
		GET("users/<str:username>/", "user-detail", h.Retrieve).
		PUT("users/<str:username>/", "user-detail", h.Update).
		PATCH("users/<str:username>/", "user-detail", h.PartialUpdate)
}

func (h *UserViewSet) resource(c *gin.Context, u *identity.User) UserResource {
	return UserResource{
		Username: u.Username,
		Name:     u.Name,
		URL:      absoluteURL(c, h.links.URL("api-v1:user-detail", "username", u.Username)),
	}
}

// List returns every user to staff and only themselves to everyone else
func (h *UserViewSet) List(c *gin.Context) {
	current := middleware.CurrentUser(c)
	if !middleware.CurrentPrincipal(c).IsStaff() {
		c.JSON(http.StatusOK, Page[UserResource]{Count: 1, Results: []UserResource{h.resource(c, current)}})
		return
	}

	users, err := h.users.List(c.Request.Context(), listFilter(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	resources := make([]UserResource, 0, len(users.Items))
	for i := range users.Items {
		resources = append(resources, h.resource(c, &users.Items[i]))
	}
	page := shared.NewPaginated(resources, users.Total, users.Page, users.PageSize)
	c.JSON(http.StatusOK, newPage(c, &page))
}

// Me returns the current user
func (h *UserViewSet) Me(c *gin.Context) {
	c.JSON(http.StatusOK, h.resource(c, middleware.CurrentUser(c)))
}

// Retrieve returns a user visible to the caller
func (h *UserViewSet) Retrieve(c *gin.Context) {
	target, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.resource(c, target))
}

// Update replaces the editable fields
func (h *UserViewSet) Update(c *gin.Context) {
	h.update(c, false)
}

// PartialUpdate changes the fields present in the body
func (h *UserViewSet) PartialUpdate(c *gin.Context) {
	h.update(c, true)
}

func (h *UserViewSet) update(c *gin.Context, partial bool) {
	target, ok := h.lookup(c)
	if !ok {
		return
	}
	var req UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	input := identityapp.UpdateProfileInput{Name: target.Name, Email: target.Email}
	if req.Name != nil {
		input.Name = *req.Name
	} else if !partial {
		input.Name = ""
	}
	if req.Email != nil {
		input.Email = *req.Email
	}
	updated, err := h.users.Update(c.Request.Context(), middleware.CurrentUser(c), target, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.resource(c, updated))
}

// lookup finds the user of the URL. Users other than the caller do not
// exist for non-staff callers.
func (h *UserViewSet) lookup(c *gin.Context) (*identity.User, bool) {
	username := c.Param("username")
	current := middleware.CurrentUser(c)
	if !middleware.CurrentPrincipal(c).IsStaff() {
		if username != current.Username {
			h.HandleError(c, shared.ErrNotFound)
			return nil, false
		}
		return current, true
	}
	target, err := h.users.GetByUsername(c.Request.Context(), username)
	if err != nil {
		h.HandleError(c, err)
		return nil, false
	}
	return target, true
}
