package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	activityapp "github.com/gmja/storefront/internal/application/activity"
	identityapp "github.com/gmja/storefront/internal/application/identity"
	"github.com/gmja/storefront/internal/domain/activity"
	"github.com/gmja/storefront/internal/domain/identity"
	"github.com/gmja/storefront/internal/domain/shared"
	"github.com/gmja/storefront/internal/interfaces/http/middleware"
	"github.com/gmja/storefront/internal/interfaces/http/router"
)

const profileStreamSize = 20

type userDetailContent struct {
	Profile *identity.User
	IsSelf  bool
	Actions []activityapp.ActionResponse
}

type profileForm struct {
	Name   string   `form:"name"`
	Email  string   `form:"email"`
	Errors []string `form:"-"`
}

// UserPageHandler serves the profile pages
type UserPageHandler struct {
	users    *identityapp.UserService
	activity *activityapp.ActivityService
	pages    *Renderer
	links    *Links
	loginURL string
}

// NewUserPageHandler creates the profile views
func NewUserPageHandler(app *App, pages *Renderer, links *Links) *UserPageHandler {
	return &UserPageHandler{
		users:    app.Users,
		activity: app.Activity,
		pages:    pages,
		links:    links,
		loginURL: app.loginURL(),
	}
}

// Routes returns the users URL table; every page needs a login
func (h *UserPageHandler) Routes() *router.Table {
	return router.NewTable().
		Use(middleware.LoginRequired(h.loginURL)).
		GET("~redirect/", "redirect", h.Redirect).
		View("~update/", "update", h.Update).
		GET("<str:username>/", "detail", h.Detail)
}

// Redirect sends the user to their own profile
func (h *UserPageHandler) Redirect(c *gin.Context) {
	redirect(c, h.links.URL("users:detail", "username", middleware.CurrentUser(c).Username))
}

// Detail shows a profile with the user's recent public activity
func (h *UserPageHandler) Detail(c *gin.Context) {
	ctx := c.Request.Context()
	profile, err := h.users.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		h.pages.HandleError(c, err)
		return
	}

	content := userDetailContent{Profile: profile, IsSelf: profile.ID == middleware.CurrentUser(c).ID}
	if h.activity != nil {
		filter := shared.DefaultFilter()
		filter.PageSize = profileStreamSize
		stream, err := h.activity.ActorStream(ctx, activity.Ref{Type: activity.ContentTypeUser, ID: profile.ID}, filter)
		if err != nil {
			h.pages.HandleError(c, err)
			return
		}
		content.Actions = stream.Items
	}
	h.pages.HTML(c, http.StatusOK, "user_detail.html", profile.Username, content)
}

// Update edits the current user's name and email
func (h *UserPageHandler) Update(c *gin.Context) {
	user := middleware.CurrentUser(c)
	form := profileForm{Name: user.Name, Email: user.Email}
	if c.Request.Method == http.MethodGet {
		h.pages.HTML(c, http.StatusOK, "user_form.html", user.Username, form)
		return
	}

	if err := c.ShouldBind(&form); err != nil {
		form.Errors = formErrors(c, err)
		h.pages.HTML(c, http.StatusOK, "user_form.html", user.Username, form)
		return
	}
	updated, err := h.users.Update(c.Request.Context(), user, user, identityapp.UpdateProfileInput{Name: form.Name, Email: form.Email})
	if err != nil {
		form.Errors = formErrors(c, err)
		h.pages.HTML(c, http.StatusOK, "user_form.html", user.Username, form)
		return
	}

	flash(c, "Profile updated")
	redirect(c, h.links.URL("users:detail", "username", updated.Username))
}
