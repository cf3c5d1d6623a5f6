package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	basketapp "github.com/gmja/storefront/internal/application/basket"
	identityapp "github.com/gmja/storefront/internal/application/identity"
	"github.com/gmja/storefront/internal/domain/identity"
	"github.com/gmja/storefront/internal/infrastructure/config"
	"github.com/gmja/storefront/internal/infrastructure/logger"
	"github.com/gmja/storefront/internal/interfaces/http/middleware"
	"github.com/gmja/storefront/internal/interfaces/http/router"
	"go.uber.org/zap"
)

type loginForm struct {
	Username string   `form:"username"`
	Password string   `form:"password"`
	Next     string   `form:"next"`
	Action   string   `form:"-"`
	Errors   []string `form:"-"`
}

type signupForm struct {
	Username  string   `form:"username"`
	Email     string   `form:"email"`
	Password1 string   `form:"password1"`
	Password2 string   `form:"password2"`
	Errors    []string `form:"-"`
}

type passwordChangeForm struct {
	OldPassword string   `form:"oldpassword"`
	Password1   string   `form:"password1"`
	Password2   string   `form:"password2"`
	Errors      []string `form:"-"`
}

// AccountHandler serves login, logout, signup and password change
type AccountHandler struct {
	auth     *identityapp.AuthService
	baskets  *basketapp.BasketService
	pages    *Renderer
	links    *Links
	urls     config.URLConfig
	throttle gin.HandlerFunc
}

// NewAccountHandler creates the account views. throttle limits credential
// posts and may be nil.
func NewAccountHandler(app *App, pages *Renderer, links *Links, throttle gin.HandlerFunc) *AccountHandler {
	return &AccountHandler{
		auth:     app.Auth,
		baskets:  app.Baskets,
		pages:    pages,
		links:    links,
		urls:     app.Config.URLs,
		throttle: throttle,
	}
}

// Routes returns the account URL table
func (h *AccountHandler) Routes() *router.Table {
	credentials := []gin.HandlerFunc{h.Login}
	signup := []gin.HandlerFunc{h.Signup}
	if h.throttle != nil {
		credentials = append([]gin.HandlerFunc{onlyPost(h.throttle)}, credentials...)
		signup = append([]gin.HandlerFunc{onlyPost(h.throttle)}, signup...)
	}
	return router.NewTable().
		View("login/", "login", credentials...).
		View("logout/", "logout", h.Logout).
		View("signup/", "signup", signup...).
		View("password/change/", "password-change", middleware.LoginRequired(h.urls.LoginURL), h.PasswordChange)
}

// Login shows the login form and signs the user in
func (h *AccountHandler) Login(c *gin.Context) {
	form := loginForm{Action: h.links.URL("account:login")}
	if c.Request.Method == http.MethodGet {
		if middleware.CurrentUser(c) != nil {
			redirect(c, h.urls.LoginRedirectURL)
			return
		}
		form.Next = c.Query("next")
		h.pages.HTML(c, http.StatusOK, "login.html", translate(c, "Sign in"), form)
		return
	}

	if err := c.ShouldBind(&form); err != nil {
		form.Errors = formErrors(c, err)
		h.pages.HTML(c, http.StatusOK, "login.html", translate(c, "Sign in"), form)
		return
	}
	result, err := h.auth.Login(c.Request.Context(), identityapp.LoginInput{Username: form.Username, Password: form.Password})
	if err != nil {
		form.Errors = formErrors(c, err)
		h.pages.HTML(c, http.StatusOK, "login.html", translate(c, "Sign in"), form)
		return
	}

	startSession(c, h.baskets, result)
	flash(c, "Welcome back, %s", result.User.DisplayName())
	redirect(c, safeNext(form.Next, h.urls.LoginRedirectURL))
}

// Logout asks for confirmation on GET and signs out on POST
func (h *AccountHandler) Logout(c *gin.Context) {
	if middleware.CurrentUser(c) == nil {
		redirect(c, h.links.URL("home"))
		return
	}
	if c.Request.Method == http.MethodGet {
		h.pages.HTML(c, http.StatusOK, "logout.html", translate(c, "Sign out"), nil)
		return
	}
	endSession(c, h.auth)
	flash(c, "You have signed out")
	redirect(c, h.links.URL("home"))
}

// Signup creates an account and signs it in
func (h *AccountHandler) Signup(c *gin.Context) {
	var form signupForm
	if c.Request.Method == http.MethodGet {
		if middleware.CurrentUser(c) != nil {
			redirect(c, h.urls.LoginRedirectURL)
			return
		}
		h.pages.HTML(c, http.StatusOK, "signup.html", translate(c, "Sign up"), form)
		return
	}

	if err := c.ShouldBind(&form); err != nil {
		form.Errors = formErrors(c, err)
		h.pages.HTML(c, http.StatusOK, "signup.html", translate(c, "Sign up"), form)
		return
	}
	result, err := h.auth.Signup(c.Request.Context(), identityapp.SignupInput{
		Username:  form.Username,
		Email:     form.Email,
		Password:  form.Password1,
		Password2: form.Password2,
	})
	if err != nil {
		form.Errors = formErrors(c, err)
		h.pages.HTML(c, http.StatusOK, "signup.html", translate(c, "Sign up"), form)
		return
	}

	startSession(c, h.baskets, result)
	redirect(c, h.urls.LoginRedirectURL)
}

// PasswordChange replaces the password. Every other session of the user is
// invalidated; this one continues with a fresh token.
func (h *AccountHandler) PasswordChange(c *gin.Context) {
	var form passwordChangeForm
	if c.Request.Method == http.MethodGet {
		h.pages.HTML(c, http.StatusOK, "password_change.html", "Change password", form)
		return
	}

	if err := c.ShouldBind(&form); err != nil {
		form.Errors = formErrors(c, err)
		h.pages.HTML(c, http.StatusOK, "password_change.html", "Change password", form)
		return
	}
	if form.Password1 != form.Password2 {
		form.Errors = formErrors(c, identity.ErrPasswordMismatch)
		h.pages.HTML(c, http.StatusOK, "password_change.html", "Change password", form)
		return
	}
	token, err := h.auth.ChangePassword(c.Request.Context(), middleware.CurrentUser(c), identityapp.ChangePasswordInput{
		OldPassword: form.OldPassword,
		NewPassword: form.Password1,
	})
	if err != nil {
		form.Errors = formErrors(c, err)
		h.pages.HTML(c, http.StatusOK, "password_change.html", "Change password", form)
		return
	}

	middleware.SetSessionAuthToken(c, token.Token)
	flash(c, "Password changed")
	redirect(c, h.links.URL("users:redirect"))
}

// startSession stores the issued token in the session and hands the
// anonymous basket over to the user
func startSession(c *gin.Context, baskets *basketapp.BasketService, result *identityapp.LoginResult) {
	anonymous := middleware.SessionBasketID(c)
	middleware.SetSessionAuthToken(c, result.Token.Token)
	middleware.SetSessionBasketID(c, 0)
	if anonymous == 0 || baskets == nil {
		return
	}
	if _, err := baskets.MergeOnLogin(c.Request.Context(), result.User.ID, anonymous); err != nil {
		logger.GetGinLogger(c).Warn("Failed to merge basket on login",
			zap.Uint("basket_id", anonymous), zap.Uint("user_id", result.User.ID), zap.Error(err))
	}
}

// endSession revokes the session token and empties the session
func endSession(c *gin.Context, auth *identityapp.AuthService) {
	if p := middleware.CurrentPrincipal(c); p != nil && p.Claims != nil {
		if err := auth.Logout(c.Request.Context(), p.Claims); err != nil {
			logger.GetGinLogger(c).Warn("Failed to revoke session token", zap.Error(err))
		}
	}
	middleware.FlushSession(c)
}
