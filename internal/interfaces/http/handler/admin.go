package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gmja/storefront/internal/application/admin"
	basketapp "github.com/gmja/storefront/internal/application/basket"
	catalogapp "github.com/gmja/storefront/internal/application/catalog"
	identityapp "github.com/gmja/storefront/internal/application/identity"
	"github.com/gmja/storefront/internal/domain/shared"
	"github.com/gmja/storefront/internal/interfaces/http/dto"
	"github.com/gmja/storefront/internal/interfaces/http/middleware"
	"github.com/gmja/storefront/internal/interfaces/http/router"
)

// errNotStaff is shown when valid credentials belong to a non-staff user
var errNotStaff = shared.NewDomainError("INVALID_CREDENTIALS",
	"Please enter the correct username and password for a staff account. Note that both fields may be case-sensitive.")

// AdminHandler serves the staff admin site: a JSON model admin over the
// registry, plus its own login and logout
type AdminHandler struct {
	BaseHandler
	registry *admin.Registry
	auth     *identityapp.AuthService
	baskets  *basketapp.BasketService
	catalog  *catalogapp.CatalogService
	pages    *Renderer
	links    *Links
	throttle gin.HandlerFunc
}

// NewAdminHandler creates the admin site
func NewAdminHandler(app *App, pages *Renderer, links *Links, throttle gin.HandlerFunc) *AdminHandler {
	return &AdminHandler{
		registry: app.Admin,
		auth:     app.Auth,
		baskets:  app.Baskets,
		catalog:  app.Catalog,
		pages:    pages,
		links:    links,
		throttle: throttle,
	}
}

// Routes returns the admin URL table. Everything but login needs staff.
func (h *AdminHandler) Routes() *router.Table {
	login := []gin.HandlerFunc{h.Login}
	if h.throttle != nil {
		login = append([]gin.HandlerFunc{onlyPost(h.throttle)}, login...)
	}

	staff := router.NewTable().
		Use(middleware.StaffRequired(func() string { return h.links.URL("admin:login") })).
		GET("", "index", h.Index).
		POST("logout/", "logout", h.Logout).
		GET("<str:app>/<str:model>/", "changelist", h.List).
		POST("<str:app>/<str:model>/add/", "add", h.Create).
		GET("<str:app>/<str:model>/<int:pk>/change/", "change", h.Get).
		POST("<str:app>/<str:model>/<int:pk>/change/", "change", h.Update).
		POST("<str:app>/<str:model>/<int:pk>/delete/", "delete", h.Delete).
		POST("<str:app>/<str:model>/<int:pk>/image/", "image", h.UploadImage)

	return router.NewTable().
		View("login/", "login", login...).
		Extend(staff)
}

// Login signs a staff member in
func (h *AdminHandler) Login(c *gin.Context) {
	index := h.links.URL("admin:index")
	form := loginForm{Action: h.links.URL("admin:login")}
	if c.Request.Method == http.MethodGet {
		if middleware.CurrentPrincipal(c).IsStaff() {
			redirect(c, index)
			return
		}
		form.Next = c.Query("next")
		h.pages.HTML(c, http.StatusOK, "login.html", "Site administration", form)
		return
	}

	if err := c.ShouldBind(&form); err != nil {
		form.Errors = formErrors(c, err)
		h.pages.HTML(c, http.StatusOK, "login.html", "Site administration", form)
		return
	}
	result, err := h.auth.Login(c.Request.Context(), identityapp.LoginInput{Username: form.Username, Password: form.Password})
	if err == nil && !result.User.IsStaff {
		err = errNotStaff
	}
	if err != nil {
		form.Errors = formErrors(c, err)
		h.pages.HTML(c, http.StatusOK, "login.html", "Site administration", form)
		return
	}

	startSession(c, h.baskets, result)
	redirect(c, safeNext(form.Next, index))
}

// Logout signs the staff member out
func (h *AdminHandler) Logout(c *gin.Context) {
	endSession(c, h.auth)
	redirect(c, h.links.URL("admin:login"))
}

// Index lists the registered models with their row counts
func (h *AdminHandler) Index(c *gin.Context) {
	models, err := h.registry.Index(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, models)
}

func (h *AdminHandler) model(c *gin.Context) (admin.ModelAdmin, bool) {
	m, err := h.registry.Get(c.Param("app"), c.Param("model"))
	if err != nil {
		h.HandleError(c, err)
		return nil, false
	}
	return m, true
}

// List is the change list of a model, searchable with q
func (h *AdminHandler) List(c *gin.Context) {
	m, ok := h.model(c)
	if !ok {
		return
	}
	rows, err := m.List(c.Request.Context(), listFilter(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// Get returns one row
func (h *AdminHandler) Get(c *gin.Context) {
	m, ok := h.model(c)
	if !ok {
		return
	}
	row, err := m.Get(c.Request.Context(), uintParam(c, "pk"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, row)
}

// Create adds a row from a JSON or form payload
func (h *AdminHandler) Create(c *gin.Context) {
	m, ok := h.model(c)
	if !ok {
		return
	}
	decode, bindErr := h.decoder(c)
	row, err := m.Create(c.Request.Context(), middleware.CurrentUser(c).ID, decode)
	if err != nil {
		h.writeError(c, err, *bindErr)
		return
	}
	h.Created(c, row)
}

// Update changes a row from a JSON or form payload
func (h *AdminHandler) Update(c *gin.Context) {
	m, ok := h.model(c)
	if !ok {
		return
	}
	decode, bindErr := h.decoder(c)
	row, err := m.Update(c.Request.Context(), middleware.CurrentUser(c).ID, uintParam(c, "pk"), decode)
	if err != nil {
		h.writeError(c, err, *bindErr)
		return
	}
	h.Success(c, row)
}

// Delete removes a row
func (h *AdminHandler) Delete(c *gin.Context) {
	m, ok := h.model(c)
	if !ok {
		return
	}
	if err := m.Delete(c.Request.Context(), middleware.CurrentUser(c).ID, uintParam(c, "pk")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// UploadImage replaces a product's image with the multipart field "image".
// Only catalogue/product has images.
func (h *AdminHandler) UploadImage(c *gin.Context) {
	if _, ok := h.model(c); !ok {
		return
	}
	if c.Param("app") != "catalogue" || c.Param("model") != "product" {
		h.HandleError(c, admin.ErrNotSupported)
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidationRequired, "An image file is required in the \"image\" field")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidationFormat, "Upload a valid image")
		return
	}
	file, err := header.Open()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer file.Close()

	product, err := h.catalog.SetProductImage(c.Request.Context(), middleware.CurrentUser(c).ID, uintParam(c, "pk"), header.Filename, contentType, file)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// decoder binds the request payload. The bind error is kept so it can be
// answered as a validation error rather than a server error.
func (h *AdminHandler) decoder(c *gin.Context) (admin.Decoder, *error) {
	var bindErr error
	return func(v any) error {
		if err := c.ShouldBind(v); err != nil {
			bindErr = err
			return err
		}
		return nil
	}, &bindErr
}

func (h *AdminHandler) writeError(c *gin.Context, err, bindErr error) {
	if bindErr != nil {
		h.BindError(c, bindErr)
		return
	}
	h.HandleError(c, err)
}
