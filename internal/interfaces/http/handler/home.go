package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/gmja/storefront/internal/application/catalog"
)

const featuredOnHome = 8

type homeContent struct {
	Featured   []catalogapp.ProductResponse
	Categories []catalogapp.CategoryNodeResponse
}

// HomeHandler renders the landing page
type HomeHandler struct {
	catalog *catalogapp.CatalogService
	pages   *Renderer
}

// NewHomeHandler creates the home view
func NewHomeHandler(app *App, pages *Renderer) *HomeHandler {
	return &HomeHandler{catalog: app.Catalog, pages: pages}
}

// Home shows featured products and the top-level categories
func (h *HomeHandler) Home(c *gin.Context) {
	ctx := c.Request.Context()
	featured, err := h.catalog.ListProducts(ctx, catalogapp.ProductQuery{Featured: true, PageSize: featuredOnHome})
	if err != nil {
		h.pages.HandleError(c, err)
		return
	}
	categories, err := h.catalog.ListCategories(ctx)
	if err != nil {
		h.pages.HandleError(c, err)
		return
	}
	h.pages.HTML(c, http.StatusOK, "home.html", translate(c, "Home"), homeContent{
		Featured:   featured.Items,
		Categories: categories,
	})
}
