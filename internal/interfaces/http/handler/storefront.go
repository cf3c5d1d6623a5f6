package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	basketapp "github.com/gmja/storefront/internal/application/basket"
	catalogapp "github.com/gmja/storefront/internal/application/catalog"
	orderapp "github.com/gmja/storefront/internal/application/order"
	wishlistapp "github.com/gmja/storefront/internal/application/wishlist"
	"github.com/gmja/storefront/internal/domain/order"
	"github.com/gmja/storefront/internal/domain/shared"
	"github.com/gmja/storefront/internal/interfaces/http/middleware"
	"github.com/gmja/storefront/internal/interfaces/http/router"
)

var reviewScores = []int{5, 4, 3, 2, 1}

type catalogueContent struct {
	Products   *shared.Paginated[catalogapp.ProductResponse]
	Categories []catalogapp.CategoryNodeResponse
	Query      catalogapp.ProductQuery
	Category   *catalogapp.CategoryResponse
}

type productContent struct {
	Product    *catalogapp.ProductResponse
	Reviews    *shared.Paginated[catalogapp.ReviewResponse]
	InWishlist bool
	Scores     []int
	Errors     []string
}

type checkoutContent struct {
	Basket  basketapp.BasketResponse
	Address order.Address
	Email   string
	Guest   bool
	Errors  []string
}

type checkoutForm struct {
	order.Address
	Email string `form:"email"`
}

type ordersContent struct {
	Orders *shared.Paginated[orderapp.OrderResponse]
}

type wishlistContent struct {
	Products []catalogapp.ProductResponse
}

// StorefrontHandler serves the shop's HTML pages: catalogue, basket,
// checkout, orders and wishlist
type StorefrontHandler struct {
	catalog  *catalogapp.CatalogService
	baskets  *basketapp.BasketService
	checkout *orderapp.CheckoutService
	orders   *orderapp.OrderService
	wishlist *wishlistapp.WishlistService
	pages    *Renderer
	links    *Links
	loginURL string
}

// NewStorefrontHandler creates the shop views
func NewStorefrontHandler(app *App, pages *Renderer, links *Links) *StorefrontHandler {
	return &StorefrontHandler{
		catalog:  app.Catalog,
		baskets:  app.Baskets,
		checkout: app.Checkout,
		orders:   app.Orders,
		wishlist: app.Wishlist,
		pages:    pages,
		links:    links,
		loginURL: app.loginURL(),
	}
}

// Routes returns the storefront URL table. Product and category URLs carry
// the slug and the pk as two segments since gin parameters span whole segments.
func (h *StorefrontHandler) Routes() *router.Table {
	login := middleware.LoginRequired(h.loginURL)
	return router.NewTable().
		GET("catalogue/", "catalogue", h.Catalogue).
		GET("catalogue/category/<slug:slug>/<int:pk>/", "category", h.Category).
		GET("catalogue/<slug:slug>/<int:pk>/", "detail", h.ProductDetail).
		POST("catalogue/<slug:slug>/<int:pk>/reviews/add/", "review-add", login, h.AddReview).
		GET("basket/", "basket", h.Basket).
		POST("basket/add/<int:pk>/", "basket-add", h.BasketAdd).
		POST("basket/lines/<int:line_id>/update/", "basket-line-update", h.BasketLineUpdate).
		View("checkout/", "checkout", h.Checkout).
		GET("checkout/thank-you/<str:number>/", "thank-you", h.ThankYou).
		GET("accounts/orders/", "order-list", login, h.Orders).
		GET("accounts/orders/<str:number>/", "order-detail", login, h.OrderDetail).
		GET("accounts/wishlist/", "wishlist", login, h.Wishlist).
		POST("accounts/wishlist/add/<int:pk>/", "wishlist-add", login, h.WishlistAdd).
		POST("accounts/wishlist/remove/<int:pk>/", "wishlist-remove", login, h.WishlistRemove)
}

// Catalogue lists products with search, category filter and sorting
func (h *StorefrontHandler) Catalogue(c *gin.Context) {
	var q catalogapp.ProductQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.pages.Error(c, http.StatusBadRequest)
		return
	}
	h.renderCatalogue(c, q, nil)
}

// Category lists the products of one category. A stale slug redirects to
// the canonical URL.
func (h *StorefrontHandler) Category(c *gin.Context) {
	category, err := h.catalog.GetCategory(c.Request.Context(), uintParam(c, "pk"))
	if err != nil {
		h.pages.HandleError(c, err)
		return
	}
	if category.Slug != c.Param("slug") {
		c.Redirect(http.StatusMovedPermanently, h.links.URL("storefront:category", "slug", category.Slug, "pk", category.ID))
		return
	}

	var q catalogapp.ProductQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.pages.Error(c, http.StatusBadRequest)
		return
	}
	q.CategoryID = &category.ID
	h.renderCatalogue(c, q, category)
}

func (h *StorefrontHandler) renderCatalogue(c *gin.Context, q catalogapp.ProductQuery, category *catalogapp.CategoryResponse) {
	ctx := c.Request.Context()
	products, err := h.catalog.ListProducts(ctx, q)
	if err != nil {
		h.pages.HandleError(c, err)
		return
	}
	categories, err := h.catalog.ListCategories(ctx)
	if err != nil {
		h.pages.HandleError(c, err)
		return
	}

	title := translate(c, "Catalogue")
	if category != nil {
		title = category.Name
	}
	h.pages.HTML(c, http.StatusOK, "catalogue.html", title, catalogueContent{
		Products:   products,
		Categories: categories,
		Query:      q,
		Category:   category,
	})
}

// ProductDetail shows a product with its reviews
func (h *StorefrontHandler) ProductDetail(c *gin.Context) {
	ctx := c.Request.Context()
	product, err := h.catalog.GetProduct(ctx, uintParam(c, "pk"), false)
	if err != nil {
		h.pages.HandleError(c, err)
		return
	}
	if product.Slug != c.Param("slug") {
		c.Redirect(http.StatusMovedPermanently, h.links.URL("storefront:detail", "slug", product.Slug, "pk", product.ID))
		return
	}

	reviews, err := h.catalog.ListReviews(ctx, product.ID, listFilter(c))
	if err != nil {
		h.pages.HandleError(c, err)
		return
	}
	content := productContent{Product: product, Reviews: reviews, Scores: reviewScores}
	if user := middleware.CurrentUser(c); user != nil {
		content.InWishlist, err = h.wishlist.Contains(ctx, user.ID, product.ID)
		if err != nil {
			h.pages.HandleError(c, err)
			return
		}
	}
	h.pages.HTML(c, http.StatusOK, "product.html", product.Title, content)
}

// AddReview posts the current user's review of a product
func (h *StorefrontHandler) AddReview(c *gin.Context) {
	productID := uintParam(c, "pk")
	back := h.links.URL("storefront:detail", "slug", c.Param("slug"), "pk", productID)

	var req catalogapp.ReviewRequest
	if err := c.ShouldBind(&req); err != nil {
		for _, msg := range formErrors(c, err) {
			middleware.AddFlash(c, msg)
		}
		redirect(c, back)
		return
	}
	if _, err := h.catalog.AddReview(c.Request.Context(), productID, middleware.CurrentUser(c), req); err != nil {
		if statusForError(err) == http.StatusNotFound {
			h.pages.HandleError(c, err)
			return
		}
		for _, msg := range formErrors(c, err) {
			middleware.AddFlash(c, msg)
		}
		redirect(c, back)
		return
	}
	flash(c, "Review submitted")
	redirect(c, back)
}

// Basket shows the shopper's basket
func (h *StorefrontHandler) Basket(c *gin.Context) {
	b, err := h.baskets.Get(c.Request.Context(), basketRef(c))
	if err != nil {
		h.pages.HandleError(c, err)
		return
	}
	h.pages.HTML(c, http.StatusOK, "basket.html", translate(c, "Basket"), basketapp.ToBasketResponse(b))
}

// BasketAdd adds a product; the quantity field defaults to one
func (h *StorefrontHandler) BasketAdd(c *gin.Context) {
	quantity := 1
	if raw := c.PostForm("quantity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.pages.Error(c, http.StatusBadRequest)
			return
		}
		quantity = n
	}

	ref := basketRef(c)
	b, err := h.baskets.AddProduct(c.Request.Context(), ref, uintParam(c, "pk"), quantity)
	if err != nil {
		if statusForError(err) == http.StatusNotFound {
			h.pages.HandleError(c, err)
			return
		}
		for _, msg := range formErrors(c, err) {
			middleware.AddFlash(c, msg)
		}
		redirect(c, h.links.URL("storefront:basket"))
		return
	}
	rememberBasket(c, ref, b.ID)
	flash(c, "Product added to your basket")
	redirect(c, h.links.URL("storefront:basket"))
}

// BasketLineUpdate changes a line's quantity; zero removes the line
func (h *StorefrontHandler) BasketLineUpdate(c *gin.Context) {
	var req basketapp.UpdateLineRequest
	if err := c.ShouldBind(&req); err != nil {
		h.pages.Error(c, http.StatusBadRequest)
		return
	}
	if _, err := h.baskets.UpdateLine(c.Request.Context(), basketRef(c), uintParam(c, "line_id"), req.Quantity); err != nil {
		if statusForError(err) == http.StatusNotFound {
			h.pages.HandleError(c, err)
			return
		}
		for _, msg := range formErrors(c, err) {
			middleware.AddFlash(c, msg)
		}
	} else {
		flash(c, "Basket updated")
	}
	redirect(c, h.links.URL("storefront:basket"))
}

// Checkout shows the order summary and places the order
func (h *StorefrontHandler) Checkout(c *gin.Context) {
	ctx := c.Request.Context()
	ref := basketRef(c)
	b, err := h.baskets.Get(ctx, ref)
	if err != nil {
		h.pages.HandleError(c, err)
		return
	}
	if b.IsEmpty() {
		flash(c, "Your basket is empty")
		redirect(c, h.links.URL("storefront:basket"))
		return
	}

	user := middleware.CurrentUser(c)
	content := checkoutContent{Basket: basketapp.ToBasketResponse(b), Guest: user == nil}
	if c.Request.Method == http.MethodGet {
		if user != nil {
			content.Address.Name = user.DisplayName()
		}
		h.pages.HTML(c, http.StatusOK, "checkout.html", translate(c, "Checkout"), content)
		return
	}

	var form checkoutForm
	bindErr := c.ShouldBind(&form)
	content.Address, content.Email = form.Address, form.Email
	if bindErr != nil {
		content.Errors = formErrors(c, bindErr)
		h.pages.HTML(c, http.StatusOK, "checkout.html", translate(c, "Checkout"), content)
		return
	}
	placed, err := h.checkout.PlaceOrder(ctx, ref, orderapp.CheckoutRequest{Address: form.Address, Email: form.Email})
	if err != nil {
		content.Errors = formErrors(c, err)
		h.pages.HTML(c, http.StatusOK, "checkout.html", translate(c, "Checkout"), content)
		return
	}

	if ref.Anonymous() {
		middleware.SetSessionBasketID(c, 0)
	}
	middleware.SetSessionLastOrder(c, placed.Number)
	redirect(c, h.links.URL("storefront:thank-you", "number", placed.Number))
}

// ThankYou confirms a placed order. Guests only see the order their session
// placed.
func (h *StorefrontHandler) ThankYou(c *gin.Context) {
	ctx := c.Request.Context()
	number := c.Param("number")

	var (
		placed *orderapp.OrderResponse
		err    error
	)
	switch user := middleware.CurrentUser(c); {
	case user != nil:
		placed, err = h.orders.GetForUser(ctx, user.ID, number)
	case middleware.SessionLastOrder(c) == number:
		placed, err = h.orders.GetByNumber(ctx, number)
	default:
		err = shared.ErrNotFound
	}
	if err != nil {
		h.pages.HandleError(c, err)
		return
	}
	h.pages.HTML(c, http.StatusOK, "thank_you.html", translate(c, "Thank you for your order"), placed)
}

// Orders lists the user's orders
func (h *StorefrontHandler) Orders(c *gin.Context) {
	orders, err := h.orders.ListForUser(c.Request.Context(), middleware.CurrentUser(c).ID, listFilter(c))
	if err != nil {
		h.pages.HandleError(c, err)
		return
	}
	h.pages.HTML(c, http.StatusOK, "orders.html", translate(c, "My orders"), ordersContent{Orders: orders})
}

// OrderDetail shows one of the user's orders
func (h *StorefrontHandler) OrderDetail(c *gin.Context) {
	placed, err := h.orders.GetForUser(c.Request.Context(), middleware.CurrentUser(c).ID, c.Param("number"))
	if err != nil {
		h.pages.HandleError(c, err)
		return
	}
	h.pages.HTML(c, http.StatusOK, "order.html", "#"+placed.Number, placed)
}

// Wishlist lists the user's saved products
func (h *StorefrontHandler) Wishlist(c *gin.Context) {
	products, err := h.wishlist.List(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		h.pages.HandleError(c, err)
		return
	}
	h.pages.HTML(c, http.StatusOK, "wishlist.html", translate(c, "Wishlist"), wishlistContent{Products: products})
}

// WishlistAdd saves a product
func (h *StorefrontHandler) WishlistAdd(c *gin.Context) {
	if err := h.wishlist.Add(c.Request.Context(), middleware.CurrentUser(c).ID, uintParam(c, "pk")); err != nil {
		h.pages.HandleError(c, err)
		return
	}
	flash(c, "Added to your wishlist")
	redirect(c, h.back(c))
}

// WishlistRemove forgets a product
func (h *StorefrontHandler) WishlistRemove(c *gin.Context) {
	if err := h.wishlist.Remove(c.Request.Context(), middleware.CurrentUser(c).ID, uintParam(c, "pk")); err != nil {
		h.pages.HandleError(c, err)
		return
	}
	flash(c, "Removed from your wishlist")
	redirect(c, h.back(c))
}

// back is the page a form post came from, when it is on this site
func (h *StorefrontHandler) back(c *gin.Context) string {
	if next := c.PostForm("next"); isSafeRedirect(next) {
		return next
	}
	return h.links.URL("storefront:wishlist")
}
