package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	basketapp "github.com/gmja/storefront/internal/application/basket"
	catalogapp "github.com/gmja/storefront/internal/application/catalog"
	identityapp "github.com/gmja/storefront/internal/application/identity"
	orderapp "github.com/gmja/storefront/internal/application/order"
	wishlistapp "github.com/gmja/storefront/internal/application/wishlist"
	"github.com/gmja/storefront/internal/domain/identity"
	"github.com/gmja/storefront/internal/interfaces/http/middleware"
	"github.com/gmja/storefront/internal/interfaces/http/router"
)

// ProfileResponse is the signed-in user as the storefront API shows it
type ProfileResponse struct {
	ID         uint       `json:"id"`
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	IsStaff    bool       `json:"is_staff"`
	DateJoined time.Time  `json:"date_joined"`
	LastLogin  *time.Time `json:"last_login"`
}

func toProfileResponse(u *identity.User) ProfileResponse {
	return ProfileResponse{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Name:       u.Name,
		IsStaff:    u.IsStaff,
		DateJoined: u.DateJoined,
		LastLogin:  u.LastLogin,
	}
}

// LoginRequest is the body of an API login
type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// LoginResponse answers a successful API login. The session cookie is set
// as well.
type LoginResponse struct {
	User      ProfileResponse `json:"user"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// StorefrontAPIHandler serves the storefront's REST API
type StorefrontAPIHandler struct {
	BaseHandler
	auth     *identityapp.AuthService
	catalog  *catalogapp.CatalogService
	baskets  *basketapp.BasketService
	checkout *orderapp.CheckoutService
	orders   *orderapp.OrderService
	wishlist *wishlistapp.WishlistService
	throttle gin.HandlerFunc
}

// NewStorefrontAPIHandler creates the storefront API. throttle limits
// login attempts and may be nil.
func NewStorefrontAPIHandler(app *App, throttle gin.HandlerFunc) *StorefrontAPIHandler {
	return &StorefrontAPIHandler{
		auth:     app.Auth,
		catalog:  app.Catalog,
		baskets:  app.Baskets,
		checkout: app.Checkout,
		orders:   app.Orders,
		wishlist: app.Wishlist,
		throttle: throttle,
	}
}

// Routes returns the storefront API URL table
func (h *StorefrontAPIHandler) Routes() *router.Table {
	auth := middleware.APIAuthRequired()
	login := []gin.HandlerFunc{h.Login}
	if h.throttle != nil {
		login = append([]gin.HandlerFunc{h.throttle}, login...)
	}
	return router.NewTable().
		GET("products/", "product-list", h.ListProducts).
		GET("products/<int:pk>/", "product-detail", h.GetProduct).
		GET("products/<int:pk>/reviews/", "product-reviews", h.ListReviews).
		POST("products/<int:pk>/reviews/", "product-reviews", auth, h.AddReview).
		GET("categories/", "category-list", h.ListCategories).
		GET("categories/<int:pk>/", "category-detail", h.GetCategory).
		GET("basket/", "basket", h.GetBasket).
		POST("basket/add-product/", "basket-add-product", h.AddProduct).
		PATCH("basket/lines/<int:line_id>/", "basket-line", h.UpdateLine).
		DELETE("basket/lines/<int:line_id>/", "basket-line", h.RemoveLine).
		POST("checkout/", "checkout", h.Checkout).
		GET("orders/", "order-list", auth, h.ListOrders).
		GET("orders/<str:number>/", "order-detail", auth, h.GetOrder).
		GET("wishlist/", "wishlist", auth, h.ListWishlist).
		POST("wishlist/<int:pk>/", "wishlist-item", auth, h.AddToWishlist).
		DELETE("wishlist/<int:pk>/", "wishlist-item", auth, h.RemoveFromWishlist).
		POST("login/", "login", login...).
		DELETE("login/", "login", h.Logout).
		GET("user/", "user", auth, h.CurrentUser)
}

// ListProducts lists active products
func (h *StorefrontAPIHandler) ListProducts(c *gin.Context) {
	var q catalogapp.ProductQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	products, err := h.catalog.ListProducts(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPage(c, products))
}

// GetProduct returns an active product
func (h *StorefrontAPIHandler) GetProduct(c *gin.Context) {
	product, err := h.catalog.GetProduct(c.Request.Context(), uintParam(c, "pk"), false)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// ListReviews lists a product's reviews, newest first
func (h *StorefrontAPIHandler) ListReviews(c *gin.Context) {
	reviews, err := h.catalog.ListReviews(c.Request.Context(), uintParam(c, "pk"), listFilter(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPage(c, reviews))
}

// AddReview reviews a product as the current user
func (h *StorefrontAPIHandler) AddReview(c *gin.Context) {
	var req catalogapp.ReviewRequest
	if err := c.ShouldBind(&req); err != nil {
		h.BindError(c, err)
		return
	}
	review, err := h.catalog.AddReview(c.Request.Context(), uintParam(c, "pk"), middleware.CurrentUser(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

// ListCategories returns the category tree
func (h *StorefrontAPIHandler) ListCategories(c *gin.Context) {
	tree, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if tree == nil {
		tree = []catalogapp.CategoryNodeResponse{}
	}
	c.JSON(http.StatusOK, tree)
}

// GetCategory returns one category
func (h *StorefrontAPIHandler) GetCategory(c *gin.Context) {
	category, err := h.catalog.GetCategory(c.Request.Context(), uintParam(c, "pk"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// GetBasket returns the shopper's basket
func (h *StorefrontAPIHandler) GetBasket(c *gin.Context) {
	b, err := h.baskets.Get(c.Request.Context(), basketRef(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, basketapp.ToBasketResponse(b))
}

// AddProduct puts a product into the basket
func (h *StorefrontAPIHandler) AddProduct(c *gin.Context) {
	var req basketapp.AddProductRequest
	if err := c.ShouldBind(&req); err != nil {
		h.BindError(c, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	ref := basketRef(c)
	b, err := h.baskets.AddProduct(c.Request.Context(), ref, req.ProductID, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if ref.Anonymous() && b.ID != ref.BasketID {
		rememberBasket(c, ref, b.ID)
		saveSession(c)
	}
	c.JSON(http.StatusOK, basketapp.ToBasketResponse(b))
}

// UpdateLine changes a line's quantity; zero removes it
func (h *StorefrontAPIHandler) UpdateLine(c *gin.Context) {
	var req basketapp.UpdateLineRequest
	if err := c.ShouldBind(&req); err != nil {
		h.BindError(c, err)
		return
	}
	b, err := h.baskets.UpdateLine(c.Request.Context(), basketRef(c), uintParam(c, "line_id"), req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, basketapp.ToBasketResponse(b))
}

// RemoveLine deletes a line
func (h *StorefrontAPIHandler) RemoveLine(c *gin.Context) {
	b, err := h.baskets.RemoveLine(c.Request.Context(), basketRef(c), uintParam(c, "line_id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, basketapp.ToBasketResponse(b))
}

// Checkout places an order for the shopper's basket
func (h *StorefrontAPIHandler) Checkout(c *gin.Context) {
	var req orderapp.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	ref := basketRef(c)
	placed, err := h.checkout.PlaceOrder(c.Request.Context(), ref, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if ref.Anonymous() {
		middleware.SetSessionBasketID(c, 0)
	}
	middleware.SetSessionLastOrder(c, placed.Number)
	saveSession(c)
	c.JSON(http.StatusCreated, orderapp.ToOrderResponse(placed))
}

// ListOrders lists the user's orders
func (h *StorefrontAPIHandler) ListOrders(c *gin.Context) {
	orders, err := h.orders.ListForUser(c.Request.Context(), middleware.CurrentUser(c).ID, listFilter(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPage(c, orders))
}

// GetOrder returns one of the user's orders
func (h *StorefrontAPIHandler) GetOrder(c *gin.Context) {
	placed, err := h.orders.GetForUser(c.Request.Context(), middleware.CurrentUser(c).ID, c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, placed)
}

// ListWishlist returns the user's saved products
func (h *StorefrontAPIHandler) ListWishlist(c *gin.Context) {
	products, err := h.wishlist.List(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if products == nil {
		products = []catalogapp.ProductResponse{}
	}
	c.JSON(http.StatusOK, products)
}

// AddToWishlist saves a product; saving it twice is not an error
func (h *StorefrontAPIHandler) AddToWishlist(c *gin.Context) {
	if err := h.wishlist.Add(c.Request.Context(), middleware.CurrentUser(c).ID, uintParam(c, "pk")); err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product_id": uintParam(c, "pk")})
}

// RemoveFromWishlist forgets a product
func (h *StorefrontAPIHandler) RemoveFromWishlist(c *gin.Context) {
	if err := h.wishlist.Remove(c.Request.Context(), middleware.CurrentUser(c).ID, uintParam(c, "pk")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Login signs in with a username and password and sets the session cookie
func (h *StorefrontAPIHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.auth.Login(c.Request.Context(), identityapp.LoginInput{Username: req.Username, Password: req.Password})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	startSession(c, h.baskets, result)
	saveSession(c)
	c.JSON(http.StatusOK, LoginResponse{User: toProfileResponse(result.User), ExpiresAt: result.Token.ExpiresAt})
}

// Logout revokes the session
func (h *StorefrontAPIHandler) Logout(c *gin.Context) {
	endSession(c, h.auth)
	saveSession(c)
	h.NoContent(c)
}

// CurrentUser returns the signed-in user
func (h *StorefrontAPIHandler) CurrentUser(c *gin.Context) {
	c.JSON(http.StatusOK, toProfileResponse(middleware.CurrentUser(c)))
}
