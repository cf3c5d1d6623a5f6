package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"

	activityapp "github.com/gmja/storefront/internal/application/activity"
	basketapp "github.com/gmja/storefront/internal/application/basket"
	catalogapp "github.com/gmja/storefront/internal/application/catalog"
	orderapp "github.com/gmja/storefront/internal/application/order"
	"github.com/gmja/storefront/internal/infrastructure/config"
	"github.com/gmja/storefront/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestObtainAuthToken(t *testing.T) {
	s := newSite(t)
	s.user("ann", false)

	tests := []struct {
		name     string
		form     url.Values
		wantCode int
		wantKey  string
	}{
		{"missing username", url.Values{"password": {"x"}}, http.StatusBadRequest, "username"},
		{"missing password", url.Values{"username": {"ann"}}, http.StatusBadRequest, "password"},
		{"bad credentials", url.Values{"username": {"ann"}, "password": {"wrong"}}, http.StatusBadRequest, "non_field_errors"},
		{"good credentials", url.Values{"username": {"ann"}, "password": {"correct-horse-battery"}}, http.StatusOK, "token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.browser().postForm("/gmja/api/auth-token/", tt.form)
			assert.Equal(t, tt.wantCode, w.Code)
			body := decode[map[string]any](t, w)
			assert.Contains(t, body, tt.wantKey)
		})
	}

	t.Run("required message", func(t *testing.T) {
		w := s.browser().sendJSON(http.MethodPost, "/gmja/api/auth-token/", map[string]string{"password": "x"})
		body := decode[map[string][]string](t, w)
		assert.Equal(t, []string{"This field is required."}, body["username"])
	})

	t.Run("token is stable", func(t *testing.T) {
		first := decode[map[string]string](t, s.browser().postForm("/gmja/api/auth-token/",
			url.Values{"username": {"ann"}, "password": {"correct-horse-battery"}}))
		assert.Equal(t, s.token("ann"), first["token"])
	})
}

func TestUserViewSet(t *testing.T) {
	s := newSite(t)
	s.user("ann", false)
	s.user("bob", false)
	s.user("root", true)

	t.Run("anonymous", func(t *testing.T) {
		w := s.browser().get("/gmja/api/users/me/")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	ann := s.browser()
	ann.header.Set("Authorization", "Token "+s.token("ann"))

	t.Run("me", func(t *testing.T) {
		w := ann.get("/gmja/api/users/me/")
		require.Equal(t, http.StatusOK, w.Code)
		me := decode[UserResource](t, w)
		assert.Equal(t, "ann", me.Username)
		assert.Equal(t, "http://example.com/gmja/api/users/ann/", me.URL)
	})

	t.Run("non-staff see only themselves", func(t *testing.T) {
		page := decode[Page[UserResource]](t, ann.get("/gmja/api/users/"))
		assert.Equal(t, int64(1), page.Count)
		require.Len(t, page.Results, 1)
		assert.Equal(t, "ann", page.Results[0].Username)

		assert.Equal(t, http.StatusNotFound, ann.get("/gmja/api/users/bob/").Code)
	})

	t.Run("partial update", func(t *testing.T) {
		w := ann.sendJSON(http.MethodPatch, "/gmja/api/users/ann/", map[string]string{"name": "Ann Lee"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "Ann Lee", decode[UserResource](t, w).Name)
	})

	t.Run("staff see everyone", func(t *testing.T) {
		root := s.browser()
		root.header.Set("Authorization", "Token "+s.token("root"))
		page := decode[Page[UserResource]](t, root.get("/gmja/api/users/"))
		assert.Equal(t, int64(3), page.Count)
		assert.Equal(t, http.StatusOK, root.get("/gmja/api/users/bob/").Code)
	})
}

func TestAdmin_StaffOnly(t *testing.T) {
	s := newSite(t)
	s.user("ann", false)
	s.user("root", true)

	w := s.browser().get("/admin/")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "/admin/login/")

	ann := s.browser()
	ann.header.Set("Authorization", "Token "+s.token("ann"))
	assert.Equal(t, http.StatusForbidden, ann.get("/admin/").Code)

	root := s.browser()
	root.header.Set("Authorization", "Token "+s.token("root"))
	w = root.get("/admin/")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		Success bool `json:"success"`
		Data    []struct {
			App   string `json:"app"`
			Model string `json:"model"`
		} `json:"data"`
	}](t, w)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Data)

	w = root.get("/admin/nope/nothing/")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, decode[dto.Response](t, w).Success)
}

func TestAdmin_LoginForm(t *testing.T) {
	s := newSite(t)
	s.user("ann", false)
	s.user("root", true)

	b := s.browser()
	w := b.postForm("/admin/login/", url.Values{"username": {"ann"}, "password": {"correct-horse-battery"}})
	assert.Equal(t, http.StatusOK, w.Code, "non-staff cannot sign in to the admin")

	w = b.postForm("/admin/login/", url.Values{"username": {"root"}, "password": {"correct-horse-battery"}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/", w.Header().Get("Location"))
	assert.Equal(t, http.StatusOK, b.get("/admin/").Code)
}

func TestSchema(t *testing.T) {
	s := newSite(t)

	w := s.browser().get("/gmja/api/schema/")
	require.Equal(t, http.StatusOK, w.Code)
	doc := decode[map[string]any](t, w)
	assert.Equal(t, "3.0.3", doc["openapi"])
	paths, ok := doc["paths"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, paths, "/gmja/api/users/{username}/")
	assert.Contains(t, paths, "/gmja/api/auth-token/")
	assert.Contains(t, paths, "/GrandmarketJa/api/products/{pk}/")
	assert.NotContains(t, paths, "/GrandmarketJa/home", "pages are not part of the API")

	w = s.browser().get("/gmja/api/schema/?format=yaml")
	require.Equal(t, http.StatusOK, w.Code)
	var fromYAML map[string]any
	require.NoError(t, yaml.Unmarshal(w.Body.Bytes(), &fromYAML))
	assert.Equal(t, "3.0.3", fromYAML["openapi"])
}

func TestSchema_Protection(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		s := newSite(t, func(cfg *config.Config) { cfg.Swagger.Enabled = false })
		assert.Equal(t, http.StatusNotFound, s.browser().get("/gmja/api/schema/").Code)
		assert.Equal(t, http.StatusNotFound, s.browser().get("/gmja/api/docs/index.html").Code)
	})

	t.Run("staff only", func(t *testing.T) {
		s := newSite(t, func(cfg *config.Config) { cfg.Swagger.RequireAuth = true })
		s.user("root", true)

		assert.Equal(t, http.StatusFound, s.browser().get("/gmja/api/schema/").Code)

		root := s.browser()
		root.header.Set("Authorization", "Token "+s.token("root"))
		assert.Equal(t, http.StatusOK, root.get("/gmja/api/schema/").Code)
	})
}

func TestDocs(t *testing.T) {
	s := newSite(t)
	assert.Equal(t, "/gmja/api/docs/", s.srv.Links.URL("api-docs"))

	w := s.browser().get("/gmja/api/docs/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "swagger-initializer.js")

	w = s.browser().get("/gmja/api/docs/swagger-initializer.js")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `url: "/gmja/api/schema/"`)

	assert.Equal(t, http.StatusOK, s.browser().get("/gmja/api/docs/index.html").Code)
	assert.Equal(t, http.StatusNotFound, s.browser().get("/gmja/api/docs/doc.yaml").Code)
}

func TestStorefrontAPI_GuestCheckout(t *testing.T) {
	s := newSite(t)
	coffee := s.product("Blue Mountain Coffee", "12.50", 10)
	b := s.browser()

	w := b.sendJSON(http.MethodPost, "/GrandmarketJa/api/basket/add-product/",
		basketapp.AddProductRequest{ProductID: coffee.ID, Quantity: 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	basket := decode[basketapp.BasketResponse](t, w)
	assert.Equal(t, 2, basket.NumItems)
	assert.True(t, decimal.RequireFromString("25").Equal(basket.Total))

	again := decode[basketapp.BasketResponse](t, b.get("/GrandmarketJa/api/basket/"))
	assert.Equal(t, basket.ID, again.ID, "the session keeps the basket")

	w = b.sendJSON(http.MethodPost, "/GrandmarketJa/api/checkout/", map[string]any{
		"shipping_address": map[string]string{"name": "Ann", "line1": "1 King St", "city": "Kingston", "country": "JAM"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "country is two letters")

	w = b.sendJSON(http.MethodPost, "/GrandmarketJa/api/checkout/", map[string]any{
		"shipping_address": map[string]string{"name": "Ann", "line1": "1 King St", "city": "Kingston", "country": "JM"},
		"email":            "ann@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	placed := decode[orderapp.OrderResponse](t, w)
	assert.NotEmpty(t, placed.Number)
	assert.Nil(t, placed.UserID)
	assert.Equal(t, 2, placed.NumItems)

	fresh := decode[basketapp.BasketResponse](t, b.get("/GrandmarketJa/api/basket/"))
	assert.Zero(t, fresh.NumItems)
}

func TestStorefrontAPI_ListingReflectsCheckout(t *testing.T) {
	s := newSite(t)
	bammy := s.product("Bammy", "2.00", 2)
	b := s.browser()

	before := decode[Page[catalogapp.ProductResponse]](t, b.get("/GrandmarketJa/api/products/"))
	require.Len(t, before.Results, 1)
	assert.Equal(t, 2, before.Results[0].Stock)

	w := b.sendJSON(http.MethodPost, "/GrandmarketJa/api/basket/add-product/",
		basketapp.AddProductRequest{ProductID: bammy.ID, Quantity: 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = b.sendJSON(http.MethodPost, "/GrandmarketJa/api/checkout/", map[string]any{
		"shipping_address": map[string]string{"name": "Ann", "line1": "1 King St", "city": "Kingston", "country": "JM"},
		"email":            "ann@example.com",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	after := decode[Page[catalogapp.ProductResponse]](t, b.get("/GrandmarketJa/api/products/"))
	require.Len(t, after.Results, 1)
	assert.Equal(t, 0, after.Results[0].Stock)
	assert.False(t, after.Results[0].Available)
}

func TestStorefrontAPI_OrdersNeedAuth(t *testing.T) {
	s := newSite(t)
	assert.Equal(t, http.StatusUnauthorized, s.browser().get("/GrandmarketJa/api/orders/").Code)
	assert.Equal(t, http.StatusUnauthorized, s.browser().get("/GrandmarketJa/api/user/").Code)
}

func TestActivity_Follow(t *testing.T) {
	s := newSite(t)
	s.user("ann", false)
	coffee := s.product("Blue Mountain Coffee", "12.50", 10)
	path := fmt.Sprintf("/GrandmarketJa/activity/follow/product/%d/", coffee.ID)

	assert.Equal(t, http.StatusUnauthorized, s.browser().do(http.MethodPost, path, nil, "").Code)

	ann := s.browser()
	ann.header.Set("Authorization", "Token "+s.token("ann"))
	w := ann.do(http.MethodPost, path, nil, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	follow := decode[activityapp.FollowResponse](t, w)
	assert.False(t, follow.ActorOnly)

	w = ann.do(http.MethodPost, "/GrandmarketJa/activity/follow/spaceship/1/", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
