package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/gmja/storefront/internal/domain/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccounts_LoginFlow(t *testing.T) {
	s := newSite(t)
	s.user("ann", false)
	b := s.browser()

	w := b.get("/GrandmarketJa/accounts/login/")
	assert.Equal(t, http.StatusOK, w.Code)

	w = b.postForm("/GrandmarketJa/accounts/login/", url.Values{"username": {"ann"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusOK, w.Code, "a failed login re-renders the form")

	w = b.postForm("/GrandmarketJa/accounts/login/", url.Values{"username": {"ann"}, "password": {"correct-horse-battery"}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, s.app.Config.URLs.LoginRedirectURL, w.Header().Get("Location"))
	require.Contains(t, b.cookies, "sessionid")

	w = b.get("/GrandmarketJa/users/~redirect/")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/GrandmarketJa/users/ann/", w.Header().Get("Location"))

	w = b.get("/GrandmarketJa/users/ann/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ann")

	w = b.postForm("/GrandmarketJa/accounts/logout/", nil)
	assert.Equal(t, http.StatusFound, w.Code)

	w = b.get("/GrandmarketJa/users/ann/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "/GrandmarketJa/accounts/login/?next="))
}

func TestAccounts_LoginHonoursSafeNext(t *testing.T) {
	s := newSite(t)
	s.user("ann", false)

	tests := []struct {
		next string
		want string
	}{
		{"/GrandmarketJa/basket/", "/GrandmarketJa/basket/"},
		{"https://evil.example/", "/GrandmarketJa/users/~redirect/"},
		{"//evil.example/", "/GrandmarketJa/users/~redirect/"},
	}
	for _, tt := range tests {
		t.Run(tt.next, func(t *testing.T) {
			w := s.browser().postForm("/GrandmarketJa/accounts/login/", url.Values{
				"username": {"ann"}, "password": {"correct-horse-battery"}, "next": {tt.next},
			})
			require.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, tt.want, w.Header().Get("Location"))
		})
	}
}

func TestAccounts_Signup(t *testing.T) {
	s := newSite(t)
	b := s.browser()

	w := b.postForm("/GrandmarketJa/accounts/signup/", url.Values{
		"username": {"newbie"}, "email": {"newbie@example.com"},
		"password1": {"a-long-password-1"}, "password2": {"a-long-password-1"},
	})
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())

	u, err := s.users.FindByUsername(context.Background(), "newbie")
	require.NoError(t, err)
	assert.Equal(t, "newbie@example.com", u.Email)
}

func TestStorefront_GuestCheckout(t *testing.T) {
	s := newSite(t)
	coffee := s.product("Blue Mountain Coffee", "12.50", 10)
	b := s.browser()

	w := b.get(s.url("storefront:detail", "slug", coffee.Slug, "pk", coffee.ID))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Blue Mountain Coffee")

	w = b.postForm(s.url("storefront:basket-add", "pk", coffee.ID), url.Values{"quantity": {"2"}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/GrandmarketJa/basket/", w.Header().Get("Location"))

	w = b.get("/GrandmarketJa/basket/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Blue Mountain Coffee")

	w = b.postForm("/GrandmarketJa/checkout/", url.Values{"name": {"Ann"}})
	assert.Equal(t, http.StatusOK, w.Code, "an incomplete address re-renders the form")

	w = b.postForm("/GrandmarketJa/checkout/", url.Values{
		"name": {"Ann"}, "line1": {"1 King St"}, "city": {"Kingston"}, "country": {"JM"},
		"email": {"ann@example.com"},
	})
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	thankYou := w.Header().Get("Location")
	require.True(t, strings.HasPrefix(thankYou, "/GrandmarketJa/checkout/thank-you/"), thankYou)

	w = b.get(thankYou)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.browser().get(thankYou)
	assert.Equal(t, http.StatusNotFound, w.Code, "another session cannot see the order")

	stock, err := s.products.FindByID(context.Background(), coffee.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, stock.Stock)

	w = b.get("/GrandmarketJa/checkout/")
	assert.Equal(t, http.StatusFound, w.Code, "the basket is empty after checkout")
}

func TestStorefront_StaleSlugRedirects(t *testing.T) {
	s := newSite(t)
	coffee := s.product("Blue Mountain Coffee", "12.50", 10)

	w := s.browser().get(fmt.Sprintf("/GrandmarketJa/catalogue/old-name/%d/", coffee.ID))
	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, s.url("storefront:detail", "slug", coffee.Slug, "pk", coffee.ID), w.Header().Get("Location"))
}

func TestStorefront_LoginRequiredPages(t *testing.T) {
	s := newSite(t)
	s.user("ann", false)
	coffee := s.product("Blue Mountain Coffee", "12.50", 10)

	anon := s.browser()
	for _, path := range []string{"/GrandmarketJa/accounts/orders/", "/GrandmarketJa/accounts/wishlist/"} {
		w := anon.get(path)
		assert.Equal(t, http.StatusFound, w.Code, path)
		assert.Contains(t, w.Header().Get("Location"), "/GrandmarketJa/accounts/login/")
	}

	b := s.browser()
	b.login("ann")
	w := b.postForm(s.url("storefront:wishlist-add", "pk", coffee.ID), url.Values{"next": {"/GrandmarketJa/accounts/wishlist/"}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/GrandmarketJa/accounts/wishlist/", w.Header().Get("Location"))

	w = b.get("/GrandmarketJa/accounts/wishlist/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Blue Mountain Coffee")
}

func TestStorefront_CategoryPage(t *testing.T) {
	s := newSite(t)
	cat, err := catalog.NewCategory("Coffee", "coffee", "")
	require.NoError(t, err)
	require.NoError(t, s.categories.Save(context.Background(), cat))

	w := s.browser().get(s.url("storefront:category", "slug", "coffee", "pk", cat.ID))
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.browser().get(fmt.Sprintf("/GrandmarketJa/catalogue/category/tea/%d/", cat.ID))
	assert.Equal(t, http.StatusMovedPermanently, w.Code)
}
