package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func text(body string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, body+"|"+RouteName(c))
	}
}

func storefrontTable() *Table {
	shop := NewTable().
		GET("catalogue/", "catalogue", text("catalogue")).
		GET("catalogue/<slug:slug>/<int:pk>/", "detail", text("detail")).
		GET("catalogue/category/<slug:slug>/<int:pk>/", "category", text("category")).
		POST("basket/add/<int:pk>/", "basket-add", text("add"))

	users := NewTable().
		GET("~redirect/", "redirect", text("redirect")).
		GET("<str:username>/", "detail", text("user"))

	return NewTable().
		GET("GrandmarketJa/home", "home", text("home")).
		Include("GrandmarketJa/users/", "users", users).
		Include("GrandmarketJa/", "storefront", shop).
		GET("media/<path:filepath>", "media", func(c *gin.Context) {
			c.String(http.StatusOK, c.Param("filepath"))
		})
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestTableOrdering(t *testing.T) {
	table := NewTable().GET("a/", "a", text("a"))
	table.GET("b/", "b", text("b"))
	table.Prepend(Route{Methods: []string{http.MethodGet}, Pattern: "__debug__/", Name: "djdt", Handlers: []gin.HandlerFunc{text("d")}})
	table.Extend(NewTable().GET("c/", "c", text("c")))

	conf, err := table.Compile()
	require.NoError(t, err)

	var names []string
	for _, r := range conf.Routes() {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"djdt", "a", "b", "c"}, names)
	assert.Equal(t, 4, table.Len())
}

func TestCompile(t *testing.T) {
	conf, err := storefrontTable().Compile()
	require.NoError(t, err)

	routes := conf.Routes()
	require.Len(t, routes, 8)
	assert.Equal(t, "/GrandmarketJa/home", routes[0].Path())
	assert.Equal(t, "users:redirect", routes[1].Name)
	assert.Equal(t, "users", routes[1].Namespace)
	assert.Equal(t, "/GrandmarketJa/catalogue/:slug/:pk/", routes[4].Pattern.GinPath())
	assert.Equal(t, "storefront:detail", routes[4].Name)
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		table *Table
	}{
		{
			"duplicate name",
			NewTable().GET("a/", "x", text("a")).GET("b/", "x", text("b")),
		},
		{
			"duplicate namespaced name",
			NewTable().
				Include("one/", "ns", NewTable().GET("a/", "x", text("a"))).
				Include("two/", "ns", NewTable().GET("b/", "x", text("b"))),
		},
		{
			"same method and path",
			NewTable().GET("a/", "a1", text("a")).GET("a/", "a2", text("b")),
		},
		{
			"wildcard name clash",
			NewTable().GET("p/<int:pk>/", "p1", text("a")).GET("p/<int:id>/edit/", "p2", text("b")),
		},
		{
			"catch-all clash",
			NewTable().GET("files/", "f1", text("a")).GET("files/<path:p>", "f2", text("b")),
		},
		{
			"static route after a parameter sibling",
			NewTable().GET("users/<str:username>/", "detail", text("a")).GET("users/me/", "me", text("b")),
		},
		{
			"static route after a parameter sibling deeper down",
			NewTable().
				GET("p/me/edit/", "edit", text("a")).
				GET("p/<str:name>/", "detail", text("b")).
				GET("p/me/", "me", text("c")),
		},
		{
			"subtree without trailing slash",
			NewTable().Subtree("docs", "docs", text("d")),
		},
		{
			"subtree over a route",
			NewTable().GET("docs/x/", "x", text("x")).Subtree("docs/", "docs", text("d")),
		},
		{
			"bad pattern",
			NewTable().GET("x/<float:f>/", "x", text("x")),
		},
		{
			"bad include prefix",
			NewTable().Include("/api/", "api", NewTable().GET("", "root", text("r"))),
		},
		{
			"no handlers",
			NewTable().GET("a/", "a"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.table.Compile()
			assert.Error(t, err)
		})
	}
}

func TestCompile_StaticAfterDisjointParameter(t *testing.T) {
	table := NewTable().
		GET("<str:app>/<str:model>/", "changelist", text("list")).
		GET("login/", "login", text("login")).
		GET("p/<int:pk>/", "detail", text("detail")).
		GET("p/new/", "new", text("new"))

	conf, err := table.Compile()
	require.NoError(t, err)

	engine := gin.New()
	conf.Mount(engine, nil)
	for path, name := range map[string]string{"/login/": "login", "/p/new/": "new", "/p/4/": "detail", "/shop/product/": "changelist"} {
		m, err := conf.Resolve(http.MethodGet, path)
		require.NoError(t, err, path)
		assert.Equal(t, name, m.Name, path)
		assert.Contains(t, serve(engine, http.MethodGet, path).Body.String(), "|"+name, path)
	}
}

func TestSubtree(t *testing.T) {
	conf := NewTable().
		GET("api/schema/", "schema", text("schema")).
		Subtree("api/docs/", "docs", func(c *gin.Context) {
			c.String(http.StatusOK, "["+c.Param(SubtreeParam)+"]|"+RouteName(c))
		}).
		MustCompile()

	assert.Equal(t, "/api/docs/", conf.MustReverse("docs"))
	_, err := conf.Reverse("docs", SubtreeParam, "index.html")
	assert.ErrorIs(t, err, ErrNoReverseMatch)

	engine := gin.New()
	conf.Mount(engine, nil)
	assert.Equal(t, "[]|docs", serve(engine, http.MethodGet, "/api/docs/").Body.String())
	assert.Equal(t, "[swagger-ui.css]|docs", serve(engine, http.MethodGet, "/api/docs/swagger-ui.css").Body.String())
	assert.Equal(t, "[a/b.js]|docs", serve(engine, http.MethodGet, "/api/docs/a/b.js").Body.String())

	m, err := conf.Resolve(http.MethodGet, "/api/docs/")
	require.NoError(t, err)
	assert.Equal(t, "docs", m.Name)
	assert.Equal(t, "", m.Params[SubtreeParam])

	m, err = conf.Resolve(http.MethodGet, "/api/docs/a/b.js")
	require.NoError(t, err)
	assert.Equal(t, "a/b.js", m.Params[SubtreeParam])

	_, err = conf.Resolve(http.MethodGet, "/api/docs")
	assert.ErrorIs(t, err, ErrNoMatch)

	routes := conf.Routes()
	assert.Equal(t, "/api/docs/*", routes[1].Path())
	assert.Equal(t, "/api/docs/*subpath", routes[1].GinPath())
}

func TestCompile_SameNameAcrossMethods(t *testing.T) {
	table := NewTable().
		GET("login/", "login", text("form")).
		POST("login/", "login", text("submit")).
		View("signup/", "signup", text("signup"))

	conf, err := table.Compile()
	require.NoError(t, err)
	assert.Len(t, conf.Routes(), 4)
	assert.Equal(t, "/login/", conf.MustReverse("login"))
}

func TestMount(t *testing.T) {
	conf := storefrontTable().MustCompile()
	engine := gin.New()
	conf.Mount(engine, func(c *gin.Context) {
		c.String(c.Writer.Status(), "page not found")
	})

	t.Run("serves routes and stamps names", func(t *testing.T) {
		w := serve(engine, http.MethodGet, "/GrandmarketJa/catalogue/dark-rum/7/")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "detail|storefront:detail", w.Body.String())

		w = serve(engine, http.MethodGet, "/GrandmarketJa/home")
		assert.Equal(t, "home|home", w.Body.String())
	})

	t.Run("static segment wins over parameter", func(t *testing.T) {
		w := serve(engine, http.MethodGet, "/GrandmarketJa/users/~redirect/")
		assert.Equal(t, "redirect|users:redirect", w.Body.String())
	})

	t.Run("converter guard answers 404", func(t *testing.T) {
		w := serve(engine, http.MethodGet, "/GrandmarketJa/catalogue/dark-rum/seven/")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "page not found", w.Body.String())
	})

	t.Run("redirects missing trailing slash", func(t *testing.T) {
		w := serve(engine, http.MethodGet, "/GrandmarketJa/catalogue")
		assert.Equal(t, http.StatusMovedPermanently, w.Code)
		assert.Equal(t, "/GrandmarketJa/catalogue/", w.Header().Get("Location"))
	})

	t.Run("path converter strips leading slash", func(t *testing.T) {
		w := serve(engine, http.MethodGet, "/media/products/1/a.png")
		assert.Equal(t, "products/1/a.png", w.Body.String())

		w = serve(engine, http.MethodGet, "/media/")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("method must match", func(t *testing.T) {
		w := serve(engine, http.MethodGet, "/GrandmarketJa/basket/add/1/")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestMount_TableMiddleware(t *testing.T) {
	var calls []string
	mw := func(tag string) gin.HandlerFunc {
		return func(c *gin.Context) {
			calls = append(calls, tag+":"+RouteName(c))
			c.Next()
		}
	}
	admin := NewTable().Use(mw("staff")).GET("", "index", text("index"))
	table := NewTable().Use(mw("root")).Include("admin/", "admin", admin).GET("open/", "open", text("open"))

	engine := gin.New()
	table.MustCompile().Mount(engine, nil)

	serve(engine, http.MethodGet, "/admin/")
	serve(engine, http.MethodGet, "/open/")
	assert.Equal(t, []string{"root:admin:index", "staff:admin:index", "root:open"}, calls)
}

func TestResolve(t *testing.T) {
	conf := storefrontTable().MustCompile()

	m, err := conf.Resolve(http.MethodGet, "/GrandmarketJa/catalogue/category/rum/3/")
	require.NoError(t, err)
	assert.Equal(t, "storefront:category", m.Name)
	assert.Equal(t, "storefront", m.Namespace)
	assert.Equal(t, "category", m.URLName)
	assert.Equal(t, map[string]string{"slug": "rum", "pk": "3"}, m.Params)

	// the first matching entry wins, as in table order
	m, err = conf.Resolve(http.MethodGet, "/GrandmarketJa/users/~redirect/")
	require.NoError(t, err)
	assert.Equal(t, "users:redirect", m.Name)

	_, err = conf.Resolve(http.MethodGet, "/nowhere/")
	assert.ErrorIs(t, err, ErrNoMatch)

	_, err = conf.Resolve(http.MethodDelete, "/GrandmarketJa/catalogue/")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestReverse(t *testing.T) {
	conf := storefrontTable().MustCompile()

	path, err := conf.Reverse("storefront:detail", "slug", "dark-rum", "pk", "7")
	require.NoError(t, err)
	assert.Equal(t, "/GrandmarketJa/catalogue/dark-rum/7/", path)

	path, err = conf.Reverse("home")
	require.NoError(t, err)
	assert.Equal(t, "/GrandmarketJa/home", path)

	for _, tc := range [][]string{
		{"storefront:missing"},
		{"storefront:detail", "slug", "dark-rum"},
		{"storefront:detail", "slug", "dark rum", "pk", "7"},
		{"storefront:detail", "slug", "dark-rum", "pk", "x"},
		{"storefront:detail", "slug"},
	} {
		_, err := conf.Reverse(tc[0], tc[1:]...)
		assert.ErrorIs(t, err, ErrNoReverseMatch, tc)
	}

	assert.True(t, conf.Has("users:detail"))
	assert.False(t, conf.Has("detail"))
	assert.Panics(t, func() { conf.MustReverse("nope") })
}

func TestCurrentRoute(t *testing.T) {
	conf := NewTable().GET("x/<int:pk>/", "x", func(c *gin.Context) {
		route, ok := CurrentRoute(c)
		require.True(t, ok)
		c.String(http.StatusOK, route.Path())
	}).MustCompile()

	engine := gin.New()
	conf.Mount(engine, nil)
	w := serve(engine, http.MethodGet, "/x/3/")
	assert.Equal(t, "/x/<int:pk>/", w.Body.String())

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := CurrentRoute(c)
	assert.False(t, ok)
}
