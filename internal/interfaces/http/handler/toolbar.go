package handler

import (
	"encoding/json"
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gmja/storefront/internal/infrastructure/config"
	"github.com/gmja/storefront/internal/interfaces/http/middleware"
	"github.com/gmja/storefront/internal/interfaces/http/router"
)

const redacted = "********************"

// settings keys whose values are never shown
var sensitiveSettings = []string{"secret", "password", "key", "dsn"}

type toolbarPanel struct {
	Name        string
	URL         string
	Description string
}

type toolbarContent struct {
	Panels   []toolbarPanel
	Requests []middleware.RequestRecord
}

// RouteInfo is one row of the routes panel
type RouteInfo struct {
	Method    string `json:"method"`
	Path      string `json:"path"`
	Name      string `json:"name,omitempty"`
	Namespace string `json:"namespace,omitempty"`
}

// ToolbarHandler is the debug toolbar: the URL table, settings, recent
// requests and runtime profiles. It is only mounted in debug mode.
type ToolbarHandler struct {
	cfg      *config.Config
	requests *middleware.RequestRecorder
	pages    *Renderer
	links    *Links
}

// NewToolbarHandler creates the toolbar
func NewToolbarHandler(app *App, pages *Renderer, links *Links) *ToolbarHandler {
	return &ToolbarHandler{cfg: app.Config, requests: app.Requests, pages: pages, links: links}
}

// Routes returns the toolbar URL table
func (h *ToolbarHandler) Routes() *router.Table {
	return router.NewTable().
		GET("", "index", h.Index).
		GET("routes/", "routes", h.URLTable).
		GET("settings/", "settings", h.Settings).
		GET("requests/", "requests", h.Requests).
		GET("pprof/", "pprof-index", h.ProfileIndex).
		Handle([]string{http.MethodGet, http.MethodPost}, "pprof/<str:name>", "pprof", h.Profile)
}

// Index lists the panels and the latest requests
func (h *ToolbarHandler) Index(c *gin.Context) {
	panels := []toolbarPanel{
		{Name: "Routes", URL: h.links.URL("djdt:routes"), Description: "The compiled URL table in resolution order"},
		{Name: "Settings", URL: h.links.URL("djdt:settings"), Description: "Effective configuration with secrets hidden"},
		{Name: "Requests", URL: h.links.URL("djdt:requests"), Description: "Recently served requests"},
		{Name: "Profiling", URL: h.links.URL("djdt:pprof-index"), Description: "Runtime profiles"},
	}
	h.pages.HTML(c, http.StatusOK, "toolbar.html", "Debug toolbar", toolbarContent{Panels: panels, Requests: h.recent()})
}

// URLTable lists the compiled URL table
func (h *ToolbarHandler) URLTable(c *gin.Context) {
	conf := h.links.Conf()
	if conf == nil {
		c.JSON(http.StatusOK, []RouteInfo{})
		return
	}
	routes := conf.Routes()
	out := make([]RouteInfo, 0, len(routes))
	for _, r := range routes {
		out = append(out, RouteInfo{Method: r.Method, Path: r.Path(), Name: r.Name, Namespace: r.Namespace})
	}
	c.JSON(http.StatusOK, out)
}

// Settings shows the configuration with secrets replaced
func (h *ToolbarHandler) Settings(c *gin.Context) {
	settings, err := redactSettings(h.cfg)
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// Requests lists the recorded requests, newest first
func (h *ToolbarHandler) Requests(c *gin.Context) {
	c.JSON(http.StatusOK, h.recent())
}

func (h *ToolbarHandler) recent() []middleware.RequestRecord {
	if h.requests == nil {
		return []middleware.RequestRecord{}
	}
	return h.requests.Recent()
}

// ProfileIndex lists the available runtime profiles
func (h *ToolbarHandler) ProfileIndex(c *gin.Context) {
	pprof.Index(c.Writer, c.Request)
}

// Profile serves one runtime profile
func (h *ToolbarHandler) Profile(c *gin.Context) {
	switch name := c.Param("name"); name {
	case "cmdline":
		pprof.Cmdline(c.Writer, c.Request)
	case "profile":
		pprof.Profile(c.Writer, c.Request)
	case "symbol":
		pprof.Symbol(c.Writer, c.Request)
	case "trace":
		pprof.Trace(c.Writer, c.Request)
	default:
		pprof.Handler(name).ServeHTTP(c.Writer, c.Request)
	}
}

// redactSettings renders cfg as a generic tree and masks every sensitive
// leaf
func redactSettings(cfg *config.Config) (map[string]any, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}
	redactTree(tree)
	return tree, nil
}

func redactTree(tree map[string]any) {
	for k, v := range tree {
		if nested, ok := v.(map[string]any); ok {
			redactTree(nested)
			continue
		}
		if isSensitive(k) {
			if s, ok := v.(string); ok && s == "" {
				continue
			}
			tree[k] = redacted
		}
	}
}

func isSensitive(key string) bool {
	key = strings.ToLower(key)
	for _, s := range sensitiveSettings {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}
