package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gmja/storefront/internal/interfaces/http/dto"
	"github.com/gmja/storefront/internal/interfaces/http/router"
)

// debugErrorStatuses are the error pages reachable by URL in debug mode
var debugErrorStatuses = []int{
	http.StatusBadRequest,
	http.StatusForbidden,
	http.StatusNotFound,
	http.StatusInternalServerError,
}

// ErrorHandler answers unmatched requests and renders the error pages
type ErrorHandler struct {
	BaseHandler
	pages       *Renderer
	apiPrefixes []string
}

// NewErrorHandler creates the error views. Requests under apiPrefixes get
// the JSON error envelope instead of a page.
func NewErrorHandler(pages *Renderer, apiPrefixes ...string) *ErrorHandler {
	return &ErrorHandler{pages: pages, apiPrefixes: apiPrefixes}
}

// DebugRoutes returns "400/", "403/", "404/" and "500/"
func (h *ErrorHandler) DebugRoutes() *router.Table {
	t := router.NewTable()
	for _, status := range debugErrorStatuses {
		code := strconv.Itoa(status)
		t.GET(code+"/", "debug-"+code, h.page(status))
	}
	return t
}

func (h *ErrorHandler) page(status int) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.pages.Error(c, status)
	}
}

// NotFound is the answer for paths no route matches
func (h *ErrorHandler) NotFound(c *gin.Context) {
	if wantsJSON(c, h.apiPrefixes) {
		h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, "Not found.")
		return
	}
	h.pages.Error(c, http.StatusNotFound)
}

// MethodNotAllowed answers a known path requested with the wrong method
func (h *ErrorHandler) MethodNotAllowed(c *gin.Context) {
	h.Error(c, http.StatusMethodNotAllowed, dto.ErrCodeMethodNotAllowed,
		"Method \""+c.Request.Method+"\" not allowed.")
}

// Recovered renders the server error page after a panic
func (h *ErrorHandler) Recovered(c *gin.Context) {
	if wantsJSON(c, h.apiPrefixes) {
		h.InternalError(c, "An unexpected error occurred")
		return
	}
	h.pages.Error(c, http.StatusInternalServerError)
}
