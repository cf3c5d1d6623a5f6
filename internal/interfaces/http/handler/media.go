package handler

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/gmja/storefront/internal/infrastructure/logger"
	"github.com/gmja/storefront/internal/infrastructure/storage"
	"github.com/gmja/storefront/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// FileHandler serves uploaded media and static assets
type FileHandler struct {
	media      storage.MediaStorage
	staticRoot string
	notFound   gin.HandlerFunc
}

// NewFileHandler creates the media and static views. notFound renders
// misses.
func NewFileHandler(app *App, notFound gin.HandlerFunc) *FileHandler {
	return &FileHandler{media: app.Media, staticRoot: app.Config.URLs.StaticRoot, notFound: notFound}
}

// MediaRoutes returns the media URL table
func (h *FileHandler) MediaRoutes() *router.Table {
	return router.NewTable().GET("<path:filepath>", "media", h.Media)
}

// StaticRoutes returns the static URL table
func (h *FileHandler) StaticRoutes() *router.Table {
	return router.NewTable().GET("<path:filepath>", "static", h.Static)
}

// Media streams a file from local storage, or redirects to the object
// store's (presigned) URL
func (h *FileHandler) Media(c *gin.Context) {
	key, err := storage.CleanKey(c.Param("filepath"))
	if err != nil {
		h.miss(c)
		return
	}

	if local, ok := h.media.(*storage.LocalStorage); ok {
		path, err := local.Path(key)
		if err != nil {
			h.miss(c)
			return
		}
		h.serveFile(c, path)
		return
	}

	ctx := c.Request.Context()
	exists, err := h.media.Exists(ctx, key)
	if err != nil {
		logger.GetGinLogger(c).Error("Failed to look up media object", zap.String("key", key), zap.Error(err))
		c.AbortWithStatus(http.StatusBadGateway)
		return
	}
	if !exists {
		h.miss(c)
		return
	}
	location, err := h.media.URL(ctx, key)
	if err != nil {
		logger.GetGinLogger(c).Error("Failed to sign media URL", zap.String("key", key), zap.Error(err))
		c.AbortWithStatus(http.StatusBadGateway)
		return
	}
	c.Redirect(http.StatusFound, location)
}

// Static serves a file below the static root
func (h *FileHandler) Static(c *gin.Context) {
	key, err := storage.CleanKey(c.Param("filepath"))
	if err != nil {
		h.miss(c)
		return
	}
	h.serveFile(c, filepath.Join(h.staticRoot, filepath.FromSlash(key)))
}

func (h *FileHandler) serveFile(c *gin.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.GetGinLogger(c).Warn("Failed to stat file", zap.String("path", path), zap.Error(err))
		}
		h.miss(c)
		return
	}
	c.File(path)
}

func (h *FileHandler) miss(c *gin.Context) {
	c.Status(http.StatusNotFound)
	if h.notFound != nil {
		h.notFound(c)
		return
	}
	c.AbortWithStatus(http.StatusNotFound)
}
