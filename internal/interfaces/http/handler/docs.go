package handler

import (
	"sync"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// DocsHandler serves the Swagger UI over the generated schema
type DocsHandler struct {
	links *Links

	once sync.Once
	ui   gin.HandlerFunc
}

// NewDocsHandler creates the UI view
func NewDocsHandler(links *Links) *DocsHandler {
	return &DocsHandler{links: links}
}

// UI serves the Swagger UI assets. The UI loads its document from the
// api-schema route, reversed once the URL table is compiled.
func (h *DocsHandler) UI(c *gin.Context) {
	h.once.Do(func() {
		h.ui = ginSwagger.WrapHandler(swaggerFiles.Handler,
			ginSwagger.URL(h.links.URL("api-schema")),
			ginSwagger.DocExpansion("none"),
			ginSwagger.PersistAuthorization(true),
		)
	})
	h.ui(c)
}
