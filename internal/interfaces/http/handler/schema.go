package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"
	"github.com/gin-gonic/gin"
	"github.com/gmja/storefront/internal/interfaces/http/dto"
	"github.com/gmja/storefront/internal/interfaces/http/router"
	"go.uber.org/zap"
)

var errNoURLConf = errors.New("URL table not compiled")

// namespaces published in the schema
var schemaNamespaces = map[string]bool{"api": true, "api-v1": true, "actstream": true}

// routes published in the schema regardless of namespace
var schemaRoutes = map[string]bool{"obtain_auth_token": true}

// SchemaHandler serves the OpenAPI document of the JSON endpoints. The
// document is derived from the URL table on first request.
type SchemaHandler struct {
	links   *Links
	title   string
	version string
	logger  *zap.Logger

	once sync.Once
	doc  *openapi3.T
	err  error
}

// NewSchemaHandler creates the schema view
func NewSchemaHandler(app *App, links *Links, version string) *SchemaHandler {
	return &SchemaHandler{
		links:   links,
		title:   app.Config.App.Name + " API",
		version: version,
		logger:  app.Logger,
	}
}

// Schema returns the document as JSON, or YAML with ?format=yaml
func (h *SchemaHandler) Schema(c *gin.Context) {
	doc, err := h.Document()
	if err != nil {
		h.logger.Error("Failed to build API schema", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(dto.ErrCodeInternal, "Schema unavailable", getRequestID(c)))
		return
	}
	if c.Query("format") != "yaml" {
		c.JSON(http.StatusOK, doc)
		return
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		_ = c.Error(err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.YAML(http.StatusOK, tree)
}

// Document builds the document once the URL table is compiled
func (h *SchemaHandler) Document() (*openapi3.T, error) {
	conf := h.links.Conf()
	if conf == nil {
		return nil, errNoURLConf
	}
	h.once.Do(func() {
		h.doc, h.err = buildSchema(conf, h.title, h.version)
	})
	return h.doc, h.err
}

func buildSchema(conf *router.URLConf, title, version string) (*openapi3.T, error) {
	envelope, err := openapi3gen.NewSchemaRefForValue(&dto.Response{}, nil)
	if err != nil {
		return nil, err
	}

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info:    &openapi3.Info{Title: title, Version: version},
		Paths:   openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{"Envelope": envelope},
			SecuritySchemes: openapi3.SecuritySchemes{
				"tokenAuth": &openapi3.SecuritySchemeRef{Value: &openapi3.SecurityScheme{
					Type:        "apiKey",
					In:          "header",
					Name:        "Authorization",
					Description: `Send "Token <key>" from the auth-token endpoint`,
				}},
				"jwtAuth": &openapi3.SecuritySchemeRef{Value: openapi3.NewJWTSecurityScheme()},
			},
		},
		Security: *openapi3.NewSecurityRequirements().
			With(openapi3.NewSecurityRequirement().Authenticate("tokenAuth")).
			With(openapi3.NewSecurityRequirement().Authenticate("jwtAuth")).
			With(openapi3.NewSecurityRequirement()),
	}

	for _, route := range conf.Routes() {
		if !published(route) {
			continue
		}
		path := route.Pattern.OpenAPIPath()
		item := doc.Paths.Value(path)
		if item == nil {
			item = &openapi3.PathItem{}
			doc.Paths.Set(path, item)
		}
		item.SetOperation(route.Method, operation(route))
	}
	return doc, nil
}

func published(route router.CompiledRoute) bool {
	if schemaRoutes[route.Name] {
		return true
	}
	top, _, _ := strings.Cut(route.Namespace, ":")
	return schemaNamespaces[top]
}

func operation(route router.CompiledRoute) *openapi3.Operation {
	op := openapi3.NewOperation()
	tag := route.Namespace
	if tag == "" {
		tag = route.Name
	}
	op.Tags = []string{tag}
	if route.Name != "" {
		op.OperationID = strings.ReplaceAll(route.Name, ":", ".") + "." + strings.ToLower(route.Method)
	}
	for _, p := range route.Pattern.Params() {
		op.AddParameter(openapi3.NewPathParameter(p.Name).WithSchema(paramSchema(p.Converter)))
	}

	status := http.StatusOK
	switch route.Method {
	case http.MethodPost:
		status = http.StatusCreated
	case http.MethodDelete:
		status = http.StatusNoContent
	}
	failure := openapi3.NewResponse().
		WithDescription("Error").
		WithJSONSchemaRef(openapi3.NewSchemaRef("#/components/schemas/Envelope", nil))
	op.Responses = openapi3.NewResponses(
		openapi3.WithStatus(status, &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription(http.StatusText(status))}),
		openapi3.WithName("default", failure),
	)
	return op
}

func paramSchema(conv router.Converter) *openapi3.Schema {
	typ, format := conv.OpenAPIType()
	var s *openapi3.Schema
	if typ == "integer" {
		s = openapi3.NewIntegerSchema()
	} else {
		s = openapi3.NewStringSchema()
	}
	if format != "" {
		s = s.WithFormat(format)
	}
	return s
}
