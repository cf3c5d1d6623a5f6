package handler

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/gmja/storefront/internal/domain/identity"
	"github.com/gmja/storefront/internal/i18n"
	"github.com/gmja/storefront/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"golang.org/x/text/message"
)

//go:embed templates
var templateFS embed.FS

// errorHeadings are the titles of the framework error pages
var errorHeadings = map[int]string{
	http.StatusBadRequest:          "Bad Request!",
	http.StatusForbidden:           "Permission Denied",
	http.StatusNotFound:            "Page not Found",
	http.StatusInternalServerError: "Server Error",
}

// LanguageOption is one entry of the language switcher
type LanguageOption struct {
	Code     string
	Name     string
	Selected bool
}

// PageData is what every template receives. Content holds the page's own
// data.
type PageData struct {
	Title     string
	User      *identity.User
	Flashes   []string
	Lang      string
	Languages []LanguageOption
	Path      string
	Printer   *message.Printer
	Debug     bool
	Status    int
	Content   any
}

// pageURL sets the page query parameter of a request URI
func pageURL(requestURI string, page int) string {
	u, err := url.Parse(requestURI)
	if err != nil {
		return "?page=" + strconv.Itoa(page)
	}
	q := u.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Renderer renders the storefront's HTML pages. Each page template is parsed
// together with the shared layout.
type Renderer struct {
	pages     map[string]*template.Template
	bundle    *i18n.Bundle
	debug     bool
	staticURL string
}

// NewRenderer parses the embedded templates. url() in templates reverses
// route names through links.
func NewRenderer(links *Links, bundle *i18n.Bundle, staticURL string, debug bool) (*Renderer, error) {
	funcs := template.FuncMap{
		"url": links.URL,
		"has": links.Has,
		"t": func(p *message.Printer, key string, args ...any) string {
			if p == nil {
				return fmt.Sprintf(key, args...)
			}
			return p.Sprintf(key, args...)
		},
		"money": func(d decimal.Decimal) string {
			return d.StringFixed(2)
		},
		"static": func(name string) string {
			return strings.TrimSuffix(staticURL, "/") + "/" + strings.TrimPrefix(name, "/")
		},
		"deref": func(d *decimal.Decimal) decimal.Decimal {
			if d == nil {
				return decimal.Zero
			}
			return *d
		},
		"add":     func(a, b int) int { return a + b },
		"pager":   func(page any, path string) map[string]any { return map[string]any{"Page": page, "Path": path} },
		"pageURL": pageURL,
	}

	layout, err := template.New("layout").Funcs(funcs).ParseFS(templateFS, "templates/layout/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout templates: %w", err)
	}

	names, err := fs.Glob(templateFS, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		t, err := template.Must(layout.Clone()).ParseFS(templateFS, name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		pages[path.Base(name)] = t
	}
	return &Renderer{pages: pages, bundle: bundle, debug: debug, staticURL: staticURL}, nil
}

// HTML renders page with the shared layout. Pending flash messages are
// consumed, so the session is saved before anything is written.
func (r *Renderer) HTML(c *gin.Context, status int, page, title string, content any) {
	t, ok := r.pages[page]
	if !ok {
		_ = c.Error(fmt.Errorf("unknown template %q", page))
		c.String(http.StatusInternalServerError, "template %s not found", page)
		return
	}

	flashes := middleware.Flashes(c)
	if len(flashes) > 0 {
		saveSession(c)
	}

	lang := middleware.Language(c)
	options := make([]LanguageOption, 0)
	if r.bundle != nil {
		for _, tag := range r.bundle.Languages() {
			options = append(options, LanguageOption{Code: tag.String(), Name: i18n.Name(tag), Selected: tag == lang})
		}
	}

	c.Render(status, render.HTML{Template: t, Name: "base", Data: PageData{
		Title:     title,
		User:      middleware.CurrentUser(c),
		Flashes:   flashes,
		Lang:      lang.String(),
		Languages: options,
		Path:      c.Request.URL.RequestURI(),
		Printer:   middleware.Printer(c),
		Debug:     r.debug,
		Status:    status,
		Content:   content,
	}})
}

// Error renders the error page for status
func (r *Renderer) Error(c *gin.Context, status int) {
	heading, ok := errorHeadings[status]
	if !ok {
		heading = http.StatusText(status)
	}
	r.HTML(c, status, "error.html", heading, nil)
}

// HandleError renders the error page matching err's status
func (r *Renderer) HandleError(c *gin.Context, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	switch status {
	case http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusInternalServerError:
	case http.StatusUnauthorized:
		status = http.StatusForbidden
	default:
		status = http.StatusBadRequest
	}
	r.Error(c, status)
}
