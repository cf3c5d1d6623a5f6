// Package admin is the model registry behind the staff admin site. Each
// registered ModelAdmin exposes list, detail and write operations for one
// model, addressed as app/model.
package admin

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gmja/storefront/internal/domain/shared"
)

// ErrNotSupported is returned for operations a model admin does not offer
var ErrNotSupported = shared.NewDomainError("NOT_SUPPORTED", "This operation is not available for this model")

// Decoder fills v from the request payload
type Decoder func(v any) error

// ModelAdmin manages one model on the admin site
type ModelAdmin interface {
	App() string
	Model() string
	// VerboseName is shown on the index page
	VerboseName() string
	Count(ctx context.Context) (int64, error)
	List(ctx context.Context, filter shared.Filter) (any, error)
	Get(ctx context.Context, id uint) (any, error)
	Create(ctx context.Context, actorID uint, decode Decoder) (any, error)
	Update(ctx context.Context, actorID, id uint, decode Decoder) (any, error)
	Delete(ctx context.Context, actorID, id uint) error
}

// ModelInfo describes a registered model for the admin index
type ModelInfo struct {
	App         string `json:"app"`
	Model       string `json:"model"`
	VerboseName string `json:"verbose_name"`
	Count       int64  `json:"count"`
}

// Registry holds the registered model admins
type Registry struct {
	mu     sync.RWMutex
	models map[string]ModelAdmin
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{models: make(map[string]ModelAdmin)}
}

func registryKey(app, model string) string {
	return app + "/" + model
}

// Register adds a model admin; registering the same app/model twice fails
func (r *Registry) Register(m ModelAdmin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := registryKey(m.App(), m.Model())
	if _, exists := r.models[key]; exists {
		return fmt.Errorf("model %s is already registered", key)
	}
	r.models[key] = m
	return nil
}

// MustRegister is Register that panics on error
func (r *Registry) MustRegister(models ...ModelAdmin) {
	for _, m := range models {
		if err := r.Register(m); err != nil {
			panic(err)
		}
	}
}

// Get returns the admin for app/model or shared.ErrNotFound
func (r *Registry) Get(app, model string) (ModelAdmin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[registryKey(app, model)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return m, nil
}

// Index lists the registered models sorted by app and model with their counts
func (r *Registry) Index(ctx context.Context) ([]ModelInfo, error) {
	r.mu.RLock()
	models := make([]ModelAdmin, 0, len(r.models))
	for _, m := range r.models {
		models = append(models, m)
	}
	r.mu.RUnlock()

	sort.Slice(models, func(i, j int) bool {
		return registryKey(models[i].App(), models[i].Model()) < registryKey(models[j].App(), models[j].Model())
	})

	out := make([]ModelInfo, 0, len(models))
	for _, m := range models {
		count, err := m.Count(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, ModelInfo{App: m.App(), Model: m.Model(), VerboseName: m.VerboseName(), Count: count})
	}
	return out, nil
}
