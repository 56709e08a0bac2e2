package embedding

import (
	"context"
	"sort"
	"strings"
	"sync"

	mmerr "github.com/viant/mmvec/errors"
)

// Config selects and parameterizes an embedding provider.
type Config struct {
	Provider      string
	Model         string
	Dimensions    int
	BatchSize     int
	RatePerSecond float64
	APIKey        string
	BaseURL       string
	// Images declares that the model accepts image inputs.
	Images bool
}

// Factory builds a Function from config.
type Factory func(ctx context.Context, cfg Config) (Function, error)

// Registry maps provider names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(name)] = factory
}

// Names lists registered providers in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the function named by cfg.Provider.
func (r *Registry) New(ctx context.Context, cfg Config) (Function, error) {
	r.mu.RLock()
	factory, ok := r.factories[strings.ToLower(cfg.Provider)]
	r.mu.RUnlock()
	if !ok {
		return nil, mmerr.New(mmerr.CodeEmbeddingProviderNotFound, "embedding: unknown provider",
			mmerr.Field("provider", cfg.Provider), mmerr.Field("available", r.Names()))
	}
	return factory(ctx, cfg)
}
