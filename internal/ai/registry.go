package ai

import (
	"fmt"
	"strings"
	"sync"
)

// Factory builds a provider for a concrete model name.
type Factory func(model string) Provider

type registration struct {
	defaultModel string
	build        Factory
}

// Registry maps provider names to factories. Model selection is resolved
// here: an empty model falls back to the provider's registered default.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]registration
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]registration)}
}

func (r *Registry) Register(name, defaultModel string, build Factory) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = registration{defaultModel: defaultModel, build: build}
}

func (r *Registry) Get(name, model string) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	reg, ok := r.providers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown ai provider: %s", name)
	}
	if model == "" {
		model = reg.defaultModel
	}
	return reg.build(model), nil
}
