package provider

import (
	"fmt"
	"strings"
	"sync"
)

// Registry manages provider factory registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[Kind]Factory
}

// globalRegistry is the default registry instance. Provider subpackages
// register themselves in init.
var globalRegistry = &Registry{
	factories: make(map[Kind]Factory),
}

// Register registers a factory for a provider kind.
func Register(kind Kind, factory Factory) {
	globalRegistry.Register(kind, factory)
}

// Register registers a factory for a provider kind.
func (r *Registry) Register(kind Kind, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = factory
}

// New creates a provider instance for the given model configuration.
func New(cfg ModelConfig) (LLMProvider, error) {
	return globalRegistry.New(cfg)
}

// New creates a provider instance for the given model configuration.
func (r *Registry) New(cfg ModelConfig) (LLMProvider, error) {
	r.mu.RLock()
	factory, ok := r.factories[cfg.Provider]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("provider not registered: %s", cfg.Provider)
	}
	return factory(cfg)
}

// Kinds returns the registered provider kinds, for diagnostics.
func Kinds() []Kind {
	return globalRegistry.Kinds()
}

// Kinds returns the registered provider kinds, for diagnostics.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]Kind, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	return kinds
}

// PartMarker renders an unsupported content part as a textual marker so the
// provider still sees that something occupied the slot.
func PartMarker(kind, name string) string {
	if name == "" {
		return "[" + kind + "]"
	}
	return "[" + kind + ": " + strings.TrimSpace(name) + "]"
}
