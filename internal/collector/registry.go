package collector

import (
	"sort"
	"sync"

	"github.com/newthinker/vega/internal/core"
)

// Registry manages the available bar sources by name.
type Registry struct {
	mu         sync.RWMutex
	collectors map[string]Collector
}

// NewRegistry creates a new collector registry.
func NewRegistry() *Registry {
	return &Registry{
		collectors: make(map[string]Collector),
	}
}

// Register adds a collector to the registry.
func (r *Registry) Register(c Collector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collectors[c.Name()] = c
}

// Get retrieves a collector by name.
func (r *Registry) Get(name string) (Collector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.collectors[name]
	return c, ok
}

// Resolve returns the named collector or CONFIG_INVALID listing what is
// registered.
func (r *Registry) Resolve(name string) (Collector, error) {
	c, ok := r.Get(name)
	if !ok {
		return nil, core.WrapErrorf(core.ErrConfigInvalid,
			"unknown data source %q, registered: %v", name, r.Names())
	}
	return c, nil
}

// Names returns the registered collector names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.collectors))
	for name := range r.collectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
