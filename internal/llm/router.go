package llm

import (
	"fmt"
	"maps"
	"slices"
)

// Router holds every known provider and the name of the selected one.
// Providers are registered during startup only.
type Router struct {
	providers map[string]Provider
	selected  string
}

// NewRouter creates a router whose selected provider is named by selected
func NewRouter(selected string, providers ...Provider) *Router {
	r := &Router{
		providers: make(map[string]Provider, len(providers)),
		selected:  selected,
	}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds p, replacing any provider with the same name
func (r *Router) Register(p Provider) {
	r.providers[p.Name()] = p
}

// Selected returns the name used when Select is called with ""
func (r *Router) Selected() string {
	return r.selected
}

// Select returns the named provider, or the selected one for "".
// A provider without credentials is an ErrNotConfigured error.
func (r *Router) Select(name string) (Provider, error) {
	if name == "" {
		name = r.selected
	}

	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (known: %v)", name, r.names())
	}
	if !p.IsConfigured() {
		return nil, fmt.Errorf("%w: %s", ErrNotConfigured, name)
	}
	return p, nil
}

// Configured returns the sorted names of providers that have credentials
func (r *Router) Configured() []string {
	var names []string
	for _, name := range r.names() {
		if r.providers[name].IsConfigured() {
			names = append(names, name)
		}
	}
	return names
}

// ProviderInfo describes one provider for listings
type ProviderInfo struct {
	Name       string   `json:"name"`
	Models     []string `json:"models"`
	Selected   bool     `json:"selected"`
	Configured bool     `json:"configured"`
}

// Describe returns one ProviderInfo per provider, sorted by name
func (r *Router) Describe() []ProviderInfo {
	names := r.names()
	infos := make([]ProviderInfo, 0, len(names))
	for _, name := range names {
		p := r.providers[name]
		infos = append(infos, ProviderInfo{
			Name:       name,
			Models:     p.AvailableModels(),
			Selected:   name == r.selected,
			Configured: p.IsConfigured(),
		})
	}
	return infos
}

func (r *Router) names() []string {
	return slices.Sorted(maps.Keys(r.providers))
}
