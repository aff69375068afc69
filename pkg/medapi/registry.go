package medapi

import (
	"sort"
	"sync"
)

// New builds the connector matching cfg.Version, defaulting to DefaultVersion.
// Versions other than v1, v2 and v3 fail with MissingDefinitionError even when
// WithDefinitions covers them; use NewConnector for those.
func New(cfg Config, opts ...Option) (API, error) {
	switch cfg.Version {
	case "", V3:
		return NewV3(cfg, opts...)
	case V2:
		return NewV2(cfg, opts...)
	case V1:
		return NewV1(cfg, opts...)
	default:
		return nil, &MissingDefinitionError{Version: cfg.Version}
	}
}

// Registry keeps configured connectors by alias plus a default one.
type Registry struct {
	mu      sync.RWMutex
	def     API
	aliases map[string]API
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{aliases: make(map[string]API)}
}

// Configure builds a connector and stores it. An empty alias, or makeDefault, sets the default.
func (r *Registry) Configure(cfg Config, alias string, makeDefault bool, opts ...Option) (API, error) {
	api, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	r.Set(alias, api, makeDefault)
	return api, nil
}

// Set stores an already built connector.
func (r *Registry) Set(alias string, api API, makeDefault bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if alias != "" {
		r.aliases[alias] = api
	}
	if alias == "" || makeDefault {
		r.def = api
	}
}

// Get returns the connector for alias, or the default when alias is empty.
func (r *Registry) Get(alias string) (API, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if alias != "" {
		api, ok := r.aliases[alias]
		if !ok {
			return nil, &MissingConfigurationError{Alias: alias}
		}
		return api, nil
	}
	if r.def == nil {
		return nil, &MissingConfigurationError{}
	}
	return r.def, nil
}

// Aliases lists configured aliases in sorted order.
func (r *Registry) Aliases() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.aliases))
	for alias := range r.aliases {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

var defaultRegistry = NewRegistry()

// Configure stores a connector in the package-level registry.
func Configure(cfg Config, alias string, makeDefault bool, opts ...Option) (API, error) {
	return defaultRegistry.Configure(cfg, alias, makeDefault, opts...)
}

// Get returns a connector from the package-level registry.
func Get(alias string) (API, error) {
	return defaultRegistry.Get(alias)
}

// DefaultRegistry exposes the package-level registry.
func DefaultRegistry() *Registry { return defaultRegistry }
