package adapter

import (
	"fmt"
	"sort"
	"strings"
)

// Registration is one registered adapter plus its capabilities, resolved
// once at registration time rather than per call.
type Registration struct {
	Adapter StoreAdapter

	// PerKey reports that stores from this adapter implement KeyedStore
	// and views should subscribe per key.
	PerKey bool
}

// RegisterOption customizes a registration.
type RegisterOption func(*Registration)

// WithPerKeySubscriptions marks the adapter's stores as supporting
// fine-grained per-key subscriptions.
func WithPerKeySubscriptions() RegisterOption {
	return func(r *Registration) { r.PerKey = true }
}

// Registry is an ordered, append-only collection of adapters.
// Registration order defines display and selection order.
type Registry struct {
	order  []string
	byName map[string]Registration
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Registration)}
}

// Register adds an adapter. Duplicate names are rejected; registrations
// are immutable once made.
func (r *Registry) Register(a StoreAdapter, opts ...RegisterOption) error {
	name := a.Name()
	if name == "" {
		return fmt.Errorf("adapter name must not be empty")
	}
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("adapter %q already registered", name)
	}

	reg := Registration{Adapter: a}
	for _, opt := range opts {
		opt(&reg)
	}

	r.order = append(r.order, name)
	r.byName[name] = reg
	return nil
}

// Get returns the registration for name. The error enumerates the valid
// names so callers surface actionable configuration failures.
func (r *Registry) Get(name string) (Registration, error) {
	reg, ok := r.byName[name]
	if !ok {
		return Registration{}, fmt.Errorf("unknown adapter %q: valid adapters are %s",
			name, strings.Join(r.Names(), ", "))
	}
	return reg, nil
}

// Names returns the adapter names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// All returns every registration in registration order.
func (r *Registry) All() []Registration {
	out := make([]Registration, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// SortedNames returns the adapter names sorted lexically. Used where a
// stable order independent of registration order is needed (artifacts).
func (r *Registry) SortedNames() []string {
	out := r.Names()
	sort.Strings(out)
	return out
}
