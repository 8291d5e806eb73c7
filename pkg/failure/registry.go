package failure

import (
	"sync"
	"sync/atomic"
)

// Registry resolves kinds to identities and holds the capability index the
// binder builds from them. Most callers use the package-level functions,
// which act on a process-wide registry bound at init.
type Registry struct {
	mu      sync.RWMutex
	catalog map[Kind][]Identity
	index   atomic.Pointer[index]
}

// NewRegistry returns a registry that can resolve every standard-library
// kind but has bound nothing yet.
func NewRegistry() *Registry {
	r := &Registry{catalog: stdCatalog()}
	r.index.Store(newIndex())
	return r
}

var std = NewRegistry()

func init() {
	std.BindAll()
}

// Default returns the process-wide registry.
func Default() *Registry { return std }

// Provide makes ids resolvable as k, the way loading an optional package
// would. Identities already provided and invalid identities are ignored.
// Nothing is bound until BindCategory runs for k's category.
func (r *Registry) Provide(k Kind, ids ...Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	have := make(map[identityKey]struct{}, len(r.catalog[k]))
	for _, id := range r.catalog[k] {
		have[id.key()] = struct{}{}
	}
	for _, id := range ids {
		if !id.valid() {
			continue
		}
		if _, ok := have[id.key()]; ok {
			continue
		}
		have[id.key()] = struct{}{}
		r.catalog[k] = append(r.catalog[k], id)
	}
}

// Resolve returns the identities currently provided for k.
func (r *Registry) Resolve(k Kind) []Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Identity(nil), r.catalog[k]...)
}

// Classes returns the identities of every member kind of c that can be
// resolved right now. Kinds that cannot are skipped.
func (r *Registry) Classes(c Category) []Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Identity
	for _, k := range members[c] {
		out = append(out, r.catalog[k]...)
	}
	return out
}

// Provide makes ids resolvable as k in the default registry.
func Provide(k Kind, ids ...Identity) { std.Provide(k, ids...) }

// Resolve returns the identities the default registry has for k.
func Resolve(k Kind) []Identity { return std.Resolve(k) }

// Classes returns the resolvable identities of c in the default registry.
func Classes(c Category) []Identity { return std.Classes(c) }
