package failure

import (
	"maps"
	"reflect"
	"slices"
)

type binding struct {
	category Category
	kind     Kind
}

type typedBinding struct {
	binding
	when func(error) bool
}

// index is an immutable snapshot of every bound identity. Sentinels are
// grouped by dynamic type so only types that carry sentinels are ever
// hashed; typed identities are a short per-type list, variants first.
type index struct {
	bound  map[identityKey]binding
	values map[reflect.Type]map[error]binding
	types  map[reflect.Type][]typedBinding
}

func newIndex() *index {
	return &index{
		bound:  make(map[identityKey]binding),
		values: make(map[reflect.Type]map[error]binding),
		types:  make(map[reflect.Type][]typedBinding),
	}
}

func (ix *index) clone() *index {
	n := &index{
		bound:  maps.Clone(ix.bound),
		values: make(map[reflect.Type]map[error]binding, len(ix.values)),
		types:  make(map[reflect.Type][]typedBinding, len(ix.types)),
	}
	for t, m := range ix.values {
		n.values[t] = maps.Clone(m)
	}
	for t, l := range ix.types {
		n.types[t] = append([]typedBinding(nil), l...)
	}
	return n
}

// add records id under b. A key that is already bound keeps its first
// binding, which keeps categories disjoint and re-binding a no-op.
func (ix *index) add(id Identity, b binding) bool {
	k := id.key()
	if _, ok := ix.bound[k]; ok {
		return false
	}
	ix.bound[k] = b

	if id.value != nil {
		m := ix.values[id.typ]
		if m == nil {
			m = make(map[error]binding)
			ix.values[id.typ] = m
		}
		m[id.value] = b
		return true
	}

	tb := typedBinding{binding: b, when: id.when}
	list := ix.types[id.typ]
	if tb.when == nil {
		ix.types[id.typ] = append(list, tb)
		return true
	}
	i := 0
	for i < len(list) && list[i].when != nil {
		i++
	}
	ix.types[id.typ] = slices.Insert(list, i, tb)
	return true
}

// match looks up a single error value, without unwrapping.
func (ix *index) match(err error) (binding, bool) {
	t := reflect.TypeOf(err)
	if m, ok := ix.values[t]; ok {
		if b, ok := m[err]; ok {
			return b, true
		}
	}
	for _, tb := range ix.types[t] {
		if tb.when == nil || tb.when(err) {
			return tb.binding, true
		}
	}
	return binding{}, false
}

// BindCategory binds every identity of c that is resolvable now, so that
// errors of those identities match c's marker and ErrAny. It is safe to
// call again, for example after an optional package provided more
// identities: bound identities stay bound and new ones are added.
func (r *Registry) BindCategory(c Category) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.index.Load().clone()
	changed := false
	for _, k := range members[c] {
		for _, id := range r.catalog[k] {
			if next.add(id, binding{category: c, kind: k}) {
				changed = true
			}
		}
	}
	if changed {
		r.index.Store(next)
	}
}

// BindAll binds every category.
func (r *Registry) BindAll() {
	for _, c := range Categories {
		r.BindCategory(c)
	}
}

// Bound reports how many identities are bound.
func (r *Registry) Bound() int {
	return len(r.index.Load().bound)
}

// BindCategory binds c in the default registry.
func BindCategory(c Category) { std.BindCategory(c) }

// BindAll binds every category in the default registry. It already ran at
// init; calling it again is a no-op unless new identities were provided.
func BindAll() { std.BindAll() }
