package failure

import (
	"reflect"
)

// Identity is a concrete failure defined outside this package. It is either
// a sentinel error value compared with ==, or a dynamic type optionally
// narrowed to one variant by a predicate.
type Identity struct {
	name    string
	value   error
	typ     reflect.Type
	variant string
	when    func(error) bool
	example error
}

// identityKey is what bindings are deduplicated on.
type identityKey struct {
	value   error
	typ     reflect.Type
	variant string
}

// Sentinel returns the identity of a sentinel error value such as
// syscall.ECONNREFUSED or io.EOF. The value must be comparable.
func Sentinel(name string, err error) Identity {
	return Identity{name: name, value: err, typ: reflect.TypeOf(err), example: err}
}

// TypeOf returns the identity of every error whose dynamic type equals the
// type of example. A nil example yields an identity Provide ignores.
func TypeOf(example error) Identity {
	t := reflect.TypeOf(example)
	if t == nil {
		return Identity{}
	}
	return Identity{name: t.String(), typ: t, example: example}
}

// Variant returns the identity of the errors of example's dynamic type for
// which when reports true. when is only ever called with values of that
// type, so it may type-assert freely. example must satisfy when; a nil
// example yields an identity Provide ignores.
func Variant(example error, variant string, when func(error) bool) Identity {
	t := reflect.TypeOf(example)
	if t == nil {
		return Identity{}
	}
	return Identity{
		name:    t.String() + "[" + variant + "]",
		typ:     t,
		variant: variant,
		when:    when,
		example: example,
	}
}

// Name returns a package-qualified name such as "syscall.ECONNREFUSED" or
// "*net.OpError[dial-timeout]".
func (id Identity) Name() string { return id.name }

// Example returns an error value of this identity.
func (id Identity) Example() error { return id.example }

// Matches reports whether err itself, without unwrapping, is of this identity.
func (id Identity) Matches(err error) bool {
	if err == nil || reflect.TypeOf(err) != id.typ {
		return false
	}
	if id.value != nil {
		return hashable(id.typ) && err == id.value
	}
	return id.when == nil || id.when(err)
}

func (id Identity) key() identityKey {
	return identityKey{value: id.value, typ: id.typ, variant: id.variant}
}

// valid reports whether id can be indexed. Sentinels must hash without
// panicking, so their types may not hide interfaces.
func (id Identity) valid() bool {
	if id.typ == nil || id.example == nil {
		return false
	}
	if id.value != nil {
		return hashable(id.typ)
	}
	return id.when == nil || id.when(id.example)
}

func hashable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Slice, reflect.Map, reflect.Func:
		return false
	case reflect.Array:
		return hashable(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !hashable(t.Field(i).Type) {
				return false
			}
		}
	}
	return true
}
