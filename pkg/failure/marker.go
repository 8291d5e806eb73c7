package failure

// Marker is a matching capability: the general failure marker ErrAny or
// one category marker. Markers are errors so they can be used as
// errors.Is targets against values produced by Wrap.
type Marker struct {
	category Category
	msg      string
}

var (
	// ErrAny matches every classified request failure.
	ErrAny = &Marker{msg: "request failed"}

	// ErrTimeout matches Timeout failures.
	ErrTimeout = &Marker{category: Timeout, msg: "request timed out"}

	// ErrConnection matches Connection failures.
	ErrConnection = &Marker{category: Connection, msg: "connection failed"}

	// ErrProtocol matches Protocol failures.
	ErrProtocol = &Marker{category: Protocol, msg: "protocol violation"}
)

// SentinelOf returns the marker of c, or ErrAny for Unknown.
func SentinelOf(c Category) *Marker {
	switch c {
	case Timeout:
		return ErrTimeout
	case Connection:
		return ErrConnection
	case Protocol:
		return ErrProtocol
	default:
		return ErrAny
	}
}

func (m *Marker) Error() string { return m.msg }

// Category returns the category m stands for, Unknown for ErrAny.
func (m *Marker) Category() Category { return m.category }

// Is makes every category marker also an ErrAny.
func (m *Marker) Is(target error) bool {
	return target == ErrAny
}

// Match reports whether err matches m according to the default registry.
func (m *Marker) Match(err error) bool {
	return m.covers(CategoryOf(err))
}

func (m *Marker) covers(c Category) bool {
	if c == Unknown {
		return false
	}
	return m.category == Unknown || m.category == c
}

// Classify returns the category and kind of the first node in err's tree
// that is either a *Error or a bound identity. The tree is walked pre-order
// like errors.Is walks it. Unclassified errors yield Unknown and "".
func (r *Registry) Classify(err error) (Category, Kind) {
	ix := r.index.Load()
	var found binding
	walk(err, func(node error) bool {
		if fe, ok := node.(*Error); ok {
			found = binding{category: fe.Category, kind: fe.Kind}
			return true
		}
		b, ok := ix.match(node)
		if ok {
			found = b
		}
		return ok
	})
	return found.category, found.kind
}

// CategoryOf returns the category of err, Unknown if it has none.
func (r *Registry) CategoryOf(err error) Category {
	c, _ := r.Classify(err)
	return c
}

// Is reports whether err matches marker m.
func (r *Registry) Is(err error, m *Marker) bool {
	return m != nil && m.covers(r.CategoryOf(err))
}

// Classify classifies err with the default registry.
func Classify(err error) (Category, Kind) { return std.Classify(err) }

// CategoryOf returns the category of err in the default registry.
func CategoryOf(err error) Category { return std.CategoryOf(err) }

// Is reports whether err matches m in the default registry. Unlike
// errors.Is it also works on raw errors that never went through Wrap.
func Is(err error, m *Marker) bool { return std.Is(err, m) }

func walk(err error, visit func(error) bool) bool {
	for err != nil {
		if visit(err) {
			return true
		}
		switch x := err.(type) {
		case interface{ Unwrap() error }:
			err = x.Unwrap()
		case interface{ Unwrap() []error }:
			for _, e := range x.Unwrap() {
				if walk(e, visit) {
					return true
				}
			}
			return false
		default:
			return false
		}
	}
	return false
}
