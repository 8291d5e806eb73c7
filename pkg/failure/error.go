package failure

import (
	"errors"
	"fmt"
)

// Error carries the classification of a request failure next to the
// original error. errors.Is(e, ErrAny) and errors.Is(e, SentinelOf(e.Category))
// hold, and errors.Is/errors.As still reach the original error through Unwrap.
type Error struct {
	Category Category
	Kind     Kind
	Err      error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

// Is implements matching against markers.
func (e *Error) Is(target error) bool {
	m, ok := target.(*Marker)
	return ok && m.covers(e.Category)
}

// Wrap classifies err and, when a category claims it, returns it as an
// *Error. Unclassified errors and nil are returned unchanged, and an error
// that already holds an *Error is not wrapped twice.
func (r *Registry) Wrap(err error) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return err
	}
	c, k := r.Classify(err)
	if c == Unknown {
		return err
	}
	return &Error{Category: c, Kind: k, Err: err}
}

// Wrap classifies err with the default registry.
func Wrap(err error) error { return std.Wrap(err) }

// Wrapf classifies err and adds a formatted context, "context: err".
// If err is nil, Wrapf returns nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), Wrap(err))
}
