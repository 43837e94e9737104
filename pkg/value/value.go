// Package value implements the Value Cell: an opaque typed datum with a
// type descriptor matchable for equality and a payload, shared by plain
// assignment. Value is immutable once constructed, so — unlike the
// reference-counted variant type the source models — sharing it across
// goroutines needs no locking and no explicit strong/weak ref pair; Go's
// garbage collector already owns the payload's lifetime once a Value is
// copied out of the backend that produced it.
package value

import "reflect"

// Value is an opaque typed datum. The zero Value represents "absent" — it
// is used both for a genuinely missing value and, in write paths, to signal
// a reset (see changeset.NewWrite).
type Value struct {
	typ     reflect.Type
	payload any
	valid   bool
}

// New wraps v as a Value whose type descriptor is v's dynamic type.
func New[T any](v T) Value {
	return Value{typ: reflect.TypeOf(v), payload: v, valid: true}
}

// Valid reports whether this Value carries a payload. An invalid Value is
// "absent".
func (v Value) Valid() bool {
	return v.valid
}

// Type returns the value's type descriptor, or nil for an absent Value.
func (v Value) Type() reflect.Type {
	return v.typ
}

// TypeMatch reports whether the value's stored type is identical to typ.
// A nil typ matches any valid value (the caller does not care about type).
func (v Value) TypeMatch(typ reflect.Type) bool {
	if !v.valid {
		return false
	}
	if typ == nil {
		return true
	}
	return v.typ == typ
}

// Payload returns the raw boxed payload for callers, such as serialization
// layers, that don't know the concrete type ahead of time. ok is false for
// an absent Value.
func Payload(v Value) (payload any, ok bool) {
	if !v.valid {
		return nil, false
	}
	return v.payload, true
}

// As retrieves the payload as T, type-checked. It returns false both when
// the Value is absent and when its stored type disagrees with T — per §4.2,
// a type mismatch is suppressed, never surfaced as an error.
func As[T any](v Value) (T, bool) {
	var zero T
	if !v.valid {
		return zero, false
	}
	t, ok := v.payload.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
