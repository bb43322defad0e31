package typed

import (
	"reflect"

	"github.com/codewandler/typedcache/core/reflector"
)

// Value is a type-erased cache value. It stores a pointer to its own copy of
// the concrete value so DowncastPtr can hand out a stable reference.
type Value struct {
	p any // *V
}

// ValueOf wraps v.
func ValueOf[V any](v V) Value {
	return Value{p: &v}
}

// Downcast returns a copy of the stored value if it is of type V.
func Downcast[V any](v Value) (out V, ok bool) {
	p, ok := v.p.(*V)
	if !ok {
		return out, false
	}
	return *p, true
}

// DowncastPtr returns a pointer to the stored value if it is of type V.
// Writes through the pointer are visible to every holder of v; callers
// synchronize such writes themselves.
func DowncastPtr[V any](v Value) (*V, bool) {
	p, ok := v.p.(*V)
	return p, ok
}

// Is reports whether v holds a value of type V.
func Is[V any](v Value) bool {
	_, ok := v.p.(*V)
	return ok
}

// IsZero reports whether v holds nothing (the zero Value).
func (v Value) IsZero() bool { return v.p == nil }

// Type returns the type tag of the stored value.
func (v Value) Type() reflector.TypeInfo {
	if v.p == nil {
		return reflector.TypeInfo{}
	}
	return reflector.TypeInfoForType(reflect.TypeOf(v.p).Elem())
}
