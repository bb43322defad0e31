package typed

import (
	"fmt"
	"hash/maphash"
	"log/slog"
	"reflect"

	"github.com/codewandler/typedcache/core/reflector"
)

// Key is a type-erased, comparable cache key. The zero Key holds nothing and
// is equal only to other zero Keys.
type Key struct {
	v any
}

// KeyOf wraps k. It panics if the dynamic type of k cannot be used as a map
// key, which can only happen when K is an interface type holding e.g. a slice.
func KeyOf[K comparable](k K) Key {
	var v any = k
	if v != nil {
		if t := reflect.TypeOf(v); !t.Comparable() {
			panic(fmt.Sprintf("typed: key of type %s is not comparable", t))
		}
	}
	return Key{v: v}
}

// DowncastKey returns the concrete key held by k if it is of type K.
func DowncastKey[K comparable](k Key) (out K, ok bool) {
	out, ok = k.v.(K)
	return
}

// Any returns the concrete key as an interface value.
func (k Key) Any() any { return k.v }

// Type returns the type tag of the concrete key.
func (k Key) Type() reflector.TypeInfo { return reflector.TypeInfoOf(k.v) }

// IsZero reports whether k holds no key at all.
func (k Key) IsZero() bool { return k.v == nil }

// Equal reports whether k and other hold keys of the same type and value.
func (k Key) Equal(other Key) bool { return k == other }

// Hash hashes the concrete key with the given seed. Keys that are Equal have
// equal hashes for the same seed.
func (k Key) Hash(seed maphash.Seed) uint64 {
	return maphash.Comparable(seed, k.v)
}

func (k Key) String() string {
	if k.v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s(%v)", k.Type(), k.v)
}

// LogValue implements slog.LogValuer so keys are only formatted when a
// record is actually emitted.
func (k Key) LogValue() slog.Value { return slog.StringValue(k.String()) }

// Fingerprint renders k as a string that includes its type. %#v quotes
// strings and spells out struct fields, so distinct keys of the usual kinds
// render differently, but pointers and interface fields can collide. Used
// to group concurrent loads; callers compare keys after sharing a result.
func (k Key) Fingerprint() string {
	return fmt.Sprintf("%s|%#v", k.Type(), k.v)
}
