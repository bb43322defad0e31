// Package reflector provides type reflection utilities with caching.
// It extracts and caches the type tags carried by type-erased cache handles.
package reflector

import (
	"reflect"
	"sync"
)

// maxCacheSize is the maximum number of entries in the type cache.
// Key and value types of a program are few; when the limit is exceeded
// the cache is cleared.
const maxCacheSize = 1024

var (
	muCache sync.RWMutex
	cache   = make(map[reflect.Type]TypeInfo)
)

// TypeInfo holds metadata about a reflected type.
//
// Pointer types are not unwrapped: T and *T are distinct key types and get
// distinct tags.
type TypeInfo struct {
	Name       string       // "pkg/path.TypeName" for named types, reflect's notation otherwise
	Type       reflect.Type // the underlying reflect.Type
	Comparable bool         // whether values of Type may be used as map keys
}

// String returns the qualified type name.
func (ti TypeInfo) String() string {
	if ti.Type == nil {
		return "<nil>"
	}
	return ti.Name
}

// TypeInfoOf returns TypeInfo for the dynamic type of x.
func TypeInfoOf(x any) TypeInfo {
	return TypeInfoForType(reflect.TypeOf(x))
}

// TypeInfoFor returns TypeInfo for type parameter T.
func TypeInfoFor[T any]() TypeInfo {
	return TypeInfoForType(reflect.TypeFor[T]())
}

// TypeInfoForType returns TypeInfo for the given reflect.Type.
// Results are cached; thread-safe for concurrent use.
func TypeInfoForType(t reflect.Type) TypeInfo {
	if t == nil {
		return TypeInfo{}
	}

	muCache.RLock()
	ti, ok := cache[t]
	muCache.RUnlock()
	if ok {
		return ti
	}

	ti = TypeInfo{
		Name:       qualifiedName(t),
		Type:       t,
		Comparable: t.Comparable(),
	}

	muCache.Lock()
	if existing, ok := cache[t]; ok {
		muCache.Unlock()
		return existing
	}
	if len(cache) >= maxCacheSize {
		cache = make(map[reflect.Type]TypeInfo)
	}
	cache[t] = ti
	muCache.Unlock()

	return ti
}

func qualifiedName(t reflect.Type) string {
	if t.Name() == "" || t.PkgPath() == "" {
		// builtin, pointer, slice, map and other unnamed types
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
