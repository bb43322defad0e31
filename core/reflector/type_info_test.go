package reflector

import (
	"reflect"
	"sync"
	"testing"
)

type testKey struct {
	Name string
}

type sliceKey struct {
	Parts []string
}

func TestTypeInfoOf(t *testing.T) {
	ti := TypeInfoOf(testKey{Name: "test"})

	if ti.Name != "github.com/codewandler/typedcache/core/reflector.testKey" {
		t.Errorf("unexpected Name: %s", ti.Name)
	}
	if ti.Type.Name() != "testKey" {
		t.Errorf("unexpected Type.Name(): %s", ti.Type.Name())
	}
	if !ti.Comparable {
		t.Error("testKey should be comparable")
	}
}

func TestTypeInfoOf_PointerIsDistinct(t *testing.T) {
	value := TypeInfoOf(testKey{})
	ptr := TypeInfoOf(&testKey{})

	if ptr.Type.Kind() != reflect.Pointer {
		t.Errorf("pointer type must not be unwrapped, got kind %s", ptr.Type.Kind())
	}
	if ptr.Name == value.Name {
		t.Errorf("pointer and value share name %q", ptr.Name)
	}
	if ptr.Name != "*reflector.testKey" {
		t.Errorf("unexpected Name for pointer: %s", ptr.Name)
	}
}

func TestTypeInfoFor_Builtin(t *testing.T) {
	tests := []struct {
		got  TypeInfo
		want string
	}{
		{TypeInfoFor[string](), "string"},
		{TypeInfoFor[int64](), "int64"},
		{TypeInfoFor[[]byte](), "[]uint8"},
		{TypeInfoFor[map[string]int](), "map[string]int"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if tt.got.Name != tt.want {
				t.Errorf("got %q, want %q", tt.got.Name, tt.want)
			}
		})
	}
}

func TestTypeInfo_Comparable(t *testing.T) {
	if TypeInfoFor[sliceKey]().Comparable {
		t.Error("struct with slice field must not be comparable")
	}
	if TypeInfoFor[[]int]().Comparable {
		t.Error("slice must not be comparable")
	}
	if !TypeInfoFor[[2]int]().Comparable {
		t.Error("array of int must be comparable")
	}
}

func TestTypeInfoForType_Nil(t *testing.T) {
	ti := TypeInfoForType(nil)

	if ti.Name != "" {
		t.Errorf("expected empty Name for nil type, got: %s", ti.Name)
	}
	if ti.Type != nil {
		t.Error("expected nil Type for nil input")
	}
	if ti.String() != "<nil>" {
		t.Errorf("unexpected String(): %s", ti.String())
	}
}

func TestConcurrentAccess(t *testing.T) {
	const goroutines = 100
	const iterations = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for range goroutines {
		go func() {
			defer wg.Done()
			for range iterations {
				_ = TypeInfoOf(testKey{})
				_ = TypeInfoFor[*testKey]()
				_ = TypeInfoForType(reflect.TypeFor[string]())
			}
		}()
	}

	wg.Wait()
}

func TestCacheHit(t *testing.T) {
	muCache.Lock()
	cache = make(map[reflect.Type]TypeInfo)
	muCache.Unlock()

	ti1 := TypeInfoOf(testKey{})
	ti2 := TypeInfoOf(testKey{})

	if ti1 != ti2 {
		t.Error("cached result should match original")
	}

	muCache.RLock()
	_, ok := cache[reflect.TypeFor[testKey]()]
	muCache.RUnlock()

	if !ok {
		t.Error("expected cache to contain testKey type")
	}
}
