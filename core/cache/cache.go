package cache

import (
	"time"

	"github.com/codewandler/typedcache/core/typed"
)

// Typed is a type-safe view of a Table for keys of type K holding values of
// type V. Several views with different type pairs can share one table; keys
// of different types never collide.
type Typed[K comparable, V any] struct {
	t *Table
}

func NewTyped[K comparable, V any](t *Table) *Typed[K, V] { return &Typed[K, V]{t: t} }

// Table returns the underlying table.
func (c *Typed[K, V]) Table() *Table { return c.t }

// Add stores value for key. See Table.Add.
func (c *Typed[K, V]) Add(key K, lifeSpan time.Duration, value V) (prev *Item) {
	return c.t.Add(typed.KeyOf(key), lifeSpan, typed.ValueOf(value))
}

// NotFoundAdd stores value for key unless key is present. See Table.NotFoundAdd.
func (c *Typed[K, V]) NotFoundAdd(key K, lifeSpan time.Duration, value V) bool {
	return c.t.NotFoundAdd(typed.KeyOf(key), lifeSpan, typed.ValueOf(value))
}

// Get returns the value for key without marking it as accessed. It reports
// false if the key is missing or holds a value of another type.
func (c *Typed[K, V]) Get(key K) (out V, ok bool) {
	it, ok := c.t.Get(typed.KeyOf(key))
	if !ok {
		return out, false
	}
	return typed.Downcast[V](it.Value())
}

// Item returns the item for key without marking it as accessed.
func (c *Typed[K, V]) Item(key K) (*Item, bool) {
	return c.t.Get(typed.KeyOf(key))
}

// Value returns the value for key, marking it as accessed and consulting
// the data loader on a miss. See Table.Value.
func (c *Typed[K, V]) Value(key K) (out V, err error) {
	it, err := c.t.Value(typed.KeyOf(key))
	if err != nil {
		return out, err
	}
	out, ok := typed.Downcast[V](it.Value())
	if !ok {
		return out, ErrValueType
	}
	return out, nil
}

// Delete removes key. See Table.Delete.
func (c *Typed[K, V]) Delete(key K) error {
	_, err := c.t.Delete(typed.KeyOf(key))
	return err
}

// Exists reports whether key is present.
func (c *Typed[K, V]) Exists(key K) bool {
	return c.t.Exists(typed.KeyOf(key))
}

// SetDataLoader installs fn as the table's data loader. fn reports whether
// it could produce a value and the life span to store it with. The loader
// is table-wide: misses of keys that are not of type K are declined.
func (c *Typed[K, V]) SetDataLoader(fn func(key K) (V, time.Duration, bool)) {
	c.t.SetDataLoader(func(key typed.Key) *Item {
		k, ok := typed.DowncastKey[K](key)
		if !ok {
			return nil
		}
		v, lifeSpan, ok := fn(k)
		if !ok {
			return nil
		}
		return c.t.NewItem(key, lifeSpan, typed.ValueOf(v))
	})
}
