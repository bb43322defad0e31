package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/codewandler/typedcache/core/typed"
)

// Item is a single cache entry. It is shared between the table and every
// caller holding it, so all accessors are safe for concurrent use.
//
// Key, value and life span are fixed at creation. Replacing the value of a
// key creates a new Item.
type Item struct {
	key       typed.Key
	value     typed.Value
	lifeSpan  time.Duration
	createdOn time.Time
	clock     clock.Clock

	accessedOn  atomic.Pointer[time.Time]
	accessCount atomic.Uint64

	mu            sync.RWMutex
	aboutToExpire []func(typed.Key)
}

// NewItem creates an item timed by the wall clock. A life span of zero means
// the item never expires. Data loaders that run against a table with a
// custom clock should use Table.NewItem instead.
func NewItem[K comparable, V any](key K, lifeSpan time.Duration, value V) *Item {
	return newItem(clock.New(), typed.KeyOf(key), lifeSpan, typed.ValueOf(value))
}

func newItem(clk clock.Clock, key typed.Key, lifeSpan time.Duration, value typed.Value) *Item {
	now := clk.Now()
	it := &Item{
		key:       key,
		value:     value,
		lifeSpan:  lifeSpan,
		createdOn: now,
		clock:     clk,
	}
	it.accessedOn.Store(&now)
	return it
}

// KeepAlive marks the item as accessed now, pushing back its expiration,
// and increments its access counter.
func (it *Item) KeepAlive() {
	now := it.clock.Now()
	it.accessedOn.Store(&now)
	it.accessCount.Add(1)
}

func (it *Item) Key() typed.Key          { return it.key }
func (it *Item) Value() typed.Value      { return it.value }
func (it *Item) LifeSpan() time.Duration { return it.lifeSpan }
func (it *Item) CreatedOn() time.Time    { return it.createdOn }
func (it *Item) AccessedOn() time.Time   { return *it.accessedOn.Load() }
func (it *Item) AccessCount() uint64     { return it.accessCount.Load() }
func (it *Item) expiresNever() bool      { return it.lifeSpan <= 0 }

// SetAboutToExpireCallback replaces all about-to-expire callbacks with f.
func (it *Item) SetAboutToExpireCallback(f func(typed.Key)) {
	it.mu.Lock()
	it.aboutToExpire = []func(typed.Key){f}
	it.mu.Unlock()
}

// AddAboutToExpireCallback appends f to the about-to-expire callbacks.
func (it *Item) AddAboutToExpireCallback(f func(typed.Key)) {
	it.mu.Lock()
	it.aboutToExpire = append(it.aboutToExpire, f)
	it.mu.Unlock()
}

// RemoveAboutToExpireCallbacks clears the about-to-expire callbacks.
func (it *Item) RemoveAboutToExpireCallbacks() {
	it.mu.Lock()
	it.aboutToExpire = nil
	it.mu.Unlock()
}

// expireCallbacks returns the callbacks registered right now. The slice is
// never modified in place, so it can be iterated without the lock.
func (it *Item) expireCallbacks() []func(typed.Key) {
	it.mu.RLock()
	defer it.mu.RUnlock()
	return it.aboutToExpire
}
