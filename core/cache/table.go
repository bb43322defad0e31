package cache

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/codewandler/typedcache/core/sf"
	"github.com/codewandler/typedcache/core/typed"
)

// DataLoader materializes an item for a key that is missing from the table.
// Returning nil declines the load.
type DataLoader func(key typed.Key) *Item

type Options struct {
	Name    string       // defaults to "table-<random id>"
	Log     *slog.Logger // defaults to slog.Default()
	Clock   clock.Clock  // defaults to the wall clock
	Metrics CacheMetrics // defaults to NopCacheMetrics()
}

// Table is a named, concurrency-safe map of type-erased keys to items with
// per-item expiration. Each table runs one background goroutine that sleeps
// until the nearest known expiry and then sweeps expired items.
//
// Callbacks are invoked after the table lock has been released, so they may
// call back into the table. The function passed to Foreach is the exception:
// it runs under the shared lock and must not modify the table.
type Table struct {
	name    string
	log     *slog.Logger
	clock   clock.Clock
	metrics CacheMetrics

	mu    sync.RWMutex
	items map[typed.Key]*Item

	// wakeAfter is the sleep duration the scheduler armed itself with at its
	// last sweep, 0 when idle.
	wakeAfter atomic.Int64

	cbMu              sync.RWMutex
	loader            DataLoader
	addedItem         []func(*Item)
	aboutToDeleteItem []func(*Item)

	loads *sf.Singleflight[loadResult]

	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a table and starts its expiration goroutine. Call Close to
// stop the goroutine once the table is no longer used.
func New(opts Options) *Table {
	if opts.Name == "" {
		opts.Name = fmt.Sprintf("table-%s", gonanoid.Must(6))
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Metrics == nil {
		opts.Metrics = NopCacheMetrics()
	}

	t := &Table{
		name:    opts.Name,
		log:     opts.Log.With(slog.String("table", opts.Name)),
		clock:   opts.Clock,
		metrics: opts.Metrics,
		items:   make(map[typed.Key]*Item),
		loads:   sf.New[loadResult](),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	go t.runExpiration()

	return t
}

func (t *Table) Name() string { return t.name }

// NewItem creates an item timed by the table's clock, for use in data loaders.
func (t *Table) NewItem(key typed.Key, lifeSpan time.Duration, value typed.Value) *Item {
	return newItem(t.clock, key, lifeSpan, value)
}

// Close stops the expiration goroutine. The table stays usable, but items
// are no longer removed when they expire. Close is idempotent.
func (t *Table) Close() {
	t.closeOnce.Do(func() {
		close(t.done)
		t.log.Debug("table closed")
	})
}

// === read path ===

// Count returns the number of items in the table.
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.items)
}

// Foreach calls fn for every item while holding the shared lock. Writers
// block until the traversal is done.
func (t *Table) Foreach(fn func(key typed.Key, item *Item)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for k, it := range t.items {
		fn(k, it)
	}
}

// Get returns the item for key without touching it: neither the access time
// nor the data loader are involved.
func (t *Table) Get(key typed.Key) (*Item, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	it, ok := t.items[key]
	return it, ok
}

// Exists reports whether key is in the table.
func (t *Table) Exists(key typed.Key) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.items[key]
	return ok
}

// Value returns the item for key and marks it as accessed. On a miss the
// data loader, if any, is asked for the item; a loaded item is added to the
// table as by Add. Concurrent misses of the same key share one loader call.
//
// Errors: ErrKeyNotFound when no loader is installed, ErrKeyNotFoundOrLoadable
// when the loader declined.
func (t *Table) Value(key typed.Key) (*Item, error) {
	if it, ok := t.touch(key); ok {
		t.metrics.Hit(t.name)
		return it, nil
	}
	t.metrics.Miss(t.name)

	t.cbMu.RLock()
	loader := t.loader
	t.cbMu.RUnlock()
	if loader == nil {
		return nil, ErrKeyNotFound
	}

	// Distinct keys may share a fingerprint, so the flight reports the key
	// it loaded and callers of any other key load on their own.
	res, _, err := t.loads.Do(key.Fingerprint(), func() (loadResult, error) {
		return loadResult{key: key, item: t.touchOrLoad(key, loader)}, nil
	})
	if err != nil {
		return nil, err
	}
	if res.key != key {
		res.item = t.touchOrLoad(key, loader)
	}
	if res.item == nil {
		return nil, ErrKeyNotFoundOrLoadable
	}
	return res.item, nil
}

type loadResult struct {
	key  typed.Key
	item *Item
}

// touchOrLoad returns the item for key if a flight that just finished added
// it, and asks the loader otherwise. It returns nil if the loader declined.
func (t *Table) touchOrLoad(key typed.Key, loader DataLoader) *Item {
	if it, ok := t.touch(key); ok {
		return it
	}
	return t.load(key, loader)
}

func (t *Table) touch(key typed.Key) (*Item, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	it, ok := t.items[key]
	if ok {
		it.KeepAlive()
	}
	return it, ok
}

func (t *Table) load(key typed.Key, loader DataLoader) *Item {
	timer := t.metrics.LoadDuration(t.name)
	it := loader(key)
	timer.ObserveDuration()

	t.metrics.Loaded(t.name, it != nil)
	if it == nil {
		t.log.Debug("data loader declined", slog.Any("key", key))
		return nil
	}

	t.log.Debug("item loaded", slog.Any("key", key))
	t.add(key, it)
	return it
}

// === write path ===

// Add inserts a new item for key, replacing and returning the previous one
// if there was any. A life span of zero means the item never expires.
func (t *Table) Add(key typed.Key, lifeSpan time.Duration, value typed.Value) (prev *Item) {
	return t.add(key, t.NewItem(key, lifeSpan, value))
}

func (t *Table) add(key typed.Key, it *Item) (prev *Item) {
	t.mu.Lock()
	prev = t.items[key]
	t.items[key] = it
	n := len(t.items)
	t.mu.Unlock()

	t.added(it, n)
	return prev
}

// NotFoundAdd adds the item only if key is not in the table yet. It reports
// whether the item was added. The presence check and the insert happen in
// one critical section, so of many concurrent callers exactly one wins.
func (t *Table) NotFoundAdd(key typed.Key, lifeSpan time.Duration, value typed.Value) bool {
	t.mu.Lock()
	if _, ok := t.items[key]; ok {
		t.mu.Unlock()
		return false
	}
	it := t.NewItem(key, lifeSpan, value)
	t.items[key] = it
	n := len(t.items)
	t.mu.Unlock()

	t.added(it, n)
	return true
}

func (t *Table) added(it *Item, n int) {
	t.log.Debug("item added", slog.Any("key", it.key), slog.Duration("life_span", it.lifeSpan))
	t.metrics.ItemAdded(t.name)
	t.metrics.Items(t.name, n)

	t.cbMu.RLock()
	callbacks := t.addedItem
	t.cbMu.RUnlock()
	for _, cb := range callbacks {
		cb(it)
	}

	if it.expiresNever() {
		return
	}
	if wake := time.Duration(t.wakeAfter.Load()); wake == 0 || it.lifeSpan < wake {
		t.signal()
	}
}

// Delete removes key from the table and returns the removed item. After the
// removal, the table's about-to-delete callbacks run with the item, then the
// item's own about-to-expire callbacks run with its key.
func (t *Table) Delete(key typed.Key) (*Item, error) {
	t.mu.Lock()
	it, ok := t.items[key]
	if !ok {
		t.mu.Unlock()
		return nil, ErrKeyNotFound
	}
	delete(t.items, key)
	n := len(t.items)
	t.mu.Unlock()

	t.log.Debug("item deleted",
		slog.Any("key", key),
		slog.Time("created_on", it.createdOn),
		slog.Uint64("access_count", it.AccessCount()),
	)
	t.metrics.ItemRemoved(t.name, RemoveDeleted)
	t.metrics.Items(t.name, n)

	t.teardown(it)
	return it, nil
}

// Flush removes all items without running any callbacks and puts the
// expiration scheduler back to idle.
func (t *Table) Flush() {
	t.mu.Lock()
	clear(t.items)
	t.wakeAfter.Store(0)
	t.mu.Unlock()

	t.log.Debug("table flushed")
	t.metrics.Flushed(t.name)
	t.metrics.Items(t.name, 0)

	// drop the timer the scheduler may still have armed
	t.signal()
}

// teardown runs the removal notifications for an item that already left
// the map: table callbacks first, then the item's callbacks.
func (t *Table) teardown(it *Item) {
	t.cbMu.RLock()
	callbacks := t.aboutToDeleteItem
	t.cbMu.RUnlock()
	for _, cb := range callbacks {
		cb(it)
	}

	for _, cb := range it.expireCallbacks() {
		cb(it.key)
	}
}

// teardownRecover is teardown for the expiration goroutine, where a
// panicking callback must not take the scheduler down.
func (t *Table) teardownRecover(it *Item) {
	defer func() {
		if r := recover(); r != nil {
			t.metrics.CallbackPanic(t.name)
			t.log.Error("callback panicked",
				slog.Any("key", it.key),
				slog.Any("recovered", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	t.teardown(it)
}

// === callbacks ===

// SetDataLoader installs fn as the data loader, replacing the previous one.
// A nil fn removes the loader.
func (t *Table) SetDataLoader(fn DataLoader) {
	t.cbMu.Lock()
	t.loader = fn
	t.cbMu.Unlock()
}

// SetAddedItemCallback replaces all added-item callbacks with f.
func (t *Table) SetAddedItemCallback(f func(*Item)) {
	t.cbMu.Lock()
	t.addedItem = []func(*Item){f}
	t.cbMu.Unlock()
}

// AddAddedItemCallback appends f to the added-item callbacks.
func (t *Table) AddAddedItemCallback(f func(*Item)) {
	t.cbMu.Lock()
	t.addedItem = append(t.addedItem, f)
	t.cbMu.Unlock()
}

// RemoveAddedItemCallbacks clears the added-item callbacks.
func (t *Table) RemoveAddedItemCallbacks() {
	t.cbMu.Lock()
	t.addedItem = nil
	t.cbMu.Unlock()
}

// SetAboutToDeleteItemCallback replaces all about-to-delete callbacks with f.
func (t *Table) SetAboutToDeleteItemCallback(f func(*Item)) {
	t.cbMu.Lock()
	t.aboutToDeleteItem = []func(*Item){f}
	t.cbMu.Unlock()
}

// AddAboutToDeleteItemCallback appends f to the about-to-delete callbacks.
func (t *Table) AddAboutToDeleteItemCallback(f func(*Item)) {
	t.cbMu.Lock()
	t.aboutToDeleteItem = append(t.aboutToDeleteItem, f)
	t.cbMu.Unlock()
}

// RemoveAboutToDeleteItemCallbacks clears the about-to-delete callbacks.
func (t *Table) RemoveAboutToDeleteItemCallbacks() {
	t.cbMu.Lock()
	t.aboutToDeleteItem = nil
	t.cbMu.Unlock()
}
