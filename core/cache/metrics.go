package cache

import "github.com/codewandler/typedcache/core/metrics"

// RemoveReason tells why an item left a table.
type RemoveReason string

const (
	RemoveDeleted RemoveReason = "deleted"
	RemoveExpired RemoveReason = "expired"
)

// CacheMetrics defines the instrumentation hooks of a table.
// All methods are thread-safe and labelled with the table name.
type CacheMetrics interface {
	// Lookups via Value
	Hit(table string)
	Miss(table string)

	// Data loader
	LoadDuration(table string) metrics.Timer
	Loaded(table string, success bool)

	// Entry map
	ItemAdded(table string)
	ItemRemoved(table string, reason RemoveReason)
	Items(table string, count int)
	Flushed(table string)

	// Expiration scheduler
	SweepDuration(table string) metrics.Timer
	CallbackPanic(table string)
}

// nopCacheMetrics is a no-op implementation of CacheMetrics.
type nopCacheMetrics struct{}

func (nopCacheMetrics) Hit(string)  {}
func (nopCacheMetrics) Miss(string) {}

func (nopCacheMetrics) LoadDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopCacheMetrics) Loaded(string, bool)               {}

func (nopCacheMetrics) ItemAdded(string)                 {}
func (nopCacheMetrics) ItemRemoved(string, RemoveReason) {}
func (nopCacheMetrics) Items(string, int)                {}
func (nopCacheMetrics) Flushed(string)                   {}

func (nopCacheMetrics) SweepDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopCacheMetrics) CallbackPanic(string)               {}

// NopCacheMetrics returns a no-op CacheMetrics implementation.
func NopCacheMetrics() CacheMetrics { return nopCacheMetrics{} }
