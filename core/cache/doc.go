// Package cache provides named, in-process cache tables with per-item
// expiration, lazy population on miss and lifecycle callbacks.
//
// A [Table] stores [Item]s under type-erased keys (see package typed), so
// one table can hold many key and value types side by side. [Typed] gives a
// compile-time typed view of a table for one key/value type pair.
//
//	users := cache.NewTyped[UserID, *User](cache.Cache("users"))
//	users.Add(42, 5*time.Minute, u)
//	if u, err := users.Value(42); err == nil {
//	    // u is *User; the access pushed its expiration back
//	}
//
// # Expiration
//
// Every item has a life span counted from its last access via Value (or its
// creation). Zero means the item never expires. Each table runs a single
// goroutine that sleeps until the earliest known expiry, removes everything
// that is due and goes back to sleep. Adding an item that expires sooner than
// the current wake-up wakes the goroutine early. [Table.Close] stops it.
//
// # Data Loading
//
// A [DataLoader] installed with [Table.SetDataLoader] is asked for missing
// keys by [Table.Value]. Concurrent misses of one key share one loader call.
// [StoreLoader] builds a loader reading through a [kv.Store].
//
//	users.SetDataLoader(cache.StoreLoader[UserID, *User](store, cache.StoreLoaderOptions[UserID]{
//	    LifeSpan: time.Minute,
//	}))
//
// # Callbacks
//
// Tables notify added items and items about to be deleted; items notify
// their own expiration. On removal, whether by Delete or by expiration, the
// item leaves the map first, then the table's about-to-delete callbacks run,
// then the item's about-to-expire callbacks. Flush runs no callbacks.
//
// Callbacks run synchronously on the goroutine that caused them, after the
// table lock was released, and may use the table.
//
// # Registry
//
// [Registry] hands out tables by name; [Cache] uses the process-wide
// [Default] registry.
package cache
