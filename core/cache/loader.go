package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/codewandler/typedcache/ports/kv"
)

type StoreLoaderOptions[K comparable] struct {
	// KeyFunc maps a cache key to a store key. Defaults to fmt.Sprint.
	KeyFunc func(K) string
	// LifeSpan of loaded items, 0 = never expire.
	LifeSpan time.Duration
	// Timeout of a single store read. Defaults to 5s.
	Timeout time.Duration
	Log     *slog.Logger
}

// StoreLoader returns a loader for Typed.SetDataLoader that reads missing
// keys from a kv.Store holding JSON encoded values. Keys absent from the
// store are declined; store and decode errors are logged and declined too.
func StoreLoader[K comparable, V any](store kv.Store, opts StoreLoaderOptions[K]) func(K) (V, time.Duration, bool) {
	if opts.KeyFunc == nil {
		opts.KeyFunc = func(k K) string { return fmt.Sprint(k) }
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}

	return func(key K) (v V, lifeSpan time.Duration, ok bool) {
		ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
		defer cancel()

		storeKey := opts.KeyFunc(key)
		v, err := kv.Get[V](ctx, store, storeKey)
		if err != nil {
			if !errors.Is(err, kv.ErrNotFound) {
				opts.Log.Warn("store load failed", slog.String("store_key", storeKey), slog.Any("error", err))
			}
			return v, 0, false
		}
		return v, opts.LifeSpan, true
	}
}
