// Package sf provides a generic single-flight mechanism for deduplicating
// concurrent function calls with the same key.
//
// Single-flight ensures that only one execution of a function is in-flight
// for a given key at a time. If multiple goroutines call [Singleflight.Do]
// with the same key concurrently, only the first call executes the function;
// subsequent callers block until the first call completes and then receive
// the same result.
//
// The cache uses it so that concurrent misses of one key run the data loader
// once and all observe the same loaded item.
//
// # Usage
//
//	loads := sf.New[*User]()
//
//	user, shared, err := loads.Do("user:123", func() (*User, error) {
//	    return db.GetUser(ctx, "123")
//	})
package sf
