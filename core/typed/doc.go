// Package typed provides the type-erasure layer of the cache: handles that
// let a single map hold keys and values of arbitrarily many concrete types.
//
// A [Key] wraps a comparable value. Two keys are equal iff their concrete
// types match and their values are equal, and map hashing always agrees with
// that equality. Converting a concrete key with [KeyOf] is all a lookup needs,
// the concrete key is never copied into a new allocation owned by the map.
//
//	k := typed.KeyOf(UserID(42))
//	id, ok := typed.DowncastKey[UserID](k) // 42, true
//	_, ok = typed.DowncastKey[string](k)   // "", false
//
// A [Value] wraps a value of any type. [Downcast] copies the value out,
// [DowncastPtr] returns a pointer to the stored value so it can be read or
// modified in place. Both report false on a type mismatch and never panic.
package typed
