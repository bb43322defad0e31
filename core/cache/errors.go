package cache

import "errors"

var (
	// Lookup errors
	ErrKeyNotFound           = errors.New("key not found in cache")
	ErrKeyNotFoundOrLoadable = errors.New("key not found and could not be loaded into cache")

	// Typed view errors
	ErrValueType = errors.New("cached value has unexpected type")
)
