// Package shard maps string keys onto a fixed number of shards.
package shard

import "github.com/cespare/xxhash/v2"

// ForKey returns the shard in [0, shardCount) that key belongs to.
func ForKey(key string, shardCount int) int {
	return int(xxhash.Sum64String(key) % uint64(shardCount))
}
