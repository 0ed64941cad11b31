// Package cmap provides a concurrent-safe sharded map with string keys.
//
// Sharding spreads lock contention across independent buckets, which
// beats a single RWMutex when many goroutines hit the map at once — the
// pub/sub registry being the canonical user here.
package cmap
