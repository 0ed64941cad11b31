// Package metric exposes Prometheus metrics for radixkv.
//
// A Registry bundles the engine and server collectors against its own
// prometheus registry so tests can create as many as they like without
// global registration conflicts.
package metric
