// Package main provides the entry point for radixkv-server.
//
// radixkv-server is a Redis-compatible in-memory key-value server built
// on an adaptive radix tree.
package main
