// Package art implements the adaptive radix tree that backs the keyspace.
//
// Nodes live in a slab allocator and refer to each other by 32-bit slab
// indices, never by pointers, so the parent↔child cycle costs nothing and
// indices stay valid while the backing store grows. Chains of single-child
// nodes are path-compressed into one node carrying the shared bytes; a
// node's child set keeps up to nine entries inline and spills the rest
// into a separately slab-allocated overflow block.
//
// Expiration is lazy plus probabilistic: reads filter against a cached
// millisecond clock, and a sweep samples slab slots tagged as carrying a
// deadline, Redis-style.
//
// Keys are expected to be ASCII: the two child tiers together cover the
// 127 materialized radix positions. Other bytes are stored faithfully but
// can exhaust a node's fan-out.
package art
