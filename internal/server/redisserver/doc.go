// Package redisserver serves the keyspace over the Redis RESP2 protocol.
//
// Inbound frames are arrays of bulk strings decoded into argument slices
// that borrow from a per-connection frame buffer — no per-argument
// allocation on the hot path. Dispatch is a case-insensitive switch with
// GET and SET tried first. Replies are shaped per the RESP2 spec, with
// the static ones (+OK, +PONG) interned.
//
// A connection that subscribes hands its write half to a dedicated
// writer goroutine; published messages are encoded once and fanned out
// by reference through bounded per-subscriber queues.
package redisserver
