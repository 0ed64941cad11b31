package redisserver

import (
	"time"

	"github.com/yndnr/radixkv-go/internal/storage/value"
)

func durationFrom(n uint64, millis bool) time.Duration {
	if millis {
		return time.Duration(n) * time.Millisecond
	}
	return time.Duration(n) * time.Second
}

func (h *Handler) get(c *Conn, args [][]byte) {
	if len(args) != 1 {
		_ = WriteError(c.bw, wrongArity("GET"))
		return
	}
	b, ok, err := h.store.Get(args[0])
	if err != nil {
		writeValueErr(c, err)
		return
	}
	if !ok {
		_ = WriteNullBulk(c.bw)
		return
	}
	_ = WriteBulk(c.bw, b)
}

// setOptions are the parsed SET flags. EX/PX and NX/XX are each
// mutually exclusive.
type setOptions struct {
	ttl time.Duration
	nx  bool
	xx  bool
}

func parseSetOptions(args [][]byte) (setOptions, string) {
	var opts setOptions
	hasExpiry := false
	for i := 0; i < len(args); i++ {
		switch normalizeCommandName(args[i]) {
		case "EX", "PX":
			if hasExpiry {
				return opts, syntaxErrMsg
			}
			hasExpiry = true
			millis := normalizeCommandName(args[i]) == "PX"
			i++
			if i >= len(args) {
				return opts, syntaxErrMsg
			}
			n, ok := parseUint(args[i])
			if !ok {
				return opts, notIntegerMsg
			}
			if n == 0 {
				return opts, invalidExpire
			}
			opts.ttl = durationFrom(n, millis)
		case "NX":
			if opts.xx {
				return opts, syntaxErrMsg
			}
			opts.nx = true
		case "XX":
			if opts.nx {
				return opts, syntaxErrMsg
			}
			opts.xx = true
		default:
			return opts, syntaxErrMsg
		}
	}
	return opts, ""
}

func (h *Handler) set(c *Conn, args [][]byte) {
	if len(args) < 2 {
		_ = WriteError(c.bw, wrongArity("SET"))
		return
	}
	opts, errMsg := parseSetOptions(args[2:])
	if errMsg != "" {
		_ = WriteError(c.bw, errMsg)
		return
	}
	if !h.store.Set(args[0], cloneBytes(args[1]), opts.ttl, opts.nx, opts.xx) {
		_ = WriteNullBulk(c.bw)
		return
	}
	_, _ = c.bw.Write(replyOK)
}

func (h *Handler) setnx(c *Conn, args [][]byte) {
	if len(args) != 2 {
		_ = WriteError(c.bw, wrongArity("SETNX"))
		return
	}
	if h.store.Set(args[0], cloneBytes(args[1]), 0, true, false) {
		_ = WriteInteger(c.bw, 1)
		return
	}
	_ = WriteInteger(c.bw, 0)
}

func (h *Handler) setex(c *Conn, args [][]byte) {
	if len(args) != 3 {
		_ = WriteError(c.bw, wrongArity("SETEX"))
		return
	}
	secs, ok := parseUint(args[1])
	if !ok {
		_ = WriteError(c.bw, notIntegerMsg)
		return
	}
	if secs == 0 {
		_ = WriteError(c.bw, "ERR invalid expire time in 'setex' command")
		return
	}
	h.store.Set(args[0], cloneBytes(args[2]), durationFrom(secs, false), false, false)
	_, _ = c.bw.Write(replyOK)
}

func (h *Handler) mget(c *Conn, args [][]byte) {
	if len(args) == 0 {
		_ = WriteError(c.bw, wrongArity("MGET"))
		return
	}
	writeBulkArray(c, h.store.MGet(args))
}

func (h *Handler) mset(c *Conn, args [][]byte) {
	if len(args) == 0 || len(args)%2 != 0 {
		_ = WriteError(c.bw, wrongArity("MSET"))
		return
	}
	pairs := make([]value.FieldValue, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		pairs = append(pairs, value.FieldValue{
			Field: string(args[i]),
			Value: cloneBytes(args[i+1]),
		})
	}
	h.store.MSet(pairs)
	_, _ = c.bw.Write(replyOK)
}

func (h *Handler) incrBy(c *Conn, args [][]byte, delta int64, fixed bool) {
	name := "INCRBY"
	if fixed {
		name = "INCR"
	}
	want := 2
	if fixed {
		want = 1
	}
	if len(args) != want {
		_ = WriteError(c.bw, wrongArity(name))
		return
	}
	if !fixed {
		var ok bool
		if delta, ok = parseInt(args[1]); !ok {
			_ = WriteError(c.bw, notIntegerMsg)
			return
		}
	}
	n, err := h.store.IncrBy(args[0], delta)
	if err != nil {
		writeValueErr(c, err)
		return
	}
	_ = WriteInteger(c.bw, n)
}

func (h *Handler) decrBy(c *Conn, args [][]byte, delta int64, fixed bool) {
	name := "DECRBY"
	if fixed {
		name = "DECR"
	}
	want := 2
	if fixed {
		want = 1
	}
	if len(args) != want {
		_ = WriteError(c.bw, wrongArity(name))
		return
	}
	if !fixed {
		var ok bool
		if delta, ok = parseInt(args[1]); !ok {
			_ = WriteError(c.bw, notIntegerMsg)
			return
		}
	}
	n, err := h.store.DecrBy(args[0], delta)
	if err != nil {
		writeValueErr(c, err)
		return
	}
	_ = WriteInteger(c.bw, n)
}
