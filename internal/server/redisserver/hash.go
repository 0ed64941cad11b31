package redisserver

import "github.com/yndnr/radixkv-go/internal/storage/value"

// hset serves HSET and, with legacy true, HMSET (which always replies
// +OK for compatibility with old clients).
func (h *Handler) hset(c *Conn, args [][]byte, legacy bool) {
	name := "HSET"
	if legacy {
		name = "HMSET"
	}
	if len(args) < 3 || len(args)%2 == 0 {
		_ = WriteError(c.bw, wrongArity(name))
		return
	}
	pairs := make([]value.FieldValue, 0, (len(args)-1)/2)
	for i := 1; i < len(args); i += 2 {
		pairs = append(pairs, value.FieldValue{
			Field: string(args[i]),
			Value: cloneBytes(args[i+1]),
		})
	}
	added, err := h.store.HSet(args[0], pairs)
	if err != nil {
		writeValueErr(c, err)
		return
	}
	if legacy {
		_, _ = c.bw.Write(replyOK)
		return
	}
	_ = WriteInteger(c.bw, int64(added))
}

func (h *Handler) hget(c *Conn, args [][]byte) {
	if len(args) != 2 {
		_ = WriteError(c.bw, wrongArity("HGET"))
		return
	}
	b, ok, err := h.store.HGet(args[0], args[1])
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

func (h *Handler) hgetall(c *Conn, args [][]byte) {
	if len(args) != 1 {
		_ = WriteError(c.bw, wrongArity("HGETALL"))
		return
	}
	flat, err := h.store.HGetAll(args[0])
	if err != nil {
		writeValueErr(c, err)
		return
	}
	writeBulkArray(c, flat)
}

func (h *Handler) hdel(c *Conn, args [][]byte) {
	if len(args) < 2 {
		_ = WriteError(c.bw, wrongArity("HDEL"))
		return
	}
	n, err := h.store.HDel(args[0], args[1:])
	if err != nil {
		writeValueErr(c, err)
		return
	}
	_ = WriteInteger(c.bw, int64(n))
}

func (h *Handler) hexists(c *Conn, args [][]byte) {
	if len(args) != 2 {
		_ = WriteError(c.bw, wrongArity("HEXISTS"))
		return
	}
	ok, err := h.store.HExists(args[0], args[1])
	if err != nil {
		writeValueErr(c, err)
		return
	}
	if ok {
		_ = WriteInteger(c.bw, 1)
		return
	}
	_ = WriteInteger(c.bw, 0)
}

func (h *Handler) hlen(c *Conn, args [][]byte) {
	if len(args) != 1 {
		_ = WriteError(c.bw, wrongArity("HLEN"))
		return
	}
	n, err := h.store.HLen(args[0])
	if err != nil {
		writeValueErr(c, err)
		return
	}
	_ = WriteInteger(c.bw, int64(n))
}

func (h *Handler) hkeys(c *Conn, args [][]byte) {
	if len(args) != 1 {
		_ = WriteError(c.bw, wrongArity("HKEYS"))
		return
	}
	fields, err := h.store.HKeys(args[0])
	if err != nil {
		writeValueErr(c, err)
		return
	}
	writeBulkArray(c, fields)
}

func (h *Handler) hvals(c *Conn, args [][]byte) {
	if len(args) != 1 {
		_ = WriteError(c.bw, wrongArity("HVALS"))
		return
	}
	vals, err := h.store.HVals(args[0])
	if err != nil {
		writeValueErr(c, err)
		return
	}
	writeBulkArray(c, vals)
}

func (h *Handler) hmget(c *Conn, args [][]byte) {
	if len(args) < 2 {
		_ = WriteError(c.bw, wrongArity("HMGET"))
		return
	}
	vals, err := h.store.HMGet(args[0], args[1:])
	if err != nil {
		writeValueErr(c, err)
		return
	}
	writeBulkArray(c, vals)
}

func (h *Handler) hincrby(c *Conn, args [][]byte) {
	if len(args) != 3 {
		_ = WriteError(c.bw, wrongArity("HINCRBY"))
		return
	}
	delta, ok := parseInt(args[2])
	if !ok {
		_ = WriteError(c.bw, notIntegerMsg)
		return
	}
	n, err := h.store.HIncrBy(args[0], args[1], delta)
	if err != nil {
		writeValueErr(c, err)
		return
	}
	_ = WriteInteger(c.bw, n)
}
