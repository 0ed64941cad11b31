package redisserver

import "github.com/yndnr/radixkv-go/internal/storage/value"

// zadd accepts only score/member pairs; the ZADD condition flags
// (NX/XX/GT/LT/CH/INCR) are not supported. A flag in a score position is
// rejected with the not-a-valid-float error, and an argument count that no
// longer forms pairs with the wrong-arity error.
func (h *Handler) zadd(c *Conn, args [][]byte) {
	if len(args) < 3 || len(args)%2 == 0 {
		_ = WriteError(c.bw, wrongArity("ZADD"))
		return
	}
	entries := make([]value.ZEntry, 0, (len(args)-1)/2)
	for i := 1; i < len(args); i += 2 {
		score, ok := parseFloat(args[i])
		if !ok {
			_ = WriteError(c.bw, notFloatMsg)
			return
		}
		entries = append(entries, value.ZEntry{Score: score, Member: string(args[i+1])})
	}
	added, err := h.store.ZAdd(args[0], entries)
	if err != nil {
		writeValueErr(c, err)
		return
	}
	_ = WriteInteger(c.bw, int64(added))
}

func (h *Handler) zcard(c *Conn, args [][]byte) {
	if len(args) != 1 {
		_ = WriteError(c.bw, wrongArity("ZCARD"))
		return
	}
	n, err := h.store.ZCard(args[0])
	if err != nil {
		writeValueErr(c, err)
		return
	}
	_ = WriteInteger(c.bw, int64(n))
}

func (h *Handler) zrange(c *Conn, args [][]byte) {
	if len(args) != 3 && len(args) != 4 {
		_ = WriteError(c.bw, wrongArity("ZRANGE"))
		return
	}
	start, ok := parseInt(args[1])
	if !ok {
		_ = WriteError(c.bw, notIntegerMsg)
		return
	}
	stop, ok := parseInt(args[2])
	if !ok {
		_ = WriteError(c.bw, notIntegerMsg)
		return
	}
	withScores := false
	if len(args) == 4 {
		if normalizeCommandName(args[3]) != "WITHSCORES" {
			_ = WriteError(c.bw, syntaxErrMsg)
			return
		}
		withScores = true
	}
	items, err := h.store.ZRange(args[0], start, stop, withScores)
	if err != nil {
		writeValueErr(c, err)
		return
	}
	writeBulkArray(c, items)
}

func (h *Handler) zscore(c *Conn, args [][]byte) {
	if len(args) != 2 {
		_ = WriteError(c.bw, wrongArity("ZSCORE"))
		return
	}
	score, ok, err := h.store.ZScore(args[0], args[1])
	if err != nil {
		writeValueErr(c, err)
		return
	}
	if !ok {
		_ = WriteNullBulk(c.bw)
		return
	}
	_ = WriteBulk(c.bw, value.FormatScore(score))
}

func (h *Handler) zrem(c *Conn, args [][]byte) {
	if len(args) < 2 {
		_ = WriteError(c.bw, wrongArity("ZREM"))
		return
	}
	n, err := h.store.ZRem(args[0], args[1:])
	if err != nil {
		writeValueErr(c, err)
		return
	}
	_ = WriteInteger(c.bw, int64(n))
}

func (h *Handler) zincrby(c *Conn, args [][]byte) {
	if len(args) != 3 {
		_ = WriteError(c.bw, wrongArity("ZINCRBY"))
		return
	}
	delta, ok := parseFloat(args[1])
	if !ok {
		_ = WriteError(c.bw, notFloatMsg)
		return
	}
	score, err := h.store.ZIncrBy(args[0], delta, args[2])
	if err != nil {
		writeValueErr(c, err)
		return
	}
	_ = WriteBulk(c.bw, value.FormatScore(score))
}
