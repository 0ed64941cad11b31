package redisserver

func (h *Handler) sadd(c *Conn, args [][]byte) {
	if len(args) < 2 {
		_ = WriteError(c.bw, wrongArity("SADD"))
		return
	}
	n, err := h.store.SAdd(args[0], args[1:])
	if err != nil {
		writeValueErr(c, err)
		return
	}
	_ = WriteInteger(c.bw, int64(n))
}

func (h *Handler) srem(c *Conn, args [][]byte) {
	if len(args) < 2 {
		_ = WriteError(c.bw, wrongArity("SREM"))
		return
	}
	n, err := h.store.SRem(args[0], args[1:])
	if err != nil {
		writeValueErr(c, err)
		return
	}
	_ = WriteInteger(c.bw, int64(n))
}

func (h *Handler) sismember(c *Conn, args [][]byte) {
	if len(args) != 2 {
		_ = WriteError(c.bw, wrongArity("SISMEMBER"))
		return
	}
	ok, err := h.store.SIsMember(args[0], args[1])
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

func (h *Handler) scard(c *Conn, args [][]byte) {
	if len(args) != 1 {
		_ = WriteError(c.bw, wrongArity("SCARD"))
		return
	}
	n, err := h.store.SCard(args[0])
	if err != nil {
		writeValueErr(c, err)
		return
	}
	_ = WriteInteger(c.bw, int64(n))
}

func (h *Handler) smembers(c *Conn, args [][]byte) {
	if len(args) != 1 {
		_ = WriteError(c.bw, wrongArity("SMEMBERS"))
		return
	}
	members, err := h.store.SMembers(args[0])
	if err != nil {
		writeValueErr(c, err)
		return
	}
	writeBulkArray(c, members)
}

// spop replies with a single bulk without a count argument and an array
// with one, matching the Redis calling convention.
func (h *Handler) spop(c *Conn, args [][]byte) {
	if len(args) != 1 && len(args) != 2 {
		_ = WriteError(c.bw, wrongArity("SPOP"))
		return
	}
	count := 1
	withCount := len(args) == 2
	if withCount {
		n, ok := parseUint(args[1])
		if !ok || n == 0 {
			_ = WriteError(c.bw, notIntegerMsg)
			return
		}
		count = int(n)
	}
	popped, err := h.store.SPop(args[0], count)
	if err != nil {
		writeValueErr(c, err)
		return
	}
	if !withCount {
		if len(popped) == 0 {
			_ = WriteNullBulk(c.bw)
			return
		}
		_ = WriteBulk(c.bw, popped[0])
		return
	}
	writeBulkArray(c, popped)
}
