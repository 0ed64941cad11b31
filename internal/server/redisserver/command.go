package redisserver

import (
	"strconv"

	"github.com/yndnr/radixkv-go/internal/storage"
	"github.com/yndnr/radixkv-go/internal/storage/value"
	"github.com/yndnr/radixkv-go/internal/telemetry/logger"
	"github.com/yndnr/radixkv-go/internal/telemetry/metric"
)

const (
	wrongTypeMsg    = "WRONGTYPE Operation against a key holding the wrong kind of value"
	notIntegerMsg   = "ERR value is not an integer or out of range"
	notFloatMsg     = "ERR value is not a valid float"
	syntaxErrMsg    = "ERR syntax error"
	overflowMsg     = "ERR increment or decrement would overflow"
	hashNotIntMsg   = "ERR hash value is not an integer or out of range"
	subOnlyMsg      = "ERR only SUBSCRIBE / UNSUBSCRIBE / PING / QUIT / PUBLISH are allowed in this context"
	invalidExpire   = "ERR invalid expire time in 'set' command"
)

// Handler binds decoded commands onto the store and the pub/sub
// registry.
type Handler struct {
	store   *storage.Store
	pubsub  *Registry
	srv     *Server
	logger  logger.Logger
	metrics *metric.Registry
}

// NewHandler creates a Handler. srv is needed for the subscribe-time
// writer handoff.
func NewHandler(store *storage.Store, pubsub *Registry, srv *Server, log logger.Logger, metrics *metric.Registry) *Handler {
	if log == nil {
		log = logger.Default()
	}
	return &Handler{store: store, pubsub: pubsub, srv: srv, logger: log, metrics: metrics}
}

// Handle dispatches one command. The return value asks the serve loop to
// close the connection (QUIT).
func (h *Handler) Handle(c *Conn, args [][]byte) (quit bool) {
	cmd := normalizeCommandName(args[0])
	rest := args[1:]

	// A subscribed connection only speaks the pub/sub dialect.
	if c.subscriberMode() {
		switch cmd {
		case "SUBSCRIBE", "UNSUBSCRIBE", "PING", "QUIT", "PUBLISH":
		default:
			c.send(appendError(nil, subOnlyMsg))
			h.count(cmd)
			return false
		}
	}

	known := true
	switch cmd {
	// GET and SET lead the decision tree: they dominate every
	// read/write-heavy workload.
	case "GET":
		h.get(c, rest)
	case "SET":
		h.set(c, rest)

	case "PING":
		h.ping(c, rest)
	case "ECHO":
		h.echo(c, rest)
	case "QUIT":
		h.quitCmd(c)
		quit = true
	case "SELECT":
		_, _ = c.bw.Write(replyOK)

	case "DEL":
		h.del(c, rest)
	case "EXISTS":
		h.exists(c, rest)
	case "TYPE":
		h.typeCmd(c, rest)
	case "KEYS":
		h.keys(c, rest)
	case "DBSIZE":
		_ = WriteInteger(c.bw, int64(h.store.Len()))
	case "FLUSHDB":
		h.store.Flush()
		_, _ = c.bw.Write(replyOK)
	case "EXPIRE":
		h.expire(c, rest, false)
	case "PEXPIRE":
		h.expire(c, rest, true)
	case "PERSIST":
		h.persist(c, rest)
	case "TTL":
		h.ttl(c, rest, false)
	case "PTTL":
		h.ttl(c, rest, true)

	case "SETNX":
		h.setnx(c, rest)
	case "SETEX":
		h.setex(c, rest)
	case "MGET":
		h.mget(c, rest)
	case "MSET":
		h.mset(c, rest)
	case "INCR":
		h.incrBy(c, rest, 1, true)
	case "DECR":
		h.decrBy(c, rest, 1, true)
	case "INCRBY":
		h.incrBy(c, rest, 0, false)
	case "DECRBY":
		h.decrBy(c, rest, 0, false)

	case "HSET":
		h.hset(c, rest, false)
	case "HMSET":
		h.hset(c, rest, true)
	case "HGET":
		h.hget(c, rest)
	case "HGETALL":
		h.hgetall(c, rest)
	case "HDEL":
		h.hdel(c, rest)
	case "HEXISTS":
		h.hexists(c, rest)
	case "HLEN":
		h.hlen(c, rest)
	case "HKEYS":
		h.hkeys(c, rest)
	case "HVALS":
		h.hvals(c, rest)
	case "HMGET":
		h.hmget(c, rest)
	case "HINCRBY":
		h.hincrby(c, rest)

	case "SADD":
		h.sadd(c, rest)
	case "SREM":
		h.srem(c, rest)
	case "SISMEMBER":
		h.sismember(c, rest)
	case "SCARD":
		h.scard(c, rest)
	case "SMEMBERS":
		h.smembers(c, rest)
	case "SPOP":
		h.spop(c, rest)

	case "ZADD":
		h.zadd(c, rest)
	case "ZCARD":
		h.zcard(c, rest)
	case "ZRANGE":
		h.zrange(c, rest)
	case "ZSCORE":
		h.zscore(c, rest)
	case "ZREM":
		h.zrem(c, rest)
	case "ZINCRBY":
		h.zincrby(c, rest)

	case "SUBSCRIBE":
		h.subscribe(c, rest)
	case "UNSUBSCRIBE":
		h.unsubscribe(c, rest)
	case "PUBLISH":
		h.publish(c, rest)

	default:
		known = false
		_ = WriteError(c.bw, "ERR unknown command '"+cmd+"'")
	}

	if known {
		h.count(cmd)
	} else {
		h.count("unknown")
	}
	return quit
}

func (h *Handler) count(cmd string) {
	if h.metrics != nil {
		h.metrics.CommandsTotal.WithLabelValues(cmd).Inc()
	}
}

// ---------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------

func wrongArity(cmd string) string {
	return "ERR wrong number of arguments for '" + cmd + "' command"
}

// writeValueErr maps engine errors onto their RESP renderings.
func writeValueErr(c *Conn, err error) {
	switch err {
	case value.ErrWrongType:
		_ = WriteError(c.bw, wrongTypeMsg)
	case value.ErrNotAnInteger:
		_ = WriteError(c.bw, notIntegerMsg)
	case value.ErrOverflow:
		_ = WriteError(c.bw, overflowMsg)
	case value.ErrHashNotAnInt:
		_ = WriteError(c.bw, hashNotIntMsg)
	default:
		_ = WriteError(c.bw, "ERR "+err.Error())
	}
}

func parseInt(b []byte) (int64, bool) {
	n, err := strconv.ParseInt(string(b), 10, 64)
	return n, err == nil
}

func parseUint(b []byte) (uint64, bool) {
	n, err := strconv.ParseUint(string(b), 10, 64)
	return n, err == nil
}

func parseFloat(b []byte) (float64, bool) {
	f, err := strconv.ParseFloat(string(b), 64)
	return f, err == nil
}

// cloneBytes copies an argument that outlives the frame buffer, i.e.
// anything the engine retains.
func cloneBytes(b []byte) []byte {
	return append([]byte(nil), b...)
}

func writeBulkArray(c *Conn, items [][]byte) {
	_ = WriteArrayHeader(c.bw, len(items))
	for _, it := range items {
		_ = WriteBulk(c.bw, it)
	}
}

func appendError(buf []byte, msg string) []byte {
	buf = append(buf, '-')
	buf = append(buf, msg...)
	return append(buf, crlf...)
}

// ---------------------------------------------------------------------
// Connection commands
// ---------------------------------------------------------------------

func (h *Handler) ping(c *Conn, args [][]byte) {
	if len(args) > 0 {
		if c.subscriberMode() {
			c.send(appendBulk(nil, args[0]))
			return
		}
		_ = WriteBulk(c.bw, args[0])
		return
	}
	if c.subscriberMode() {
		c.send(replyPong)
		return
	}
	_, _ = c.bw.Write(replyPong)
}

func (h *Handler) echo(c *Conn, args [][]byte) {
	if len(args) != 1 {
		_ = WriteError(c.bw, wrongArity("ECHO"))
		return
	}
	_ = WriteBulk(c.bw, args[0])
}

func (h *Handler) quitCmd(c *Conn) {
	if c.subscriberMode() {
		c.send(replyOK)
		return
	}
	_, _ = c.bw.Write(replyOK)
}

// ---------------------------------------------------------------------
// Generic key commands
// ---------------------------------------------------------------------

func (h *Handler) del(c *Conn, args [][]byte) {
	if len(args) == 0 {
		_ = WriteError(c.bw, wrongArity("DEL"))
		return
	}
	_ = WriteInteger(c.bw, int64(h.store.Del(args)))
}

func (h *Handler) exists(c *Conn, args [][]byte) {
	if len(args) == 0 {
		_ = WriteError(c.bw, wrongArity("EXISTS"))
		return
	}
	_ = WriteInteger(c.bw, int64(h.store.Exists(args)))
}

func (h *Handler) typeCmd(c *Conn, args [][]byte) {
	if len(args) != 1 {
		_ = WriteError(c.bw, wrongArity("TYPE"))
		return
	}
	_ = WriteSimpleString(c.bw, h.store.Type(args[0]))
}

func (h *Handler) keys(c *Conn, args [][]byte) {
	if len(args) != 1 {
		_ = WriteError(c.bw, wrongArity("KEYS"))
		return
	}
	writeBulkArray(c, h.store.Keys(args[0]))
}

func (h *Handler) expire(c *Conn, args [][]byte, millis bool) {
	name := "EXPIRE"
	if millis {
		name = "PEXPIRE"
	}
	if len(args) != 2 {
		_ = WriteError(c.bw, wrongArity(name))
		return
	}
	n, ok := parseUint(args[1])
	if !ok {
		_ = WriteError(c.bw, notIntegerMsg)
		return
	}
	ttl := durationFrom(n, millis)
	if h.store.Expire(args[0], ttl) {
		_ = WriteInteger(c.bw, 1)
		return
	}
	_ = WriteInteger(c.bw, 0)
}

func (h *Handler) persist(c *Conn, args [][]byte) {
	if len(args) != 1 {
		_ = WriteError(c.bw, wrongArity("PERSIST"))
		return
	}
	if h.store.Persist(args[0]) {
		_ = WriteInteger(c.bw, 1)
		return
	}
	_ = WriteInteger(c.bw, 0)
}

func (h *Handler) ttl(c *Conn, args [][]byte, millis bool) {
	name := "TTL"
	if millis {
		name = "PTTL"
	}
	if len(args) != 1 {
		_ = WriteError(c.bw, wrongArity(name))
		return
	}
	if millis {
		_ = WriteInteger(c.bw, h.store.PTTL(args[0]))
		return
	}
	_ = WriteInteger(c.bw, h.store.TTL(args[0]))
}
