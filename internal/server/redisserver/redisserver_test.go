package redisserver

import (
	"bufio"
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/radixkv-go/internal/storage"
)

// startTestServer brings up a server on an ephemeral port with a
// hand-driven clock.
func startTestServer(t *testing.T) (*storage.Store, string) {
	t.Helper()
	store := storage.New(storage.DefaultConfig())
	store.Tick(0)

	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	srv := New(cfg, store, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
		defer done()
		_ = srv.Shutdown(shutdownCtx)
	})
	return store, srv.Addr().String()
}

type testClient struct {
	t    *testing.T
	conn net.Conn
	br   *bufio.Reader
}

func dialClient(t *testing.T, addr string) *testClient {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &testClient{t: t, conn: conn, br: bufio.NewReader(conn)}
}

// cmd sends one command as a RESP array.
func (c *testClient) cmd(args ...string) {
	c.t.Helper()
	var sb strings.Builder
	sb.WriteString("*")
	sb.WriteString(itoa(len(args)))
	sb.WriteString("\r\n")
	for _, a := range args {
		sb.WriteString("$")
		sb.WriteString(itoa(len(a)))
		sb.WriteString("\r\n")
		sb.WriteString(a)
		sb.WriteString("\r\n")
	}
	if _, err := c.conn.Write([]byte(sb.String())); err != nil {
		c.t.Fatalf("write: %v", err)
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var b [20]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		b[i] = '-'
	}
	return string(b[i:])
}

// expect reads raw bytes and compares them to the exact RESP reply.
func (c *testClient) expect(want string) {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	got := make([]byte, len(want))
	if _, err := io.ReadFull(c.br, got); err != nil {
		c.t.Fatalf("read (want %q): %v", want, err)
	}
	if string(got) != want {
		rest, _ := c.br.Peek(c.br.Buffered())
		c.t.Fatalf("reply = %q (buffered %q), want %q", got, rest, want)
	}
}

func TestScenarioStringRoundTrip(t *testing.T) {
	_, addr := startTestServer(t)
	c := dialClient(t, addr)

	c.cmd("SET", "foo", "bar")
	c.expect("+OK\r\n")
	c.cmd("GET", "foo")
	c.expect("$3\r\nbar\r\n")
	c.cmd("TYPE", "foo")
	c.expect("+string\r\n")
}

func TestScenarioCounter(t *testing.T) {
	_, addr := startTestServer(t)
	c := dialClient(t, addr)

	c.cmd("SET", "cnt", "0")
	c.expect("+OK\r\n")
	c.cmd("INCR", "cnt")
	c.expect(":1\r\n")
	c.cmd("INCR", "cnt")
	c.expect(":2\r\n")
	c.cmd("GET", "cnt")
	c.expect("$1\r\n2\r\n")
	c.cmd("TYPE", "cnt")
	c.expect("+string\r\n")
}

func TestScenarioHashPrefixKeys(t *testing.T) {
	_, addr := startTestServer(t)
	c := dialClient(t, addr)

	c.cmd("HSET", "user:1", "name", "Alice", "age", "30")
	c.expect(":2\r\n")
	// Regression gate: user:10 splits the user:1 path.
	c.cmd("HSET", "user:10", "name", "Bob")
	c.expect(":1\r\n")
	c.cmd("HGET", "user:1", "name")
	c.expect("$5\r\nAlice\r\n")
	c.cmd("HGET", "user:10", "name")
	c.expect("$3\r\nBob\r\n")
}

func TestScenarioExpiry(t *testing.T) {
	store, addr := startTestServer(t)
	c := dialClient(t, addr)

	c.cmd("SET", "tmp", "x", "PX", "50")
	c.expect("+OK\r\n")
	store.Tick(100 * time.Millisecond)
	c.cmd("GET", "tmp")
	c.expect("$-1\r\n")
	c.cmd("TTL", "tmp")
	c.expect(":-2\r\n")
}

func TestScenarioKeysOrdered(t *testing.T) {
	_, addr := startTestServer(t)
	c := dialClient(t, addr)

	c.cmd("SET", "a", "1")
	c.expect("+OK\r\n")
	c.cmd("SET", "ab", "2")
	c.expect("+OK\r\n")
	c.cmd("SET", "abc", "3")
	c.expect("+OK\r\n")
	c.cmd("KEYS", "a*")
	c.expect("*3\r\n$1\r\na\r\n$2\r\nab\r\n$3\r\nabc\r\n")
}

func TestScenarioZSet(t *testing.T) {
	_, addr := startTestServer(t)
	c := dialClient(t, addr)

	c.cmd("ZADD", "lb", "10", "alice", "20", "bob", "10", "carol")
	c.expect(":3\r\n")
	c.cmd("ZRANGE", "lb", "0", "-1", "WITHSCORES")
	c.expect("*6\r\n$5\r\nalice\r\n$2\r\n10\r\n$5\r\ncarol\r\n$2\r\n10\r\n$3\r\nbob\r\n$2\r\n20\r\n")
}

func TestConnectionCommands(t *testing.T) {
	_, addr := startTestServer(t)
	c := dialClient(t, addr)

	c.cmd("PING")
	c.expect("+PONG\r\n")
	c.cmd("PING", "hello")
	c.expect("$5\r\nhello\r\n")
	c.cmd("ECHO", "msg")
	c.expect("$3\r\nmsg\r\n")
	c.cmd("SELECT", "3")
	c.expect("+OK\r\n")
	c.cmd("NOSUCHCMD")
	c.expect("-ERR unknown command 'NOSUCHCMD'\r\n")

	c.cmd("QUIT")
	c.expect("+OK\r\n")
	_ = c.conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := c.br.ReadByte(); err != io.EOF {
		t.Fatalf("connection not closed after QUIT: %v", err)
	}
}

func TestErrorDiscipline(t *testing.T) {
	_, addr := startTestServer(t)
	c := dialClient(t, addr)

	c.cmd("HSET", "h", "f", "v")
	c.expect(":1\r\n")
	c.cmd("GET", "h")
	c.expect("-WRONGTYPE Operation against a key holding the wrong kind of value\r\n")
	c.cmd("INCR", "h")
	c.expect("-WRONGTYPE Operation against a key holding the wrong kind of value\r\n")

	c.cmd("SET", "s", "abc")
	c.expect("+OK\r\n")
	c.cmd("INCR", "s")
	c.expect("-ERR value is not an integer or out of range\r\n")

	c.cmd("SET", "k", "v", "NX", "XX")
	c.expect("-ERR syntax error\r\n")
	c.cmd("SET", "k", "v", "EX", "1", "PX", "1000")
	c.expect("-ERR syntax error\r\n")
	c.cmd("GET")
	c.expect("-ERR wrong number of arguments for 'GET' command\r\n")
}

func TestSetConditions(t *testing.T) {
	_, addr := startTestServer(t)
	c := dialClient(t, addr)

	c.cmd("SET", "k", "v1", "NX")
	c.expect("+OK\r\n")
	c.cmd("SET", "k", "v2", "NX")
	c.expect("$-1\r\n")
	c.cmd("SET", "k", "v3", "XX")
	c.expect("+OK\r\n")
	c.cmd("SET", "other", "v", "XX")
	c.expect("$-1\r\n")
	c.cmd("SETNX", "k", "v4")
	c.expect(":0\r\n")
	c.cmd("GET", "k")
	c.expect("$2\r\nv3\r\n")
}

func TestMultiKeyCommands(t *testing.T) {
	_, addr := startTestServer(t)
	c := dialClient(t, addr)

	c.cmd("MSET", "a", "1", "b", "2")
	c.expect("+OK\r\n")
	c.cmd("MGET", "a", "nope", "b")
	c.expect("*3\r\n$1\r\n1\r\n$-1\r\n$1\r\n2\r\n")
	c.cmd("EXISTS", "a", "b", "nope")
	c.expect(":2\r\n")
	c.cmd("DBSIZE")
	c.expect(":2\r\n")
	c.cmd("DEL", "a", "nope")
	c.expect(":1\r\n")
	c.cmd("FLUSHDB")
	c.expect("+OK\r\n")
	c.cmd("DBSIZE")
	c.expect(":0\r\n")
}

func TestPubSubFanout(t *testing.T) {
	_, addr := startTestServer(t)
	sub1 := dialClient(t, addr)
	sub2 := dialClient(t, addr)
	pub := dialClient(t, addr)

	sub1.cmd("SUBSCRIBE", "news")
	sub1.expect("*3\r\n$9\r\nsubscribe\r\n$4\r\nnews\r\n:1\r\n")
	sub2.cmd("SUBSCRIBE", "news", "sports")
	sub2.expect("*3\r\n$9\r\nsubscribe\r\n$4\r\nnews\r\n:1\r\n")
	sub2.expect("*3\r\n$9\r\nsubscribe\r\n$6\r\nsports\r\n:2\r\n")

	pub.cmd("PUBLISH", "news", "hi")
	pub.expect(":2\r\n")
	want := "*3\r\n$7\r\nmessage\r\n$4\r\nnews\r\n$2\r\nhi\r\n"
	sub1.expect(want)
	sub2.expect(want)

	// Data commands are refused while subscribed.
	sub1.cmd("GET", "k")
	sub1.expect("-" + subOnlyMsg + "\r\n")

	// PING still works through the writer path.
	sub1.cmd("PING")
	sub1.expect("+PONG\r\n")

	// Unsubscribing the last channel keeps the writer; a later
	// subscribe reuses it.
	sub1.cmd("UNSUBSCRIBE", "news")
	sub1.expect("*3\r\n$11\r\nunsubscribe\r\n$4\r\nnews\r\n:0\r\n")
	sub1.cmd("SUBSCRIBE", "sports")
	sub1.expect("*3\r\n$9\r\nsubscribe\r\n$6\r\nsports\r\n:1\r\n")

	pub.cmd("PUBLISH", "sports", "go")
	pub.expect(":2\r\n")
	sportsMsg := "*3\r\n$7\r\nmessage\r\n$6\r\nsports\r\n$2\r\ngo\r\n"
	sub1.expect(sportsMsg)
	sub2.expect(sportsMsg)

	// sub1 left news and sub2 remains, so news has one subscriber.
	pub.cmd("PUBLISH", "news", "again")
	pub.expect(":1\r\n")
}

func TestPublishToNobody(t *testing.T) {
	_, addr := startTestServer(t)
	c := dialClient(t, addr)
	c.cmd("PUBLISH", "empty", "msg")
	c.expect(":0\r\n")
}

func TestExpireCommands(t *testing.T) {
	store, addr := startTestServer(t)
	c := dialClient(t, addr)

	c.cmd("SET", "k", "v")
	c.expect("+OK\r\n")
	c.cmd("TTL", "k")
	c.expect(":-1\r\n")
	c.cmd("EXPIRE", "k", "10")
	c.expect(":1\r\n")
	c.cmd("TTL", "k")
	c.expect(":10\r\n")
	c.cmd("PTTL", "k")
	c.expect(":10000\r\n")
	c.cmd("PERSIST", "k")
	c.expect(":1\r\n")
	c.cmd("PERSIST", "k")
	c.expect(":0\r\n")
	c.cmd("EXPIRE", "missing", "10")
	c.expect(":0\r\n")

	c.cmd("PEXPIRE", "k", "50")
	c.expect(":1\r\n")
	store.Tick(100 * time.Millisecond)
	c.cmd("EXISTS", "k")
	c.expect(":0\r\n")
}

func TestSetCommands(t *testing.T) {
	_, addr := startTestServer(t)
	c := dialClient(t, addr)

	c.cmd("SADD", "s", "b", "a", "c", "a")
	c.expect(":3\r\n")
	c.cmd("SCARD", "s")
	c.expect(":3\r\n")
	c.cmd("SISMEMBER", "s", "a")
	c.expect(":1\r\n")
	c.cmd("SISMEMBER", "s", "z")
	c.expect(":0\r\n")
	c.cmd("SMEMBERS", "s")
	c.expect("*3\r\n$1\r\na\r\n$1\r\nb\r\n$1\r\nc\r\n")
	c.cmd("SPOP", "s")
	c.expect("$1\r\nc\r\n")
	c.cmd("SREM", "s", "a", "b")
	c.expect(":2\r\n")
	// Drained set deletes the key.
	c.cmd("EXISTS", "s")
	c.expect(":0\r\n")
	c.cmd("SPOP", "s")
	c.expect("$-1\r\n")
}

func TestHashCommands(t *testing.T) {
	_, addr := startTestServer(t)
	c := dialClient(t, addr)

	c.cmd("HMSET", "h", "b", "2", "a", "1")
	c.expect("+OK\r\n")
	c.cmd("HGETALL", "h")
	c.expect("*4\r\n$1\r\na\r\n$1\r\n1\r\n$1\r\nb\r\n$1\r\n2\r\n")
	c.cmd("HLEN", "h")
	c.expect(":2\r\n")
	c.cmd("HKEYS", "h")
	c.expect("*2\r\n$1\r\na\r\n$1\r\nb\r\n")
	c.cmd("HVALS", "h")
	c.expect("*2\r\n$1\r\n1\r\n$1\r\n2\r\n")
	c.cmd("HEXISTS", "h", "a")
	c.expect(":1\r\n")
	c.cmd("HINCRBY", "h", "a", "5")
	c.expect(":6\r\n")
	c.cmd("HMGET", "h", "a", "x", "b")
	c.expect("*3\r\n$1\r\n6\r\n$-1\r\n$1\r\n2\r\n")
	c.cmd("HDEL", "h", "a", "b")
	c.expect(":2\r\n")
	c.cmd("EXISTS", "h")
	c.expect(":0\r\n")
}
