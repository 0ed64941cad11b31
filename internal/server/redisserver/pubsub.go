package redisserver

import (
	"sync"

	"github.com/yndnr/radixkv-go/pkg/cmap"
)

// subscriber is one connection's queue into its writer goroutine, plus
// the hook used to drop it when the queue backs up.
type subscriber struct {
	ch   chan []byte
	drop func()
}

// channelSubs is the subscriber set of one channel. The per-channel
// mutex covers membership and fan-out so a send can never race a
// removal.
type channelSubs struct {
	mu   sync.Mutex
	subs map[string]subscriber
}

// Registry maps channels to subscribers. The channel map is sharded for
// concurrent access from connection goroutines; fan-out is per-channel.
type Registry struct {
	channels *cmap.Map[*channelSubs]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{channels: cmap.New[*channelSubs]()}
}

// Subscribe adds the connection's writer queue to the channel's
// subscriber set (idempotent per connection).
func (r *Registry) Subscribe(channel, connID string, ch chan []byte, drop func()) {
	cs := r.channels.GetOrSet(channel, &channelSubs{subs: make(map[string]subscriber)})
	cs.mu.Lock()
	cs.subs[connID] = subscriber{ch: ch, drop: drop}
	cs.mu.Unlock()
}

// Unsubscribe removes the connection from channel.
func (r *Registry) Unsubscribe(channel, connID string) {
	cs, ok := r.channels.Get(channel)
	if !ok {
		return
	}
	cs.mu.Lock()
	delete(cs.subs, connID)
	empty := len(cs.subs) == 0
	cs.mu.Unlock()
	if empty {
		r.channels.Delete(channel)
	}
}

// Publish fans the pre-encoded frame out to every subscriber of channel
// and returns the receiver count. Sends never block: a subscriber whose
// queue is full is dropped on the spot.
func (r *Registry) Publish(channel string, frame []byte) int {
	cs, ok := r.channels.Get(channel)
	if !ok {
		return 0
	}
	cs.mu.Lock()
	for id, sub := range cs.subs {
		select {
		case sub.ch <- frame:
		default:
			delete(cs.subs, id)
			sub.drop()
		}
	}
	n := len(cs.subs)
	cs.mu.Unlock()
	if n == 0 {
		r.channels.Delete(channel)
	}
	return n
}

// DropConn removes a disconnecting subscriber from every channel it was
// in.
func (r *Registry) DropConn(connID string, channels map[string]struct{}) {
	for channel := range channels {
		r.Unsubscribe(channel, connID)
	}
}

// ---------------------------------------------------------------------
// Pub/Sub commands
// ---------------------------------------------------------------------

// encodeMessageFrame builds the ["message", channel, payload] push frame
// once; Publish fans the same bytes out to every subscriber.
func encodeMessageFrame(channel, payload []byte) []byte {
	buf := appendArrayHeader(nil, 3)
	buf = appendBulk(buf, []byte("message"))
	buf = appendBulk(buf, channel)
	return appendBulk(buf, payload)
}

func encodeSubConfirm(action string, channel []byte, count int) []byte {
	buf := appendArrayHeader(nil, 3)
	buf = appendBulk(buf, []byte(action))
	if channel == nil {
		buf = append(buf, nullBulk...)
	} else {
		buf = appendBulk(buf, channel)
	}
	return appendInteger(buf, int64(count))
}

func (h *Handler) subscribe(c *Conn, args [][]byte) {
	if len(args) == 0 {
		if c.subscriberMode() {
			c.send(appendError(nil, wrongArity("SUBSCRIBE")))
			return
		}
		_ = WriteError(c.bw, wrongArity("SUBSCRIBE"))
		return
	}
	// First subscription: flush pending replies and hand the write half
	// to the writer goroutine.
	if err := h.srv.startWriter(c); err != nil {
		c.Close()
		return
	}
	for _, chArg := range args {
		name := string(chArg)
		if _, ok := c.channels[name]; !ok {
			c.channels[name] = struct{}{}
			h.pubsub.Subscribe(name, c.id, c.out, func() { c.Close() })
		}
		c.send(encodeSubConfirm("subscribe", chArg, len(c.channels)))
	}
}

func (h *Handler) unsubscribe(c *Conn, args [][]byte) {
	if !c.subscriberMode() {
		// Nothing to leave; confirm with a nil channel like Redis does.
		_ = WriteArrayHeader(c.bw, 3)
		_ = WriteBulkString(c.bw, "unsubscribe")
		_ = WriteNullBulk(c.bw)
		_ = WriteInteger(c.bw, 0)
		return
	}
	var names [][]byte
	if len(args) > 0 {
		names = args
	} else {
		for name := range c.channels {
			names = append(names, []byte(name))
		}
	}
	if len(names) == 0 {
		c.send(encodeSubConfirm("unsubscribe", nil, 0))
		return
	}
	for _, chArg := range names {
		name := string(chArg)
		if _, ok := c.channels[name]; ok {
			delete(c.channels, name)
			h.pubsub.Unsubscribe(name, c.id)
		}
		c.send(encodeSubConfirm("unsubscribe", chArg, len(c.channels)))
	}
}

func (h *Handler) publish(c *Conn, args [][]byte) {
	if len(args) != 2 {
		if c.subscriberMode() {
			c.send(appendError(nil, wrongArity("PUBLISH")))
			return
		}
		_ = WriteError(c.bw, wrongArity("PUBLISH"))
		return
	}
	frame := encodeMessageFrame(args[0], args[1])
	n := h.pubsub.Publish(string(args[0]), frame)
	if h.metrics != nil {
		h.metrics.PublishedTotal.Inc()
	}
	if c.subscriberMode() {
		c.send(appendInteger(nil, int64(n)))
		return
	}
	_ = WriteInteger(c.bw, int64(n))
}
