package redisserver

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/radixkv-go/internal/storage"
	"github.com/yndnr/radixkv-go/internal/telemetry/logger"
	"github.com/yndnr/radixkv-go/internal/telemetry/metric"
)

// Config holds the RESP server configuration.
type Config struct {
	// Addr is the listen address.
	Addr string
	// ReadTimeout is the timeout for reading a command once its first
	// byte arrived (slowloris protection).
	ReadTimeout time.Duration
	// WriteTimeout is the timeout for writing a response.
	WriteTimeout time.Duration
	// IdleTimeout is how long a connection may sit between commands.
	IdleTimeout time.Duration
	// SubscriberQueue is the outbound queue depth per subscriber; a
	// subscriber that falls this far behind is dropped.
	SubscriberQueue int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:            "127.0.0.1:6379",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     5 * time.Minute,
		SubscriberQueue: 256,
	}
}

// Server accepts RESP connections and serves them against the store.
type Server struct {
	cfg     *Config
	handler *Handler
	pubsub  *Registry
	logger  logger.Logger
	metrics *metric.Registry
	ln      net.Listener
	running atomic.Bool
	wg      sync.WaitGroup
}

// Conn is one client connection. Replies normally go through bw; once
// the connection subscribes, ownership of the write half moves to a
// writer goroutine fed through out.
type Conn struct {
	id       string
	netConn  net.Conn
	br       *Reader
	bw       *bufio.Writer
	out      chan []byte
	channels map[string]struct{}
	closed   atomic.Bool
}

func newConn(c net.Conn) *Conn {
	return &Conn{
		id:       ulid.Make().String(),
		netConn:  c,
		br:       NewReader(c),
		bw:       bufio.NewWriter(c),
		channels: make(map[string]struct{}),
	}
}

// Close shuts the socket down once.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.netConn.RemoteAddr()
}

// subscriberMode reports whether the writer goroutine owns the socket.
func (c *Conn) subscriberMode() bool {
	return c.out != nil
}

// send routes an encoded frame to the client: direct buffered write
// normally, the writer queue in subscriber mode. Sends never block; a
// full queue drops the subscriber.
func (c *Conn) send(frame []byte) {
	if c.out == nil {
		_, _ = c.bw.Write(frame)
		return
	}
	select {
	case c.out <- frame:
	default:
		c.Close()
	}
}

// New creates a RESP server over the given store.
func New(cfg *Config, store *storage.Store, log logger.Logger, metrics *metric.Registry) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = logger.Default()
	}
	s := &Server{
		cfg:     cfg,
		pubsub:  NewRegistry(),
		logger:  log,
		metrics: metrics,
	}
	s.handler = NewHandler(store, s.pubsub, s, log, metrics)
	return s
}

// Start begins accepting connections.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.running.Store(true)
	s.logger.Info("resp server listening", "addr", s.cfg.Addr)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop(ctx, ln)
	}()
	return nil
}

// Addr returns the bound listen address, useful when the configured
// port was 0.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown closes the listener and waits for connections to drain.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)
	var err error
	if s.ln != nil {
		err = s.ln.Close()
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) {
	for {
		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
			s.logger.Error("accept error", "error", err)
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(newConn(c))
		}()
	}
}

func (s *Server) serveConn(c *Conn) {
	if s.metrics != nil {
		s.metrics.ConnectionsActive.Inc()
		defer s.metrics.ConnectionsActive.Dec()
	}
	defer func() {
		s.pubsub.DropConn(c.id, c.channels)
		if c.out != nil {
			close(c.out)
		}
		c.Close()
	}()

	for {
		// First byte under the idle deadline: connections may sit quiet
		// between commands.
		if err := c.netConn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
			return
		}
		if _, err := c.br.Peek(1); err != nil {
			s.logReadError(c, err)
			return
		}

		// Then tighten to the per-command read deadline.
		if err := c.netConn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
			return
		}

		args, err := c.br.ReadCommand()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				s.logger.Debug("connection timed out", "conn", c.id, "remote", c.RemoteAddr())
				return
			}
			if errors.Is(err, ErrLimitExceeded) {
				s.logger.Warn("protocol limit exceeded", "conn", c.id, "remote", c.RemoteAddr(), "error", err)
				s.replyFatal(c, "ERR protocol limit exceeded")
				return
			}
			s.logger.Debug("protocol error", "conn", c.id, "remote", c.RemoteAddr(), "error", err)
			s.replyFatal(c, "ERR protocol error: "+err.Error())
			return
		}

		if len(args) == 0 {
			_ = WriteError(c.bw, "ERR empty command")
			_ = c.bw.Flush()
			continue
		}

		quit := s.handler.Handle(c, args)

		if !c.subscriberMode() {
			if err := c.netConn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
				return
			}
			if err := c.bw.Flush(); err != nil {
				return
			}
		}
		if quit {
			return
		}
	}
}

func (s *Server) logReadError(c *Conn, err error) {
	if errors.Is(err, io.EOF) {
		return
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		s.logger.Debug("idle connection closed", "conn", c.id, "remote", c.RemoteAddr())
		return
	}
	s.logger.Debug("connection read error", "conn", c.id, "remote", c.RemoteAddr(), "error", err)
}

// replyFatal writes a final error before closing the connection.
func (s *Server) replyFatal(c *Conn, msg string) {
	if c.subscriberMode() {
		return
	}
	_ = c.netConn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	_ = WriteError(c.bw, msg)
	_ = c.bw.Flush()
}

// startWriter hands the socket's write half to a goroutine that drains
// the subscriber queue. Pending buffered replies are flushed first so
// ordering is preserved across the handoff.
func (s *Server) startWriter(c *Conn) error {
	if c.out != nil {
		return nil
	}
	if err := c.bw.Flush(); err != nil {
		return err
	}
	c.out = make(chan []byte, s.cfg.SubscriberQueue)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for frame := range c.out {
			_ = c.netConn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if _, err := c.netConn.Write(frame); err != nil {
				c.Close()
				return
			}
			// Batch whatever already queued up behind this frame.
			draining := true
			for draining {
				select {
				case more, ok := <-c.out:
					if !ok {
						return
					}
					if _, err := c.netConn.Write(more); err != nil {
						c.Close()
						return
					}
				default:
					draining = false
				}
			}
		}
	}()
	return nil
}
