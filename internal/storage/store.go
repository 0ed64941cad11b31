package storage

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/radixkv-go/internal/pattern"
	"github.com/yndnr/radixkv-go/internal/storage/art"
	"github.com/yndnr/radixkv-go/internal/storage/value"
)

// writePressureBatch is the number of writes after which an off-tick
// sweep may run, budgeted by the pressure limiter.
const writePressureBatch = 1024

// Config tunes the clock and the expiration sweeps.
type Config struct {
	// TickInterval is how often the cached clock advances and the sweep
	// runs. Deadlines are only as precise as this tick.
	TickInterval time.Duration

	// Sweep bounds one probabilistic eviction cycle.
	Sweep art.SweepConfig

	// PressureSweepsPerSec budgets extra sweeps triggered by write
	// volume between ticks.
	PressureSweepsPerSec float64

	// OnEvict, when set, observes the number of entries each sweep
	// evicted. Used to feed metrics.
	OnEvict func(n int)
}

// DefaultConfig returns the stock tuning: 100ms ticks and the classic
// 20-sample / 25% sweep.
func DefaultConfig() Config {
	return Config{
		TickInterval:         100 * time.Millisecond,
		Sweep:                art.DefaultSweepConfig(),
		PressureSweepsPerSec: 10,
	}
}

// Store is the single-owner container around the radix tree. All access
// is serialized through its mutex; engine calls never block inside the
// critical section.
type Store struct {
	mu      sync.Mutex
	tree    *art.Tree
	cfg     Config
	limiter *rate.Limiter
	writes  int
	epoch   time.Time
}

// New creates an empty store. The clock starts at zero and advances from
// a process-local monotonic epoch once Run ticks.
func New(cfg Config) *Store {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 100 * time.Millisecond
	}
	if cfg.Sweep.SampleSize <= 0 {
		cfg.Sweep = art.DefaultSweepConfig()
	}
	return &Store{
		tree:    art.New(),
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.PressureSweepsPerSec), 1),
		epoch:   time.Now(),
	}
}

// Run advances the clock and sweeps expired keys until ctx is done.
func (s *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			s.tree.SetNow(uint64(time.Since(s.epoch).Milliseconds()))
			n := s.tree.EvictExpired(s.cfg.Sweep)
			s.mu.Unlock()
			if n > 0 && s.cfg.OnEvict != nil {
				s.cfg.OnEvict(n)
			}
		}
	}
}

// Tick advances the clock once, synchronously. Exposed for tests that
// drive time by hand.
func (s *Store) Tick(now time.Duration) {
	s.mu.Lock()
	s.tree.SetNow(uint64(now.Milliseconds()))
	s.mu.Unlock()
}

// noteWrite implements the write-pressure heuristic: after a batch of
// writes, spend one budgeted sweep instead of waiting for the ticker.
// Called with the lock held.
func (s *Store) noteWrite() {
	s.writes++
	if s.writes < writePressureBatch {
		return
	}
	s.writes = 0
	if s.limiter.Allow() {
		n := s.tree.EvictExpired(s.cfg.Sweep)
		if n > 0 && s.cfg.OnEvict != nil {
			s.cfg.OnEvict(n)
		}
	}
}

func (s *Store) deadlineFor(ttl time.Duration) uint64 {
	return s.tree.Now() + uint64(ttl.Milliseconds())
}

// ---------------------------------------------------------------------
// String family
// ---------------------------------------------------------------------

// Get returns the string-family value at key. ok distinguishes a missing
// key from an empty value; a collection value fails with ErrWrongType.
func (s *Store) Get(key []byte) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.tree.Get(key)
	if v == nil {
		return nil, false, nil
	}
	b, ok := v.Bytes()
	if !ok {
		return nil, false, value.ErrWrongType
	}
	return b, true, nil
}

// Set stores val at key. ttl of zero clears any expiration. With nx the
// write only happens if the key is absent, with xx only if present;
// stored reports whether the write happened.
func (s *Store) Set(key, val []byte, ttl time.Duration, nx, xx bool) (stored bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if nx || xx {
		exists := s.tree.Get(key) != nil
		if (nx && exists) || (xx && !exists) {
			return false
		}
	}
	if ttl > 0 {
		s.tree.SetWithDeadline(key, value.NewString(val), s.deadlineFor(ttl))
	} else {
		s.tree.Set(key, value.NewString(val))
	}
	s.noteWrite()
	return true
}

// MGet returns one value per key, nil for misses and non-string values.
func (s *Store) MGet(keys [][]byte) [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(keys))
	for i, key := range keys {
		if v := s.tree.Get(key); v != nil {
			if b, ok := v.Bytes(); ok {
				out[i] = b
			}
		}
	}
	return out
}

// MSet stores every pair unconditionally.
func (s *Store) MSet(pairs []value.FieldValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range pairs {
		s.tree.Set([]byte(p.Field), value.NewString(p.Value))
	}
	s.noteWrite()
}

// IncrBy adjusts the integer at key by delta.
func (s *Store) IncrBy(key []byte, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.tree.IncrBy(key, delta)
	if err == nil {
		s.noteWrite()
	}
	return n, err
}

// DecrBy adjusts the integer at key by -delta.
func (s *Store) DecrBy(key []byte, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.tree.DecrBy(key, delta)
	if err == nil {
		s.noteWrite()
	}
	return n, err
}

// ---------------------------------------------------------------------
// Generic keyspace
// ---------------------------------------------------------------------

// Del removes the keys and returns how many existed.
func (s *Store) Del(keys [][]byte) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, key := range keys {
		if s.tree.Delete(key) {
			count++
		}
	}
	s.noteWrite()
	return count
}

// Exists counts how many of the keys exist, with multiplicity.
func (s *Store) Exists(keys [][]byte) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, key := range keys {
		if s.tree.Get(key) != nil {
			count++
		}
	}
	return count
}

// Type returns the TYPE name of the value at key, "none" when missing.
func (s *Store) Type(key []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.tree.Get(key)
	if v == nil {
		return "none"
	}
	return v.TypeName()
}

// Keys returns all keys matching a Redis glob pattern in lexicographic
// order. Only `prefix*` shapes use the prefix walk; every other pattern,
// bare literals included, compiles to a DFA that prunes non-matching
// subtrees.
func (s *Store) Keys(pat []byte) [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	var entries []art.Entry
	if prefix, ok := pattern.PrefixLiteral(pat); ok {
		entries = s.tree.PrefixGet(prefix)
	} else {
		entries = s.tree.PatternGet(pattern.Compile(pat))
	}
	keys := make([][]byte, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}

// Len returns the number of live keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Count()
}

// Flush drops the whole keyspace.
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree.Flush()
}

// ---------------------------------------------------------------------
// Expiration
// ---------------------------------------------------------------------

// Expire sets a TTL on an existing key.
func (s *Store) Expire(key []byte, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.SetDeadline(key, s.deadlineFor(ttl))
}

// Persist removes a key's TTL. True only when the key had one.
func (s *Store) Persist(key []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.ClearDeadline(key)
}

// TTL returns the remaining lifetime in seconds: -2 when missing, -1
// when the key has no TTL. Partial seconds round up so a live key never
// reports zero.
func (s *Store) TTL(key []byte) int64 {
	ms := s.PTTL(key)
	if ms < 0 {
		return ms
	}
	return (ms + 999) / 1000
}

// PTTL is TTL in milliseconds.
func (s *Store) PTTL(key []byte) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	deadline, ok := s.tree.Deadline(key)
	if !ok {
		return -2
	}
	if deadline == art.NoExpiry {
		return -1
	}
	remaining := int64(deadline) - int64(s.tree.Now())
	if remaining < 0 {
		return -2
	}
	return remaining
}

// ---------------------------------------------------------------------
// Hash
// ---------------------------------------------------------------------

func (s *Store) HSet(key []byte, pairs []value.FieldValue) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.tree.HSet(key, pairs)
	if err == nil {
		s.noteWrite()
	}
	return n, err
}

func (s *Store) HGet(key, field []byte) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.HGet(key, field)
}

func (s *Store) HGetAll(key []byte) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.HGetAll(key)
}

func (s *Store) HDel(key []byte, fields [][]byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.tree.HDel(key, fields)
	if err == nil {
		s.noteWrite()
	}
	return n, err
}

func (s *Store) HExists(key, field []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.HExists(key, field)
}

func (s *Store) HLen(key []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.HLen(key)
}

func (s *Store) HKeys(key []byte) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.HKeys(key)
}

func (s *Store) HVals(key []byte) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.HVals(key)
}

func (s *Store) HMGet(key []byte, fields [][]byte) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.HMGet(key, fields)
}

func (s *Store) HIncrBy(key, field []byte, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.tree.HIncrBy(key, field, delta)
	if err == nil {
		s.noteWrite()
	}
	return n, err
}

// ---------------------------------------------------------------------
// Set
// ---------------------------------------------------------------------

func (s *Store) SAdd(key []byte, members [][]byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.tree.SAdd(key, members)
	if err == nil {
		s.noteWrite()
	}
	return n, err
}

func (s *Store) SRem(key []byte, members [][]byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.tree.SRem(key, members)
	if err == nil {
		s.noteWrite()
	}
	return n, err
}

func (s *Store) SPop(key []byte, count int) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, err := s.tree.SPop(key, count)
	if err == nil {
		s.noteWrite()
	}
	return out, err
}

func (s *Store) SIsMember(key, member []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.SIsMember(key, member)
}

func (s *Store) SCard(key []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.SCard(key)
}

func (s *Store) SMembers(key []byte) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.SMembers(key)
}

// ---------------------------------------------------------------------
// Sorted set
// ---------------------------------------------------------------------

func (s *Store) ZAdd(key []byte, entries []value.ZEntry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.tree.ZAdd(key, entries)
	if err == nil {
		s.noteWrite()
	}
	return n, err
}

func (s *Store) ZCard(key []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.ZCard(key)
}

func (s *Store) ZRange(key []byte, start, stop int64, withScores bool) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.ZRange(key, start, stop, withScores)
}

func (s *Store) ZScore(key, member []byte) (float64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.ZScore(key, member)
}

func (s *Store) ZRem(key []byte, members [][]byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.tree.ZRem(key, members)
	if err == nil {
		s.noteWrite()
	}
	return n, err
}

func (s *Store) ZIncrBy(key []byte, increment float64, member []byte) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, err := s.tree.ZIncrBy(key, increment, member)
	if err == nil {
		s.noteWrite()
	}
	return sc, err
}
