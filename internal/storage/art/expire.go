package art

import "github.com/yndnr/radixkv-go/internal/storage/value"

// Deadline returns the expiration deadline of key in clock milliseconds.
// ok is false when the key is missing or already expired; NoExpiry means
// the key has no TTL.
func (t *Tree) Deadline(key []byte) (deadline uint64, ok bool) {
	idx, ok := t.traverse(key)
	if !ok {
		return 0, false
	}
	n := t.nodes.get(idx)
	if n.liveValue(t.now) == nil {
		return 0, false
	}
	return n.expireAt, true
}

// SetDeadline installs an expiration deadline on an existing key and
// tags its slab slot for sampling. It reports false when the key is
// missing or expired.
func (t *Tree) SetDeadline(key []byte, deadline uint64) bool {
	idx, ok := t.traverse(key)
	if !ok {
		return false
	}
	n := t.nodes.get(idx)
	if n.liveValue(t.now) == nil {
		return false
	}
	n.expireAt = deadline
	if deadline != NoExpiry {
		t.nodes.tag(idx)
	} else {
		t.nodes.untag(idx)
	}
	return true
}

// ClearDeadline makes a key permanent. It reports true only when the key
// existed with a TTL.
func (t *Tree) ClearDeadline(key []byte) bool {
	idx, ok := t.traverse(key)
	if !ok {
		return false
	}
	n := t.nodes.get(idx)
	if n.val.IsNone() || n.expireAt == NoExpiry || n.expiredAt(t.now) {
		return false
	}
	n.expireAt = NoExpiry
	t.nodes.untag(idx)
	return true
}

// SweepConfig bounds one active-expiration cycle.
type SweepConfig struct {
	// SampleSize is the number of tagged slots drawn per round.
	SampleSize int
	// Threshold is the expired-per-round count at which another round
	// runs (SampleSize/4 reproduces the classic 25% rule).
	Threshold int
	// MaxRounds caps the cycle regardless of the key distribution.
	MaxRounds int
}

// DefaultSweepConfig mirrors the Redis sampling constants.
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{SampleSize: 20, Threshold: 5, MaxRounds: 16}
}

// EvictExpired runs the probabilistic sweep: sample tagged slots, delete
// the expired ones, and keep going while at least Threshold of a full
// sample were expired. Returns the number of evicted entries.
func (t *Tree) EvictExpired(cfg SweepConfig) int {
	total := 0
	for round := 0; round < cfg.MaxRounds; round++ {
		evicted := 0
		sampled := 0
		for i := 0; i < cfg.SampleSize; i++ {
			idx, ok := t.nodes.sampleTagged()
			if !ok {
				break
			}
			sampled++
			n := t.nodes.get(idx)
			if !n.expiredAt(t.now) {
				continue
			}
			if n.parent == nilIdx {
				// Root: clear in place, nothing structural to undo.
				n.val = value.Value{}
				n.expireAt = NoExpiry
				t.nodes.untag(idx)
				evicted++
				continue
			}
			t.deleteAt(idx, n.parent, n.parentRadix)
			evicted++
		}
		total += evicted
		if sampled < cfg.SampleSize || evicted < cfg.Threshold {
			break
		}
	}
	return total
}
