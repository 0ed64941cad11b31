package art

import "github.com/yndnr/radixkv-go/internal/storage/value"

// IncrBy adds delta to the integer at key in a single traversal. A
// missing or expired key starts from zero; an existing TTL is preserved.
// The stored representation becomes a native Int afterwards.
func (t *Tree) IncrBy(key []byte, delta int64) (int64, error) {
	if idx, ok := t.traverse(key); ok {
		n := t.nodes.get(idx)
		if v := n.liveValue(t.now); v != nil {
			return v.IncrBy(delta)
		}
	}
	t.Set(key, value.NewInt(delta))
	return delta, nil
}

// DecrBy subtracts delta from the integer at key, with the same
// missing-key and TTL behavior as IncrBy.
func (t *Tree) DecrBy(key []byte, delta int64) (int64, error) {
	if idx, ok := t.traverse(key); ok {
		n := t.nodes.get(idx)
		if v := n.liveValue(t.now); v != nil {
			return v.DecrBy(delta)
		}
	}
	neg := -delta
	if delta != 0 && neg == delta {
		return 0, value.ErrOverflow
	}
	t.Set(key, value.NewInt(neg))
	return neg, nil
}
