package art

import "github.com/yndnr/radixkv-go/internal/storage/value"

// zsetAt resolves the sorted set at key for mutation, creating an empty
// one when the key is absent or expired.
func (t *Tree) zsetAt(key []byte) (*value.ZSet, error) {
	idx := t.ensureKey(key)
	n := t.nodes.get(idx)
	v := n.liveValue(t.now)
	if v == nil {
		t.setNodeValue(idx, value.NewZSet(), NoExpiry)
		v = &t.nodes.get(idx).val
	}
	return v.ZSet()
}

// ZAdd upserts (score, member) pairs and returns how many members were
// newly added (score updates do not count).
func (t *Tree) ZAdd(key []byte, entries []value.ZEntry) (int, error) {
	z, err := t.zsetAt(key)
	if err != nil {
		return 0, err
	}
	added := 0
	for _, e := range entries {
		if z.Add(e.Score, e.Member) {
			added++
		}
	}
	return added, nil
}

// ZCard returns the cardinality.
func (t *Tree) ZCard(key []byte) (int, error) {
	v := t.Get(key)
	if v == nil {
		return 0, nil
	}
	z, err := v.ZSet()
	if err != nil {
		return 0, err
	}
	return z.Len(), nil
}

// ZRange returns the members between the 0-based ranks start and stop,
// inclusive, in (score, member) order. Negative ranks count from the
// end. With withScores each member is followed by its formatted score.
func (t *Tree) ZRange(key []byte, start, stop int64, withScores bool) ([][]byte, error) {
	v := t.Get(key)
	if v == nil {
		return nil, nil
	}
	z, err := v.ZSet()
	if err != nil {
		return nil, err
	}
	n := int64(z.Len())
	if n == 0 {
		return nil, nil
	}
	if start < 0 {
		start = max(n+start, 0)
	} else {
		start = min(start, n)
	}
	if stop < 0 {
		stop = max(n+stop, 0)
	} else {
		stop = min(stop, n-1)
	}
	if start > stop {
		return nil, nil
	}

	var out [][]byte
	rank := int64(0)
	z.Walk(func(e value.ZEntry) bool {
		if rank > stop {
			return false
		}
		if rank >= start {
			out = append(out, []byte(e.Member))
			if withScores {
				out = append(out, value.FormatScore(e.Score))
			}
		}
		rank++
		return true
	})
	return out, nil
}

// ZScore returns the exact stored score of member.
func (t *Tree) ZScore(key, member []byte) (float64, bool, error) {
	v := t.Get(key)
	if v == nil {
		return 0, false, nil
	}
	z, err := v.ZSet()
	if err != nil {
		return 0, false, err
	}
	s, ok := z.Score(string(member))
	return s, ok, nil
}

// ZRem removes members and returns how many existed. Draining the set
// deletes the key.
func (t *Tree) ZRem(key []byte, members [][]byte) (int, error) {
	v := t.Get(key)
	if v == nil {
		return 0, nil
	}
	z, err := v.ZSet()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, m := range members {
		if z.Remove(string(m)) {
			removed++
		}
	}
	if z.Len() == 0 {
		t.Delete(key)
	}
	return removed, nil
}

// ZIncrBy adds increment to member's score, starting from 0 for a new
// member, and returns the new score.
func (t *Tree) ZIncrBy(key []byte, increment float64, member []byte) (float64, error) {
	z, err := t.zsetAt(key)
	if err != nil {
		return 0, err
	}
	score := increment
	if cur, ok := z.Score(string(member)); ok {
		score = cur + increment
	}
	z.Add(score, string(member))
	return score, nil
}
