package value

import (
	"sort"

	"github.com/google/btree"
)

// ZEntry is one sorted-set element.
type ZEntry struct {
	Score  float64
	Member string
}

func zentryLess(a, b ZEntry) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Member < b.Member
}

// ZSet is a sorted set ordered by (score, member).
//
// Small form: a (score, member)-sorted slice, member lookup by linear
// scan. Promoted form: a B-tree over (score, member) plus a member→score
// index for O(1) ZSCORE and ZREM lookups.
type ZSet struct {
	small  []ZEntry
	large  *btree.BTreeG[ZEntry]
	scores map[string]float64
}

// Len returns the cardinality.
func (z *ZSet) Len() int {
	if z.large != nil {
		return z.large.Len()
	}
	return len(z.small)
}

// Score returns the stored score of a member.
func (z *ZSet) Score(member string) (float64, bool) {
	if z.large != nil {
		s, ok := z.scores[member]
		return s, ok
	}
	for _, e := range z.small {
		if e.Member == member {
			return e.Score, true
		}
	}
	return 0, false
}

// Add inserts a member or updates its score. It reports whether the
// member is new.
func (z *ZSet) Add(score float64, member string) bool {
	old, existed := z.Score(member)
	if existed {
		if old == score {
			return false
		}
		z.remove(old, member)
	}
	z.insert(score, member)
	return !existed
}

// Remove deletes a member. It reports whether the member existed.
func (z *ZSet) Remove(member string) bool {
	score, ok := z.Score(member)
	if !ok {
		return false
	}
	z.remove(score, member)
	return true
}

// Walk visits all entries in (score, member) order. Return false to stop.
func (z *ZSet) Walk(fn func(ZEntry) bool) {
	if z.large != nil {
		z.large.Ascend(func(e ZEntry) bool { return fn(e) })
		return
	}
	for _, e := range z.small {
		if !fn(e) {
			return
		}
	}
}

func (z *ZSet) insert(score float64, member string) {
	e := ZEntry{Score: score, Member: member}
	if z.large != nil {
		z.large.ReplaceOrInsert(e)
		z.scores[member] = score
		return
	}
	if len(z.small) >= promoteThreshold {
		z.promote()
		z.large.ReplaceOrInsert(e)
		z.scores[member] = score
		return
	}
	i := sort.Search(len(z.small), func(i int) bool { return !zentryLess(z.small[i], e) })
	z.small = append(z.small, ZEntry{})
	copy(z.small[i+1:], z.small[i:])
	z.small[i] = e
}

func (z *ZSet) remove(score float64, member string) {
	e := ZEntry{Score: score, Member: member}
	if z.large != nil {
		z.large.Delete(e)
		delete(z.scores, member)
		return
	}
	i := sort.Search(len(z.small), func(i int) bool { return !zentryLess(z.small[i], e) })
	if i < len(z.small) && z.small[i] == e {
		z.small = append(z.small[:i], z.small[i+1:]...)
	}
}

func (z *ZSet) promote() {
	t := btree.NewG(btreeDegree, zentryLess)
	scores := make(map[string]float64, len(z.small))
	for _, e := range z.small {
		t.ReplaceOrInsert(e)
		scores[e.Member] = e.Score
	}
	z.small = nil
	z.large = t
	z.scores = scores
}
