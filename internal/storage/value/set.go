package value

import (
	"sort"

	"github.com/google/btree"
)

func memberLess(a, b string) bool { return a < b }

// Set is an ordered set of members.
//
// Small form: a sorted slice. Promoted form: a B-tree.
type Set struct {
	small []string
	large *btree.BTreeG[string]
}

// Len returns the cardinality.
func (s *Set) Len() int {
	if s.large != nil {
		return s.large.Len()
	}
	return len(s.small)
}

// Has reports whether member is present.
func (s *Set) Has(member string) bool {
	if s.large != nil {
		return s.large.Has(member)
	}
	i := sort.SearchStrings(s.small, member)
	return i < len(s.small) && s.small[i] == member
}

// Add inserts a member. It reports whether the member is new.
func (s *Set) Add(member string) bool {
	if s.large != nil {
		_, existed := s.large.ReplaceOrInsert(member)
		return !existed
	}
	i := sort.SearchStrings(s.small, member)
	if i < len(s.small) && s.small[i] == member {
		return false
	}
	if len(s.small) >= promoteThreshold {
		s.promote()
		s.large.ReplaceOrInsert(member)
		return true
	}
	s.small = append(s.small, "")
	copy(s.small[i+1:], s.small[i:])
	s.small[i] = member
	return true
}

// Remove deletes a member. It reports whether the member existed.
func (s *Set) Remove(member string) bool {
	if s.large != nil {
		_, existed := s.large.Delete(member)
		return existed
	}
	i := sort.SearchStrings(s.small, member)
	if i < len(s.small) && s.small[i] == member {
		s.small = append(s.small[:i], s.small[i+1:]...)
		return true
	}
	return false
}

// PopMax removes and returns the largest member.
func (s *Set) PopMax() (string, bool) {
	if s.large != nil {
		return s.large.DeleteMax()
	}
	if len(s.small) == 0 {
		return "", false
	}
	m := s.small[len(s.small)-1]
	s.small = s.small[:len(s.small)-1]
	return m, true
}

// Walk visits all members in lexicographic order. Return false to stop.
func (s *Set) Walk(fn func(string) bool) {
	if s.large != nil {
		s.large.Ascend(func(m string) bool { return fn(m) })
		return
	}
	for _, m := range s.small {
		if !fn(m) {
			return
		}
	}
}

func (s *Set) promote() {
	t := btree.NewG(btreeDegree, memberLess)
	for _, m := range s.small {
		t.ReplaceOrInsert(m)
	}
	s.small = nil
	s.large = t
}
