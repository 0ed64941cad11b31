package art

import "github.com/yndnr/radixkv-go/internal/storage/value"

// setAt resolves the set at key for mutation, creating an empty set when
// the key is absent or expired.
func (t *Tree) setAt(key []byte) (*value.Set, error) {
	idx := t.ensureKey(key)
	n := t.nodes.get(idx)
	v := n.liveValue(t.now)
	if v == nil {
		t.setNodeValue(idx, value.NewSet(), NoExpiry)
		v = &t.nodes.get(idx).val
	}
	return v.Set()
}

// SAdd inserts members and returns how many were new.
func (t *Tree) SAdd(key []byte, members [][]byte) (int, error) {
	s, err := t.setAt(key)
	if err != nil {
		return 0, err
	}
	added := 0
	for _, m := range members {
		if s.Add(string(m)) {
			added++
		}
	}
	return added, nil
}

// SRem removes members and returns how many existed. Draining the set
// deletes the key.
func (t *Tree) SRem(key []byte, members [][]byte) (int, error) {
	v := t.Get(key)
	if v == nil {
		return 0, nil
	}
	s, err := v.Set()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, m := range members {
		if s.Remove(string(m)) {
			removed++
		}
	}
	if s.Len() == 0 {
		t.Delete(key)
	}
	return removed, nil
}

// SPop removes up to count members (largest first) and returns them.
// Draining the set deletes the key.
func (t *Tree) SPop(key []byte, count int) ([][]byte, error) {
	v := t.Get(key)
	if v == nil {
		return nil, nil
	}
	s, err := v.Set()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, min(count, s.Len()))
	for i := 0; i < count; i++ {
		m, ok := s.PopMax()
		if !ok {
			break
		}
		out = append(out, []byte(m))
	}
	if s.Len() == 0 {
		t.Delete(key)
	}
	return out, nil
}

// SIsMember reports whether member is in the set.
func (t *Tree) SIsMember(key, member []byte) (bool, error) {
	v := t.Get(key)
	if v == nil {
		return false, nil
	}
	s, err := v.Set()
	if err != nil {
		return false, err
	}
	return s.Has(string(member)), nil
}

// SCard returns the cardinality.
func (t *Tree) SCard(key []byte) (int, error) {
	v := t.Get(key)
	if v == nil {
		return 0, nil
	}
	s, err := v.Set()
	if err != nil {
		return 0, err
	}
	return s.Len(), nil
}

// SMembers returns all members in lexicographic order.
func (t *Tree) SMembers(key []byte) ([][]byte, error) {
	v := t.Get(key)
	if v == nil {
		return nil, nil
	}
	s, err := v.Set()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, s.Len())
	s.Walk(func(m string) bool {
		out = append(out, []byte(m))
		return true
	})
	return out, nil
}
