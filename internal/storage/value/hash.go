package value

import (
	"sort"

	"github.com/google/btree"
)

// FieldValue is one hash field with its payload.
type FieldValue struct {
	Field string
	Value []byte
}

func fieldLess(a, b FieldValue) bool { return a.Field < b.Field }

// Hash is a field→value mapping ordered by field.
//
// Small form: a field-sorted slice. Promoted form: a B-tree. Iteration
// order is identical in both, so promotion is invisible to callers.
type Hash struct {
	small []FieldValue
	large *btree.BTreeG[FieldValue]
}

// Len returns the field count.
func (h *Hash) Len() int {
	if h.large != nil {
		return h.large.Len()
	}
	return len(h.small)
}

// Get returns the value of a field.
func (h *Hash) Get(field string) ([]byte, bool) {
	if h.large != nil {
		it, ok := h.large.Get(FieldValue{Field: field})
		return it.Value, ok
	}
	i := sort.Search(len(h.small), func(i int) bool { return h.small[i].Field >= field })
	if i < len(h.small) && h.small[i].Field == field {
		return h.small[i].Value, true
	}
	return nil, false
}

// Has reports whether a field exists.
func (h *Hash) Has(field string) bool {
	_, ok := h.Get(field)
	return ok
}

// Put inserts or updates a field. It reports whether the field is new.
func (h *Hash) Put(field string, val []byte) bool {
	if h.large != nil {
		_, existed := h.large.ReplaceOrInsert(FieldValue{Field: field, Value: val})
		return !existed
	}
	i := sort.Search(len(h.small), func(i int) bool { return h.small[i].Field >= field })
	if i < len(h.small) && h.small[i].Field == field {
		h.small[i].Value = val
		return false
	}
	if len(h.small) >= promoteThreshold {
		h.promote()
		h.large.ReplaceOrInsert(FieldValue{Field: field, Value: val})
		return true
	}
	h.small = append(h.small, FieldValue{})
	copy(h.small[i+1:], h.small[i:])
	h.small[i] = FieldValue{Field: field, Value: val}
	return true
}

// Delete removes a field. It reports whether the field existed.
func (h *Hash) Delete(field string) bool {
	if h.large != nil {
		_, existed := h.large.Delete(FieldValue{Field: field})
		return existed
	}
	i := sort.Search(len(h.small), func(i int) bool { return h.small[i].Field >= field })
	if i < len(h.small) && h.small[i].Field == field {
		h.small = append(h.small[:i], h.small[i+1:]...)
		return true
	}
	return false
}

// Walk visits all fields in field order. Return false to stop.
func (h *Hash) Walk(fn func(FieldValue) bool) {
	if h.large != nil {
		h.large.Ascend(func(it FieldValue) bool { return fn(it) })
		return
	}
	for _, fv := range h.small {
		if !fn(fv) {
			return
		}
	}
}

func (h *Hash) promote() {
	t := btree.NewG(btreeDegree, fieldLess)
	for _, fv := range h.small {
		t.ReplaceOrInsert(fv)
	}
	h.small = nil
	h.large = t
}
