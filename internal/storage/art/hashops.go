package art

import (
	"strconv"

	"github.com/yndnr/radixkv-go/internal/storage/value"
)

// hashAt resolves the hash at key for mutation, creating an empty hash
// when the key is absent or expired. Wrong-family values fail with
// value.ErrWrongType.
func (t *Tree) hashAt(key []byte) (*value.Hash, error) {
	idx := t.ensureKey(key)
	n := t.nodes.get(idx)
	v := n.liveValue(t.now)
	if v == nil {
		t.setNodeValue(idx, value.NewHash(), NoExpiry)
		v = &t.nodes.get(idx).val
	}
	return v.Hash()
}

// HSet stores the field/value pairs and returns how many fields were
// newly added (updates do not count).
func (t *Tree) HSet(key []byte, pairs []value.FieldValue) (int, error) {
	h, err := t.hashAt(key)
	if err != nil {
		return 0, err
	}
	added := 0
	for _, p := range pairs {
		if h.Put(p.Field, p.Value) {
			added++
		}
	}
	return added, nil
}

// HGet returns the value of one hash field.
func (t *Tree) HGet(key, field []byte) ([]byte, bool, error) {
	v := t.Get(key)
	if v == nil {
		return nil, false, nil
	}
	h, err := v.Hash()
	if err != nil {
		return nil, false, err
	}
	b, ok := h.Get(string(field))
	return b, ok, nil
}

// HGetAll returns all field/value pairs flattened in field order.
func (t *Tree) HGetAll(key []byte) ([][]byte, error) {
	v := t.Get(key)
	if v == nil {
		return nil, nil
	}
	h, err := v.Hash()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, h.Len()*2)
	h.Walk(func(fv value.FieldValue) bool {
		out = append(out, []byte(fv.Field), fv.Value)
		return true
	})
	return out, nil
}

// HDel removes fields and returns how many existed. Draining the hash
// deletes the key.
func (t *Tree) HDel(key []byte, fields [][]byte) (int, error) {
	v := t.Get(key)
	if v == nil {
		return 0, nil
	}
	h, err := v.Hash()
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, f := range fields {
		if h.Delete(string(f)) {
			deleted++
		}
	}
	if h.Len() == 0 {
		t.Delete(key)
	}
	return deleted, nil
}

// HExists reports whether the field is present.
func (t *Tree) HExists(key, field []byte) (bool, error) {
	v := t.Get(key)
	if v == nil {
		return false, nil
	}
	h, err := v.Hash()
	if err != nil {
		return false, err
	}
	return h.Has(string(field)), nil
}

// HLen returns the field count.
func (t *Tree) HLen(key []byte) (int, error) {
	v := t.Get(key)
	if v == nil {
		return 0, nil
	}
	h, err := v.Hash()
	if err != nil {
		return 0, err
	}
	return h.Len(), nil
}

// HKeys returns all field names in field order.
func (t *Tree) HKeys(key []byte) ([][]byte, error) {
	v := t.Get(key)
	if v == nil {
		return nil, nil
	}
	h, err := v.Hash()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, h.Len())
	h.Walk(func(fv value.FieldValue) bool {
		out = append(out, []byte(fv.Field))
		return true
	})
	return out, nil
}

// HVals returns all field values in field order.
func (t *Tree) HVals(key []byte) ([][]byte, error) {
	v := t.Get(key)
	if v == nil {
		return nil, nil
	}
	h, err := v.Hash()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, h.Len())
	h.Walk(func(fv value.FieldValue) bool {
		out = append(out, fv.Value)
		return true
	})
	return out, nil
}

// HMGet returns one value per requested field, nil for misses. A missing
// key yields all nils.
func (t *Tree) HMGet(key []byte, fields [][]byte) ([][]byte, error) {
	out := make([][]byte, len(fields))
	v := t.Get(key)
	if v == nil {
		return out, nil
	}
	h, err := v.Hash()
	if err != nil {
		return nil, err
	}
	for i, f := range fields {
		if b, ok := h.Get(string(f)); ok {
			out[i] = b
		}
	}
	return out, nil
}

// HIncrBy adds delta to the integer stored at field, creating it at zero
// when absent. Returns the new value.
func (t *Tree) HIncrBy(key, field []byte, delta int64) (int64, error) {
	h, err := t.hashAt(key)
	if err != nil {
		return 0, err
	}
	cur := int64(0)
	if b, ok := h.Get(string(field)); ok {
		cur, err = strconv.ParseInt(string(b), 10, 64)
		if err != nil {
			return 0, value.ErrHashNotAnInt
		}
	}
	next := cur + delta
	if (delta > 0 && next < cur) || (delta < 0 && next > cur) {
		return 0, value.ErrOverflow
	}
	h.Put(string(field), strconv.AppendInt(nil, next, 10))
	return next, nil
}
