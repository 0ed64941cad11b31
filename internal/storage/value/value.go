package value

import (
	"errors"
	"strconv"
)

// Errors surfaced by value operations. The command layer maps these to
// RESP error replies.
var (
	ErrWrongType     = errors.New("value: operation against a key holding the wrong kind of value")
	ErrNotAnInteger  = errors.New("value: value is not an integer or out of range")
	ErrOverflow      = errors.New("value: increment or decrement would overflow")
	ErrHashNotAnInt  = errors.New("value: hash value is not an integer or out of range")
)

// Kind identifies the concrete representation held by a Value.
type Kind uint8

const (
	// KindNone marks an absent value, as held by value-less intermediate
	// tree nodes. It is never observable through commands.
	KindNone Kind = iota
	KindString
	KindInt
	KindHash
	KindSet
	KindZSet
)

// promoteThreshold is the element count past which a collection switches
// from its linear small form to its B-tree backed form.
const promoteThreshold = 16

// btreeDegree is the branching factor used for all promoted forms.
const btreeDegree = 32

// Value is a tagged union over the supported value families.
//
// The zero Value is KindNone. String and Int form a single family: TYPE
// reports "string" for both, GET formats an Int on the fly and the
// INCR/DECR family converts a parseable String into an Int in place.
type Value struct {
	kind Kind
	b    []byte
	n    int64
	h    *Hash
	s    *Set
	z    *ZSet
}

// NewString returns a string Value. The slice is stored as-is and must be
// treated as immutable afterwards.
func NewString(b []byte) Value { return Value{kind: KindString, b: b} }

// NewInt returns a natively-stored integer Value.
func NewInt(n int64) Value { return Value{kind: KindInt, n: n} }

// NewHash returns an empty hash Value in small form.
func NewHash() Value { return Value{kind: KindHash, h: &Hash{}} }

// NewSet returns an empty set Value in small form.
func NewSet() Value { return Value{kind: KindSet, s: &Set{}} }

// NewZSet returns an empty sorted-set Value in small form.
func NewZSet() Value { return Value{kind: KindZSet, z: &ZSet{}} }

// Kind returns the representation tag.
func (v *Value) Kind() Kind { return v.kind }

// IsNone reports whether the value is absent.
func (v *Value) IsNone() bool { return v.kind == KindNone }

// TypeName returns the TYPE command name for the value family.
func (v *Value) TypeName() string {
	switch v.kind {
	case KindString, KindInt:
		return "string"
	case KindHash:
		return "hash"
	case KindSet:
		return "set"
	case KindZSet:
		return "zset"
	default:
		return "none"
	}
}

// Bytes returns the string-family payload. An Int is formatted to its
// canonical decimal form. ok is false for collection values.
func (v *Value) Bytes() (b []byte, ok bool) {
	switch v.kind {
	case KindString:
		return v.b, true
	case KindInt:
		return strconv.AppendInt(nil, v.n, 10), true
	default:
		return nil, false
	}
}

// Int reads the value as an int64, parsing a String lazily. Collection
// values are a type error, not a parse error.
func (v *Value) Int() (int64, error) {
	switch v.kind {
	case KindInt:
		return v.n, nil
	case KindString:
		n, err := strconv.ParseInt(string(v.b), 10, 64)
		if err != nil {
			return 0, ErrNotAnInteger
		}
		return n, nil
	default:
		return 0, ErrWrongType
	}
}

// IncrBy adds delta to the integer value, converting a parseable String
// into the native Int representation on first use.
func (v *Value) IncrBy(delta int64) (int64, error) {
	cur, err := v.Int()
	if err != nil {
		return 0, err
	}
	next := cur + delta
	if (delta > 0 && next < cur) || (delta < 0 && next > cur) {
		return 0, ErrOverflow
	}
	*v = NewInt(next)
	return next, nil
}

// DecrBy subtracts delta from the integer value with overflow checking.
func (v *Value) DecrBy(delta int64) (int64, error) {
	cur, err := v.Int()
	if err != nil {
		return 0, err
	}
	next := cur - delta
	if (delta < 0 && next < cur) || (delta > 0 && next > cur) {
		return 0, ErrOverflow
	}
	*v = NewInt(next)
	return next, nil
}

// Hash returns the hash payload or ErrWrongType.
func (v *Value) Hash() (*Hash, error) {
	if v.kind != KindHash {
		return nil, ErrWrongType
	}
	return v.h, nil
}

// Set returns the set payload or ErrWrongType.
func (v *Value) Set() (*Set, error) {
	if v.kind != KindSet {
		return nil, ErrWrongType
	}
	return v.s, nil
}

// ZSet returns the sorted-set payload or ErrWrongType.
func (v *Value) ZSet() (*ZSet, error) {
	if v.kind != KindZSet {
		return nil, ErrWrongType
	}
	return v.z, nil
}

// Empty reports whether a collection value has been drained. Draining a
// collection deletes its key; the engine asks after every removal.
func (v *Value) Empty() bool {
	switch v.kind {
	case KindHash:
		return v.h.Len() == 0
	case KindSet:
		return v.s.Len() == 0
	case KindZSet:
		return v.z.Len() == 0
	default:
		return false
	}
}

// FormatScore renders a sorted-set score the way Redis does: integral
// floats print without a fractional part ("10", not "10.000000").
func FormatScore(f float64) []byte {
	return strconv.AppendFloat(nil, f, 'f', -1, 64)
}
