package art

import "github.com/yndnr/radixkv-go/internal/storage/value"

const (
	// nilIdx marks an absent slab reference (no overflow block, no parent).
	nilIdx = ^uint32(0)

	// NoExpiry is the deadline sentinel for keys without a TTL.
	NoExpiry = ^uint64(0)
)

// node is one tree position: a branching point, a compressed path, a
// leaf, or any combination. The concatenation of branching bytes and
// compression segments along the root path spells the node's full key.
type node struct {
	children    childSet
	compression compactStr
	val         value.Value
	expireAt    uint64
	overflow    uint32
	parent      uint32
	parentRadix byte
}

func newNode() node {
	return node{expireAt: NoExpiry, overflow: nilIdx, parent: nilIdx}
}

// cmpResult classifies a key remainder against a compression segment.
type cmpResult uint8

const (
	// cmpFinal: segment and remainder are identical — this node is the key.
	cmpFinal cmpResult = iota
	// cmpPath: the segment is a proper prefix of the remainder — descend.
	cmpPath
	// cmpPartial: divergence, or the remainder ends inside the segment.
	cmpPartial
)

// compareCompression matches keyRest against the node's segment and
// returns the shared prefix length alongside the classification.
func (n *node) compareCompression(keyRest []byte) (cmpResult, int) {
	seg := n.compression.bytes()
	limit := min(len(seg), len(keyRest))
	common := 0
	for common < limit && seg[common] == keyRest[common] {
		common++
	}
	switch {
	case len(seg) == len(keyRest):
		if common == len(keyRest) {
			return cmpFinal, common
		}
		return cmpPartial, common
	case len(seg) < len(keyRest):
		if common == len(seg) {
			return cmpPath, common
		}
		return cmpPartial, common
	default:
		return cmpPartial, common
	}
}

// liveValue returns the node's value, filtered against the clock. nil
// means absent or expired.
func (n *node) liveValue(now uint64) *value.Value {
	if n.val.IsNone() {
		return nil
	}
	if n.expireAt != NoExpiry && n.expireAt < now {
		return nil
	}
	return &n.val
}

// expiredAt reports whether the node holds a value whose deadline has
// passed.
func (n *node) expiredAt(now uint64) bool {
	return !n.val.IsNone() && n.expireAt != NoExpiry && n.expireAt < now
}

func (n *node) hasChildren() bool {
	return !n.children.empty() || n.overflow != nilIdx
}
