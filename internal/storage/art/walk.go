package art

import (
	"sort"

	"github.com/yndnr/radixkv-go/internal/storage/value"
)

// Entry is one (key, value) pair produced by a traversal. Key is a fresh
// copy; Val points into the tree and is only valid until the next
// mutation.
type Entry struct {
	Key []byte
	Val *value.Value
}

// Automaton is a byte DFA driven alongside the tree descent. Dead states
// prune whole subtrees; Match reports acceptance of everything consumed
// so far.
type Automaton interface {
	Start() uint32
	Next(state uint32, b byte) uint32
	Dead(state uint32) bool
	Match(state uint32) bool
}

type childPair struct {
	radix byte
	idx   uint32
}

// sortedChildren merges both child tiers in ascending radix order so
// every enumeration is lexicographic.
func (t *Tree) sortedChildren(idx uint32, buf []childPair) []childPair {
	n := t.nodes.get(idx)
	buf = buf[:0]
	for i := 0; i < int(n.children.n); i++ {
		buf = append(buf, childPair{n.children.radixes[i], n.children.idxs[i]})
	}
	if n.overflow != nilIdx {
		o := t.overflow.get(n.overflow)
		for i := 0; i < int(o.n); i++ {
			buf = append(buf, childPair{o.radixes[i], o.idxs[i]})
		}
	}
	sort.Slice(buf, func(i, j int) bool { return buf[i].radix < buf[j].radix })
	return buf
}

// collect walks the subtree at idx in radix order. The node's own value
// is emitted before its descendants, so output is sorted by full key.
// withCompression controls whether idx's segment still needs appending.
func (t *Tree) collect(idx uint32, path *[]byte, withCompression bool, emit func(key []byte, v *value.Value)) {
	mark := len(*path)
	n := t.nodes.get(idx)
	if withCompression {
		*path = append(*path, n.compression.bytes()...)
	}
	if v := n.liveValue(t.now); v != nil {
		key := append([]byte(nil), *path...)
		emit(key, v)
	}
	var buf [inlineChildSlots]childPair
	children := t.sortedChildren(idx, buf[:0])
	cur := len(*path)
	for _, c := range children {
		*path = append(*path, c.radix)
		t.collect(c.idx, path, true, emit)
		*path = (*path)[:cur]
	}
	*path = (*path)[:mark]
}

// PrefixGet returns all live entries whose key starts with prefix, in
// lexicographic key order. An empty prefix enumerates the whole tree.
func (t *Tree) PrefixGet(prefix []byte) []Entry {
	var out []Entry
	emit := func(key []byte, v *value.Value) { out = append(out, Entry{Key: key, Val: v}) }
	path := make([]byte, 0, 64)

	if len(prefix) == 0 {
		t.collect(t.root, &path, true, emit)
		return out
	}

	idx := t.root
	cursor := 0
	for {
		child, ok := t.find(idx, prefix[cursor])
		if !ok {
			return out
		}
		path = append(path, prefix[cursor])
		idx = child
		cursor++
		n := t.nodes.get(idx)
		res, common := n.compareCompression(prefix[cursor:])
		switch res {
		case cmpFinal:
			path = append(path, n.compression.bytes()...)
			t.collect(idx, &path, false, emit)
			return out
		case cmpPartial:
			// A prefix ending inside the segment still owns the whole
			// subtree; real divergence owns nothing.
			if common == len(prefix)-cursor {
				path = append(path, n.compression.bytes()...)
				t.collect(idx, &path, false, emit)
			}
			return out
		}
		path = append(path, n.compression.bytes()...)
		cursor += n.compression.len()
	}
}

// PrefixDelete removes every key starting with prefix and returns how
// many live entries were dropped. An empty prefix clears the tree.
func (t *Tree) PrefixDelete(prefix []byte) int {
	if len(prefix) == 0 {
		root := t.nodes.get(t.root)
		count := 0
		if root.liveValue(t.now) != nil {
			count++
		}
		var subtrees []uint32
		var buf [inlineChildSlots]childPair
		for _, c := range t.sortedChildren(t.root, buf[:0]) {
			subtrees = append(subtrees, c.idx)
		}
		root.children = childSet{}
		if root.overflow != nilIdx {
			t.overflow.remove(root.overflow)
			root.overflow = nilIdx
		}
		root.val = value.Value{}
		root.expireAt = NoExpiry
		t.nodes.untag(t.root)
		return count + t.freeSubtrees(subtrees)
	}

	parentIdx, parentRadix := t.root, prefix[0]
	idx, ok := t.find(t.root, prefix[0])
	if !ok {
		return 0
	}
	cursor := 1
	for {
		n := t.nodes.get(idx)
		res, common := n.compareCompression(prefix[cursor:])
		if res == cmpFinal {
			break
		}
		if res == cmpPartial {
			if common == len(prefix)-cursor {
				break
			}
			return 0
		}
		cursor += n.compression.len()
		parentIdx, parentRadix = idx, prefix[cursor]
		idx, ok = t.find(idx, prefix[cursor])
		if !ok {
			return 0
		}
		cursor++
	}

	t.removeChild(parentIdx, parentRadix)
	count := t.freeSubtrees([]uint32{idx})
	if parentIdx != t.root {
		t.recompress(parentIdx)
	}
	return count
}

// freeSubtrees releases whole subtrees, overflow blocks included, and
// counts the live values they held.
func (t *Tree) freeSubtrees(stack []uint32) int {
	count := 0
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.nodes.get(idx)
		for i := 0; i < int(n.children.n); i++ {
			stack = append(stack, n.children.idxs[i])
		}
		if n.overflow != nilIdx {
			o := t.overflow.get(n.overflow)
			for i := 0; i < int(o.n); i++ {
				stack = append(stack, o.idxs[i])
			}
			t.overflow.remove(n.overflow)
		}
		if n.liveValue(t.now) != nil {
			count++
		}
		t.nodes.remove(idx)
	}
	return count
}

// PatternGet returns all live entries whose key is accepted by the
// automaton, in lexicographic key order. Subtrees whose state goes dead
// are pruned without being visited.
func (t *Tree) PatternGet(a Automaton) []Entry {
	var out []Entry
	path := make([]byte, 0, 64)
	var walk func(idx, state uint32)
	walk = func(idx, state uint32) {
		mark := len(path)
		n := t.nodes.get(idx)
		for _, b := range n.compression.bytes() {
			state = a.Next(state, b)
			if a.Dead(state) {
				return
			}
		}
		path = append(path, n.compression.bytes()...)
		if a.Match(state) {
			if v := n.liveValue(t.now); v != nil {
				key := append([]byte(nil), path...)
				out = append(out, Entry{Key: key, Val: v})
			}
		}
		var buf [inlineChildSlots]childPair
		cur := len(path)
		for _, c := range t.sortedChildren(idx, buf[:0]) {
			next := a.Next(state, c.radix)
			if a.Dead(next) {
				continue
			}
			path = append(path, c.radix)
			walk(c.idx, next)
			path = path[:cur]
		}
		path = path[:mark]
	}
	walk(t.root, a.Start())
	return out
}

// Count returns the number of live entries.
func (t *Tree) Count() int {
	count := 0
	stack := []uint32{t.root}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.nodes.get(idx)
		if n.liveValue(t.now) != nil {
			count++
		}
		for i := 0; i < int(n.children.n); i++ {
			stack = append(stack, n.children.idxs[i])
		}
		if n.overflow != nilIdx {
			o := t.overflow.get(n.overflow)
			for i := 0; i < int(o.n); i++ {
				stack = append(stack, o.idxs[i])
			}
		}
	}
	return count
}

// Flush drops every entry. The root survives, empty.
func (t *Tree) Flush() {
	t.PrefixDelete(nil)
}
