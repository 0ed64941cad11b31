package art

// inlineStrLen is the longest compression segment stored inside the node
// itself: one length byte plus fourteen data bytes fits the node budget.
const inlineStrLen = 14

// compactStr holds a node's compression segment. Segments of up to
// inlineStrLen bytes live inline; longer ones move to a heap slice. The
// bytes are immutable once stored — truncation and any append that lands
// on the heap rebuild the segment, and inline appends only write past the
// current length, so slices returned by bytes never alias a live heap
// buffer that could change underneath a caller.
type compactStr struct {
	inline [inlineStrLen]byte
	n      uint8
	heap   []byte
}

func makeCompactStr(b []byte) compactStr {
	var c compactStr
	if len(b) <= inlineStrLen {
		c.n = uint8(copy(c.inline[:], b))
		return c
	}
	c.heap = append([]byte(nil), b...)
	return c
}

// bytes returns the segment content.
func (c *compactStr) bytes() []byte {
	if c.heap != nil {
		return c.heap
	}
	return c.inline[:c.n]
}

func (c *compactStr) len() int {
	if c.heap != nil {
		return len(c.heap)
	}
	return int(c.n)
}

func (c *compactStr) at(i int) byte {
	if c.heap != nil {
		return c.heap[i]
	}
	return c.inline[i]
}

// truncate keeps the first k bytes, returning to the inline form when
// the remainder fits.
func (c *compactStr) truncate(k int) {
	*c = makeCompactStr(c.bytes()[:k])
}

// push appends one byte, spilling to the heap when inline space runs out.
func (c *compactStr) push(b byte) {
	if c.heap == nil && int(c.n) < inlineStrLen {
		c.inline[c.n] = b
		c.n++
		return
	}
	old := c.bytes()
	buf := make([]byte, 0, len(old)+1)
	buf = append(buf, old...)
	buf = append(buf, b)
	*c = compactStr{heap: buf}
}

// appendBytes appends a slice, spilling to the heap when needed.
func (c *compactStr) appendBytes(b []byte) {
	if len(b) == 0 {
		return
	}
	if c.heap == nil && int(c.n)+len(b) <= inlineStrLen {
		copy(c.inline[c.n:], b)
		c.n += uint8(len(b))
		return
	}
	old := c.bytes()
	buf := make([]byte, 0, len(old)+len(b))
	buf = append(buf, old...)
	buf = append(buf, b...)
	*c = compactStr{heap: buf}
}
