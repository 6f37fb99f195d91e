package dataflow

import (
	"math/bits"
	"strconv"
	"strings"
)

// BitSet is a fixed-capacity bit vector. The dataflow facts over
// locals and definition sites are dense small-integer sets, so a
// packed vector beats a map on both meet speed and determinism.
type BitSet struct {
	words []uint64
}

// NewBitSet returns an empty set with capacity for n elements.
func NewBitSet(n int) *BitSet {
	return &BitSet{words: make([]uint64, (n+63)/64)}
}

func (s *BitSet) Set(i int)      { s.words[i/64] |= 1 << (i % 64) }
func (s *BitSet) Clear(i int)    { s.words[i/64] &^= 1 << (i % 64) }
func (s *BitSet) Has(i int) bool { return s.words[i/64]&(1<<(i%64)) != 0 }

func (s *BitSet) Clone() *BitSet {
	c := &BitSet{words: make([]uint64, len(s.words))}
	copy(c.words, s.words)
	return c
}

// UnionWith ors o into s and reports whether s changed.
func (s *BitSet) UnionWith(o *BitSet) bool {
	changed := false
	for i, w := range o.words {
		next := s.words[i] | w
		if next != s.words[i] {
			s.words[i] = next
			changed = true
		}
	}
	return changed
}

// IntersectWith ands o into s and reports whether s changed.
func (s *BitSet) IntersectWith(o *BitSet) bool {
	changed := false
	for i, w := range o.words {
		next := s.words[i] & w
		if next != s.words[i] {
			s.words[i] = next
			changed = true
		}
	}
	return changed
}

func (s *BitSet) Equal(o *BitSet) bool {
	for i, w := range s.words {
		if w != o.words[i] {
			return false
		}
	}
	return true
}

func (s *BitSet) Empty() bool {
	for _, w := range s.words {
		if w != 0 {
			return false
		}
	}
	return true
}

func (s *BitSet) Count() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// ForEach calls fn for every element in ascending order.
func (s *BitSet) ForEach(fn func(int)) {
	for wi, w := range s.words {
		for w != 0 {
			i := bits.TrailingZeros64(w)
			fn(wi*64 + i)
			w &= w - 1
		}
	}
}

func (s *BitSet) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	s.ForEach(func(i int) {
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(strconv.Itoa(i))
	})
	b.WriteByte('}')
	return b.String()
}
