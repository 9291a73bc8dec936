// Package bitmap implements the per-space liveness bitmaps used by the
// collector. A Bitmap carries one bit per minimum-object-alignment word of
// its space's address range; a set bit at address A means an object header
// starts (or started, at last mark) at A.
//
// Bitmaps are deliberately unsynchronized. Collected spaces hold two
// interchangeable instances ("live" and "mark") that the collector swaps by
// reference between mark and sweep; the safety of reading or writing bits
// rests on the collector's global pause, not on per-call locking.
package bitmap

import (
	"fmt"
	"math/bits"

	"github.com/AOSIP/platform-art/internal/layout"
)

const bitsPerWord = 64

// Bitmap indexes liveness over the address range [begin, begin+size).
type Bitmap struct {
	name  string
	begin uintptr // word-aligned base of the covered range
	size  int     // bytes covered
	words []uint64
}

// New creates a cleared bitmap covering size bytes starting at begin.
// begin must be word-aligned; size is rounded up to a whole word.
func New(name string, begin uintptr, size int) *Bitmap {
	if !layout.WordAligned(begin) {
		panic(fmt.Sprintf("bitmap %q: unaligned base %#x", name, begin))
	}
	size = layout.AlignWord(size)
	nbits := size / layout.WordSize
	return &Bitmap{
		name:  name,
		begin: begin,
		size:  size,
		words: make([]uint64, (nbits+bitsPerWord-1)/bitsPerWord),
	}
}

// Name returns the diagnostic name of the bitmap.
func (b *Bitmap) Name() string { return b.name }

// HeapBegin returns the base address of the covered range.
func (b *Bitmap) HeapBegin() uintptr { return b.begin }

// HeapSize returns the number of bytes covered.
func (b *Bitmap) HeapSize() int { return b.size }

// HasAddress reports whether addr falls inside the covered range.
func (b *Bitmap) HasAddress(addr uintptr) bool {
	return addr >= b.begin && addr < b.begin+uintptr(b.size)
}

// Set marks addr as the start of a live object. addr must be word-aligned
// and inside the covered range; anything else indicates corrupted liveness
// bookkeeping and panics.
func (b *Bitmap) Set(addr uintptr) {
	w, mask := b.index(addr)
	b.words[w] |= mask
}

// Clear removes the mark at addr.
func (b *Bitmap) Clear(addr uintptr) {
	w, mask := b.index(addr)
	b.words[w] &^= mask
}

// Test reports whether addr is marked. Addresses outside the covered range
// test false, so the collector can probe any pointer-shaped value.
func (b *Bitmap) Test(addr uintptr) bool {
	if !b.HasAddress(addr) {
		return false
	}
	w, mask := b.index(addr)
	return b.words[w]&mask != 0
}

// Count returns the number of set bits.
func (b *Bitmap) Count() int {
	n := 0
	for _, w := range b.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Reset clears every bit.
func (b *Bitmap) Reset() {
	clear(b.words)
}

// Walk invokes fn for every marked address in ascending order.
func (b *Bitmap) Walk(fn func(addr uintptr)) {
	for i, w := range b.words {
		for w != 0 {
			bit := bits.TrailingZeros64(w)
			off := (i*bitsPerWord + bit) * layout.WordSize
			fn(b.begin + uintptr(off))
			w &= w - 1
		}
	}
}

func (b *Bitmap) index(addr uintptr) (word int, mask uint64) {
	if !b.HasAddress(addr) || !layout.WordAligned(addr) {
		panic(fmt.Sprintf("bitmap %q: address %#x outside [%#x, %#x) or unaligned",
			b.name, addr, b.begin, b.begin+uintptr(b.size)))
	}
	n := int(addr-b.begin) / layout.WordSize
	return n / bitsPerWord, 1 << (uint(n) % bitsPerWord)
}
