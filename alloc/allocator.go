package alloc

import (
	"fmt"
	"log"
	"os"

	"github.com/AOSIP/platform-art/internal/layout"
)

// Runtime debug flag for allocation logging - controlled by HEAP_LOG_ALLOC env var.
var logAlloc = os.Getenv("HEAP_LOG_ALLOC") != ""

const (
	// ChunkOverhead is the boundary tag preceding every payload.
	ChunkOverhead = layout.WordSize

	// MinChunkSize is the smallest legal chunk (header plus one payload word).
	MinChunkSize = 2 * layout.WordSize

	usedBit  = 1
	sizeMask = ^uint64(layout.WordMask)
)

// MoreCore is the growth callback supplied by the owning space. A positive
// increment commits pages at the current end of the region, a negative one
// decommits them; the return value is the new committed size in bytes.
type MoreCore func(increment int) (int, error)

// Stats holds internal allocator counters for tests and instrumentation.
type Stats struct {
	AllocCalls     int
	FreeCalls      int
	GrowCalls      int
	TrimCalls      int
	Splits         int
	Coalesces      int
	BytesAllocated int64
	BytesFreed     int64
}

// Allocator manages the committed prefix of a reservation as boundary-tagged
// chunks. Offsets are relative to the start of mem; the owning space
// translates them to addresses at its API boundary.
type Allocator struct {
	mem            []byte // whole reservation; only [0, committed) may be touched
	committed      int
	footprintLimit int
	morecore       MoreCore

	table   *sizeClassTable
	classes [][]int     // per-class stacks of candidate offsets, lazily invalidated
	large   []int       // chunks beyond the last class, best-fit
	free    map[int]int // offset -> chunk size, authoritative
	ends    map[int]int // chunk end offset -> chunk offset, for coalescing

	stats Stats
}

// New creates an allocator over mem with initial bytes already committed by
// the caller and footprintLimit as the ceiling it may grow to through the
// morecore callback.
func New(mem []byte, initial, footprintLimit int, config Config, grow MoreCore) (*Allocator, error) {
	switch {
	case initial < MinChunkSize || initial > len(mem):
		return nil, fmt.Errorf("alloc: initial size %d outside [%d, %d]", initial, MinChunkSize, len(mem))
	case initial != layout.AlignWord(initial):
		return nil, fmt.Errorf("alloc: initial size %d not word-aligned", initial)
	case footprintLimit < initial || footprintLimit > len(mem):
		return nil, fmt.Errorf("alloc: footprint limit %d outside [%d, %d]", footprintLimit, initial, len(mem))
	case grow == nil:
		return nil, fmt.Errorf("alloc: nil morecore callback")
	}
	t := newSizeClassTable(config)
	a := &Allocator{
		mem:            mem,
		committed:      initial,
		footprintLimit: footprintLimit,
		morecore:       grow,
		table:          t,
		classes:        make([][]int, t.numClasses()),
		free:           make(map[int]int),
		ends:           make(map[int]int),
	}
	a.pushFree(0, initial)
	return a, nil
}

// Alloc returns the payload offset of a chunk with at least n usable bytes,
// growing the committed region through morecore if the footprint limit
// permits.
func (a *Allocator) Alloc(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("%w (got %d)", ErrBadSize, n)
	}
	need := layout.AlignWord(n) + ChunkOverhead
	if need < MinChunkSize {
		need = MinChunkSize
	}

	a.stats.AllocCalls++
	off, ok := a.take(need)
	if !ok {
		if err := a.grow(need); err != nil {
			return 0, err
		}
		off, ok = a.take(need)
		if !ok {
			panic(fmt.Sprintf("alloc: no fitting chunk after successful grow (need %d)", need))
		}
	}
	size := a.carve(off, need)
	a.stats.BytesAllocated += int64(size)
	if logAlloc {
		log.Printf("alloc: %d bytes -> chunk [%d, %d)", n, off, off+size)
	}
	return off + ChunkOverhead, nil
}

// Free releases the allocation at payload offset ref, coalescing with free
// neighbours on both sides.
func (a *Allocator) Free(ref int) error {
	off, size, err := a.liveChunk(ref)
	if err != nil {
		return err
	}
	a.stats.FreeCalls++
	a.stats.BytesFreed += int64(size)

	end := off + size
	if next, ok := a.free[end]; ok {
		a.unlink(end, next)
		size += next
		a.stats.Coalesces++
	}
	if prev, ok := a.ends[off]; ok {
		psize := a.free[prev]
		a.unlink(prev, psize)
		off = prev
		size += psize
		a.stats.Coalesces++
	}
	a.pushFree(off, size)
	return nil
}

// UsableSize returns the payload capacity of the allocation at ref,
// excluding the chunk header.
func (a *Allocator) UsableSize(ref int) (int, error) {
	_, size, err := a.liveChunk(ref)
	if err != nil {
		return 0, err
	}
	return size - ChunkOverhead, nil
}

// Walk invokes fn for every chunk in address order. usedBytes is the full
// chunk size for live chunks and zero for free ones.
func (a *Allocator) Walk(fn func(start, end, usedBytes int)) {
	off := 0
	for off < a.committed {
		size, used := a.readChunk(off)
		if size < MinChunkSize || off+size > a.committed {
			panic(fmt.Sprintf("alloc: corrupt chunk header at offset %d (size %d)", off, size))
		}
		usedBytes := 0
		if used {
			usedBytes = size
		}
		fn(off, off+size, usedBytes)
		off += size
	}
}

// Trim hands whole unused pages at the end of the committed region back
// through a negative morecore call. Returns the number of bytes released.
// Failure to shrink is advisory and reported as zero.
func (a *Allocator) Trim() int {
	a.stats.TrimCalls++
	off, ok := a.ends[a.committed]
	if !ok {
		return 0 // tail chunk is in use
	}
	size := a.free[off]
	newEnd := layout.AlignPage(off + MinChunkSize)
	if newEnd >= a.committed {
		return 0
	}
	a.unlink(off, size)
	got, err := a.morecore(newEnd - a.committed)
	if err != nil {
		a.pushFree(off, size)
		return 0
	}
	if got != newEnd {
		panic(fmt.Sprintf("alloc: morecore moved end to %d, want %d", got, newEnd))
	}
	a.committed = newEnd
	a.pushFree(off, newEnd-off)
	return size - (newEnd - off)
}

// Footprint returns the committed size in bytes.
func (a *Allocator) Footprint() int { return a.committed }

// FootprintLimit returns the ceiling the allocator may grow to.
func (a *Allocator) FootprintLimit() int { return a.footprintLimit }

// SetFootprintLimit adjusts the growth ceiling. Values below the current
// footprint are allowed and simply forbid any further growth.
func (a *Allocator) SetFootprintLimit(n int) {
	if n < 0 {
		n = 0
	}
	if n > len(a.mem) {
		n = len(a.mem)
	}
	a.footprintLimit = n
}

// Stats returns a copy of the internal counters.
func (a *Allocator) Stats() Stats { return a.stats }

// take removes and returns a free chunk of at least need bytes, or reports
// that none exists.
func (a *Allocator) take(need int) (int, bool) {
	for c := a.table.classFor(need); c < a.table.numClasses(); c++ {
		stack := a.classes[c]
		for i := len(stack) - 1; i >= 0; i-- {
			off := stack[i]
			size, ok := a.free[off]
			if !ok || a.table.classFor(size) != c {
				// stale entry left behind by coalescing or reuse
				stack = append(stack[:i], stack[i+1:]...)
				continue
			}
			if size < need {
				continue // undershoot within the starting class
			}
			stack = append(stack[:i], stack[i+1:]...)
			a.classes[c] = stack
			a.unlink(off, size)
			return off, true
		}
		a.classes[c] = stack
	}

	// Best fit over the large list.
	best, bestSize := -1, 0
	for i := 0; i < len(a.large); {
		off := a.large[i]
		size, ok := a.free[off]
		if !ok || a.table.classFor(size) != a.table.numClasses() {
			a.large = append(a.large[:i], a.large[i+1:]...)
			continue
		}
		if size >= need && (best < 0 || size < bestSize) {
			best, bestSize = i, size
		}
		i++
	}
	if best >= 0 {
		off := a.large[best]
		a.large = append(a.large[:best], a.large[best+1:]...)
		a.unlink(off, bestSize)
		return off, true
	}
	return 0, false
}

// carve marks the chunk at off as used, splitting off the remainder when it
// is big enough to stand alone. Returns the final chunk size.
func (a *Allocator) carve(off, need int) int {
	size := need
	if rest := a.chunkAt(off) - need; rest >= MinChunkSize {
		a.pushFree(off+need, rest)
		a.stats.Splits++
	} else {
		size += rest
	}
	a.writeChunk(off, size, true)
	return size
}

// grow commits enough new pages for a chunk of need bytes and seeds the new
// range as a free chunk, merging with a free tail.
func (a *Allocator) grow(need int) error {
	inc := layout.AlignPage(need)
	if a.committed+inc > a.footprintLimit {
		return fmt.Errorf("%w: footprint %d + %d exceeds limit %d",
			ErrNoSpace, a.committed, inc, a.footprintLimit)
	}
	newEnd, err := a.morecore(inc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGrowFail, err)
	}
	if newEnd != a.committed+inc {
		panic(fmt.Sprintf("alloc: morecore moved end to %d, want %d", newEnd, a.committed+inc))
	}
	a.stats.GrowCalls++

	off, size := a.committed, inc
	if prev, ok := a.ends[off]; ok {
		psize := a.free[prev]
		a.unlink(prev, psize)
		off = prev
		size += psize
		a.stats.Coalesces++
	}
	a.committed = newEnd
	a.pushFree(off, size)
	if logAlloc {
		log.Printf("alloc: grew committed region to %d bytes", newEnd)
	}
	return nil
}

// pushFree records [off, off+size) as a free chunk.
func (a *Allocator) pushFree(off, size int) {
	a.writeChunk(off, size, false)
	a.free[off] = size
	a.ends[off+size] = off
	if c := a.table.classFor(size); c < a.table.numClasses() {
		a.classes[c] = append(a.classes[c], off)
	} else {
		a.large = append(a.large, off)
	}
}

// unlink removes a chunk from the authoritative free maps. Stack entries are
// left to lazy invalidation.
func (a *Allocator) unlink(off, size int) {
	delete(a.free, off)
	delete(a.ends, off+size)
}

// liveChunk validates that ref is the payload offset of a live allocation
// and returns its chunk offset and size.
func (a *Allocator) liveChunk(ref int) (off, size int, err error) {
	off = ref - ChunkOverhead
	if off < 0 || off+MinChunkSize > a.committed || off != layout.AlignWord(off) {
		return 0, 0, fmt.Errorf("%w (offset %d)", ErrBadRef, ref)
	}
	size, used := a.readChunk(off)
	if !used || size < MinChunkSize || off+size > a.committed {
		return 0, 0, fmt.Errorf("%w (offset %d)", ErrBadRef, ref)
	}
	return off, size, nil
}

func (a *Allocator) chunkAt(off int) int {
	size, _ := a.readChunk(off)
	return size
}

func (a *Allocator) readChunk(off int) (size int, used bool) {
	h := layout.ReadU64(a.mem, off)
	return int(h & sizeMask), h&usedBit != 0
}

func (a *Allocator) writeChunk(off, size int, used bool) {
	h := uint64(size) & sizeMask
	if used {
		h |= usedBit
	}
	layout.PutU64(a.mem, off, h)
}
