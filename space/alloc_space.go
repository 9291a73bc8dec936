package space

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/AOSIP/platform-art/alloc"
	"github.com/AOSIP/platform-art/bitmap"
	"github.com/AOSIP/platform-art/internal/layout"
	"github.com/AOSIP/platform-art/internal/mmap"
)

// bitmapIndex distinguishes the bitmaps of successive alloc spaces in logs.
var bitmapIndex atomic.Int32

// AllocSpace is a space where objects are allocated and garbage collected.
// It owns a growable allocator over the committed prefix of its reservation
// and a live/mark bitmap pair.
type AllocSpace struct {
	base

	// mu guards the allocator and all growth-limit bookkeeping. Bitmap
	// access is deliberately outside its protection; see the package doc.
	mu        sync.Mutex
	allocator *alloc.Allocator

	// growthLimit is the ergonomic capacity ceiling, <= the reservation
	// size. Prior to the zygote fork the reservation is maximally sized
	// while growthLimit stays low; ClearGrowthLimit lifts it exactly once.
	growthLimit int

	// frozen is set when this space became a zygote space; allocation then
	// fails and all new objects go to the sibling space.
	frozen bool

	live *bitmap.Bitmap
	mark *bitmap.Bitmap
}

var _ Space = (*AllocSpace)(nil)

// NewAllocSpace reserves capacity bytes (ideally at requestedBase, though
// the OS may place the reservation anywhere - re-query Begin), commits
// initialSize of them, and initializes the allocator with growthLimit as the
// ceiling it may reach through the growth callback. All three sizes are
// rounded up to whole pages.
func NewAllocSpace(name string, initialSize, growthLimit, capacity int, requestedBase uintptr) (*AllocSpace, error) {
	if initialSize <= 0 || initialSize > growthLimit || growthLimit > capacity {
		return nil, fmt.Errorf("space %q: need 0 < initial (%d) <= growth limit (%d) <= capacity (%d)",
			name, initialSize, growthLimit, capacity)
	}
	initialSize = layout.AlignPage(initialSize)
	growthLimit = layout.AlignPage(growthLimit)
	capacity = layout.AlignPage(capacity)

	mm, err := mmap.Reserve(name, capacity, requestedBase)
	if err != nil {
		return nil, err
	}
	return newAllocSpace(name, mm, initialSize, growthLimit, RetainAlwaysCollect)
}

// newAllocSpace builds an alloc space over an owned reservation. Shared by
// the public factory and the zygote split.
func newAllocSpace(name string, mm *mmap.Map, initial, growthLimit int, policy RetentionPolicy) (*AllocSpace, error) {
	if err := mm.Commit(0, initial); err != nil {
		_ = mm.Release()
		return nil, fmt.Errorf("space %q: commit initial %d bytes: %w", name, initial, err)
	}
	s := &AllocSpace{
		base: base{
			name:   name,
			mm:     mm,
			begin:  mm.Begin(),
			end:    mm.Begin() + uintptr(initial),
			policy: policy,
		},
		growthLimit: growthLimit,
	}
	idx := bitmapIndex.Add(1)
	s.live = bitmap.New(fmt.Sprintf("%s live-bitmap %d", name, idx), mm.Begin(), mm.Size())
	s.mark = bitmap.New(fmt.Sprintf("%s mark-bitmap %d", name, idx), mm.Begin(), mm.Size())

	a, err := alloc.New(mm.Bytes(), initial, growthLimit, alloc.DefaultConfig, s.moreCore)
	if err != nil {
		_ = mm.Release()
		return nil, fmt.Errorf("space %q: %w", name, err)
	}
	s.allocator = a
	return s, nil
}

// Capacity reports the growth-limited capacity, never the full reservation,
// until ClearGrowthLimit lifts the limit.
func (s *AllocSpace) Capacity() int { return s.growthLimit }

// NonGrowthLimitCapacity reports the full physical reservation.
func (s *AllocSpace) NonGrowthLimitCapacity() int { return s.mm.Size() }

// IsAllocSpace reports true unless the space runs in the pre-zygote legacy
// never-collect mode.
func (s *AllocSpace) IsAllocSpace() bool { return s.policy != RetainNeverCollect }

func (s *AllocSpace) IsImageSpace() bool { return false }

// IsZygoteSpace reports whether this space was frozen by a zygote split.
func (s *AllocSpace) IsZygoteSpace() bool { return s.policy == RetainFullCollectOnly }

func (s *AllocSpace) LiveBitmap() *bitmap.Bitmap { return s.live }

func (s *AllocSpace) MarkBitmap() *bitmap.Bitmap { return s.mark }

// AllocWithGrowth allocates n bytes, permitting the allocator to commit more
// of the reservation up to the growth limit. A nil-object failure is
// returned as an error value; the caller is expected to collect and retry,
// never to abort.
func (s *AllocSpace) AllocWithGrowth(n int) (uintptr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return 0, ErrFrozen
	}
	saved := s.allocator.FootprintLimit()
	s.allocator.SetFootprintLimit(s.growthLimit)
	ref, err := s.allocator.Alloc(n)
	s.restoreFootprintLimit(saved)
	if err != nil {
		return 0, err
	}
	return s.begin + uintptr(ref), nil
}

// AllocWithoutGrowth allocates n bytes with the growth callback disabled for
// this call: the request either fits in already-committed memory or fails.
func (s *AllocSpace) AllocWithoutGrowth(n int) (uintptr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return 0, ErrFrozen
	}
	saved := s.allocator.FootprintLimit()
	s.allocator.SetFootprintLimit(s.allocator.Footprint())
	ref, err := s.allocator.Alloc(n)
	s.restoreFootprintLimit(saved)
	if err != nil {
		return 0, err
	}
	return s.begin + uintptr(ref), nil
}

// restoreFootprintLimit reinstates a saved footprint limit, keeping any
// growth that happened in between. Callers hold mu.
func (s *AllocSpace) restoreFootprintLimit(saved int) {
	if fp := s.allocator.Footprint(); fp > saved {
		saved = fp
	}
	s.allocator.SetFootprintLimit(saved)
}

// AllocationSize returns the allocator's bookkeeping size for the live
// allocation at obj: its usable size plus the chunk overhead.
func (s *AllocSpace) AllocationSize(obj uintptr) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref, err := s.refOf(obj)
	if err != nil {
		return 0, err
	}
	usable, err := s.allocator.UsableSize(ref)
	if err != nil {
		return 0, err
	}
	return usable + alloc.ChunkOverhead, nil
}

// Free releases a single allocation back to the allocator.
func (s *AllocSpace) Free(obj uintptr) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.freeLocked(obj)
}

// FreeList releases a batch of allocations in one critical section, which
// is materially cheaper for the sweep phase than per-object locking.
func (s *AllocSpace) FreeList(objs ...uintptr) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for _, obj := range objs {
		if err := s.freeLocked(obj); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *AllocSpace) freeLocked(obj uintptr) error {
	ref, err := s.refOf(obj)
	if err != nil {
		return err
	}
	return s.allocator.Free(ref)
}

// moreCore is the allocator's growth callback and the sole channel through
// which End moves: a positive increment commits pages at the current end, a
// negative one decommits them. A request past the growth limit means the
// footprint bookkeeping is already inconsistent, so it fails loudly.
func (s *AllocSpace) moreCore(increment int) (int, error) {
	cur := s.Size()
	newSize := cur + increment
	switch {
	case newSize < 0 || newSize > s.mm.Size():
		panic(fmt.Sprintf("space %q: morecore to %d bytes outside reservation of %d",
			s.name, newSize, s.mm.Size()))
	case increment > 0 && newSize > s.growthLimit:
		panic(fmt.Sprintf("space %q: morecore to %d bytes past growth limit %d",
			s.name, newSize, s.growthLimit))
	case increment > 0:
		if err := s.mm.Commit(cur, increment); err != nil {
			return cur, err
		}
	case increment < 0:
		if err := s.mm.Decommit(newSize, -increment); err != nil {
			return cur, err
		}
	}
	s.end = s.begin + uintptr(newSize)
	return newSize, nil
}

// FootprintLimit returns the number of bytes the allocator is currently
// allowed to obtain through morecore.
func (s *AllocSpace) FootprintLimit() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allocator.FootprintLimit()
}

// SetFootprintLimit adjusts the allocator-visible ceiling, clamped to the
// growth limit. The heap controller raises it before a collect-and-retry
// cycle; it is distinct from the growth limit itself.
func (s *AllocSpace) SetFootprintLimit(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > s.growthLimit {
		n = s.growthLimit
	}
	s.allocator.SetFootprintLimit(n)
}

// ClearGrowthLimit removes the fork-time ergonomic ceiling, letting the
// space grow to its full reservation. One-way and idempotent.
func (s *AllocSpace) ClearGrowthLimit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.growthLimit = s.mm.Size()
}

// SetGrowthLimit lowers (or raises, up to the reservation) the ergonomic
// ceiling. Used when constructing the post-fork sibling.
func (s *AllocSpace) SetGrowthLimit(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > s.mm.Size() {
		n = s.mm.Size()
	}
	s.growthLimit = n
}

// Trim hands unused whole pages back to the OS: the free tail of the
// committed region is decommitted through morecore, and the interiors of
// interior free chunks are madvised away. It returns the number of bytes
// decommitted from the tail. Failures are advisory.
func (s *AllocSpace) Trim() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	released := s.allocator.Trim()
	s.allocator.Walk(func(start, end, usedBytes int) {
		if usedBytes != 0 {
			return
		}
		// Keep the chunk header; release only whole interior pages.
		lo := layout.AlignPage(start + alloc.ChunkOverhead)
		hi := end &^ layout.PageMask
		if hi > lo {
			_ = s.mm.DontNeed(lo, hi-lo)
		}
	})
	return released
}

// Walk invokes fn for every allocator chunk, used or free, in address
// order. usedBytes is zero for free chunks.
func (s *AllocSpace) Walk(fn func(chunkStart, chunkEnd uintptr, usedBytes int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allocator.Walk(func(start, end, usedBytes int) {
		fn(s.begin+uintptr(start), s.begin+uintptr(end), usedBytes)
	})
}

// SwapBitmaps exchanges the live and mark bitmaps by reference, so "mark"
// becomes the new "live" without copying a single bit. The caller must hold
// the collector's global pause; the swap is not guarded by the space lock.
func (s *AllocSpace) SwapBitmaps() {
	s.live, s.mark = s.mark, s.live
}

// CreateZygoteSpace splits the reservation at the current end. This space
// keeps [Begin, End) as a frozen zygote heap - full-collect-only policy, no
// further allocation - and the returned sibling takes ownership of the
// unused tail with always-collect policy and fresh bitmaps. The caller must
// hold the collector's global pause: no allocation may be in flight.
func (s *AllocSpace) CreateZygoteSpace() (*AllocSpace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frozen {
		return nil, ErrFrozen
	}
	size := s.Size()
	if !layout.PageAligned(size) {
		panic(fmt.Sprintf("space %q: committed size %d not page-aligned", s.name, size))
	}
	if size >= s.mm.Size() {
		return nil, fmt.Errorf("space %q: no unused tail to split off", s.name)
	}

	childGrowth := s.growthLimit - size
	tail, err := s.mm.Split(size, s.name+" post-zygote")
	if err != nil {
		return nil, err
	}

	s.frozen = true
	s.policy = RetainFullCollectOnly
	s.growthLimit = size
	s.allocator.SetFootprintLimit(size)

	childInitial := layout.PageSize
	if childGrowth < childInitial {
		childGrowth = childInitial
	}
	if childGrowth > tail.Size() {
		childGrowth = tail.Size()
	}
	return newAllocSpace(tail.Name(), tail, childInitial, childGrowth, RetainAlwaysCollect)
}

// AllocatorStats returns a copy of the allocator's internal counters.
func (s *AllocSpace) AllocatorStats() alloc.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allocator.Stats()
}

// Close releases the reservation. Only valid at runtime teardown.
func (s *AllocSpace) Close() error {
	return s.mm.Release()
}

func (s *AllocSpace) String() string {
	return fmt.Sprintf("alloc space %q [%#x-%#x) capacity %d policy %s",
		s.name, s.begin, s.end, s.Capacity(), s.policy)
}

// refOf translates an object address into an allocator offset.
func (s *AllocSpace) refOf(obj uintptr) (int, error) {
	if !s.Contains(obj) {
		return 0, fmt.Errorf("%w: %#x not in [%#x, %#x)", ErrBadAddress, obj, s.begin, s.end)
	}
	return int(obj - s.begin), nil
}
