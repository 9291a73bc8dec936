package space

import (
	"fmt"

	"github.com/AOSIP/platform-art/bitmap"
	"github.com/AOSIP/platform-art/internal/mmap"
)

// RetentionPolicy tells the collector whether and when a space participates
// in collection.
type RetentionPolicy int

const (
	// RetainNeverCollect marks a space the collector never scans or sweeps
	// (image spaces, pre-zygote legacy heaps).
	RetainNeverCollect RetentionPolicy = iota

	// RetainAlwaysCollect marks the normal mutable heap, scanned on every
	// collection.
	RetainAlwaysCollect

	// RetainFullCollectOnly marks a frozen zygote heap, scanned only on
	// full (not partial) collections.
	RetainFullCollectOnly
)

func (p RetentionPolicy) String() string {
	switch p {
	case RetainNeverCollect:
		return "never-collect"
	case RetainAlwaysCollect:
		return "always-collect"
	case RetainFullCollectOnly:
		return "full-collect-only"
	default:
		return fmt.Sprintf("RetentionPolicy(%d)", int(p))
	}
}

// Space is the capability contract shared by every heap region. The
// collector dispatches on the capability queries instead of concrete types.
//
// The only implementations are *AllocSpace and *ImageSpace, produced by
// NewAllocSpace and OpenImageSpace.
type Space interface {
	// Name returns the diagnostic name. Not an identity.
	Name() string

	// Begin returns the address at which the space begins.
	Begin() uintptr

	// End returns the address at which the in-use range of the space ends.
	// For allocation spaces it advances as the allocator commits more of
	// the reservation.
	End() uintptr

	// Size returns End - Begin.
	Size() int

	// Capacity returns the collector-visible capacity: the growth limit for
	// allocation spaces, the full reservation otherwise.
	Capacity() int

	// NonGrowthLimitCapacity returns the full physical reservation.
	NonGrowthLimitCapacity() int

	// Contains reports whether Begin() <= addr < End().
	Contains(addr uintptr) bool

	// RetentionPolicy returns the space's collection policy.
	RetentionPolicy() RetentionPolicy

	// SetRetentionPolicy replaces the space's collection policy.
	SetRetentionPolicy(p RetentionPolicy)

	// IsAllocSpace reports whether the space accepts allocations and is
	// subject to collection.
	IsAllocSpace() bool

	// IsImageSpace reports whether the space is an immutable image.
	IsImageSpace() bool

	// IsZygoteSpace reports whether the space is a frozen zygote heap.
	IsZygoteSpace() bool

	// LiveBitmap returns the bitmap recording objects live after the last
	// collection.
	LiveBitmap() *bitmap.Bitmap

	// MarkBitmap returns the bitmap the current collection marks into. For
	// image spaces this is the live bitmap itself.
	MarkBitmap() *bitmap.Bitmap
}

// base carries the identity and bounds shared by both space kinds.
type base struct {
	name   string
	mm     *mmap.Map // exclusively owned for the space's lifetime
	begin  uintptr
	end    uintptr
	policy RetentionPolicy
}

func (b *base) Name() string { return b.name }

func (b *base) Begin() uintptr { return b.begin }

func (b *base) End() uintptr { return b.end }

func (b *base) Size() int { return int(b.end - b.begin) }

func (b *base) Contains(addr uintptr) bool {
	return addr >= b.begin && addr < b.end
}

func (b *base) RetentionPolicy() RetentionPolicy { return b.policy }

func (b *base) SetRetentionPolicy(p RetentionPolicy) { b.policy = p }
