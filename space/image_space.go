package space

import (
	"fmt"

	"github.com/AOSIP/platform-art/bitmap"
	"github.com/AOSIP/platform-art/image"
	"github.com/AOSIP/platform-art/internal/mmap"
)

// ImageSpace is a space backed by a memory-mapped, pre-built image of
// objects. Its content is immutable after load and it is never collected.
type ImageSpace struct {
	base

	header  *image.Header
	objects []int // object start offsets from Begin, ascending

	// live doubles as the mark bitmap: immutable content needs no separate
	// mark pass, and aliasing the two removes special cases in the
	// collector.
	live *bitmap.Bitmap
}

var _ Space = (*ImageSpace)(nil)

// OpenImageSpace maps the image file at path read-only and validates its
// header. Construction itself needs no lock; any later access to the mapped
// objects must happen under the runtime's shared mutator lock, since it can
// race with a collection inspecting all spaces.
//
// Load failures (missing file, bad magic, version mismatch) are distinct
// from allocation failures: the caller may fall back to running without the
// image.
func OpenImageSpace(path string) (*ImageSpace, error) {
	mm, err := mmap.OpenFile(path, path)
	if err != nil {
		return nil, fmt.Errorf("image space %q: %w", path, err)
	}
	hdr, err := image.ParseHeader(mm.Bytes())
	if err != nil {
		_ = mm.Release()
		return nil, fmt.Errorf("image space %q: %w", path, err)
	}
	objects, err := image.ReadObjectTable(mm.Bytes(), hdr)
	if err != nil {
		_ = mm.Release()
		return nil, fmt.Errorf("image space %q: %w", path, err)
	}

	s := &ImageSpace{
		base: base{
			name:   path,
			mm:     mm,
			begin:  mm.Begin(),
			end:    mm.Begin() + uintptr(hdr.DataSize()),
			policy: RetainNeverCollect,
		},
		header:  hdr,
		objects: objects,
	}
	idx := bitmapIndex.Add(1)
	s.live = bitmap.New(fmt.Sprintf("%s live-bitmap %d", path, idx), mm.Begin(), hdr.DataSize())
	return s, nil
}

// Capacity reports the full mapping; image spaces have no growth limit.
func (s *ImageSpace) Capacity() int { return s.mm.Size() }

func (s *ImageSpace) NonGrowthLimitCapacity() int { return s.mm.Size() }

func (s *ImageSpace) IsAllocSpace() bool { return false }

func (s *ImageSpace) IsImageSpace() bool { return true }

func (s *ImageSpace) IsZygoteSpace() bool { return false }

func (s *ImageSpace) LiveBitmap() *bitmap.Bitmap { return s.live }

// MarkBitmap returns the live bitmap itself; see the field comment.
func (s *ImageSpace) MarkBitmap() *bitmap.Bitmap { return s.live }

// ImageHeader returns the parsed header at the start of the mapping.
func (s *ImageSpace) ImageHeader() *image.Header { return s.header }

// ImageFilename returns the path the image was loaded from.
func (s *ImageSpace) ImageFilename() string { return s.name }

// RecordImageAllocations sets a bit in bm for every object embedded in the
// image, using the header's object table. Called once at load time to seed
// global liveness bookkeeping for the pre-placed objects.
func (s *ImageSpace) RecordImageAllocations(bm *bitmap.Bitmap) {
	for _, off := range s.objects {
		bm.Set(s.begin + uintptr(off))
	}
}

// Close releases the mapping. Only valid at runtime teardown.
func (s *ImageSpace) Close() error {
	return s.mm.Release()
}

func (s *ImageSpace) String() string {
	return fmt.Sprintf("image space %q [%#x-%#x) %d objects",
		s.name, s.begin, s.end, len(s.objects))
}
