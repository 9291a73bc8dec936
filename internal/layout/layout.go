// Package layout houses the low-level byte-order and alignment helpers shared
// by the image format decoder and the heap allocator. The goal is to keep the
// arithmetic in one place and allocation-free so higher-level packages can
// stay zero-copy over mapped regions.
package layout

import "encoding/binary"

const (
	// WordSize is the minimum object alignment in bytes. Every object header
	// starts on a word boundary; liveness bitmaps carry one bit per word.
	WordSize = 8

	// WordMask is the bitmask used for aligning to word boundaries.
	WordMask = WordSize - 1

	// PageSize is the commit granularity of a reservation. All growth and
	// trim traffic between a space and the OS happens in whole pages.
	PageSize = 4096

	// PageMask is the bitmask used for aligning to page boundaries.
	PageMask = PageSize - 1
)

// AlignWord returns n aligned up to the next word (8-byte) boundary.
//
// Example:
//
//	AlignWord(1) = 8
//	AlignWord(8) = 8
//	AlignWord(9) = 16
func AlignWord(n int) int {
	return (n + WordMask) & ^WordMask
}

// AlignPage returns n aligned up to the next page (4096-byte) boundary.
//
// Example:
//
//	AlignPage(1)    = 4096
//	AlignPage(4096) = 4096
//	AlignPage(4097) = 8192
func AlignPage(n int) int {
	return (n + PageMask) & ^PageMask
}

// WordAligned reports whether addr sits on a word boundary.
func WordAligned(addr uintptr) bool {
	return addr&WordMask == 0
}

// PageAligned reports whether n is a multiple of the page size.
func PageAligned(n int) bool {
	return n&PageMask == 0
}

// PutU32 writes a uint32 value to the buffer at the specified offset in little-endian format.
func PutU32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}

// ReadU32 reads a uint32 value from the buffer at the specified offset in little-endian format.
func ReadU32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}

// PutU64 writes a uint64 value to the buffer at the specified offset in little-endian format.
func PutU64(b []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(b[off:off+8], v)
}

// ReadU64 reads a uint64 value from the buffer at the specified offset in little-endian format.
func ReadU64(b []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(b[off : off+8])
}
