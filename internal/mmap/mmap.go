// Package mmap owns the OS-level virtual memory reservations that back heap
// spaces. A Map is either an anonymous reservation (committed page by page as
// the owning space grows) or a read-only view of an image file.
//
// On unix platforms the implementation sits on golang.org/x/sys/unix; on
// other platforms it falls back to plain heap buffers so the rest of the
// module stays testable everywhere.
package mmap

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/AOSIP/platform-art/internal/layout"
)

var (
	// ErrBadLength indicates a reservation request with a non-positive length.
	ErrBadLength = errors.New("mmap: length must be positive")

	// ErrBadSplit indicates a split offset that is unaligned or out of range.
	ErrBadSplit = errors.New("mmap: split offset must be page-aligned and interior")

	// ErrReadOnly indicates an attempt to commit or split a file-backed map.
	ErrReadOnly = errors.New("mmap: map is read-only")
)

// Map is a single contiguous virtual memory reservation. It is exclusively
// owned by one space for its whole lifetime; ownership of a sub-range moves
// only through Split.
type Map struct {
	name     string
	data     []byte // whole reservation, len == reserved size
	readOnly bool   // file-backed image mapping
}

// Reserve creates an anonymous reservation of length bytes (rounded up to a
// whole number of pages). The pages start uncommitted; Commit makes them
// usable. requestedBase is an advisory placement hint only - the OS may place
// the reservation anywhere, so callers must re-query Begin on the result.
func Reserve(name string, length int, requestedBase uintptr) (*Map, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w (got %d)", ErrBadLength, length)
	}
	length = layout.AlignPage(length)
	data, err := sysReserve(length, requestedBase)
	if err != nil {
		return nil, fmt.Errorf("mmap: reserve %q (%d bytes): %w", name, length, err)
	}
	return &Map{name: name, data: data}, nil
}

// OpenFile maps the file at path read-only in its entirety.
func OpenFile(name, path string) (*Map, error) {
	data, err := sysMapFile(path)
	if err != nil {
		return nil, err
	}
	return &Map{name: name, data: data, readOnly: true}, nil
}

// Name returns the diagnostic name of the mapping.
func (m *Map) Name() string { return m.name }

// Begin returns the address of the first byte of the reservation.
func (m *Map) Begin() uintptr {
	if len(m.data) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&m.data[0]))
}

// End returns the address one past the last byte of the reservation.
func (m *Map) End() uintptr { return m.Begin() + uintptr(len(m.data)) }

// Size returns the reserved length in bytes.
func (m *Map) Size() int { return len(m.data) }

// Bytes returns the whole reservation. Only committed sub-ranges may be
// touched on platforms with real page protection.
func (m *Map) Bytes() []byte { return m.data }

// Slice returns the sub-range [off, off+n) of the reservation.
func (m *Map) Slice(off, n int) []byte { return m.data[off : off+n : off+n] }

// Commit makes [off, off+n) readable and writable. Both bounds must be
// page-aligned.
func (m *Map) Commit(off, n int) error {
	if m.readOnly {
		return ErrReadOnly
	}
	if err := m.checkPageRange(off, n); err != nil {
		return err
	}
	return sysCommit(m.data[off : off+n])
}

// Decommit hands [off, off+n) back to the OS and revokes access. The range
// reads as zero after a subsequent Commit. Both bounds must be page-aligned.
func (m *Map) Decommit(off, n int) error {
	if m.readOnly {
		return ErrReadOnly
	}
	if err := m.checkPageRange(off, n); err != nil {
		return err
	}
	return sysDecommit(m.data[off : off+n])
}

// DontNeed advises the OS that [off, off+n) holds no useful content. The
// range stays committed; this is the advisory page-release path behind Trim.
func (m *Map) DontNeed(off, n int) error {
	if m.readOnly {
		return ErrReadOnly
	}
	if err := m.checkPageRange(off, n); err != nil {
		return err
	}
	return sysDontNeed(m.data[off : off+n])
}

// Split partitions the reservation at the page-aligned offset off. The
// receiver keeps [0, off); the returned map takes exclusive ownership of
// [off, size). Commit state of the pages is unchanged.
func (m *Map) Split(off int, tailName string) (*Map, error) {
	if m.readOnly {
		return nil, ErrReadOnly
	}
	if off <= 0 || off >= len(m.data) || !layout.PageAligned(off) {
		return nil, fmt.Errorf("%w (offset %d of %d)", ErrBadSplit, off, len(m.data))
	}
	tail := &Map{name: tailName, data: m.data[off:len(m.data):len(m.data)]}
	m.data = m.data[:off:off]
	return tail, nil
}

// Release returns the reservation to the OS. The Map must not be used
// afterwards.
func (m *Map) Release() error {
	if m.data == nil {
		return nil
	}
	err := sysRelease(m.data, m.readOnly)
	m.data = nil
	return err
}

func (m *Map) checkPageRange(off, n int) error {
	if off < 0 || n < 0 || off+n > len(m.data) {
		return fmt.Errorf("mmap: range [%d, %d) outside reservation of %d bytes", off, off+n, len(m.data))
	}
	if !layout.PageAligned(off) || !layout.PageAligned(n) {
		return fmt.Errorf("mmap: range [%d, %d) not page-aligned", off, off+n)
	}
	return nil
}
