package image

import (
	"bytes"
	"fmt"

	"github.com/AOSIP/platform-art/internal/layout"
)

// Signature is the four-byte magic at the start of every image file.
var Signature = []byte{'v', 'm', 'i', 'g'}

const (
	// Version is the current image format version. Files written by any
	// other version are rejected.
	Version = 1

	// HeaderSize is the fixed size of the image header in bytes.
	HeaderSize = 64

	// Header field offsets (all u32, little-endian).
	sigOffset         = 0x00
	versionOffset     = 0x04
	objectCountOffset = 0x08
	tableOffset       = 0x0C
	objectsOffset     = 0x10
	dataSizeOffset    = 0x14
	rootIndexOffset   = 0x18
	// 0x1C..0x40 reserved, zero
)

// Header is a zero-copy view of the image header. All accessors read
// directly from the first HeaderSize bytes of the mapping.
type Header struct {
	raw []byte // len == HeaderSize
}

// ParseHeader validates the signature and version of b and returns a header
// view. It performs no bounds checking beyond the header itself; call
// Validate for that.
func ParseHeader(b []byte) (*Header, error) {
	if len(b) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes, header needs %d", ErrTruncated, len(b), HeaderSize)
	}
	if !bytes.Equal(b[sigOffset:sigOffset+len(Signature)], Signature) {
		return nil, ErrBadMagic
	}
	h := &Header{raw: b[:HeaderSize]}
	if v := h.Version(); v != Version {
		return nil, fmt.Errorf("%w: file version %d, runtime version %d", ErrVersionMismatch, v, Version)
	}
	return h, nil
}

// Version returns the format version field.
func (h *Header) Version() uint32 { return layout.ReadU32(h.raw, versionOffset) }

// ObjectCount returns the number of objects embedded in the image.
func (h *Header) ObjectCount() int { return int(layout.ReadU32(h.raw, objectCountOffset)) }

// TableOffset returns the file offset of the object table.
func (h *Header) TableOffset() int { return int(layout.ReadU32(h.raw, tableOffset)) }

// ObjectsOffset returns the file offset of the object payload area.
func (h *Header) ObjectsOffset() int { return int(layout.ReadU32(h.raw, objectsOffset)) }

// DataSize returns the logical length of the image.
func (h *Header) DataSize() int { return int(layout.ReadU32(h.raw, dataSizeOffset)) }

// RootIndex returns the object-table index of the root object.
func (h *Header) RootIndex() int { return int(layout.ReadU32(h.raw, rootIndexOffset)) }

// Validate checks the header's internal structure against the actual file
// size.
func (h *Header) Validate(fileSize int) error {
	if h.DataSize() > fileSize {
		return fmt.Errorf("%w: header declares %d bytes, file has %d", ErrTruncated, h.DataSize(), fileSize)
	}
	count := h.ObjectCount()
	tableEnd := h.TableOffset() + 4*count
	if h.TableOffset() < HeaderSize || tableEnd > h.DataSize() {
		return fmt.Errorf("%w: table [%d, %d) outside data of %d bytes",
			ErrCorruptTable, h.TableOffset(), tableEnd, h.DataSize())
	}
	if h.ObjectsOffset() < tableEnd || h.ObjectsOffset() > h.DataSize() {
		return fmt.Errorf("%w: object area starts at %d, table ends at %d",
			ErrCorruptTable, h.ObjectsOffset(), tableEnd)
	}
	if count > 0 && h.RootIndex() >= count {
		return fmt.Errorf("%w: root index %d with %d objects", ErrCorruptTable, h.RootIndex(), count)
	}
	return nil
}

// ReadObjectTable returns the file offset of every object start, validated
// to be ascending, word-aligned, and inside the object payload area.
func ReadObjectTable(data []byte, h *Header) ([]int, error) {
	if err := h.Validate(len(data)); err != nil {
		return nil, err
	}
	count := h.ObjectCount()
	offs := make([]int, count)
	prev := -1
	for i := 0; i < count; i++ {
		off := int(layout.ReadU32(data, h.TableOffset()+4*i))
		switch {
		case off < h.ObjectsOffset() || off >= h.DataSize():
			return nil, fmt.Errorf("%w: entry %d offset %d outside objects [%d, %d)",
				ErrCorruptTable, i, off, h.ObjectsOffset(), h.DataSize())
		case !layout.WordAligned(uintptr(off)):
			return nil, fmt.Errorf("%w: entry %d offset %d unaligned", ErrCorruptTable, i, off)
		case off <= prev:
			return nil, fmt.Errorf("%w: entry %d offset %d not ascending", ErrCorruptTable, i, off)
		}
		offs[i] = off
		prev = off
	}
	return offs, nil
}
