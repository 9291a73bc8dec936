package image

import (
	"fmt"
	"os"

	"github.com/AOSIP/platform-art/internal/layout"
)

// Builder assembles an image file. It is the writer side of the format,
// used by the image compiler and by tests.
type Builder struct {
	objects [][]byte
	root    int
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends an object payload and returns its table index. Payloads are
// laid out in insertion order, each aligned to a word boundary.
func (b *Builder) Add(payload []byte) int {
	obj := make([]byte, len(payload))
	copy(obj, payload)
	b.objects = append(b.objects, obj)
	return len(b.objects) - 1
}

// SetRoot records which object index the runtime should treat as the root.
func (b *Builder) SetRoot(index int) error {
	if index < 0 || index >= len(b.objects) {
		return fmt.Errorf("image: root index %d with %d objects", index, len(b.objects))
	}
	b.root = index
	return nil
}

// Bytes assembles the image file.
func (b *Builder) Bytes() []byte {
	tableOff := HeaderSize
	objectsOff := layout.AlignWord(tableOff + 4*len(b.objects))

	// place objects
	offs := make([]int, len(b.objects))
	off := objectsOff
	for i, obj := range b.objects {
		offs[i] = off
		off = layout.AlignWord(off + len(obj))
		if len(obj) == 0 {
			off += layout.WordSize // zero-length objects still occupy a slot
		}
	}
	dataSize := off

	out := make([]byte, dataSize)
	copy(out[sigOffset:], Signature)
	layout.PutU32(out, versionOffset, Version)
	layout.PutU32(out, objectCountOffset, uint32(len(b.objects)))
	layout.PutU32(out, tableOffset, uint32(tableOff))
	layout.PutU32(out, objectsOffset, uint32(objectsOff))
	layout.PutU32(out, dataSizeOffset, uint32(dataSize))
	layout.PutU32(out, rootIndexOffset, uint32(b.root))

	for i, obj := range b.objects {
		layout.PutU32(out, tableOff+4*i, uint32(offs[i]))
		copy(out[offs[i]:], obj)
	}
	return out
}

// WriteFile assembles the image and writes it to path.
func (b *Builder) WriteFile(path string) error {
	return os.WriteFile(path, b.Bytes(), 0o644)
}
