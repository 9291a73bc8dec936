// Package image defines the on-disk format of pre-built heap images: a
// read-only snapshot of pre-initialized objects that the runtime maps at
// startup and never mutates.
//
// # File structure
//
// An image file consists of a fixed 64-byte header, an object table, and the
// object payload area:
//
//	[header - 64 bytes] [object table - count x u32] [objects, 8-aligned]
//
// All integers are little-endian. The object table lists the file offset of
// every object's start, ascending, which lets the loader seed liveness
// bookkeeping without parsing the object graph itself.
//
// # Compatibility
//
// Writer and reader must agree on the version: a magic or version mismatch
// is a hard load failure, surfaced as a distinct sentinel error so callers
// can fall back to running without an image.
package image
