package image

import "errors"

var (
	// ErrTruncated indicates the file is too small to hold the structures
	// its header declares.
	ErrTruncated = errors.New("image: file truncated")

	// ErrBadMagic indicates the file does not start with the image
	// signature.
	ErrBadMagic = errors.New("image: bad magic")

	// ErrVersionMismatch indicates the file was written by an incompatible
	// format version.
	ErrVersionMismatch = errors.New("image: version mismatch")

	// ErrCorruptTable indicates an object table with out-of-bounds,
	// unaligned, or non-ascending entries.
	ErrCorruptTable = errors.New("image: corrupt object table")
)
