package alloc

import "errors"

var (
	// ErrNoSpace indicates that no free chunk was large enough and growth is
	// denied by the footprint limit. The expected recovery is a collection
	// followed by a retry, never an abort.
	ErrNoSpace = errors.New("alloc: out of space")

	// ErrGrowFail indicates the morecore callback refused or failed to
	// commit more memory.
	ErrGrowFail = errors.New("alloc: grow failed")

	// ErrBadSize indicates a non-positive allocation request.
	ErrBadSize = errors.New("alloc: size must be positive")

	// ErrBadRef indicates an offset that does not refer to a live
	// allocation (out of bounds, unaligned, free, or corrupt).
	ErrBadRef = errors.New("alloc: bad allocation reference")
)
