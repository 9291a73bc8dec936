package space

import "errors"

var (
	// ErrFrozen indicates an allocation attempt on a space that became a
	// zygote space; all post-fork allocation goes to the sibling returned
	// by CreateZygoteSpace.
	ErrFrozen = errors.New("space: zygote space no longer accepts allocations")

	// ErrBadAddress indicates an address that does not belong to the space.
	ErrBadAddress = errors.New("space: address outside space")
)
