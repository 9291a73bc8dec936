// Package alloc implements the growable general-purpose allocator that backs
// an allocation space.
//
// # Overview
//
// The allocator manages the committed prefix of a space's reservation as a
// sequence of boundary-tagged chunks and hands out payloads from segregated
// free lists. It never touches the OS itself: whenever it needs more (or
// wants to release) committed address space it calls the morecore callback
// supplied by the owning space, which is the sole channel through which a
// space's end moves.
//
// # Chunk layout
//
// Every chunk, free or in use, starts with an 8-byte header word: bit 0 is
// the in-use flag, the remaining bits hold the total chunk size (header
// included, 8-aligned, minimum 16 bytes). The payload follows the header, so
// the bookkeeping size of an allocation is its usable size plus one word of
// overhead.
//
// # Free lists
//
// Free-list metadata lives beside the buffer, not inside the cells: an
// authoritative offset-to-size map plus per-size-class stacks of candidate
// offsets. Stack entries can go stale when neighbouring chunks coalesce; they
// are validated against the map and dropped lazily on the next lookup.
// Chunks larger than the last size class sit on a separate best-fit list.
//
// # Concurrency
//
// The allocator is not safe for concurrent use. The owning space serializes
// every call behind its exclusive lock.
package alloc
