// Package space implements the managed-heap regions of the runtime: the
// growable allocation space that mutators allocate into, the read-only image
// space mapped from a pre-built snapshot, and the zygote handoff that splits
// a heap between a long-lived parent process and its forked children.
//
// # Overview
//
// A Space is an independently managed sub-range of the process address range
// holding objects. Every space exclusively owns one virtual memory
// reservation, exposes its [Begin, End) bounds, and carries a retention
// policy telling the collector whether and when to scan it:
//
//   - AllocSpace: a growable heap backed by a segregated-free-list
//     allocator, with a one-way growth limit below its physical reservation
//     and a live/mark bitmap pair the collector swaps between GC phases.
//   - ImageSpace: an immutable, memory-mapped snapshot of pre-initialized
//     objects; never collected, with live and mark bitmaps aliased to the
//     same instance.
//
// # Concurrency
//
// Allocate, free, walk, and trim calls on an allocation space are serialized
// by the space's exclusive lock and are safe to issue from any number of
// mutator threads. SwapBitmaps and CreateZygoteSpace are not: they require
// the caller to hold a global pause in which no mutator can touch the space.
// Bitmap reads and writes are never guarded by the space's lock; their
// safety is the collector's responsibility under the same pause discipline.
package space
