// Package pool
// Author: momentics <momentics@gmail.com>
//
// Fixed-block memory layer for hioload-sync.
//
// FixedAllocator recycles blocks of one size between any number of
// concurrent callers without a global lock on the hot path. Freed blocks
// land on a junk stack that Alloc never reads; every Interval frees the
// free and junk stacks trade places under a short exclusive lock. That
// swap is what keeps the underlying Treiber stacks clear of the ABA
// problem.
//
// Blocks come from a Source when the free list is empty: FuncSource for
// typed values, HeapSource for byte slices, MmapSource for off-heap byte
// slices. There is no process-wide allocator; components that need one
// own an instance and pass it by reference.
package pool
