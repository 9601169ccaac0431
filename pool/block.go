// File: pool/block.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import "sync/atomic"

const (
	blockInUse int32 = iota + 1
	blockPooled
	blockReleased
)

// Block is a fixed-size unit handed out by a FixedAllocator.
// Value is owned by the caller between Alloc and Free; the rest of the
// block is the intrusive list header used while the block is pooled.
type Block[T any] struct {
	Value T

	next  atomic.Pointer[Block[T]]
	state atomic.Int32
	owner *FixedAllocator[T]
}

// InUse reports whether the block is currently allocated.
func (b *Block[T]) InUse() bool {
	return b.state.Load() == blockInUse
}
