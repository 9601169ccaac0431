// File: pool/fixed_allocator.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Mostly lock-free allocator for fixed size blocks.
//
// Alloc pops the free stack, Free pushes the junk stack, both under the
// read side of a RWMutex. Every interval frees one caller takes the write
// side and swaps the two stacks in O(1). A block therefore travels
// free -> in use -> junk and only reaches free again through the swap,
// so no popper can observe a node it is holding come back onto the stack
// it is popping from.

package pool

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/cpu"

	"github.com/momentics/hioload-sync/api"
)

// FixedAllocator recycles fixed-size blocks between concurrent callers.
type FixedAllocator[T any] struct {
	free stack[T]
	_    cpu.CacheLinePad
	junk stack[T]
	_    cpu.CacheLinePad
	// budget counts frees down to the next swap.
	budget atomic.Int64
	_      cpu.CacheLinePad

	mu sync.RWMutex // read: push/pop, write: swap and teardown

	src       Source[T]
	interval  int64
	blockSize int
	reset     func(*T)
	logger    *slog.Logger

	total  atomic.Int64 // blocks obtained from src
	used   atomic.Int64 // blocks handed out
	swaps  atomic.Int64
	closed atomic.Bool
}

// NewFixedAllocator creates an allocator that falls back to src when the
// free list is empty.
func NewFixedAllocator[T any](src Source[T], opts ...Option[T]) *FixedAllocator[T] {
	if src == nil {
		panic("pool: nil source")
	}
	o := defaultOptions[T]()
	for _, opt := range opts {
		opt(o)
	}

	var blk Block[T]
	valueSize := int(unsafe.Sizeof(blk.Value))
	header := int(unsafe.Sizeof(blk)) - valueSize
	blockSize := o.blockSize
	if blockSize == 0 {
		blockSize = valueSize
	}
	interval := int64(o.byteLimit / (2 * (blockSize + header)))
	if interval < 1 {
		interval = 1
	}

	a := &FixedAllocator[T]{
		src:       src,
		interval:  interval,
		blockSize: blockSize,
		reset:     o.reset,
		logger:    o.logger.With(slog.String("component", "pool")),
	}
	a.budget.Store(interval)
	return a
}

// NewBlockAllocator creates a byte block allocator backed by the Go heap.
// blockSize <= 0 selects DefaultBlockSize.
func NewBlockAllocator(blockSize int, opts ...Option[[]byte]) *FixedAllocator[[]byte] {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	opts = append([]Option[[]byte]{WithBlockSize[[]byte](blockSize)}, opts...)
	return NewFixedAllocator[[]byte](HeapSource{Size: blockSize}, opts...)
}

// Alloc returns a block for exclusive use by the caller. It fails only
// when the free list is empty and the source fails.
func (a *FixedAllocator[T]) Alloc() (*Block[T], error) {
	if a.closed.Load() {
		panic("pool: Alloc on closed allocator")
	}

	a.mu.RLock()
	b := a.free.pop()
	a.mu.RUnlock()

	if b == nil {
		v, err := a.src.Acquire()
		if err != nil {
			return nil, err
		}
		b = &Block[T]{Value: v, owner: a}
		a.total.Add(1)
	} else if b.state.Load() != blockPooled {
		panic("pool: corrupted free list")
	}

	b.state.Store(blockInUse)
	a.used.Add(1)
	return b, nil
}

// Free returns b to the allocator. b must come from Alloc on the same
// allocator and must not be used afterwards.
func (a *FixedAllocator[T]) Free(b *Block[T]) {
	if b == nil || b.owner != a {
		panic("pool: Free of a block owned by another allocator")
	}
	if !b.state.CompareAndSwap(blockInUse, blockPooled) {
		panic("pool: double free")
	}
	if a.reset != nil {
		a.reset(&b.Value)
	}

	a.mu.RLock()
	a.junk.push(b)
	a.mu.RUnlock()
	a.used.Add(-1)

	if a.budget.Add(-1) == 0 {
		a.collect()
	}
}

// collect swaps free and junk. Frees that raced past zero while the
// write lock was pending count towards the following interval, and a
// further swap runs for every interval they complete.
func (a *FixedAllocator[T]) collect() {
	var n int64
	a.mu.Lock()
	for {
		a.free.swap(&a.junk)
		n = a.swaps.Add(1)
		if a.budget.Add(a.interval) > 0 {
			break
		}
	}
	a.mu.Unlock()
	a.logger.Debug("swap", slog.Int64("swaps", n))
}

// Close releases every pooled block to the source. All blocks must have
// been freed; an outstanding block is a fatal usage error.
func (a *FixedAllocator[T]) Close() {
	if !a.closed.CompareAndSwap(false, true) {
		return
	}
	if n := a.used.Load(); n != 0 {
		panic(fmt.Sprintf("pool: Close with %d outstanding blocks", n))
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range []*stack[T]{&a.free, &a.junk} {
		for b := s.pop(); b != nil; b = s.pop() {
			b.state.Store(blockReleased)
			a.src.Release(b.Value)
			a.total.Add(-1)
		}
	}
	if n := a.total.Load(); n != 0 {
		panic(fmt.Sprintf("pool: %d blocks lost", n))
	}
}

// Interval returns the number of frees between two swaps.
func (a *FixedAllocator[T]) Interval() int64 { return a.interval }

// Outstanding returns the number of blocks allocated and not yet freed.
func (a *FixedAllocator[T]) Outstanding() int64 { return a.used.Load() }

// Stats returns a snapshot of the allocator counters.
func (a *FixedAllocator[T]) Stats() api.AllocatorStats {
	return api.AllocatorStats{
		BlockSize: a.blockSize,
		Interval:  a.interval,
		Budget:    a.budget.Load(),
		Total:     a.total.Load(),
		InUse:     a.used.Load(),
		FreeList:  a.free.len(),
		JunkList:  a.junk.len(),
		Swaps:     a.swaps.Load(),
	}
}
