// File: listeners/invocation.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package listeners

import (
	"sync/atomic"

	"github.com/momentics/hioload-sync/pool"
)

// Invocation is a call issued by Update, shared by every group it was
// queued on. Its storage comes from a fixed-block allocator and goes back
// when the last group drops it.
type Invocation[L comparable] struct {
	fn    func(L)
	stamp uint64
	refs  int32
}

// NewInvocationAllocator creates an allocator that can be shared by
// several dispatchers through WithAllocator.
func NewInvocationAllocator[L comparable](opts ...pool.Option[Invocation[L]]) *pool.FixedAllocator[Invocation[L]] {
	src := pool.FuncSource[Invocation[L]]{
		New: func() Invocation[L] { return Invocation[L]{} },
	}
	opts = append([]pool.Option[Invocation[L]]{
		pool.WithReset(func(inv *Invocation[L]) {
			inv.fn = nil
			inv.stamp = 0
		}),
	}, opts...)
	return pool.NewFixedAllocator[Invocation[L]](src, opts...)
}

func (inv *Invocation[L]) acquire() {
	atomic.AddInt32(&inv.refs, 1)
}

// release drops one reference and reports whether it was the last.
func (inv *Invocation[L]) release() bool {
	n := atomic.AddInt32(&inv.refs, -1)
	if n < 0 {
		panic("listeners: invocation released too many times")
	}
	return n == 0
}
