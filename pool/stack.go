// File: pool/stack.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Intrusive Treiber stack. On its own it suffers from ABA when a popped
// node is pushed back while another popper still holds it; FixedAllocator
// never pushes onto the stack it pops from between two exclusive swaps,
// which is what makes it safe.

package pool

import "sync/atomic"

type stack[T any] struct {
	head atomic.Pointer[Block[T]]
	size atomic.Int64
}

func (s *stack[T]) push(b *Block[T]) {
	for {
		old := s.head.Load()
		b.next.Store(old)
		if s.head.CompareAndSwap(old, b) {
			s.size.Add(1)
			return
		}
	}
}

// pop returns nil when the stack is empty.
func (s *stack[T]) pop() *Block[T] {
	for {
		old := s.head.Load()
		if old == nil {
			return nil
		}
		if s.head.CompareAndSwap(old, old.next.Load()) {
			old.next.Store(nil)
			s.size.Add(-1)
			return old
		}
	}
}

// swap exchanges the contents of s and o in O(1).
// Callers must exclude every concurrent push and pop on both stacks.
func (s *stack[T]) swap(o *stack[T]) {
	h := s.head.Load()
	s.head.Store(o.head.Load())
	o.head.Store(h)

	n := s.size.Load()
	s.size.Store(o.size.Load())
	o.size.Store(n)
}

func (s *stack[T]) len() int64 {
	return s.size.Load()
}
