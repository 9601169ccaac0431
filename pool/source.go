// File: pool/source.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Sources stand in for the system allocator: FixedAllocator falls back to
// them when its free list is empty and hands blocks back on Close.

package pool

// Source produces and reclaims the values stored in blocks.
type Source[T any] interface {
	// Acquire returns a fresh value. It may block and it may fail.
	Acquire() (T, error)

	// Release gives a value back. Called only from FixedAllocator.Close.
	Release(v T)
}

// FuncSource adapts plain functions to Source. New never fails.
type FuncSource[T any] struct {
	New  func() T
	Free func(T) // optional
}

func (s FuncSource[T]) Acquire() (T, error) {
	return s.New(), nil
}

func (s FuncSource[T]) Release(v T) {
	if s.Free != nil {
		s.Free(v)
	}
}

// HeapSource hands out byte slices of a fixed size from the Go heap.
type HeapSource struct {
	Size int
}

func (s HeapSource) Acquire() ([]byte, error) {
	return make([]byte, s.Size), nil
}

func (s HeapSource) Release([]byte) {}

var (
	_ Source[[]byte] = HeapSource{}
	_ Source[int]    = FuncSource[int]{}
)
