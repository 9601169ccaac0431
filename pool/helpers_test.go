package pool

import (
	"errors"
	"sync/atomic"
	"testing"
	"unsafe"
)

// contains walks s looking for b. Callers must not race with push/pop.
func (s *stack[T]) contains(b *Block[T]) bool {
	for n := s.head.Load(); n != nil; n = n.next.Load() {
		if n == b {
			return true
		}
	}
	return false
}

// byteLimitFor returns the byte limit that yields the given swap interval
// for 64-byte []byte blocks.
func byteLimitFor(interval int) int {
	var blk Block[[]byte]
	header := int(unsafe.Sizeof(blk)) - int(unsafe.Sizeof(blk.Value))
	return 2 * (64 + header) * interval
}

func newTestAllocator(t *testing.T, interval int) *FixedAllocator[[]byte] {
	t.Helper()
	a := NewBlockAllocator(64, WithByteLimit[[]byte](byteLimitFor(interval)))
	if a.Interval() != int64(interval) {
		t.Fatalf("interval = %d, want %d", a.Interval(), interval)
	}
	return a
}

var errSourceDown = errors.New("source down")

// countingSource fails once limit values are live and counts releases.
type countingSource struct {
	limit    int64
	live     atomic.Int64
	released atomic.Int64
}

func (s *countingSource) Acquire() (int, error) {
	if s.limit > 0 && s.live.Load() >= s.limit {
		return 0, errSourceDown
	}
	return int(s.live.Add(1)), nil
}

func (s *countingSource) Release(int) {
	s.live.Add(-1)
	s.released.Add(1)
}
