package pool

import (
	"encoding/binary"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedAllocator_Interval(t *testing.T) {
	for _, k := range []int{1, 3, 128} {
		a := newTestAllocator(t, k)
		assert.Equal(t, int64(k), a.Stats().Budget)
		a.Close()
	}

	// A limit smaller than two blocks still swaps every free.
	a := NewBlockAllocator(4096, WithByteLimit[[]byte](1))
	assert.Equal(t, int64(1), a.Interval())

	// Defaults.
	d := NewBlockAllocator(0)
	assert.Equal(t, DefaultBlockSize, d.Stats().BlockSize)
	assert.Greater(t, d.Interval(), int64(1000))
}

func TestFixedAllocator_AllocFree(t *testing.T) {
	a := newTestAllocator(t, 2)
	b, err := a.Alloc()
	require.NoError(t, err)
	assert.Len(t, b.Value, 64)
	assert.True(t, b.InUse())
	assert.Equal(t, int64(1), a.Outstanding())

	a.Free(b)
	assert.False(t, b.InUse())
	assert.Equal(t, int64(0), a.Outstanding())
	a.Close()
}

func TestFixedAllocator_SwapOncePerInterval(t *testing.T) {
	const interval = 4
	a := newTestAllocator(t, interval)

	blocks := make([]*Block[[]byte], 10)
	for i := range blocks {
		var err error
		blocks[i], err = a.Alloc()
		require.NoError(t, err)
	}
	for i, b := range blocks {
		a.Free(b)
		frees := i + 1
		st := a.Stats()
		assert.Equal(t, int64(frees/interval), st.Swaps, "after %d frees", frees)
		assert.Equal(t, int64(interval-frees%interval), st.Budget)
	}
	a.Close()
}

func TestFixedAllocator_NeverHandsOutJunk(t *testing.T) {
	a := newTestAllocator(t, 4)

	var first []*Block[[]byte]
	for i := 0; i < 3; i++ {
		b, err := a.Alloc()
		require.NoError(t, err)
		first = append(first, b)
	}
	for _, b := range first {
		a.Free(b)
	}
	st := a.Stats()
	assert.Equal(t, int64(3), st.JunkList)
	assert.Equal(t, int64(0), st.FreeList)

	// Free is empty, so the source is used even though junk has blocks.
	b4, err := a.Alloc()
	require.NoError(t, err)
	for _, b := range first {
		assert.NotSame(t, b, b4)
	}
	assert.Equal(t, int64(4), a.Stats().Total)

	// The fourth free triggers the swap; junk becomes free.
	a.Free(b4)
	st = a.Stats()
	assert.Equal(t, int64(1), st.Swaps)
	assert.Equal(t, int64(4), st.FreeList)
	assert.Equal(t, int64(0), st.JunkList)

	again, err := a.Alloc()
	require.NoError(t, err)
	found := false
	for _, b := range append(first, b4) {
		found = found || b == again
	}
	assert.True(t, found, "block after swap must come from the recycled set")
	assert.Equal(t, int64(4), a.Stats().Total)
	a.Free(again)
	a.Close()
}

func TestFixedAllocator_Reset(t *testing.T) {
	var resets int
	a := NewFixedAllocator[[]int](FuncSource[[]int]{New: func() []int { return nil }},
		WithReset(func(v *[]int) {
			resets++
			*v = (*v)[:0]
		}))
	b, err := a.Alloc()
	require.NoError(t, err)
	b.Value = append(b.Value, 1, 2, 3)
	a.Free(b)
	assert.Equal(t, 1, resets)
	assert.Empty(t, b.Value)
	a.Close()
}

func TestFixedAllocator_SourceError(t *testing.T) {
	src := &countingSource{limit: 2}
	a := NewFixedAllocator[int](src)

	b1, err := a.Alloc()
	require.NoError(t, err)
	b2, err := a.Alloc()
	require.NoError(t, err)

	_, err = a.Alloc()
	assert.ErrorIs(t, err, errSourceDown)
	assert.Equal(t, int64(2), a.Outstanding())

	a.Free(b1)
	a.Free(b2)
	a.Close()
	assert.Equal(t, int64(2), src.released.Load())
	assert.Equal(t, int64(0), src.live.Load())
}

func TestFixedAllocator_DoubleFreePanics(t *testing.T) {
	a := newTestAllocator(t, 8)
	b, err := a.Alloc()
	require.NoError(t, err)
	a.Free(b)
	assert.PanicsWithValue(t, "pool: double free", func() { a.Free(b) })
}

func TestFixedAllocator_ForeignBlockPanics(t *testing.T) {
	a := newTestAllocator(t, 8)
	other := newTestAllocator(t, 8)
	b, err := other.Alloc()
	require.NoError(t, err)
	assert.Panics(t, func() { a.Free(b) })
	assert.Panics(t, func() { a.Free(nil) })
	assert.Panics(t, func() { a.Free(&Block[[]byte]{}) })
	other.Free(b)
}

func TestFixedAllocator_Close(t *testing.T) {
	src := &countingSource{}
	a := NewFixedAllocator[int](src, WithByteLimit[int](1))
	var blocks []*Block[int]
	for i := 0; i < 5; i++ {
		b, err := a.Alloc()
		require.NoError(t, err)
		blocks = append(blocks, b)
	}
	for _, b := range blocks {
		a.Free(b)
	}
	a.Close()
	assert.Equal(t, int64(5), src.released.Load())
	for _, b := range blocks {
		assert.Equal(t, blockReleased, b.state.Load())
	}

	// Second Close is a no-op; use after Close panics.
	a.Close()
	assert.Panics(t, func() { _, _ = a.Alloc() })
}

func TestFixedAllocator_CloseWithOutstandingPanics(t *testing.T) {
	a := newTestAllocator(t, 8)
	_, err := a.Alloc()
	require.NoError(t, err)
	assert.PanicsWithValue(t, "pool: Close with 1 outstanding blocks", a.Close)
}

// TestFixedAllocator_ConcurrentNoAliasing stamps each live block with its
// owner and sequence and re-checks the stamp before freeing it.
func TestFixedAllocator_ConcurrentNoAliasing(t *testing.T) {
	const goroutines = 8
	const ops = 20000
	const window = 16
	a := newTestAllocator(t, 3)

	var frees atomic.Int64
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			live := make([]*Block[[]byte], 0, window)
			seqs := make([]uint64, 0, window)
			for i := 0; i < ops; i++ {
				if len(live) == window || (len(live) > 0 && i%3 == 0) {
					b, seq := live[0], seqs[0]
					live, seqs = live[1:], seqs[1:]
					if binary.LittleEndian.Uint64(b.Value[0:]) != uint64(g) ||
						binary.LittleEndian.Uint64(b.Value[8:]) != seq {
						t.Errorf("goroutine %d: block %p overwritten", g, b)
						return
					}
					a.Free(b)
					frees.Add(1)
					continue
				}
				b, err := a.Alloc()
				if err != nil {
					t.Error(err)
					return
				}
				binary.LittleEndian.PutUint64(b.Value[0:], uint64(g))
				binary.LittleEndian.PutUint64(b.Value[8:], uint64(i))
				live = append(live, b)
				seqs = append(seqs, uint64(i))
			}
			for _, b := range live {
				a.Free(b)
				frees.Add(1)
			}
		}()
	}
	wg.Wait()

	st := a.Stats()
	assert.Equal(t, int64(0), st.InUse)
	assert.Equal(t, st.Total, st.FreeList+st.JunkList)
	assert.Equal(t, frees.Load(), st.Swaps*st.Interval+st.Interval-st.Budget)
	a.Close()
}
