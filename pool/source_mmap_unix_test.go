//go:build unix

package pool

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestMmapSource_AcquireRelease(t *testing.T) {
	s := NewMmapSource(1024)
	perChunk := s.chunkSize / 1024

	var blocks [][]byte
	for i := 0; i < perChunk+1; i++ {
		b, err := s.Acquire()
		require.NoError(t, err)
		require.Len(t, b, 1024)
		require.Equal(t, 1024, cap(b))
		b[0], b[1023] = byte(i), byte(i)
		blocks = append(blocks, b)
	}
	assert.Equal(t, 2, s.Chunks())

	// Blocks never overlap.
	for i := range blocks {
		assert.Equal(t, byte(i), blocks[i][0])
		assert.Equal(t, byte(i), blocks[i][1023])
	}

	// Releasing the whole first chunk unmaps it; the current chunk stays.
	for _, b := range blocks[:perChunk] {
		s.Release(b)
	}
	assert.Equal(t, 1, s.Chunks())
	s.Release(blocks[perChunk])
	assert.Equal(t, 1, s.Chunks())

	require.NoError(t, s.Close())
	assert.Equal(t, 0, s.Chunks())
}

func TestMmapSource_ForeignReleasePanics(t *testing.T) {
	s := NewMmapSource(64)
	defer s.Close()
	_, err := s.Acquire()
	require.NoError(t, err)
	assert.Panics(t, func() { s.Release(make([]byte, 64)) })
}

func TestMmapSource_WithAllocator(t *testing.T) {
	s := NewMmapSource(128)
	a := NewFixedAllocator[[]byte](s, WithBlockSize[[]byte](128))

	seen := map[uintptr]bool{}
	var blocks []*Block[[]byte]
	for i := 0; i < 100; i++ {
		b, err := a.Alloc()
		require.NoError(t, err)
		p := uintptr(unsafe.Pointer(unsafe.SliceData(b.Value)))
		require.False(t, seen[p], "aliased mmap block")
		seen[p] = true
		blocks = append(blocks, b)
	}
	for _, b := range blocks {
		a.Free(b)
	}
	a.Close()
	assert.Equal(t, 1, s.Chunks())
	require.NoError(t, s.Close())
}

func TestMmapSource_UnmapFailureReported(t *testing.T) {
	errUnmap := errors.New("munmap refused")
	munmap = func(b []byte) error {
		_ = unix.Munmap(b)
		return errUnmap
	}
	t.Cleanup(func() { munmap = unix.Munmap })

	s := NewMmapSource(1024)
	perChunk := s.chunkSize / 1024
	var blocks [][]byte
	for i := 0; i < perChunk+1; i++ {
		b, err := s.Acquire()
		require.NoError(t, err)
		blocks = append(blocks, b)
	}
	for _, b := range blocks[:perChunk] {
		s.Release(b)
	}
	assert.Equal(t, 1, s.UnmapFailures())
	assert.Equal(t, 1, s.Chunks())

	munmap = unix.Munmap
	err := s.Close()
	assert.ErrorIs(t, err, errUnmap)
	assert.Equal(t, 1, s.UnmapFailures())
}
