//go:build unix

// File: pool/source_mmap_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Off-heap byte blocks carved out of anonymous mappings. Blocks must only
// hold plain bytes: the garbage collector does not scan this memory.

package pool

import (
	"errors"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-sync/api"
)

const defaultChunkSize = 64 * 1024

var munmap = unix.Munmap

type mmapChunk struct {
	mem  []byte
	live int
}

func (c *mmapChunk) owns(p uintptr) bool {
	base := uintptr(unsafe.Pointer(unsafe.SliceData(c.mem)))
	return p >= base && p < base+uintptr(len(c.mem))
}

// MmapSource hands out fixed-size byte blocks from mmap'd chunks.
// A chunk is unmapped once all of its blocks are released and it is no
// longer the chunk being carved.
type MmapSource struct {
	size      int
	chunkSize int

	mu     sync.Mutex
	cur    *mmapChunk
	off    int
	chunks []*mmapChunk

	unmapFailures int
	unmapErr      error // first failure, reported by Close
}

// NewMmapSource creates a source of size-byte blocks.
func NewMmapSource(size int) *MmapSource {
	if size <= 0 {
		size = DefaultBlockSize
	}
	page := unix.Getpagesize()
	chunk := defaultChunkSize
	if chunk < size {
		chunk = size
	}
	chunk = (chunk + page - 1) / page * page
	return &MmapSource{size: size, chunkSize: chunk}
}

// Acquire returns a block, mapping a new chunk when the current one is full.
func (s *MmapSource) Acquire() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur == nil || s.off+s.size > len(s.cur.mem) {
		mem, err := unix.Mmap(-1, 0, s.chunkSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
		if err != nil {
			return nil, api.NewError(api.ErrCodeResourceExhausted, "pool: mmap chunk").
				WithContext("bytes", s.chunkSize).
				WithCause(err)
		}
		if prev := s.cur; prev != nil && prev.live == 0 {
			s.unmapLocked(prev)
		}
		s.cur = &mmapChunk{mem: mem}
		s.chunks = append(s.chunks, s.cur)
		s.off = 0
	}

	b := s.cur.mem[s.off : s.off+s.size : s.off+s.size]
	s.off += s.size
	s.cur.live++
	return b, nil
}

// Release returns a block to its chunk.
func (s *MmapSource) Release(b []byte) {
	if len(b) == 0 {
		return
	}
	p := uintptr(unsafe.Pointer(unsafe.SliceData(b)))

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.chunks {
		if !c.owns(p) {
			continue
		}
		c.live--
		if c.live == 0 && c != s.cur {
			s.unmapLocked(c)
		}
		return
	}
	panic("pool: Release of a block not owned by this source")
}

// Close unmaps every chunk. Blocks still referenced become invalid.
// The error joins the first failed unmap of each kind: one from an earlier
// Release and one from Close itself.
func (s *MmapSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var closeErr error
	for _, c := range s.chunks {
		if err := munmap(c.mem); err != nil {
			s.unmapFailures++
			if closeErr == nil {
				closeErr = err
			}
		}
	}
	s.chunks = nil
	s.cur = nil
	s.off = 0
	return errors.Join(s.unmapErr, closeErr)
}

// UnmapFailures returns how many munmap calls failed.
func (s *MmapSource) UnmapFailures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unmapFailures
}

// Chunks returns the number of live mappings.
func (s *MmapSource) Chunks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks)
}

// unmapLocked drops c from the chunk list even when munmap fails; the
// failure is kept for Close.
func (s *MmapSource) unmapLocked(c *mmapChunk) {
	if err := munmap(c.mem); err != nil {
		s.unmapFailures++
		if s.unmapErr == nil {
			s.unmapErr = err
		}
	}
	for i, cc := range s.chunks {
		if cc == c {
			s.chunks = append(s.chunks[:i], s.chunks[i+1:]...)
			break
		}
	}
}

var _ Source[[]byte] = (*MmapSource)(nil)
