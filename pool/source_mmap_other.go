//go:build !unix

// File: pool/source_mmap_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Heap fallback for platforms without anonymous mmap.

package pool

// MmapSource hands out heap byte blocks on this platform.
type MmapSource struct {
	HeapSource
}

// NewMmapSource creates a source of size-byte blocks.
func NewMmapSource(size int) *MmapSource {
	if size <= 0 {
		size = DefaultBlockSize
	}
	return &MmapSource{HeapSource{Size: size}}
}

// Close is a no-op.
func (s *MmapSource) Close() error { return nil }

// UnmapFailures is always zero.
func (s *MmapSource) UnmapFailures() int { return 0 }

// Chunks always reports zero mappings.
func (s *MmapSource) Chunks() int { return 0 }

var _ Source[[]byte] = (*MmapSource)(nil)
