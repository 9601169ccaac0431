// File: pool/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"io"
	"log/slog"
)

const (
	// DefaultByteLimit is the soft memory ceiling used to time swaps.
	DefaultByteLimit = 2 * 1024 * 1024

	// DefaultBlockSize is the block size of NewBlockAllocator when none is given.
	DefaultBlockSize = 96
)

// Option configures a FixedAllocator.
type Option[T any] func(*options[T])

type options[T any] struct {
	byteLimit int
	blockSize int
	reset     func(*T)
	logger    *slog.Logger
}

// WithByteLimit sets the soft memory ceiling. A larger limit trades peak
// memory for fewer swaps.
func WithByteLimit[T any](n int) Option[T] {
	return func(o *options[T]) {
		if n > 0 {
			o.byteLimit = n
		}
	}
}

// WithBlockSize sets the per-block byte size used to derive the swap
// interval. Defaults to the in-memory size of T.
func WithBlockSize[T any](n int) Option[T] {
	return func(o *options[T]) {
		if n > 0 {
			o.blockSize = n
		}
	}
}

// WithReset registers a hook that clears a value when its block is freed.
func WithReset[T any](fn func(*T)) Option[T] {
	return func(o *options[T]) {
		o.reset = fn
	}
}

// WithLogger sets the structured logger. A nil logger is ignored.
func WithLogger[T any](l *slog.Logger) Option[T] {
	return func(o *options[T]) {
		if l != nil {
			o.logger = l
		}
	}
}

func defaultOptions[T any]() *options[T] {
	return &options[T]{
		byteLimit: DefaultByteLimit,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}
