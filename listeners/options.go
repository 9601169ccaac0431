// File: listeners/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package listeners

import (
	"io"
	"log/slog"

	"github.com/momentics/hioload-sync/pool"
)

// Option configures a Dispatcher.
type Option[L comparable] func(*options[L])

type options[L comparable] struct {
	logger *slog.Logger
	calls  *pool.FixedAllocator[Invocation[L]]
}

// WithLogger sets the structured logger. A nil logger is ignored.
func WithLogger[L comparable](l *slog.Logger) Option[L] {
	return func(o *options[L]) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithAllocator shares an invocation allocator between dispatchers.
// The caller owns it and closes it once every dispatcher using it is idle.
func WithAllocator[L comparable](a *pool.FixedAllocator[Invocation[L]]) Option[L] {
	return func(o *options[L]) {
		o.calls = a
	}
}

func defaultOptions[L comparable]() *options[L] {
	return &options[L]{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}
