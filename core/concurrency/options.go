// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"io"
	"log/slog"
)

// Option configures a Queue or a Worker.
type Option func(*options)

type options struct {
	name   string
	logger *slog.Logger
	cpu    int
}

func defaultOptions() *options {
	return &options{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		cpu:    -1,
	}
}

// WithName sets a human readable name used in logs.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithLogger sets the structured logger. A nil logger is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCPU pins the worker goroutine's OS thread to cpu.
// Ignored by a plain Queue, which runs on whatever goroutine drains it.
func WithCPU(cpu int) Option {
	return func(o *options) {
		o.cpu = cpu
	}
}
