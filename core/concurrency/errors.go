// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error definitions for concurrency module.

package concurrency

import (
	"errors"
	"fmt"

	"github.com/momentics/hioload-sync/api"
)

var (
	// ErrWorkerClosed indicates the worker no longer accepts tasks
	ErrWorkerClosed = api.ErrWorkerClosed

	// ErrInvalidCPU indicates a negative or out of range CPU index
	ErrInvalidCPU = errors.New("invalid cpu index")

	// ErrAffinityNotSupported indicates CPU affinity is not supported on this platform
	ErrAffinityNotSupported = fmt.Errorf("CPU affinity: %w", api.ErrNotSupported)
)
