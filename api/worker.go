// Package api
// Author: momentics <momentics@gmail.com>
//
// Worker contract: a single-goroutine FIFO execution queue that listener
// groups are bound to.

package api

// Worker executes submitted tasks later, one at a time, on its own goroutine.
type Worker interface {
	// Call queues task. Tasks run exactly once, in submission order.
	Call(task func()) error

	// InProcess reports whether the caller is running inside this
	// worker's processing loop.
	InProcess() bool
}

// WorkerStats reports queue activity of a worker.
type WorkerStats struct {
	Queued    int64 // tasks accepted by Call
	Processed int64 // tasks that ran
	Panics    int64 // tasks that panicked and were recovered
	Pending   int   // tasks waiting in the queue
}
