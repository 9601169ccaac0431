// File: core/concurrency/worker.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Worker is a Queue drained by a dedicated goroutine. Listener groups bound
// to a Worker receive their deliveries on that goroutine only.

package concurrency

import (
	"log/slog"
	"runtime"
	"sync/atomic"

	"github.com/momentics/hioload-sync/api"
)

// Worker runs queued tasks in FIFO order on its own goroutine.
type Worker struct {
	*Queue

	cpu     int
	quitCh  chan struct{} // closed on Close()
	doneCh  chan struct{} // closed after run() exits
	closing atomic.Bool
}

// NewWorker creates a Worker and starts its goroutine.
func NewWorker(opts ...Option) *Worker {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	w := &Worker{
		Queue:  newQueue(o),
		cpu:    o.cpu,
		quitCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *Worker) run() {
	defer close(w.doneCh)

	if w.cpu >= 0 {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		if err := pinCurrentThread(w.cpu); err != nil {
			w.logger.Warn("cpu pinning failed", slog.Int("cpu", w.cpu), slog.Any("error", err))
		}
	}
	w.logger.Debug("worker started")

	for {
		select {
		case <-w.notify:
			w.Process()
		case <-w.quitCh:
			// Drain what was accepted before Close.
			w.Process()
			w.logger.Debug("worker stopped", slog.Int64("processed", w.processed.Load()))
			return
		}
	}
}

// Close stops accepting tasks, runs the tasks already queued and waits for
// the worker goroutine to exit. Close must not be called from a task.
func (w *Worker) Close() {
	if w.InProcess() {
		panic("concurrency: Worker.Close called from its own task")
	}
	if w.closing.CompareAndSwap(false, true) {
		w.Queue.Close()
		close(w.quitCh)
	}
	<-w.doneCh
}

// Done is closed once the worker goroutine has exited.
func (w *Worker) Done() <-chan struct{} {
	return w.doneCh
}

var _ api.Worker = (*Worker)(nil)
