// File: core/concurrency/queue.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Queue is a FIFO of deferred calls drained explicitly by Process.
// It is the building block of Worker and, used directly, lets a caller
// decide on which goroutine and when queued work runs.

package concurrency

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/eapache/queue"
	"github.com/google/uuid"

	"github.com/momentics/hioload-sync/api"
)

// Queue implements api.Worker with a caller-driven drain loop.
type Queue struct {
	id     uuid.UUID
	name   string
	logger *slog.Logger

	mu     sync.Mutex
	tasks  *queue.Queue // of func(), guarded by mu
	closed bool
	notify chan struct{} // signalled when tasks become available

	procMu sync.Mutex   // one drainer at a time
	active atomic.Bool  // a goroutine is inside Process
	owner  atomic.Int64 // OS thread id of the drainer

	queued    atomic.Int64
	processed atomic.Int64
	panics    atomic.Int64
}

// NewQueue creates an empty, open Queue.
func NewQueue(opts ...Option) *Queue {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return newQueue(o)
}

func newQueue(o *options) *Queue {
	id := uuid.New()
	name := o.name
	if name == "" {
		name = id.String()
	}
	return &Queue{
		id:     id,
		name:   name,
		logger: o.logger.With(slog.String("component", "worker"), slog.String("worker", name)),
		tasks:  queue.New(),
		notify: make(chan struct{}, 1),
	}
}

// ID returns the unique identity of the queue.
func (q *Queue) ID() uuid.UUID { return q.id }

// Name returns the configured name, or the id when none was given.
func (q *Queue) Name() string { return q.name }

// Call appends task to the queue. It never runs task synchronously.
func (q *Queue) Call(task func()) error {
	if task == nil {
		return api.ErrInvalidArgument
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrWorkerClosed
	}
	q.tasks.Add(task)
	q.mu.Unlock()
	q.queued.Add(1)

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

// InProcess reports whether the calling goroutine is inside Process.
func (q *Queue) InProcess() bool {
	if !q.active.Load() {
		return false
	}
	if !threadIdentity {
		return true
	}
	return q.owner.Load() == currentThreadID()
}

// Process runs queued tasks on the calling goroutine until the queue is
// empty, including tasks queued by the tasks themselves. It returns the
// number of tasks that ran. Process must not be called from a task.
func (q *Queue) Process() int {
	if q.InProcess() {
		panic("concurrency: recursive Process on " + q.name)
	}
	q.procMu.Lock()
	defer q.procMu.Unlock()

	// The drainer keeps its OS thread for the whole pass so the thread id
	// identifies this goroutine in InProcess.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	q.owner.Store(currentThreadID())
	q.active.Store(true)
	defer func() {
		q.active.Store(false)
		q.owner.Store(0)
	}()

	n := 0
	for {
		task, ok := q.next()
		if !ok {
			return n
		}
		q.run(task)
		n++
	}
}

func (q *Queue) next() (func(), bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.tasks.Length() == 0 {
		return nil, false
	}
	return q.tasks.Remove().(func()), true
}

// run executes one task, recovering panics so the drain loop survives.
func (q *Queue) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			q.panics.Add(1)
			q.logger.Error("task panicked", slog.String("panic", fmt.Sprint(r)))
		}
		q.processed.Add(1)
	}()
	task()
}

// Len returns the number of tasks waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.tasks.Length()
}

// Close stops accepting tasks. Tasks already queued can still be drained.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

// Closed reports whether Close was called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Stats returns queue activity counters.
func (q *Queue) Stats() api.WorkerStats {
	return api.WorkerStats{
		Queued:    q.queued.Load(),
		Processed: q.processed.Load(),
		Panics:    q.panics.Load(),
		Pending:   q.Len(),
	}
}

var _ api.Worker = (*Queue)(nil)
