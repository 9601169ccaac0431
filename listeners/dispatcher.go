// File: listeners/dispatcher.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Dispatcher broadcasts deferred calls to listeners grouped by worker.
//
// Listeners subscribe with the worker they want to be called on. Update
// queues at most one delivery per (member, group): a newer Update for the
// same member replaces the pending one before it runs. Every listener
// carries the timestamp at which it joined and never receives a call
// issued before that.

package listeners

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-sync/api"
	"github.com/momentics/hioload-sync/pool"
)

// Dispatcher is a set of listeners of type L. L is compared for identity
// and never dereferenced by the dispatcher.
type Dispatcher[L comparable] struct {
	mu        sync.RWMutex // groups, timestamp, proxy entry lists
	groups    []*group[L]
	timestamp uint64

	proxiesMu sync.Mutex // proxies map
	proxies   map[*Member]*proxy[L]

	calls  *pool.FixedAllocator[Invocation[L]]
	logger *slog.Logger
	closed atomic.Bool

	updates   atomic.Int64
	broadcast atomic.Int64
	coalesced atomic.Int64
	delivered atomic.Int64
}

// New creates an empty dispatcher.
func New[L comparable](opts ...Option[L]) *Dispatcher[L] {
	o := defaultOptions[L]()
	for _, opt := range opts {
		opt(o)
	}
	calls := o.calls
	if calls == nil {
		calls = NewInvocationAllocator[L](pool.WithLogger[Invocation[L]](o.logger))
	}
	return &Dispatcher[L]{
		proxies: make(map[*Member]*proxy[L]),
		calls:   calls,
		logger:  o.logger.With(slog.String("component", "listeners")),
	}
}

func (d *Dispatcher[L]) assertOpen() {
	if d.closed.Load() {
		panic("listeners: use of closed dispatcher")
	}
}

// Subscribe adds listener; its calls will run on w. Subscribing a listener
// that is already subscribed is a usage error and panics.
func (d *Dispatcher[L]) Subscribe(listener L, w api.Worker) {
	if w == nil {
		panic("listeners: nil worker")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.assertOpen()

	var g *group[L]
	for _, cur := range d.groups {
		if cur.contains(listener) {
			panic("listeners: listener subscribed twice")
		}
		if cur.worker == w {
			g = cur
		}
	}

	if g == nil {
		g = newGroup[L](w)
		d.groups = append(d.groups, g)

		// Members already updated must reach the new group too.
		d.proxiesMu.Lock()
		for _, p := range d.proxies {
			p.add(g)
		}
		d.proxiesMu.Unlock()
		d.logger.Debug("group created", slog.Int("groups", len(d.groups)))
	}

	g.add(listener, d.timestamp)
	d.timestamp++
}

// Unsubscribe removes listener. Removing a listener that is not subscribed
// is a usage error and panics. A delivery pass already running on the
// listener's worker may still call it once.
func (d *Dispatcher[L]) Unsubscribe(listener L) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.assertOpen()

	for i, g := range d.groups {
		if !g.remove(listener) {
			continue
		}
		if g.len() == 0 {
			d.proxiesMu.Lock()
			for _, p := range d.proxies {
				p.remove(g)
			}
			d.proxiesMu.Unlock()
			d.groups = slices.Delete(d.groups, i, i+1)
			d.logger.Debug("group removed", slog.Int("groups", len(d.groups)))
		}
		return
	}
	panic("listeners: unsubscribe of unknown listener")
}

// proxyFor finds or creates the proxy of m. Callers hold d.mu.
func (d *Dispatcher[L]) proxyFor(m *Member) *proxy[L] {
	d.proxiesMu.Lock()
	defer d.proxiesMu.Unlock()
	p, ok := d.proxies[m]
	if !ok {
		p = &proxy[L]{member: m}
		for _, g := range d.groups {
			p.add(g)
		}
		d.proxies[m] = p
	}
	return p
}

// Update issues fn for member m to every listener subscribed now. For each
// group, an Update still waiting in the group's worker queue is replaced by
// this one, so only the latest fn per member is delivered when the worker
// drains. Errors from workers that refused the delivery are joined.
func (d *Dispatcher[L]) Update(m *Member, fn func(L)) error {
	if m == nil || fn == nil {
		return api.ErrInvalidArgument
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed.Load() {
		return ErrClosed
	}

	p := d.proxyFor(m)
	d.updates.Add(1)
	if len(p.entries) == 0 {
		return nil
	}

	blk, err := d.calls.Alloc()
	if err != nil {
		return err
	}
	inv := &blk.Value
	inv.fn = fn
	inv.stamp = d.timestamp
	inv.refs = 1

	var errs []error
	for _, e := range p.entries {
		inv.acquire()
		if old := e.slot.Swap(blk); old != nil {
			// The queued delivery will pick up blk instead.
			d.coalesced.Add(1)
			d.release(old)
			continue
		}
		if err := e.group.worker.Call(func() { d.deliverPending(e) }); err != nil {
			if stale := e.slot.Swap(nil); stale != nil {
				d.release(stale)
			}
			errs = append(errs, err)
		}
	}
	d.release(blk)
	return errors.Join(errs...)
}

// deliverPending runs on the group's worker.
func (d *Dispatcher[L]) deliverPending(e *proxyEntry[L]) {
	blk := e.slot.Swap(nil)
	if blk == nil {
		return
	}
	defer d.release(blk)
	inv := &blk.Value
	d.delivered.Add(int64(e.group.deliver(inv.fn, inv.stamp)))
}

func (d *Dispatcher[L]) release(blk *pool.Block[Invocation[L]]) {
	if blk.Value.release() {
		d.calls.Free(blk)
	}
}

// Call issues fn to every listener subscribed now without coalescing: each
// Call queues one delivery per group.
func (d *Dispatcher[L]) Call(fn func(L)) error {
	if fn == nil {
		return api.ErrInvalidArgument
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed.Load() {
		return ErrClosed
	}
	d.broadcast.Add(1)

	stamp := d.timestamp
	var errs []error
	for _, g := range d.groups {
		if err := g.worker.Call(func() {
			d.delivered.Add(int64(g.deliver(fn, stamp)))
		}); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Contains reports whether listener is subscribed.
func (d *Dispatcher[L]) Contains(listener L) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, g := range d.groups {
		if g.contains(listener) {
			return true
		}
	}
	return false
}

// Len returns the number of subscribed listeners.
func (d *Dispatcher[L]) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n := 0
	for _, g := range d.groups {
		n += g.len()
	}
	return n
}

// Close tears the dispatcher down. Every listener must have unsubscribed;
// a remaining one is a usage error and panics. Deliveries still queued on
// workers run as no-ops.
func (d *Dispatcher[L]) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed.Load() {
		return
	}
	if n := len(d.groups); n != 0 {
		panic(fmt.Sprintf("listeners: Close with %d non-empty groups", n))
	}
	d.closed.Store(true)

	d.proxiesMu.Lock()
	for m, p := range d.proxies {
		if len(p.entries) != 0 {
			panic("listeners: proxy " + m.String() + " still references groups")
		}
	}
	d.proxies = nil
	d.proxiesMu.Unlock()
}

// Stats returns dispatcher counters.
func (d *Dispatcher[L]) Stats() api.DispatcherStats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s := api.DispatcherStats{
		Groups:    len(d.groups),
		Timestamp: d.timestamp,
		Updates:   d.updates.Load(),
		Calls:     d.broadcast.Load(),
		Coalesced: d.coalesced.Load(),
		Delivered: d.delivered.Load(),
	}
	for _, g := range d.groups {
		s.Listeners += g.len()
	}
	d.proxiesMu.Lock()
	s.Proxies = len(d.proxies)
	d.proxiesMu.Unlock()
	return s
}
