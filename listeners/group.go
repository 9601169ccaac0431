// File: listeners/group.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A group holds the listeners that share one worker. The entry list is
// read only when a delivery reaches the worker, so a group can be empty by
// the time its delivery runs; that delivery is then a no-op.

package listeners

import (
	"sync"

	"github.com/momentics/hioload-sync/api"
)

type entry[L comparable] struct {
	listener L
	joined   uint64 // join timestamp
}

type group[L comparable] struct {
	worker api.Worker

	mu      sync.Mutex
	entries []entry[L]
}

func newGroup[L comparable](w api.Worker) *group[L] {
	return &group[L]{worker: w}
}

// add appends listener with its join timestamp. Callers prevent duplicates.
func (g *group[L]) add(listener L, joined uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entries = append(g.entries, entry[L]{listener: listener, joined: joined})
}

// remove reports whether listener was found and removed.
func (g *group[L]) remove(listener L) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, e := range g.entries {
		if e.listener == listener {
			last := len(g.entries) - 1
			g.entries[i] = g.entries[last]
			g.entries[last] = entry[L]{}
			g.entries = g.entries[:last]
			return true
		}
	}
	return false
}

func (g *group[L]) contains(listener L) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, e := range g.entries {
		if e.listener == listener {
			return true
		}
	}
	return false
}

func (g *group[L]) len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

// deliver runs fn for every listener that joined before stamp and returns
// how many ran. It must run on the group's worker. The entry pass happens
// under the group lock; fn runs afterwards on the collected listeners, so
// a listener may subscribe or unsubscribe from inside fn.
func (g *group[L]) deliver(fn func(L), stamp uint64) int {
	if !g.worker.InProcess() {
		panic("listeners: delivery outside the group's worker")
	}

	g.mu.Lock()
	if len(g.entries) == 0 {
		g.mu.Unlock()
		return 0
	}
	targets := make([]L, 0, len(g.entries))
	for _, e := range g.entries {
		// Listeners added after the call was issued do not see it.
		if e.joined < stamp {
			targets = append(targets, e.listener)
		}
	}
	g.mu.Unlock()

	for _, l := range targets {
		fn(l)
	}
	return len(targets)
}
