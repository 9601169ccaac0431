// File: listeners/proxy.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package listeners

import (
	"sync/atomic"

	"github.com/momentics/hioload-sync/pool"
)

// proxyEntry associates one group with the pending invocation of a member.
// A non-nil slot doubles as the "delivery queued" flag.
type proxyEntry[L comparable] struct {
	group *group[L]
	slot  atomic.Pointer[pool.Block[Invocation[L]]]
}

// proxy tracks at most one pending invocation per group for one member.
// It lives as long as its dispatcher. entries is mutated only under the
// dispatcher write lock and read under its read lock.
type proxy[L comparable] struct {
	member  *Member
	entries []*proxyEntry[L]
}

// add registers g. Callers prevent duplicates.
func (p *proxy[L]) add(g *group[L]) {
	p.entries = append(p.entries, &proxyEntry[L]{group: g})
}

// remove drops g. An entry may still sit in g's worker queue; it will find
// the group empty and do nothing.
func (p *proxy[L]) remove(g *group[L]) {
	for i, e := range p.entries {
		if e.group == g {
			last := len(p.entries) - 1
			p.entries[i] = p.entries[last]
			p.entries[last] = nil
			p.entries = p.entries[:last]
			return
		}
	}
}
