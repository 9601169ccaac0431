package listeners

import "github.com/momentics/hioload-sync/api"

// pending reports whether a delivery of m is queued for the group of w.
func (d *Dispatcher[L]) pending(m *Member, w api.Worker) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	d.proxiesMu.Lock()
	p := d.proxies[m]
	d.proxiesMu.Unlock()
	if p == nil {
		return false
	}
	for _, e := range p.entries {
		if e.group.worker == w {
			return e.slot.Load() != nil
		}
	}
	return false
}

// proxyGroups returns how many groups the proxy of m references.
func (d *Dispatcher[L]) proxyGroups(m *Member) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	d.proxiesMu.Lock()
	defer d.proxiesMu.Unlock()
	p := d.proxies[m]
	if p == nil {
		return 0
	}
	return len(p.entries)
}
