// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics: static values set by callers plus probes evaluated on
// every snapshot.

package control

import (
	"maps"
	"sync"
	"time"

	"github.com/momentics/hioload-sync/api"
)

// MetricsRegistry holds mutable metrics and live probes.
type MetricsRegistry struct {
	mu      sync.RWMutex
	metrics map[string]any
	probes  map[string]func() any
	updated time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		metrics: make(map[string]any),
		probes:  make(map[string]func() any),
	}
}

// Set sets or updates a metric key.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.metrics[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// Updated returns the time of the last Set.
func (mr *MetricsRegistry) Updated() time.Time {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.updated
}

// RegisterProbe installs fn under name, replacing a probe of the same name.
func (mr *MetricsRegistry) RegisterProbe(name string, fn func() any) {
	mr.mu.Lock()
	mr.probes[name] = fn
	mr.mu.Unlock()
}

// DumpState evaluates every probe. Probes run without the registry lock
// held, so a probe may itself read the registry.
func (mr *MetricsRegistry) DumpState() map[string]any {
	mr.mu.RLock()
	probes := maps.Clone(mr.probes)
	mr.mu.RUnlock()

	out := make(map[string]any, len(probes))
	for k, fn := range probes {
		out[k] = fn()
	}
	return out
}

// GetSnapshot returns the metrics set so far together with the current
// output of every probe. Probes win on key collisions.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	out := maps.Clone(mr.metrics)
	mr.mu.RUnlock()

	maps.Copy(out, mr.DumpState())
	return out
}

var _ api.Debug = (*MetricsRegistry)(nil)
