// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, runtime metrics and debug introspection for hioload-sync.
//
// Config is read from HIOLOAD_* environment variables. MetricsRegistry
// collects static metrics and live probes; the allocator, dispatcher and
// worker Stats methods are registered as probes by their owners.
package control
