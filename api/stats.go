// Package api
// Author: momentics <momentics@gmail.com>
//
// Statistics snapshots exported by the allocator and the dispatcher.

package api

// AllocatorStats is a point-in-time view of a fixed-block allocator.
type AllocatorStats struct {
	BlockSize int   // bytes per block used for the swap interval
	Interval  int64 // frees between two free/junk swaps
	Budget    int64 // frees left before the next swap
	Total     int64 // blocks obtained from the source and not yet released
	InUse     int64 // blocks handed out and not yet freed
	FreeList  int64 // blocks available to Alloc
	JunkList  int64 // blocks freed since the last swap
	Swaps     int64 // completed free/junk swaps
}

// DispatcherStats is a point-in-time view of a broadcast dispatcher.
type DispatcherStats struct {
	Groups    int    // one per worker with at least one listener
	Proxies   int    // one per member ever updated
	Listeners int    // subscribed listeners across all groups
	Timestamp uint64 // next join timestamp
	Updates   int64  // coalescing updates issued
	Calls     int64  // uncoalesced calls issued
	Coalesced int64  // pending calls replaced before delivery
	Delivered int64  // listener invocations
}

// Debug is implemented by registries that evaluate named probes on demand.
// Components do not register themselves; their owner wires Stats methods
// in as probes.
type Debug interface {
	RegisterProbe(name string, fn func() any)

	// DumpState runs every probe and returns the results by name.
	DumpState() map[string]any
}
