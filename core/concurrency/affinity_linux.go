//go:build linux

// File: core/concurrency/affinity_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pure Go CPU pinning through sched_setaffinity.

package concurrency

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// pinCurrentThread binds the calling OS thread to cpu.
// The caller must hold runtime.LockOSThread.
func pinCurrentThread(cpu int) error {
	if cpu < 0 || cpu >= runtime.NumCPU() {
		return ErrInvalidCPU
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	return unix.SchedSetaffinity(0, &set)
}
