//go:build !linux

// File: core/concurrency/affinity_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

func pinCurrentThread(cpu int) error {
	if cpu < 0 {
		return ErrInvalidCPU
	}
	return ErrAffinityNotSupported
}
