//go:build linux

// File: core/concurrency/thread_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import "golang.org/x/sys/unix"

const threadIdentity = true

// currentThreadID returns the kernel id of the calling OS thread.
func currentThreadID() int64 {
	return int64(unix.Gettid())
}
