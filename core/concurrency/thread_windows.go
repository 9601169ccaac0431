//go:build windows

// File: core/concurrency/thread_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import "golang.org/x/sys/windows"

const threadIdentity = true

// currentThreadID returns the id of the calling OS thread.
func currentThreadID() int64 {
	return int64(windows.GetCurrentThreadId())
}
