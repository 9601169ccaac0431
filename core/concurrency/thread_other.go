//go:build !linux && !windows

// File: core/concurrency/thread_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// No portable thread id here: InProcess degrades to "some goroutine is
// draining the queue".

package concurrency

const threadIdentity = false

func currentThreadID() int64 { return 0 }
