// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package concurrency provides the execution queues listener groups are
// bound to. A Queue is drained by whoever calls Process; a Worker owns a
// goroutine that drains its Queue as tasks arrive. Both run tasks one at a
// time in submission order and can tell whether the caller is inside their
// processing loop, which the broadcast dispatcher checks before delivering
// to a group.
package concurrency
