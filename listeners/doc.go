// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package listeners implements a thread-affine publish/subscribe
// dispatcher.
//
// Each listener is subscribed together with the api.Worker it must be
// called on; listeners sharing a worker form a group. Update(member, fn)
// queues fn once per group and collapses repeated updates of the same
// member that reach a group before its worker drains: the last one wins
// and the earlier ones are dropped without notice. Call(fn) queues fn
// without collapsing.
//
// Listeners that join after a call was issued never see it, even if the
// call is still sitting in their worker's queue when they join.
//
// Usage errors panic: subscribing twice, unsubscribing an unknown
// listener, closing a dispatcher that still has listeners.
package listeners
