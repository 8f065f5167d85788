// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package smrq

// Queue is the capability set shared by LinkedQueue, BatchedLinkedQueue,
// and RingsQueue: push, pop, and a conservative emptiness check.
//
// Every implementation is safe for a known, bounded set of worker
// goroutines. For LinkedQueue and BatchedLinkedQueue, each worker
// obtains a worker handle carrying its hazard.ThreadID from the queue's
// Register method and calls Push and Pop through that handle, which is
// what implements Queue. RingsQueue needs no such registration: it synchronizes
// through its own two mutexes instead of hazard pointers.
type Queue interface {
	// Push adds v to the back of the queue. v must not be Empty or
	// Taken; pushing either panics. Never blocks beyond the internal
	// contention every lock-free retry loop may hit.
	Push(v Value)

	// Pop removes and returns the value at the front of the queue, or
	// Empty if the queue was observed empty at the linearization
	// point of the call.
	Pop() Value

	// IsEmpty reports whether the queue was empty at the moment of
	// the check. Under concurrent pushes this is conservative: a push
	// in progress may not yet be observable.
	IsEmpty() bool
}
