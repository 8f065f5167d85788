// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package smrq

import (
	"sync/atomic"

	"code.hybscloud.com/spin"

	"code.hybscloud.com/smrq/hazard"
)

// llNode is a LinkedQueue node: one element per node.
type llNode struct {
	_    pad
	next atomic.Pointer[llNode]
	item Value
	_    padShort
}

// LinkedQueue is the classical Michael–Scott lock-free MPMC FIFO: one
// element per node, CAS-based push/pop, hazard pointers guarding every
// node dereference against a concurrent retire.
type LinkedQueue struct {
	_         pad
	head      atomic.Pointer[llNode]
	_         pad
	tail      atomic.Pointer[llNode]
	_         pad
	hp        *hazard.Registry[llNode]
	reclaimed atomic.Int64
}

// NewLinkedQueue creates an empty LinkedQueue sized for numThreads
// worker goroutines. numThreads must be <= hazard.MaxThreads.
func NewLinkedQueue(numThreads int) *LinkedQueue {
	dummy := &llNode{item: Empty}
	q := &LinkedQueue{
		hp: hazard.NewRegistry[llNode](numThreads),
	}
	q.hp.WithReclaimHook(func(*llNode) { q.reclaimed.Add(1) })
	q.head.Store(dummy)
	q.tail.Store(dummy)
	return q
}

// Register assigns threadID its one-time identity among numThreads
// workers and returns a LinkedWorker bound to it. Every worker
// goroutine that will push or pop on q must call Register exactly
// once, before its first call, and must use the returned worker for
// every subsequent call — this is how the queue's hazard pointer slot
// is addressed, standing in for the thread_local identity the
// original design keeps implicitly.
func (q *LinkedQueue) Register(threadID, numThreads int) *LinkedWorker {
	return &LinkedWorker{q: q, tid: hazard.Register(threadID, numThreads)}
}

// LinkedWorker is a LinkedQueue bound to one registered worker's
// hazard pointer identity. It implements Queue.
type LinkedWorker struct {
	q   *LinkedQueue
	tid hazard.ThreadID
}

// Push adds v to the back of the queue. v must not be Empty or Taken.
//
// Grounded on LLQueue_push: protect tail, help advance a lagging tail,
// then CAS the new node onto tail.next and swing tail to it.
func (w *LinkedWorker) Push(v Value) {
	if v == Empty || v == Taken {
		panic("smrq: cannot push a reserved sentinel value")
	}
	q, tid := w.q, w.tid

	newNode := &llNode{item: v}
	sw := spin.Wait{}
	for {
		tail := q.hp.Protect(tid, &q.tail)
		if tail != q.tail.Load() {
			q.hp.Clear(tid)
			continue
		}

		next := tail.next.Load()
		if next != nil {
			// Tail is lagging behind the true last node; help it
			// along and retry from scratch.
			q.tail.CompareAndSwap(tail, next)
			q.hp.Clear(tid)
			sw.Once()
			continue
		}

		if tail.next.CompareAndSwap(nil, newNode) {
			q.tail.CompareAndSwap(tail, newNode)
			q.hp.Clear(tid)
			return
		}
		q.hp.Clear(tid)
		sw.Once()
	}
}

// Pop removes and returns the value at the front of the queue, or
// Empty if the queue was observed empty.
//
// Grounded on LLQueue_pop: protect head, read head.next; if nil the
// queue is empty, otherwise CAS head forward and retire the old head.
func (w *LinkedWorker) Pop() Value {
	q, tid := w.q, w.tid

	sw := spin.Wait{}
	for {
		head := q.hp.Protect(tid, &q.head)
		if head != q.head.Load() {
			q.hp.Clear(tid)
			continue
		}

		next := head.next.Load()
		if next == nil {
			q.hp.Clear(tid)
			return Empty
		}

		if q.head.CompareAndSwap(head, next) {
			result := next.item
			q.hp.Clear(tid)
			q.hp.Retire(tid, head)
			return result
		}
		q.hp.Clear(tid)
		sw.Once()
	}
}

// IsEmpty reports whether the queue was empty at the moment of the
// check, linearized at the read of head.next.
func (w *LinkedWorker) IsEmpty() bool {
	q, tid := w.q, w.tid
	head := q.hp.Protect(tid, &q.head)
	next := head.next.Load()
	q.hp.Clear(tid)
	return next == nil
}

// Delete walks the remaining chain, retiring every node it finds
// (including the one still at head), then finalizes the hazard
// registry, reclaiming everything retired. Single-threaded: q must
// not be used by any other goroutine for the remainder of its
// lifetime.
//
// Grounded on LLQueue_delete: the walk retires each node exactly as
// the original's HazardPointer_retire call inside the same loop does,
// since the node at head was never popped past and so never retired
// by Pop.
func (q *LinkedQueue) Delete() {
	const tid = hazard.ThreadID(0)
	current := q.head.Load()
	for current != nil {
		next := current.next.Load()
		q.hp.Retire(tid, current)
		current = next
	}
	q.hp.Finalize()
}

// Reclaimed returns the number of nodes the hazard registry has
// reclaimed so far, via threshold-triggered scans plus any Delete
// sweep. Intended for tests that verify reclamation keeps pace with
// retirement rather than accumulating without bound.
func (q *LinkedQueue) Reclaimed() int64 {
	return q.reclaimed.Load()
}

// WithRetiredThreshold overrides the hazard registry's retired-list
// scan threshold. Must be called before any worker is registered.
func (q *LinkedQueue) WithRetiredThreshold(threshold int) *LinkedQueue {
	q.hp.WithThreshold(threshold)
	return q
}

var _ Queue = (*LinkedWorker)(nil)
