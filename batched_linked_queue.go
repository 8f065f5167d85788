// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package smrq

import (
	"sync/atomic"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"

	"code.hybscloud.com/smrq/hazard"
)

// DefaultBufferSize is the BatchedLinkedQueue slot count per node used
// by NewBatchedLinkedQueueDefault.
const DefaultBufferSize = 32

// blNode is a BatchedLinkedQueue node: bufferSize slots shared by
// however many producers and consumers reach it via fetch-and-add
// index claims.
type blNode struct {
	_       pad
	buffer  []atomix.Uintptr
	pushIdx atomix.Int64
	popIdx  atomix.Int64
	next    atomic.Pointer[blNode]
	_       padShort
}

func newBLNode(bufferSize int) *blNode {
	n := &blNode{buffer: make([]atomix.Uintptr, bufferSize)}
	for i := range n.buffer {
		n.buffer[i].StoreRelaxed(uintptr(Empty))
	}
	return n
}

// BatchedLinkedQueue is a lock-free MPMC FIFO whose nodes hold
// bufferSize slots apiece: push and pop reserve a slot within a node
// via fetch-and-add, amortizing the one-allocation-per-node-not-per-
// element cost of LinkedQueue.
type BatchedLinkedQueue struct {
	_          pad
	head       atomic.Pointer[blNode]
	_          pad
	tail       atomic.Pointer[blNode]
	_          pad
	bufferSize int
	hp         *hazard.Registry[blNode]
	reclaimed  atomic.Int64
}

// NewBatchedLinkedQueue creates an empty BatchedLinkedQueue sized for
// numThreads worker goroutines, with bufferSize slots per node.
func NewBatchedLinkedQueue(numThreads, bufferSize int) *BatchedLinkedQueue {
	if bufferSize < 1 {
		panic("smrq: bufferSize must be >= 1")
	}
	dummy := newBLNode(bufferSize)
	q := &BatchedLinkedQueue{
		bufferSize: bufferSize,
		hp:         hazard.NewRegistry[blNode](numThreads),
	}
	q.hp.WithReclaimHook(func(*blNode) { q.reclaimed.Add(1) })
	q.head.Store(dummy)
	q.tail.Store(dummy)
	return q
}

// NewBatchedLinkedQueueDefault creates an empty BatchedLinkedQueue
// using DefaultBufferSize slots per node.
func NewBatchedLinkedQueueDefault(numThreads int) *BatchedLinkedQueue {
	return NewBatchedLinkedQueue(numThreads, DefaultBufferSize)
}

// Register assigns threadID its one-time identity among numThreads
// workers and returns a BatchedLinkedWorker bound to it. See
// LinkedQueue.Register for the identity-propagation rationale.
func (q *BatchedLinkedQueue) Register(threadID, numThreads int) *BatchedLinkedWorker {
	return &BatchedLinkedWorker{q: q, tid: hazard.Register(threadID, numThreads)}
}

// BatchedLinkedWorker is a BatchedLinkedQueue bound to one registered
// worker's hazard pointer identity. It implements Queue.
type BatchedLinkedWorker struct {
	q   *BatchedLinkedQueue
	tid hazard.ThreadID
}

// Push adds v to the back of the queue. v must not be Empty or Taken.
//
// Grounded on BLQueue_push: claim a slot index via fetch-add on the
// protected tail's push_idx; CAS the slot from Empty to v. A slot a
// consumer poisoned to Taken first fails the CAS and is abandoned —
// the claiming producer retries on a later index or node, the node
// is sealed and a new one linked once push_idx reaches bufferSize.
func (w *BatchedLinkedWorker) Push(v Value) {
	if v == Empty || v == Taken {
		panic("smrq: cannot push a reserved sentinel value")
	}
	q, tid := w.q, w.tid

	sw := spin.Wait{}
	for {
		tail := q.hp.Protect(tid, &q.tail)
		if tail != q.tail.Load() {
			q.hp.Clear(tid)
			continue
		}

		idx := tail.pushIdx.AddAcqRel(1) - 1
		if int(idx) < q.bufferSize {
			if tail.buffer[idx].CompareAndSwapAcqRel(uintptr(Empty), uintptr(v)) {
				q.hp.Clear(tid)
				return
			}
			// A consumer poisoned this slot with Taken before we
			// could claim it; the index is lost, retry on the node's
			// next claimable slot (or roll to the next node).
			q.hp.Clear(tid)
			sw.Once()
			continue
		}

		// Node is sealed; link a new one.
		newNode := newBLNode(q.bufferSize)
		if tail.next.CompareAndSwap(nil, newNode) {
			q.tail.CompareAndSwap(tail, newNode)
			q.hp.Clear(tid)
		} else {
			// Another producer already linked a node; help advance
			// tail and retry with the new tail.
			if next := tail.next.Load(); next != nil {
				q.tail.CompareAndSwap(tail, next)
			}
			q.hp.Clear(tid)
		}
		sw.Once()
	}
}

// Pop removes and returns the value at the front of the queue, or
// Empty if the queue was observed empty.
//
// Grounded on BLQueue_pop: claim a slot index via fetch-add on the
// protected head's pop_idx; exchange the slot to Taken. A value of
// Empty means a producer reserved the index but has not written it
// yet, or never will — the consumer retries the outer loop without
// releasing the hazard pointer, since head is still in play.
func (w *BatchedLinkedWorker) Pop() Value {
	q, tid := w.q, w.tid

	sw := spin.Wait{}
	for {
		head := q.hp.Protect(tid, &q.head)
		if head != q.head.Load() {
			q.hp.Clear(tid)
			continue
		}

		idx := head.popIdx.AddAcqRel(1) - 1
		if int(idx) < q.bufferSize {
			v := blExchange(&head.buffer[idx], uintptr(Taken))
			if v != uintptr(Empty) {
				q.hp.Clear(tid)
				return Value(v)
			}
			// Slot not yet written (or never will be); keep head
			// protected and retry the claim on the next index.
			sw.Once()
			continue
		}

		next := head.next.Load()
		if next == nil {
			q.hp.Clear(tid)
			return Empty
		}
		if q.head.CompareAndSwap(head, next) {
			q.hp.Clear(tid)
			q.hp.Retire(tid, head)
		} else {
			q.hp.Clear(tid)
		}
		sw.Once()
	}
}

// blExchange atomically stores newVal into slot and returns the value
// previously there. atomix has no generic exchange primitive, so this
// is built from a CompareAndSwap retry loop — at most two iterations
// in practice, since the only other writer of a BatchedLinkedQueue
// slot is the single producer that may CAS Empty to a value.
func blExchange(slot *atomix.Uintptr, newVal uintptr) uintptr {
	for {
		cur := slot.LoadAcquire()
		if slot.CompareAndSwapAcqRel(cur, newVal) {
			return cur
		}
	}
}

// IsEmpty reports whether the queue was observed empty: the head
// node's pop_idx has caught up with every slot producers have claimed
// in it (at most bufferSize) and it has no successor.
// Conservative under concurrent pushes, per spec.
func (w *BatchedLinkedWorker) IsEmpty() bool {
	q, tid := w.q, w.tid
	head := q.hp.Protect(tid, &q.head)
	popIdx := head.popIdx.LoadAcquire()
	pushIdx := head.pushIdx.LoadAcquire()
	next := head.next.Load()
	q.hp.Clear(tid)
	return int(popIdx) >= min(int(pushIdx), q.bufferSize) && next == nil
}

// Delete walks the remaining chain, retiring every node it finds
// (including the one still at head), then finalizes the hazard
// registry, reclaiming everything retired. Single-threaded: q must
// not be used by any other goroutine for the remainder of its
// lifetime.
func (q *BatchedLinkedQueue) Delete() {
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
// sweep.
func (q *BatchedLinkedQueue) Reclaimed() int64 {
	return q.reclaimed.Load()
}

// WithRetiredThreshold overrides the hazard registry's retired-list
// scan threshold. Must be called before any worker is registered.
func (q *BatchedLinkedQueue) WithRetiredThreshold(threshold int) *BatchedLinkedQueue {
	q.hp.WithThreshold(threshold)
	return q
}

var _ Queue = (*BatchedLinkedWorker)(nil)
