// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package smrq provides unbounded multi-producer/multi-consumer FIFO
// queues for a known, bounded set of worker goroutines.
//
// Three variants share the same push/pop/is-empty contract and differ
// only in their concurrency strategy:
//
//   - LinkedQueue: classical Michael–Scott lock-free linked queue, one
//     element per node, CAS-based push/pop.
//   - BatchedLinkedQueue: lock-free queue whose nodes hold several
//     slots apiece, claimed via fetch-and-add, amortizing allocation.
//   - RingsQueue: two-mutex queue over fixed-size ring-buffer nodes, a
//     simple baseline that needs no hazard pointers.
//
// # Quick Start
//
// LinkedQueue and BatchedLinkedQueue synchronize node reclamation
// through a hazard pointer registry (package hazard), so each worker
// goroutine must register once before its first call:
//
//	q := smrq.NewLinkedQueue(numWorkers)
//	w := q.Register(workerID, numWorkers) // once per goroutine
//
//	w.Push(smrq.Value(42))
//	v := w.Pop() // smrq.Empty if the queue was observed empty
//
// RingsQueue needs no registration; it is safe to use directly from
// any number of goroutines:
//
//	q := smrq.NewRingsQueue(smrq.DefaultRingSize)
//	q.Push(smrq.Value(42))
//	v := q.Pop()
//
// # Values
//
// Value is an opaque, word-sized payload. Two bit patterns are
// reserved: [Empty] ("no value here") and [Taken] (internal to
// BatchedLinkedQueue's slot protocol). Callers encode pointers,
// indices, or small integers into a Value avoiding both sentinels —
// the same discipline existing uintptr-indirect queues in this
// ecosystem already require of their callers.
//
// # Worker Registration
//
// LinkedQueue and BatchedLinkedQueue require every worker goroutine
// that will ever call Push, Pop, or IsEmpty to call the queue's
// Register method exactly once, with a stable (threadID, numThreads)
// identity, before its first call, and to keep using the returned
// worker handle for every subsequent call. The identity indexes the
// queue's hazard pointer registry; reusing a handle across goroutines,
// or calling Push/Pop before registering, is undefined behavior.
//
// # Lifecycle
//
// delete is a single-threaded operation on LinkedQueue and
// BatchedLinkedQueue ([*LinkedQueue.Delete], [*BatchedLinkedQueue.Delete]):
// call it only once every worker goroutine has stopped using the
// queue. It walks whatever remains of the node chain, retiring every
// node it finds, then finalizes the hazard registry, reclaiming
// everything retired. [*RingsQueue.Delete] is a no-op kept for
// interface parity: RingsQueue holds no hazard registry, and its nodes
// are already unreachable as soon as the pop mutex advances past them.
//
// # Memory Reclamation
//
// LinkedQueue and BatchedLinkedQueue never free a node directly: an
// unlinked node is retired into the hazard registry and only handed
// to the registry's reclaim hook (see [hazard.Registry.WithReclaimHook])
// once a scan observes no worker's hazard slot still holding it. This
// is the standard hazard-pointer reclamation discipline, adapted for a
// garbage-collected runtime: there is no explicit free, so the
// "frees" a caller might want to count are reclaim-hook invocations,
// not memory releases.
//
// # Concurrency Model
//
// LinkedQueue and BatchedLinkedQueue are lock-free: a worker never
// blocks on another worker, though it may spin a bounded number of
// times per contention event via [code.hybscloud.com/spin]. RingsQueue
// blocks on its two mutexes, but producers never wait on consumers or
// vice versa except for the brief critical section where both ends
// meet on the same node.
//
// # Race Detection
//
// Go's race detector tracks explicit synchronization primitives
// (mutex, channel, WaitGroup) but cannot observe happens-before
// relationships established purely through atomic acquire/release
// pairs. LinkedQueue and BatchedLinkedQueue establish their
// synchronization that way, so stress tests exercising them under
// heavy contention are excluded from race builds via the [RaceEnabled]
// flag rather than reported as false positives.
package smrq
