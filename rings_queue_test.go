// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package smrq_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"code.hybscloud.com/smrq"
)

// TestRingsQueueNodeRollover exercises spec scenario 4 exactly:
// ringSize 2, push 1/2/3, pop once, push 4, pop the rest.
func TestRingsQueueNodeRollover(t *testing.T) {
	q := smrq.NewRingsQueue(2)

	if !q.IsEmpty() {
		t.Fatal("fresh queue: IsEmpty() = false, want true")
	}

	q.Push(1)
	q.Push(2)
	q.Push(3)

	if got := q.Pop(); got != 1 {
		t.Fatalf("first Pop: got %d, want 1", got)
	}

	q.Push(4)

	for _, want := range []smrq.Value{2, 3, 4} {
		if got := q.Pop(); got != want {
			t.Fatalf("Pop: got %d, want %d", got, want)
		}
	}

	if !q.IsEmpty() {
		t.Fatal("drained queue: IsEmpty() = false, want true")
	}
	if got := q.Pop(); got != smrq.Empty {
		t.Fatalf("Pop on drained queue: got %d, want Empty", got)
	}
}

func TestRingsQueuePanicsOnSentinelPush(t *testing.T) {
	q := smrq.NewRingsQueueDefault()

	for _, v := range []smrq.Value{smrq.Empty, smrq.Taken} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("Push(%d): expected panic, got none", v)
				}
			}()
			q.Push(v)
		}()
	}
}

// TestRingsQueueConcurrentProducersConsumers exercises the two-mutex
// baseline under the same producer/consumer shape as the lock-free
// queues, as a correctness cross-check unaffected by the race
// detector's blind spots.
func TestRingsQueueConcurrentProducersConsumers(t *testing.T) {
	const ringSize = 4
	const producers = 4
	const consumers = 4
	const perProducer = 5000

	q := smrq.NewRingsQueue(ringSize)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(encodeTagged(id, i))
			}
		}(p)
	}

	var consumed int64
	results := make(chan smrq.Value, producers*perProducer)
	var cwg sync.WaitGroup
	for c := 0; c < consumers; c++ {
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			for atomic.LoadInt64(&consumed) < producers*perProducer {
				v := q.Pop()
				if v == smrq.Empty {
					continue
				}
				atomic.AddInt64(&consumed, 1)
				results <- v
			}
		}()
	}

	wg.Wait()
	cwg.Wait()
	close(results)

	lastSeen := make([]int, producers)
	for i := range lastSeen {
		lastSeen[i] = -1
	}
	seen := make(map[smrq.Value]bool)
	count := 0
	for v := range results {
		count++
		if seen[v] {
			t.Fatalf("value %d popped twice", v)
		}
		seen[v] = true

		id, ord := decodeTagged(v)
		if ord <= lastSeen[id] {
			t.Fatalf("producer %d: order violation, got %d after %d", id, ord, lastSeen[id])
		}
		lastSeen[id] = ord
	}

	if count != producers*perProducer {
		t.Fatalf("total popped: got %d, want %d", count, producers*perProducer)
	}

	if !q.IsEmpty() {
		t.Fatal("queue not drained after concurrent run")
	}
}
