// Package pendingqueue implements the in-order-commit bookkeeping a
// pipeline.Stage needs: completed transfers may finish out of issue
// order, but dst_tail must only ever advance over a contiguous,
// fully-transferred prefix, so completions are held here until the
// straggling earliest one lands.
//
// The teacher pack solves "find the minimum key in O(1) with zero heap
// allocation" with a hierarchical bitmap arena (QuantumQueue,
// PooledQuantumQueue) sized for up to a few hundred thousand distinct
// priorities. A stage caps outstanding transfers per tick at 16, which
// is small enough that a fixed-capacity array-backed binary min-heap
// gives the same zero-allocation, bounded-size guarantee with far less
// machinery — the same "external memory management, no growth" idea as
// PooledQuantumQueue's shared-pool entries, scaled down to the bound
// this component actually needs.
package pendingqueue

// MaxOutstanding is the per-tick cap on concurrently-issued, not-yet-
// published transfers.
const MaxOutstanding = 16

// Update is the counter values a completed transfer wants to publish,
// ordered by BeforeSrcTail so a batch commits only over a contiguous
// prefix.
type Update struct {
	BeforeSrcTail uint32
	BeforeDstTail uint32
	AfterSrcTail  uint32
	AfterDstTail  uint32
}

// Queue is a fixed-capacity min-heap of Update, ordered by
// BeforeSrcTail. It never allocates after construction.
type Queue struct {
	items [MaxOutstanding]Update
	len   int
}

// Len reports the number of pending updates.
func (q *Queue) Len() int { return q.len }

// Full reports whether the queue is at MaxOutstanding.
func (q *Queue) Full() bool { return q.len >= MaxOutstanding }

// Push inserts u, returning false if the queue is already full.
func (q *Queue) Push(u Update) bool {
	if q.Full() {
		return false
	}
	i := q.len
	q.items[i] = u
	q.len++
	q.siftUp(i)
	return true
}

// PeekMin returns the update with the smallest BeforeSrcTail without
// removing it.
func (q *Queue) PeekMin() (Update, bool) {
	if q.len == 0 {
		return Update{}, false
	}
	return q.items[0], true
}

// PopMin removes and returns the update with the smallest BeforeSrcTail.
func (q *Queue) PopMin() (Update, bool) {
	if q.len == 0 {
		return Update{}, false
	}
	min := q.items[0]
	q.len--
	q.items[0] = q.items[q.len]
	q.items[q.len] = Update{}
	q.siftDown(0)
	return min, true
}

// DrainContiguous pops and returns, in order, every update whose
// BeforeSrcTail chains from expected (i.e. the first pending update
// starts exactly at expected, the next starts at its AfterSrcTail, and so
// on), advancing expected as it goes. Updates that don't chain are left
// in the queue to wait for the still-missing predecessor.
func (q *Queue) DrainContiguous(expected uint32) []Update {
	var ready []Update
	for {
		next, ok := q.PeekMin()
		if !ok || next.BeforeSrcTail != expected {
			return ready
		}
		q.PopMin()
		ready = append(ready, next)
		expected = next.AfterSrcTail
	}
}

func (q *Queue) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if q.items[parent].BeforeSrcTail <= q.items[i].BeforeSrcTail {
			break
		}
		q.items[parent], q.items[i] = q.items[i], q.items[parent]
		i = parent
	}
}

func (q *Queue) siftDown(i int) {
	for {
		l, r := 2*i+1, 2*i+2
		smallest := i
		if l < q.len && q.items[l].BeforeSrcTail < q.items[smallest].BeforeSrcTail {
			smallest = l
		}
		if r < q.len && q.items[r].BeforeSrcTail < q.items[smallest].BeforeSrcTail {
			smallest = r
		}
		if smallest == i {
			return
		}
		q.items[i], q.items[smallest] = q.items[smallest], q.items[i]
		i = smallest
	}
}
