// Package ring implements the generic single-producer/single-consumer
// lock-free ring buffer: a head/tail pair of monotonic counters over a
// power-of-two backing array, with three overflow disciplines.
//
// The design is adapted from the teacher pack's per-payload-size SPSC
// rings (ring24, ring32, ring56): those hardcode one struct per fixed
// payload width because they predate generics in that codebase's style.
// This version keeps the same cache-line isolation and sequence-free
// head/tail handoff but parameterizes over the element type, since Go
// generics make the fixed-width duplication unnecessary.
package ring

import (
	"fmt"
	"math/bits"
	"runtime"
	"sync/atomic"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/latticeflow/spscring/ringerr"
	"github.com/latticeflow/spscring/ringpad"
)

// Policy selects the ring's behavior when a producer finds it full.
type Policy int

const (
	// Block spins (with cooperative yield) until space appears.
	Block Policy = iota
	// Drop returns false immediately instead of waiting.
	Drop
	// Overwrite evicts the oldest element and proceeds.
	Overwrite
)

func (p Policy) String() string {
	switch p {
	case Block:
		return "block"
	case Drop:
		return "drop"
	case Overwrite:
		return "overwrite"
	default:
		return "unknown"
	}
}

// noCopy embeds into Ring so `go vet` flags accidental copies; the ring
// owns non-duplicable atomic cursors and a single backing allocation.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Ring is a fixed-capacity SPSC ring buffer over elements of type T.
//
// Only the producer calls the Try* push methods; only the consumer calls
// the Try* pop/peek methods, with the sole exception that under Overwrite
// policy the producer also advances tail to evict — callers using
// Overwrite must keep the consumer quiescent for the duration of any
// push that might evict.
type Ring[T any] struct {
	_ noCopy

	head ringpad.Cell // producer-owned index (also written by producer under Overwrite eviction)
	tail ringpad.Cell // consumer-owned index

	mask     uint64
	capacity uint64
	policy   Policy
	storage  []T

	drops      uint64
	overwrites uint64

	logger log.Logger
}

// Option configures a Ring at construction time.
type Option[T any] func(*Ring[T])

// WithLogger injects a structured logger; omitted, Ring logs nothing.
func WithLogger[T any](l log.Logger) Option[T] {
	return func(r *Ring[T]) { r.logger = l }
}

// nextPow2 rounds n up to the next power of two, with 0 or negative
// mapping to 1.
func nextPow2(n int) uint64 {
	if n <= 1 {
		return 1
	}
	return uint64(1) << bits.Len(uint(n-1))
}

// New allocates a Ring of at least the requested capacity, rounded up to
// a power of two. Allocation failures (e.g. an absurd capacity that
// exhausts memory) are recovered and surfaced as ringerr.ErrAllocationFailure
// rather than crashing the caller.
func New[T any](capacity int, policy Policy, opts ...Option[T]) (r *Ring[T], err error) {
	c := nextPow2(capacity)

	defer func() {
		if rec := recover(); rec != nil {
			r = nil
			err = ringerr.Wrap(ringerr.ErrAllocationFailure, fmt.Sprintf("ring.New(%d): %v", capacity, rec))
		}
	}()

	r = &Ring[T]{
		mask:     c - 1,
		capacity: c,
		policy:   policy,
		storage:  make([]T, c),
		logger:   log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	level.Debug(r.logger).Log("component", "ring", "msg", "constructed", "capacity", c, "policy", policy)
	return r, nil
}

func (r *Ring[T]) loadHead() uint64 { return atomic.LoadUint64(&r.head.V) }
func (r *Ring[T]) loadTail() uint64 { return atomic.LoadUint64(&r.tail.V) }

// Size returns the number of live elements: head - tail.
func (r *Ring[T]) Size() int { return int(r.loadHead() - r.loadTail()) }

// Empty reports size == 0.
func (r *Ring[T]) Empty() bool { return r.loadHead() == r.loadTail() }

// Full reports size == capacity.
func (r *Ring[T]) Full() bool { return r.loadHead()-r.loadTail() == r.capacity }

// Available returns capacity - size.
func (r *Ring[T]) Available() int { return int(r.capacity) - r.Size() }

// Capacity returns the rounded-up power-of-two capacity chosen at New.
func (r *Ring[T]) Capacity() int { return int(r.capacity) }

// Policy returns the configured overflow discipline.
func (r *Ring[T]) Policy() Policy { return r.policy }

// DropCount returns the number of pushes rejected under Drop policy.
func (r *Ring[T]) DropCount() uint64 { return atomic.LoadUint64(&r.drops) }

// OverwriteCount returns the number of elements evicted under Overwrite
// policy.
func (r *Ring[T]) OverwriteCount() uint64 { return atomic.LoadUint64(&r.overwrites) }

// TryPush stores v, applying the configured overflow policy. It reports
// whether the element was accepted; Block always returns true.
func (r *Ring[T]) TryPush(v T) bool {
	return r.TryEmplace(func(slot *T) { *slot = v })
}

// TryEmplace constructs an element in place via build rather than copying
// a pre-built value, avoiding a temporary — the source's try_emplace
// forwarded constructor arguments; Go's equivalent is a callback writing
// directly into the reserved slot.
func (r *Ring[T]) TryEmplace(build func(slot *T)) bool {
	for {
		head := r.loadHead()
		tail := r.loadTail()

		if head-tail >= r.capacity {
			switch r.policy {
			case Drop:
				atomic.AddUint64(&r.drops, 1)
				return false
			case Overwrite:
				atomic.AddUint64(&r.overwrites, 1)
				r.evict(tail)
				continue
			default: // Block
				runtime.Gosched()
				continue
			}
		}

		build(&r.storage[head&r.mask])
		atomic.StoreUint64(&r.head.V, head+1)
		return true
	}
}

// evict destroys the slot at tail and advances tail, implementing the
// Overwrite policy's producer-side eviction of the oldest element.
func (r *Ring[T]) evict(tail uint64) {
	var zero T
	r.storage[tail&r.mask] = zero
	atomic.StoreUint64(&r.tail.V, tail+1)
}

// TryPop removes and returns the oldest element, or (zero, false) if the
// ring is empty.
func (r *Ring[T]) TryPop() (v T, ok bool) {
	tail := r.loadTail()
	head := r.loadHead()
	if tail == head {
		return v, false
	}
	idx := tail & r.mask
	v = r.storage[idx]
	var zero T
	r.storage[idx] = zero
	atomic.StoreUint64(&r.tail.V, tail+1)
	return v, true
}

// TryPeek returns a pointer to the oldest element without consuming it.
// The pointer is valid until the next consumer-side mutation (TryPop,
// TryPopBulk, or Clear).
func (r *Ring[T]) TryPeek() (*T, bool) {
	tail := r.loadTail()
	head := r.loadHead()
	if tail == head {
		return nil, false
	}
	return &r.storage[tail&r.mask], true
}

// TryPushBulk pushes items from src one at a time under the configured
// policy, stopping at the first rejection (Drop only — Block always
// accepts and Overwrite always makes room) and returning the count
// actually pushed.
func (r *Ring[T]) TryPushBulk(src []T) int {
	n := 0
	for _, v := range src {
		if !r.TryPush(v) {
			break
		}
		n++
	}
	return n
}

// TryPopBulk pops into dst until the ring is empty or dst is full,
// returning the count actually popped.
func (r *Ring[T]) TryPopBulk(dst []T) int {
	n := 0
	for i := range dst {
		v, ok := r.TryPop()
		if !ok {
			break
		}
		dst[i] = v
		n++
	}
	return n
}

// Clear destroys every live element in FIFO order and resets tail to
// head, leaving the ring empty.
func (r *Ring[T]) Clear() {
	tail := r.loadTail()
	head := r.loadHead()
	var zero T
	for i := tail; i != head; i++ {
		r.storage[i&r.mask] = zero
	}
	atomic.StoreUint64(&r.tail.V, head)
}

// MoveFrom adopts src's backing slice and cursors wholesale — a
// pointer/length/cap swap, not a per-element copy, since T here is only
// known to be movable, not trivially copyable — and leaves src empty
// (head = tail = 0). Copying a Ring by value instead is a bug that
// `go vet` will flag via the embedded noCopy sentinel.
func (r *Ring[T]) MoveFrom(src *Ring[T]) {
	r.mask = src.mask
	r.capacity = src.capacity
	r.policy = src.policy
	r.storage = src.storage
	atomic.StoreUint64(&r.head.V, atomic.LoadUint64(&src.head.V))
	atomic.StoreUint64(&r.tail.V, atomic.LoadUint64(&src.tail.V))

	src.storage = nil
	src.mask = 0
	src.capacity = 0
	atomic.StoreUint64(&src.head.V, 0)
	atomic.StoreUint64(&src.tail.V, 0)
}
