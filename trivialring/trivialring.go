// Package trivialring specializes the SPSC ring for trivially-copyable
// element types: no per-slot destruction is needed, so Clear and TryPop
// can skip zeroing, and bulk transfer can move whole wrap-aware runs with
// a single copy() (Go's memmove-backed slice copy) per contiguous
// segment instead of an element-at-a-time loop. It additionally exposes
// the zero-copy borrowed views from the views package and a
// reserve/advance escape hatch for callers that want to fill slots
// in-place without a view's Close-on-drop bookkeeping.
//
// This is adapted from the teacher's ring24/ring32/ring56 family, which
// hardcode one fixed-size byte-array payload per ring width. Since Go
// generics let a single implementation serve any trivially-copyable T,
// this package keeps their sequence-number-free head/tail handoff and
// cache-line isolation but drops the payload-width duplication.
package trivialring

import (
	"fmt"
	"math/bits"
	"runtime"
	"sync/atomic"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/latticeflow/spscring/ring"
	"github.com/latticeflow/spscring/ringerr"
	"github.com/latticeflow/spscring/ringpad"
	"github.com/latticeflow/spscring/segset"
	"github.com/latticeflow/spscring/views"
)

// Policy re-exports ring.Policy so callers of this package don't need to
// import ring separately for the overflow discipline.
type Policy = ring.Policy

const (
	Block     = ring.Block
	Drop      = ring.Drop
	Overwrite = ring.Overwrite
)

type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Ring is the trivially-copyable specialization of the SPSC ring buffer.
// Callers are trusted to only instantiate it over types that are
// trivially copyable and contain no pointers requiring GC bookkeeping on
// removal — Go cannot check this at compile time, so it is a documented
// contract rather than a type constraint.
type Ring[T any] struct {
	_ noCopy

	head ringpad.Cell
	tail ringpad.Cell

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

func nextPow2(n int) uint64 {
	if n <= 1 {
		return 1
	}
	return uint64(1) << bits.Len(uint(n-1))
}

// New allocates a Ring of at least the requested capacity, rounded up to
// a power of two.
func New[T any](capacity int, policy Policy, opts ...Option[T]) (r *Ring[T], err error) {
	c := nextPow2(capacity)

	defer func() {
		if rec := recover(); rec != nil {
			r = nil
			err = ringerr.Wrap(ringerr.ErrAllocationFailure, fmt.Sprintf("trivialring.New(%d): %v", capacity, rec))
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
	level.Debug(r.logger).Log("component", "trivialring", "msg", "constructed", "capacity", c, "policy", policy)
	return r, nil
}

func (r *Ring[T]) loadHead() uint64 { return atomic.LoadUint64(&r.head.V) }
func (r *Ring[T]) loadTail() uint64 { return atomic.LoadUint64(&r.tail.V) }

func (r *Ring[T]) Size() int      { return int(r.loadHead() - r.loadTail()) }
func (r *Ring[T]) Empty() bool    { return r.loadHead() == r.loadTail() }
func (r *Ring[T]) Full() bool     { return r.loadHead()-r.loadTail() == r.capacity }
func (r *Ring[T]) Available() int { return int(r.capacity) - r.Size() }
func (r *Ring[T]) Capacity() int  { return int(r.capacity) }
func (r *Ring[T]) Policy() Policy { return r.policy }

// DropCount returns the number of pushes rejected under Drop policy.
func (r *Ring[T]) DropCount() uint64 { return atomic.LoadUint64(&r.drops) }

// OverwriteCount returns the number of elements evicted under Overwrite
// policy.
func (r *Ring[T]) OverwriteCount() uint64 { return atomic.LoadUint64(&r.overwrites) }

// TryPush stores v under the configured overflow policy.
func (r *Ring[T]) TryPush(v T) bool {
	return r.TryEmplace(func(slot *T) { *slot = v })
}

// TryEmplace constructs an element in place via build rather than copying
// a pre-built value, matching ring.Ring's build-into-slot equivalent of a
// forwarding constructor.
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
				atomic.StoreUint64(&r.tail.V, tail+1)
				continue
			default:
				runtime.Gosched()
				continue
			}
		}
		build(&r.storage[head&r.mask])
		atomic.StoreUint64(&r.head.V, head+1)
		return true
	}
}

// TryPop removes and returns the oldest element. No slot zeroing occurs
// since T is trivially copyable and carries nothing for the GC to track.
func (r *Ring[T]) TryPop() (v T, ok bool) {
	tail := r.loadTail()
	head := r.loadHead()
	if tail == head {
		return v, false
	}
	v = r.storage[tail&r.mask]
	atomic.StoreUint64(&r.tail.V, tail+1)
	return v, true
}

// TryPeek borrows the oldest element without consuming it.
func (r *Ring[T]) TryPeek() (*T, bool) {
	tail := r.loadTail()
	head := r.loadHead()
	if tail == head {
		return nil, false
	}
	return &r.storage[tail&r.mask], true
}

// contiguousRuns splits [start, start+n) into at most two [lo:hi) slices
// of r.storage, honoring the wrap boundary at capacity.
func (r *Ring[T]) contiguousRuns(start uint64, n uint64) (first, second []T) {
	if n == 0 {
		return nil, nil
	}
	begin := start & r.mask
	tillWrap := r.capacity - begin
	if n <= tillWrap {
		return r.storage[begin : begin+n], nil
	}
	return r.storage[begin:r.capacity], r.storage[0 : n-tillWrap]
}

// TryPushBulk copies as many items from src as fit, decomposing the
// destination run into at most two contiguous byte ranges across the
// wrap and publishing both with a single release store of head.
func (r *Ring[T]) TryPushBulk(src []T) int {
	head := r.loadHead()
	tail := r.loadTail()
	available := r.capacity - (head - tail)
	n := uint64(len(src))
	if n > available {
		n = available
	}
	if n == 0 {
		return 0
	}

	first, second := r.contiguousRuns(head, n)
	copy(first, src[:len(first)])
	if second != nil {
		copy(second, src[len(first):n])
	}
	atomic.StoreUint64(&r.head.V, head+n)
	return int(n)
}

// TryPopBulk copies as many items into dst as are available, publishing
// tail once after both segments have been copied out.
func (r *Ring[T]) TryPopBulk(dst []T) int {
	head := r.loadHead()
	tail := r.loadTail()
	size := head - tail
	n := uint64(len(dst))
	if n > size {
		n = size
	}
	if n == 0 {
		return 0
	}

	first, second := r.contiguousRuns(tail, n)
	copy(dst[:len(first)], first)
	if second != nil {
		copy(dst[len(first):n], second)
	}
	atomic.StoreUint64(&r.tail.V, tail+n)
	return int(n)
}

// Clear resets tail to head without per-element destruction, since T is
// trivially copyable and leaves nothing behind for the GC to track.
func (r *Ring[T]) Clear() {
	head := r.loadHead()
	atomic.StoreUint64(&r.tail.V, head)
}

// ReserveWriteSpace advances head by n immediately and returns a slice
// over the reserved slots for the caller to fill before any consumer
// observes them. It is an unsafe escape hatch: nothing enforces that the
// caller actually fills the slots, and it only succeeds when the
// reservation doesn't straddle the wrap boundary (a single slice can't
// represent two disjoint runs) — callers needing a wrapped reservation
// should use GetNonContiguousWriteView instead.
func (r *Ring[T]) ReserveWriteSpace(n int) ([]T, error) {
	head := r.loadHead()
	tail := r.loadTail()
	available := r.capacity - (head - tail)
	if uint64(n) > available {
		return nil, ringerr.Wrap(ringerr.ErrInsufficientSpace, "reserve_write_space(n) exceeds available")
	}
	begin := head & r.mask
	if uint64(n) > r.capacity-begin {
		return nil, ringerr.Wrap(ringerr.ErrInsufficientSpace, "reservation straddles wrap; use a non-contiguous write view")
	}
	slice := r.storage[begin : begin+uint64(n)]
	atomic.StoreUint64(&r.head.V, head+uint64(n))
	return slice, nil
}

// GetContiguousReadView returns a view over min(max, size, run-to-wrap)
// slots starting at tail.
func (r *Ring[T]) GetContiguousReadView(max int) views.ReadView[T] {
	tail := r.loadTail()
	head := r.loadHead()
	size := head - tail
	begin := tail & r.mask
	n := min3(uint64(clampMax(max)), size, r.capacity-begin)
	return views.NewReadView(r.storage[begin : begin+n])
}

// GetReadViews returns up to two read views covering min(max, size)
// slots, splitting at the wrap. The second view is empty when there is
// no split.
func (r *Ring[T]) GetReadViews(max int) segset.Pair[views.ReadView[T]] {
	tail := r.loadTail()
	head := r.loadHead()
	size := head - tail
	n := size
	if m := uint64(clampMax(max)); m < n {
		n = m
	}

	first, second := r.contiguousRuns(tail, n)
	var out segset.Pair[views.ReadView[T]]
	out.PushBack(views.NewReadView(first))
	if second != nil {
		out.PushBack(views.NewReadView(second))
	} else {
		out.PushBack(views.NewReadView[T](nil))
	}
	return out
}

// AdvanceRead moves tail forward by n, publishing with a release store.
// Fails with an OutOfRange-derived error if n exceeds the current size.
func (r *Ring[T]) AdvanceRead(n int) error {
	tail := r.loadTail()
	head := r.loadHead()
	if uint64(n) > head-tail {
		return ringerr.Wrap(ringerr.ErrAdvanceOverflow, "advance_read(n) exceeds size")
	}
	atomic.StoreUint64(&r.tail.V, tail+uint64(n))
	return nil
}

// GetWriteView returns a single contiguous write view over
// min(max, available, run-to-wrap) free slots starting at head.
// Callers must `defer view.Close()` immediately after acquiring it.
func (r *Ring[T]) GetWriteView(max int) *views.WriteView[T] {
	head := r.loadHead()
	tail := r.loadTail()
	available := r.capacity - (head - tail)
	begin := head & r.mask
	n := min3(uint64(clampMax(max)), available, r.capacity-begin)

	capturedHead := head
	return views.NewWriteView(r.storage[begin:begin+n], func(committed int) {
		atomic.StoreUint64(&r.head.V, capturedHead+uint64(committed))
	})
}

// GetNonContiguousWriteView returns up to two segments summing to
// min(max, available) free slots. Callers must `defer view.Close()`
// immediately after acquiring it.
func (r *Ring[T]) GetNonContiguousWriteView(max int) *views.NonContiguousWriteView[T] {
	head := r.loadHead()
	tail := r.loadTail()
	available := r.capacity - (head - tail)
	n := available
	if m := uint64(clampMax(max)); m < n {
		n = m
	}

	first, second := r.contiguousRuns(head, n)
	capturedHead := head
	return views.NewNonContiguousWriteView(func(committed int) {
		atomic.StoreUint64(&r.head.V, capturedHead+uint64(committed))
	}, first, second)
}

// MoveFrom migrates src's live elements into r via memmove-style bulk
// copy() calls into r's own already-allocated storage, then empties src.
// Unlike ring.Ring.MoveFrom, which adopts the source's backing slice
// wholesale (a pointer/length/cap swap, since a general T may not be safe
// to relocate with a raw byte copy), this specialization copies the live
// [tail, head) run directly into r's storage array in at most two
// contiguous runs across the wrap — cheap here specifically because T is
// trivially copyable. r must already have capacity for src's live
// element count; New must be called on r before MoveFrom.
func (r *Ring[T]) MoveFrom(src *Ring[T]) {
	tail := src.loadTail()
	head := src.loadHead()
	n := head - tail

	if n > r.capacity {
		panic(fmt.Sprintf("trivialring: MoveFrom source has %d live elements, destination capacity is %d", n, r.capacity))
	}

	first, second := src.contiguousRuns(tail, n)
	copy(r.storage[:len(first)], first)
	if second != nil {
		copy(r.storage[len(first):n], second)
	}

	atomic.StoreUint64(&r.head.V, n)
	atomic.StoreUint64(&r.tail.V, 0)

	atomic.StoreUint64(&src.head.V, 0)
	atomic.StoreUint64(&src.tail.V, 0)
}

func clampMax(max int) int {
	if max < 0 {
		return 0
	}
	return max
}

func min3(a, b, c uint64) uint64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
