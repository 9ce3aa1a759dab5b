// Package views implements the borrowed read/write spans that make
// trivialring.Ring's zero-copy surface possible: a read view borrows the
// filled region, a write view borrows free slots and defers publishing
// until Commit, and dropping an uncommitted write view publishes a
// zero-size commit so no uninitialized slot ever becomes visible after a
// panic between acquisition and commit.
//
// Go has no destructors, so "commit zero on drop" is expressed as
// Close(), which callers invoke via defer — the same shape as
// io.Closer, and the idiomatic Go rendition of an RAII commit guard.
package views

import (
	"github.com/latticeflow/spscring/ringerr"
	"github.com/latticeflow/spscring/segset"
)

// ReadView is an immutable borrowed span over a ring's storage. It is
// valid only until the consumer calls AdvanceRead or TryPop* on the ring
// it was drawn from.
type ReadView[T any] struct {
	data []T
}

// NewReadView wraps a borrowed slice as a ReadView.
func NewReadView[T any](data []T) ReadView[T] { return ReadView[T]{data: data} }

// Len reports how many elements the view covers.
func (v ReadView[T]) Len() int { return len(v.data) }

// Empty reports Len() == 0.
func (v ReadView[T]) Empty() bool { return len(v.data) == 0 }

// At returns the i'th element of the view without bounds checking beyond
// what the Go runtime enforces on the backing slice.
func (v ReadView[T]) At(i int) T { return v.data[i] }

// TryAt is the checked counterpart to At, returning
// ringerr.ErrOutOfRange instead of panicking when i is outside the
// view's bounds.
func (v ReadView[T]) TryAt(i int) (T, error) {
	if i < 0 || i >= len(v.data) {
		var zero T
		return zero, ringerr.Wrap(ringerr.ErrOutOfRange, "views: ReadView index out of range")
	}
	return v.data[i], nil
}

// Slice exposes the borrowed span directly. Callers must not retain it
// past the view's validity window.
func (v ReadView[T]) Slice() []T { return v.data }

// All iterates the view's elements in producer order.
func (v ReadView[T]) All(yield func(int, T) bool) {
	for i, e := range v.data {
		if !yield(i, e) {
			return
		}
	}
}

// noCopy flags accidental copies of move-only write views via `go vet`.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// WriteView is a single contiguous borrowed span of free slots. At most
// one write view (contiguous or non-contiguous) may be outstanding per
// ring at a time, matching the single-producer contract.
type WriteView[T any] struct {
	_ noCopy

	data      []T
	committed bool
	commit    func(n int)
}

// NewWriteView constructs a write view over data; commit is invoked
// exactly once, either by an explicit Commit call or by Close on drop.
func NewWriteView[T any](data []T, commit func(n int)) *WriteView[T] {
	return &WriteView[T]{data: data, commit: commit}
}

// Capacity returns the number of free slots the view covers.
func (v *WriteView[T]) Capacity() int { return len(v.data) }

// Slot returns a pointer to the i'th free slot for in-place writes.
func (v *WriteView[T]) Slot(i int) *T { return &v.data[i] }

// Slice exposes the borrowed span directly for bulk writes.
func (v *WriteView[T]) Slice() []T { return v.data }

// Commit publishes the first n slots as filled. It is idempotent in the
// sense that calling it more than once, or calling it and then letting
// Close run, only ever publishes once — the second attempt is a no-op
// aside from an OutOfRange check on n.
func (v *WriteView[T]) Commit(n int) error {
	if n > len(v.data) {
		return ringerr.Wrap(ringerr.ErrCommitOverflow, "commit(n) exceeds view capacity")
	}
	if v.committed {
		return nil
	}
	v.committed = true
	v.commit(n)
	return nil
}

// Close publishes a zero-size commit if the view was never explicitly
// committed. Callers must `defer view.Close()` immediately after
// acquiring a write view so a panic before Commit cannot expose
// uninitialized slots to the consumer.
func (v *WriteView[T]) Close() {
	if !v.committed {
		v.committed = true
		v.commit(0)
	}
}

// NonContiguousWriteView covers up to two segments (the second exists
// only when the reservation straddles the storage wrap point).
// Iteration and indexing concatenate the segments logically; Commit
// publishes a single head advance across both.
type NonContiguousWriteView[T any] struct {
	_ noCopy

	segments  segset.Pair[[]T]
	total     int
	committed bool
	commit    func(n int)
}

// NewNonContiguousWriteView builds a view from one or two segments.
func NewNonContiguousWriteView[T any](commit func(n int), segs ...[]T) *NonContiguousWriteView[T] {
	v := &NonContiguousWriteView[T]{commit: commit}
	for _, s := range segs {
		if len(s) == 0 {
			continue
		}
		v.segments.PushBack(s)
		v.total += len(s)
	}
	return v
}

// Capacity is the combined length of both segments.
func (v *NonContiguousWriteView[T]) Capacity() int { return v.total }

// Segments exposes the raw ≤2-segment set for direct bulk writes.
func (v *NonContiguousWriteView[T]) Segments() *segset.Pair[[]T] { return &v.segments }

// At returns a pointer to the logical i'th free slot, stepping across
// segments as needed. Panics if i is outside the view's bounds; use
// TryAt for a checked lookup.
func (v *NonContiguousWriteView[T]) At(i int) *T {
	p, err := v.TryAt(i)
	if err != nil {
		panic(err)
	}
	return p
}

// TryAt is the checked counterpart to At, returning
// ringerr.ErrOutOfRange instead of panicking when i is outside the
// view's combined bounds.
func (v *NonContiguousWriteView[T]) TryAt(i int) (*T, error) {
	if i >= 0 {
		for s := 0; s < v.segments.Len(); s++ {
			seg := v.segments.Index(s)
			if i < len(seg) {
				return &seg[i], nil
			}
			i -= len(seg)
		}
	}
	return nil, ringerr.Wrap(ringerr.ErrOutOfRange, "views: NonContiguousWriteView index out of range")
}

// All iterates elements across both segments in logical order.
func (v *NonContiguousWriteView[T]) All(yield func(int, *T) bool) {
	logical := 0
	for s := 0; s < v.segments.Len(); s++ {
		seg := v.segments.Index(s)
		for i := range seg {
			if !yield(logical, &seg[i]) {
				return
			}
			logical++
		}
	}
}

// Commit publishes the first n logical slots (spanning both segments in
// order) as filled.
func (v *NonContiguousWriteView[T]) Commit(n int) error {
	if n > v.total {
		return ringerr.Wrap(ringerr.ErrCommitOverflow, "commit(n) exceeds view capacity")
	}
	if v.committed {
		return nil
	}
	v.committed = true
	v.commit(n)
	return nil
}

// Close publishes a zero-size commit if Commit was never called.
func (v *NonContiguousWriteView[T]) Close() {
	if !v.committed {
		v.committed = true
		v.commit(0)
	}
}
