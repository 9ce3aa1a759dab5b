// Correctness suite for the generic SPSC ring: power-of-two sizing, FIFO
// ordering, per-policy overflow behavior, and concurrent producer/consumer
// handoff.
package ring

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoundsCapacityUpToPowerOfTwo(t *testing.T) {
	cases := []struct{ requested, want int }{
		{0, 1}, {1, 1}, {2, 2}, {3, 4}, {5, 8}, {1024, 1024}, {1025, 2048},
	}
	for _, c := range cases {
		r, err := New[int](c.requested, Block)
		require.NoError(t, err)
		assert.Equal(t, c.want, r.Capacity())
	}
}

func TestNewBlockRingStartsEmpty(t *testing.T) {
	r, err := New[int32](1024, Block)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, r.Capacity(), 1024)
	assert.True(t, r.Empty())
	assert.Equal(t, 0, r.Size())
}

func TestDropPolicyRejectsPushesPastCapacity(t *testing.T) {
	r, err := New[int32](4, Drop)
	require.NoError(t, err)

	for _, v := range []int32{1, 2, 3, 4} {
		require.True(t, r.TryPush(v))
	}
	assert.False(t, r.TryPush(5))
	assert.Equal(t, uint64(1), r.DropCount())

	var got []int32
	for i := 0; i < 4; i++ {
		v, ok := r.TryPop()
		require.True(t, ok)
		got = append(got, v)
	}
	assert.Equal(t, []int32{1, 2, 3, 4}, got)
	assert.True(t, r.Empty())
}

func TestOverwritePolicyEvictsOldestOnFull(t *testing.T) {
	r, err := New[int32](2, Overwrite)
	require.NoError(t, err)

	require.True(t, r.TryPush(1))
	require.True(t, r.TryPush(2))
	require.True(t, r.TryPush(3)) // evicts 1

	assert.Equal(t, 2, r.Size())
	assert.Equal(t, uint64(1), r.OverwriteCount())

	a, ok := r.TryPop()
	require.True(t, ok)
	b, ok := r.TryPop()
	require.True(t, ok)
	assert.Equal(t, []int32{2, 3}, []int32{a, b})
}

func TestPopEmptyReturnsFalse(t *testing.T) {
	r, err := New[int](8, Drop)
	require.NoError(t, err)
	_, ok := r.TryPop()
	assert.False(t, ok)
}

func TestTryPeekDoesNotConsume(t *testing.T) {
	r, err := New[int](4, Drop)
	require.NoError(t, err)
	require.True(t, r.TryPush(42))

	p, ok := r.TryPeek()
	require.True(t, ok)
	assert.Equal(t, 42, *p)
	assert.Equal(t, 1, r.Size(), "peek must not consume")

	v, ok := r.TryPop()
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestBulkPushPop(t *testing.T) {
	r, err := New[int](16, Block)
	require.NoError(t, err)

	n := r.TryPushBulk([]int{1, 2, 3, 4, 5})
	assert.Equal(t, 5, n)

	dst := make([]int, 3)
	got := r.TryPopBulk(dst)
	assert.Equal(t, 3, got)
	assert.Equal(t, []int{1, 2, 3}, dst)
	assert.Equal(t, 2, r.Size())
}

func TestClearDestroysLiveElements(t *testing.T) {
	r, err := New[*int](4, Drop)
	require.NoError(t, err)
	one, two := 1, 2
	require.True(t, r.TryPush(&one))
	require.True(t, r.TryPush(&two))

	r.Clear()
	assert.True(t, r.Empty())
	assert.Equal(t, 0, r.Size())
}

func TestWrapAroundPreservesFIFO(t *testing.T) {
	r, err := New[int](4, Block)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.True(t, r.TryPush(i))
	}
	for i := 0; i < 2; i++ {
		_, ok := r.TryPop()
		require.True(t, ok)
	}
	// One element is live; the next three pushes fill the ring and carry
	// head past the storage boundary.
	for i := 3; i < 6; i++ {
		require.True(t, r.TryPush(i))
	}

	var got []int
	for {
		v, ok := r.TryPop()
		if !ok {
			break
		}
		got = append(got, v)
	}
	assert.Equal(t, []int{2, 3, 4, 5}, got)
}

func TestMoveFromEmptiesSource(t *testing.T) {
	src, err := New[int](8, Drop)
	require.NoError(t, err)
	require.True(t, src.TryPush(7))

	var dst Ring[int]
	dst.MoveFrom(src)

	assert.Equal(t, 1, dst.Size())
	assert.Equal(t, 0, src.Size())
	assert.Equal(t, 0, src.Capacity())
}

func TestConcurrentProducerConsumer(t *testing.T) {
	const n = 10_000
	r, err := New[int](1024, Block)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			r.TryPush(i)
		}
	}()

	received := make([]int, 0, n)
	go func() {
		defer wg.Done()
		for len(received) < n {
			if v, ok := r.TryPop(); ok {
				received = append(received, v)
			}
		}
	}()

	wg.Wait()
	require.Len(t, received, n)
	for i, v := range received {
		require.Equal(t, i, v)
	}
	assert.True(t, r.Empty())
}
