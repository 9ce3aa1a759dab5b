// Test suite for the trivial-element ring and its zero-copy borrowed
// views: bulk push/pop round-tripping, wrap-aware view commit, and
// non-copy view drop semantics.
package trivialring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkPushPopRoundTripsPrefix(t *testing.T) {
	r, err := New[int32](16, Block)
	require.NoError(t, err)

	n := r.TryPushBulk([]int32{1, 2, 3, 4, 5})
	assert.Equal(t, 5, n)

	dst := make([]int32, 3)
	got := r.TryPopBulk(dst)
	assert.Equal(t, 3, got)
	assert.Equal(t, []int32{1, 2, 3}, dst)
}

func TestWrapAroundWriteViewSpansBothSegments(t *testing.T) {
	r, err := New[int32](8, Block)
	require.NoError(t, err)

	for i := int32(0); i < 6; i++ {
		require.True(t, r.TryPush(i))
	}
	for i := 0; i < 3; i++ {
		_, ok := r.TryPop()
		require.True(t, ok)
	}

	view := r.GetNonContiguousWriteView(5)
	require.Equal(t, 2, view.Segments().Len(), "reservation must straddle the wrap")
	require.Equal(t, 5, view.Capacity())

	values := []int32{100, 101, 102, 103, 104}
	for i, v := range values {
		*view.At(i) = v
	}
	require.NoError(t, view.Commit(5))
	view.Close()

	assert.Equal(t, 8, r.Size())

	var got []int32
	for {
		v, ok := r.TryPop()
		if !ok {
			break
		}
		got = append(got, v)
	}
	assert.Equal(t, []int32{3, 4, 5, 100, 101, 102, 103, 104}, got)
}

func TestZeroCopyReadViewMatchesPushedBytes(t *testing.T) {
	r, err := New[int32](8, Block)
	require.NoError(t, err)
	require.Equal(t, 5, r.TryPushBulk([]int32{9, 8, 7, 6, 5}))

	view := r.GetContiguousReadView(1000)
	assert.Equal(t, []int32{9, 8, 7, 6, 5}, view.Slice())

	require.NoError(t, r.AdvanceRead(view.Len()))
	assert.True(t, r.Empty())
}

func TestWriteViewDropWithoutCommitLeavesHeadUnchanged(t *testing.T) {
	r, err := New[int32](8, Drop)
	require.NoError(t, err)

	sizeBefore := r.Size()
	func() {
		view := r.GetWriteView(4)
		defer view.Close()
		view.Slice()[0] = 42 // written but never committed
	}()

	assert.Equal(t, sizeBefore, r.Size())
	_, ok := r.TryPeek()
	assert.False(t, ok)
}

func TestWriteViewExplicitCommit(t *testing.T) {
	r, err := New[int32](8, Drop)
	require.NoError(t, err)

	view := r.GetWriteView(4)
	view.Slice()[0] = 1
	view.Slice()[1] = 2
	require.NoError(t, view.Commit(2))
	view.Close() // no-op, already committed

	assert.Equal(t, 2, r.Size())
	v, _ := r.TryPop()
	assert.Equal(t, int32(1), v)
}

func TestAdvanceReadOverflowFails(t *testing.T) {
	r, err := New[int32](8, Drop)
	require.NoError(t, err)
	require.True(t, r.TryPush(1))

	err = r.AdvanceRead(5)
	assert.Error(t, err)
}

func TestReserveWriteSpaceStraddlingWrapFails(t *testing.T) {
	r, err := New[int32](4, Block)
	require.NoError(t, err)
	require.Equal(t, 3, r.TryPushBulk([]int32{1, 2, 3}))
	dst := make([]int32, 2)
	require.Equal(t, 2, r.TryPopBulk(dst))

	_, err = r.ReserveWriteSpace(3)
	assert.Error(t, err)
}

func TestReserveWriteSpaceFillsCaller(t *testing.T) {
	r, err := New[int32](4, Block)
	require.NoError(t, err)

	slots, err := r.ReserveWriteSpace(2)
	require.NoError(t, err)
	slots[0], slots[1] = 10, 20

	dst := make([]int32, 2)
	assert.Equal(t, 2, r.TryPopBulk(dst))
	assert.Equal(t, []int32{10, 20}, dst)
}

func TestTryEmplaceBuildsInPlace(t *testing.T) {
	r, err := New[int32](4, Drop)
	require.NoError(t, err)

	ok := r.TryEmplace(func(slot *int32) { *slot = 7 })
	require.True(t, ok)

	v, ok := r.TryPop()
	require.True(t, ok)
	assert.Equal(t, int32(7), v)
}

func TestDropPolicyCountsRejectedPushes(t *testing.T) {
	r, err := New[int32](2, Drop)
	require.NoError(t, err)
	require.True(t, r.TryPush(1))
	require.True(t, r.TryPush(2))
	assert.False(t, r.TryPush(3))
	assert.Equal(t, uint64(1), r.DropCount())
}

func TestOverwritePolicyCountsEvictions(t *testing.T) {
	r, err := New[int32](2, Overwrite)
	require.NoError(t, err)
	require.True(t, r.TryPush(1))
	require.True(t, r.TryPush(2))
	require.True(t, r.TryPush(3))
	assert.Equal(t, uint64(1), r.OverwriteCount())
}

func TestMoveFromCopiesLiveElementsAndEmptiesSource(t *testing.T) {
	src, err := New[int32](8, Block)
	require.NoError(t, err)
	require.Equal(t, 6, src.TryPushBulk([]int32{1, 2, 3, 4, 5, 6}))
	dst := make([]int32, 2)
	require.Equal(t, 2, src.TryPopBulk(dst)) // advance tail past 0, so the live run starts mid-storage

	dstRing, err := New[int32](8, Block)
	require.NoError(t, err)

	dstRing.MoveFrom(src)

	assert.Equal(t, 4, dstRing.Size())
	assert.Equal(t, 0, src.Size())

	var got []int32
	for {
		v, ok := dstRing.TryPop()
		if !ok {
			break
		}
		got = append(got, v)
	}
	assert.Equal(t, []int32{3, 4, 5, 6}, got)
}

func TestMoveFromPanicsWhenDestinationTooSmall(t *testing.T) {
	src, err := New[int32](8, Block)
	require.NoError(t, err)
	require.Equal(t, 4, src.TryPushBulk([]int32{1, 2, 3, 4}))

	dst, err := New[int32](2, Block)
	require.NoError(t, err)

	assert.Panics(t, func() { dst.MoveFrom(src) })
}
