package pipeline_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/latticeflow/spscring/adapters/loopback"
	"github.com/latticeflow/spscring/pipeline"
)

// singleStageHarness builds one Stage moving byte-sized elements from an
// external producer (driven directly via the upstream Link) into an
// external consumer (drained directly via the downstream Link),
// matching a pipeline with an unmanaged source and sink.
type singleStageHarness struct {
	stage      *pipeline.Stage
	up, down   *pipeline.Link
	src, dst   []byte
}

func newSingleStageHarness(capacity int) *singleStageHarness {
	src := make([]byte, capacity)
	dst := make([]byte, capacity)
	up := &pipeline.Link{Forward: loopback.NewMetadata(), Backward: loopback.NewMetadata()}
	down := &pipeline.Link{Forward: loopback.NewMetadata(), Backward: loopback.NewMetadata()}
	data := loopback.NewData(1, src, dst)
	stage := pipeline.NewStage("t", uint32(capacity), uint32(capacity), data, up, down)
	return &singleStageHarness{stage: stage, up: up, down: down, src: src, dst: dst}
}

func TestStageForwardsAvailableRun(t *testing.T) {
	h := newSingleStageHarness(8)
	copy(h.src, []byte{1, 2, 3, 4})
	require.NoError(t, h.up.Forward.Publish(context.Background(), 4))

	require.NoError(t, h.stage.Transfer(context.Background()))

	dstTail, err := h.down.Forward.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint32(4), dstTail)
	require.Equal(t, []byte{1, 2, 3, 4}, h.dst[:4])
}

func TestStageTracksTicksAndBytesTransferred(t *testing.T) {
	h := newSingleStageHarness(8)
	copy(h.src, []byte{1, 2, 3, 4})
	require.NoError(t, h.up.Forward.Publish(context.Background(), 4))

	require.NoError(t, h.stage.Transfer(context.Background()))

	require.Equal(t, uint64(1), h.stage.Ticks())
	require.Equal(t, uint64(0), h.stage.Failures())
	require.Equal(t, uint64(4), h.stage.BytesTransferred())
}

func TestStageNoOpWhenNothingPublished(t *testing.T) {
	h := newSingleStageHarness(8)
	require.NoError(t, h.stage.Transfer(context.Background()))

	dstTail, err := h.down.Forward.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint32(0), dstTail)
}

func TestStagePublishesConsumedHeadUpstream(t *testing.T) {
	h := newSingleStageHarness(8)
	copy(h.src, []byte{9, 8, 7})
	require.NoError(t, h.up.Forward.Publish(context.Background(), 3))
	require.NoError(t, h.stage.Transfer(context.Background()))
	// Transfer runs forward and backward concurrently, so the head forward
	// advances in one tick is only guaranteed to reach upstream on the
	// next tick's backward pass.
	require.NoError(t, h.stage.Transfer(context.Background()))

	srcHead, err := h.up.Backward.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint32(3), srcHead)
}

func TestTwoStagePipelineProgress(t *testing.T) {
	const capacity = 8
	srcA := make([]byte, capacity)
	dstA := make([]byte, capacity)
	dstB := make([]byte, capacity)

	extUp := &pipeline.Link{Forward: loopback.NewMetadata(), Backward: loopback.NewMetadata()}
	mid := &pipeline.Link{Forward: loopback.NewMetadata(), Backward: loopback.NewMetadata()}
	extDown := &pipeline.Link{Forward: loopback.NewMetadata(), Backward: loopback.NewMetadata()}

	stageA := pipeline.NewStage("a", capacity, capacity, loopback.NewData(1, srcA, dstA), extUp, mid)
	stageB := pipeline.NewStage("b", capacity, capacity, loopback.NewData(1, dstA, dstB), mid, extDown)

	line := pipeline.New()
	line.Push(stageA)
	line.Push(stageB)

	copy(srcA, []byte{1, 2, 3, 4, 5})
	require.NoError(t, extUp.Forward.Publish(context.Background(), 5))

	require.NoError(t, line.Progress(context.Background()))
	require.NoError(t, line.Progress(context.Background()))

	finalTail, err := extDown.Forward.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint32(5), finalTail)
	require.Equal(t, []byte{1, 2, 3, 4, 5}, dstB[:5])
}
