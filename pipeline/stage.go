package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/latticeflow/spscring/internal/obslog"
	"github.com/latticeflow/spscring/internal/pendingqueue"
	"github.com/latticeflow/spscring/ringerr"
)

// noCopy marks Stage as move-only for `go vet -copylocks`, matching
// ring.Ring and trivialring.Ring: a Stage's cached counters are only
// ever safe to touch from the goroutines the owning PipeLine drives.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Stage is one segment of a pipeline: a cached view of an upstream
// ring's tail and a downstream ring's head, plus the adapters needed to
// move data from the one to the other and keep both caches fresh.
//
// A Stage never touches ring internals directly — src/dst are opaque to
// it beyond their capacities and the DataAdapter's ability to resolve a
// [offset, offset+length) window into a transferable Buffer. This is
// what lets the same Stage type drive a shared-memory ring pair, an
// RDMA-connected pair, or a loopback pair used only for tests.
type Stage struct {
	_ noCopy

	Name string

	srcCapacity uint32
	dstCapacity uint32

	srcTail atomic.Uint32
	srcHead atomic.Uint32
	dstTail atomic.Uint32
	dstHead atomic.Uint32

	data DataAdapter

	upstream   *Link
	downstream *Link

	ticks            atomic.Uint64
	failures         atomic.Uint64
	bytesTransferred atomic.Uint64

	logger log.Logger
}

// StageOption configures a Stage at construction.
type StageOption func(*Stage)

// WithStageLogger attaches a logger a Stage will report transfer
// failures through.
func WithStageLogger(l log.Logger) StageOption {
	return func(s *Stage) { s.logger = l }
}

// NewStage builds a pipeline segment moving data from a source ring of
// srcCapacity slots to a destination ring of dstCapacity slots across
// data. upstream is the Link shared with the previous stage, or with an
// external producer that publishes through it directly; downstream is
// the Link shared with the next stage, or with an external consumer. A
// nil downstream disables forward entirely, and a nil upstream leaves
// the cached source tail at zero, so a stage missing either Link moves
// no data.
func NewStage(name string, srcCapacity, dstCapacity uint32, data DataAdapter, upstream, downstream *Link, opts ...StageOption) *Stage {
	s := &Stage{
		Name:        name,
		srcCapacity: srcCapacity,
		dstCapacity: dstCapacity,
		data:        data,
		upstream:    upstream,
		downstream:  downstream,
		logger:      obslog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ticks returns the number of times Transfer has run.
func (s *Stage) Ticks() uint64 { return s.ticks.Load() }

// Failures returns the number of Transfer calls that returned an error.
func (s *Stage) Failures() uint64 { return s.failures.Load() }

// BytesTransferred returns the cumulative size of every buffer forward
// has successfully handed to the data adapter's Transfer.
func (s *Stage) BytesTransferred() uint64 { return s.bytesTransferred.Load() }

// Transfer runs one tick of this stage's forward and backward planes
// concurrently and waits for both.
func (s *Stage) Transfer(ctx context.Context) error {
	s.ticks.Add(1)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.forward(gctx) })
	g.Go(func() error { return s.backward(gctx) })
	if err := g.Wait(); err != nil {
		s.failures.Add(1)
		return err
	}
	return nil
}

// forward refreshes cached tail/head from neighbors when the local source
// view looks empty (src_tail == src_head), issues up to pendingqueue.MaxOutstanding
// concurrent data transfers over the currently available contiguous
// run, and — only once every transfer in that batch has succeeded —
// advances src_head/dst_tail and ships the new dst_tail downstream.
//
// No partial commit is ever published: if any transfer in the batch
// fails, the stage's pre-issue counters are left untouched so the next
// tick reattempts from the same starting point.
func (s *Stage) forward(ctx context.Context) error {
	if s.downstream == nil {
		return nil
	}

	srcTail := s.srcTail.Load()
	srcHead := s.srcHead.Load()
	if srcTail == srcHead {
		if s.upstream != nil {
			v, err := s.upstream.Forward.Fetch(ctx)
			if err != nil {
				return ringerr.WrapTransfer(err, "stage "+s.Name+": fetch upstream tail")
			}
			s.srcTail.Store(v)
			srcTail = v
		}
		v, err := s.downstream.Backward.Fetch(ctx)
		if err != nil {
			return ringerr.WrapTransfer(err, "stage "+s.Name+": fetch downstream head")
		}
		s.dstHead.Store(v)
		if srcTail == srcHead {
			return nil
		}
	}

	dstTail := s.dstTail.Load()
	dstHead := s.dstHead.Load()

	type issued struct {
		before    pendingqueue.Update
		sizeBytes int
	}
	var batch []issued
	var batchMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	cur := srcHead
	dcur := dstTail
	for i := 0; i < pendingqueue.MaxOutstanding; i++ {
		srcAvail := srcTail - cur
		if srcAvail == 0 {
			break
		}
		srcRun := min32(srcAvail, s.srcCapacity-(cur%s.srcCapacity))
		dstAvail := s.dstCapacity - (dcur - dstHead)
		if dstAvail == 0 {
			break
		}
		dstRun := min32(dstAvail, s.dstCapacity-(dcur%s.dstCapacity))
		n := min32(srcRun, dstRun)
		if n == 0 {
			break
		}

		srcOff, dstOff, length := cur, dcur, n
		item := issued{before: pendingqueue.Update{
			BeforeSrcTail: cur,
			BeforeDstTail: dcur,
			AfterSrcTail:  cur + n,
			AfterDstTail:  dcur + n,
		}}
		batch = append(batch, item)
		idx := len(batch) - 1
		g.Go(func() error {
			src := s.data.LocalWindow(srcOff, length)
			dst := s.data.RemoteWindow(dstOff, length)
			batchMu.Lock()
			batch[idx].sizeBytes = src.SizeBytes()
			batchMu.Unlock()
			return s.data.Transfer(gctx, src, dst)
		})
		cur += n
		dcur += n
	}

	if len(batch) == 0 {
		return nil
	}

	if err := g.Wait(); err != nil {
		level.Warn(s.logger).Log("stage", s.Name, "event", "transfer_failed", "err", err)
		return ringerr.WrapTransfer(err, "stage "+s.Name+": batch transfer")
	}

	var transferred uint64
	var pending pendingqueue.Queue
	for _, it := range batch {
		pending.Push(it.before)
		transferred += uint64(it.sizeBytes)
	}
	s.bytesTransferred.Add(transferred)
	ready := pending.DrainContiguous(srcHead)
	if len(ready) == 0 {
		return nil
	}
	last := ready[len(ready)-1]
	s.srcHead.Store(last.AfterSrcTail)
	s.dstTail.Store(last.AfterDstTail)

	if err := s.downstream.Forward.Publish(ctx, last.AfterDstTail); err != nil {
		return ringerr.WrapTransfer(err, "stage "+s.Name+": publish downstream tail")
	}
	return nil
}

// backward mirrors forward on the metadata-only plane: it refreshes
// dst_head from the next stage and republishes this stage's src_head to
// the previous one, letting the upstream ring reclaim slots this stage
// has already consumed.
func (s *Stage) backward(ctx context.Context) error {
	if s.upstream == nil {
		return nil
	}
	if s.downstream != nil {
		v, err := s.downstream.Backward.Fetch(ctx)
		if err != nil {
			return ringerr.WrapTransfer(err, "stage "+s.Name+": fetch downstream head")
		}
		s.dstHead.Store(v)
	}
	if err := s.upstream.Backward.Publish(ctx, s.srcHead.Load()); err != nil {
		return ringerr.WrapTransfer(err, "stage "+s.Name+": publish upstream head")
	}
	return nil
}

func min32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

var errStageNotLinked = errors.New("pipeline: stage not attached to a PipeLine")
