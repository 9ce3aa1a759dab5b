// ════════════════════════════════════════════════════════════════════
// ringflow-demo — Pipeline Capacity Probe
// ────────────────────────────────────────────────────────────────────
// Component: Demo Entry Point & Pipeline Orchestration
//
// Description:
//   Builds a two-stage loopback pipeline, feeds it a burst of synthetic
//   elements, and drives PipeLine.Progress until every element has
//   drained through to the final sink or a deadline expires. Exists to
//   exercise the ring, pipeline, and scheduler packages end to end
//   outside of unit tests — a runnable capacity probe, not a production
//   entry point.
//
// Architecture:
//   - Phase 1: Build rings and wire a two-stage loopback pipeline
//   - Phase 2: Publish a synthetic burst and drive progress to drain
//   - Phase 3: Report throughput and shut down cleanly on signal
// ════════════════════════════════════════════════════════════════════

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/latticeflow/spscring/adapters/loopback"
	"github.com/latticeflow/spscring/internal/obslog"
	"github.com/latticeflow/spscring/internal/scheduler"
	"github.com/latticeflow/spscring/pipeline"
)

func main() {
	capacity := flag.Int("capacity", 1024, "ring capacity per stage")
	elements := flag.Int("elements", 4096, "number of synthetic elements to push through the pipeline")
	timeout := flag.Duration("timeout", 5*time.Second, "give up draining after this long")
	flag.Parse()

	logger := obslog.NewStderr("ringflow-demo")

	// PHASE 1: build rings and wire a two-stage pipeline over loopback
	// adapters standing in for a real transport.
	srcA := make([]byte, *capacity)
	dstA := make([]byte, *capacity)
	dstB := make([]byte, *capacity)

	extUp := &pipeline.Link{Forward: loopback.NewMetadata(), Backward: loopback.NewMetadata()}
	mid := &pipeline.Link{Forward: loopback.NewMetadata(), Backward: loopback.NewMetadata()}
	extDown := &pipeline.Link{Forward: loopback.NewMetadata(), Backward: loopback.NewMetadata()}

	stageA := pipeline.NewStage("intake", uint32(*capacity), uint32(*capacity),
		loopback.NewData(1, srcA, dstA), extUp, mid, pipeline.WithStageLogger(logger))
	stageB := pipeline.NewStage("relay", uint32(*capacity), uint32(*capacity),
		loopback.NewData(1, dstA, dstB), mid, extDown, pipeline.WithStageLogger(logger))

	line := pipeline.New(pipeline.WithLogger(logger))
	line.Push(stageA)
	line.Push(stageB)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	setupSignalHandling(cancel)

	// PHASE 2: publish a synthetic burst as if it were already sitting in
	// an external producer's ring, then drive progress until it drains.
	published := 0
	for published < *elements {
		n := *elements - published
		if n > len(srcA) {
			n = len(srcA)
		}
		for i := 0; i < n; i++ {
			srcA[i] = byte(published + i)
		}
		if err := extUp.Forward.Publish(ctx, uint32(published+n)); err != nil {
			fmt.Fprintln(os.Stderr, "publish:", err)
			os.Exit(1)
		}
		published += n
	}

	sched := scheduler.New(200 * time.Millisecond)
	started := time.Now()
	drained := uint32(0)
	for drained < uint32(*elements) {
		select {
		case <-ctx.Done():
			fmt.Fprintf(os.Stderr, "timed out after draining %d/%d elements\n", drained, *elements)
			os.Exit(1)
		default:
		}

		if err := line.Progress(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "progress:", err)
			os.Exit(1)
		}

		tail, err := extDown.Forward.Fetch(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, "fetch:", err)
			os.Exit(1)
		}
		if tail != drained {
			drained = tail
			sched.SignalProgress()
			// Act as the final sink: acknowledge everything received so
			// the relay stage can reuse its destination slots.
			if err := extDown.Backward.Publish(ctx, tail); err != nil {
				fmt.Fprintln(os.Stderr, "ack:", err)
				os.Exit(1)
			}
		}
		sched.Backoff(time.Microsecond)
	}

	// PHASE 3: report and exit.
	elapsed := time.Since(started)
	fmt.Printf("drained %d elements through 2 stages in %s (%.0f elements/sec)\n",
		drained, elapsed, float64(drained)/elapsed.Seconds())
}

func setupSignalHandling(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()
}
