package pipeline

import (
	"context"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/latticeflow/spscring/internal/obslog"
)

// PipeLine owns an ordered chain of Stages and drives them one tick at
// a time. It holds non-owning references only — the Stages and the
// Adapters wiring them together are constructed and owned by the
// caller, mirroring how ring.Ring never owns the storage a caller
// pushes into it.
type PipeLine struct {
	_ noCopy

	stages []*Stage
	logger log.Logger
}

// Option configures a PipeLine at construction.
type Option func(*PipeLine)

// WithLogger attaches a logger PipeLine.Progress reports tick failures
// through.
func WithLogger(l log.Logger) Option {
	return func(p *PipeLine) { p.logger = l }
}

// New builds an empty PipeLine.
func New(opts ...Option) *PipeLine {
	p := &PipeLine{logger: obslog.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Push appends stage to the end of the chain. It does not touch the
// Adapters a stage was constructed with — those already encode the
// stage's actual upstream/downstream wiring.
func (p *PipeLine) Push(stage *Stage) {
	p.stages = append(p.stages, stage)
}

// Stages returns the pipeline's stages in pipeline order. The returned
// slice is owned by the PipeLine; callers must not mutate it.
func (p *PipeLine) Stages() []*Stage { return p.stages }

// Progress runs one Transfer tick across every stage in the pipeline, in
// order. A stage only ever exposes this single "make the next increment
// of progress" primitive — concurrency and resumption policy belong to
// the caller, typically driven through internal/scheduler.
func (p *PipeLine) Progress(ctx context.Context) error {
	for _, s := range p.stages {
		if err := s.Transfer(ctx); err != nil {
			level.Warn(p.logger).Log("stage", s.Name, "event", "tick_failed", "err", err)
			return err
		}
	}
	return nil
}
