// Package metrics wires ring occupancy and pipeline stage counters into
// Prometheus, the way grafana-loki's cache package wraps a domain object
// with a prometheus.Collector rather than sprinkling counter.Inc() calls
// through the domain code itself.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Occupancy is the minimal view a RingCollector needs from a ring.Ring
// or trivialring.Ring — kept as an interface so one collector type
// serves both without either package importing prometheus.
type Occupancy interface {
	Size() int
	Capacity() int
	Available() int
}

// Counters is an optional extension of Occupancy: rings that track drop
// and overwrite counts (ring.Ring and trivialring.Ring both do) satisfy
// it, and RingCollector emits the corresponding metrics only when the
// wrapped ring supports it — a fixed-window ring or a stub used only in
// tests need not.
type Counters interface {
	DropCount() uint64
	OverwriteCount() uint64
}

// RingCollector is a prometheus.Collector reporting live occupancy for a
// named ring. It holds no counters of its own; every Collect call reads
// straight through to the wrapped ring, so scrape values are always
// current and there is nothing to keep in sync.
type RingCollector struct {
	ring     Occupancy
	counters Counters // nil if ring doesn't implement Counters
	name     string

	size      *prometheus.Desc
	capacity  *prometheus.Desc
	available *prometheus.Desc
	drops     *prometheus.Desc
	overwrite *prometheus.Desc
}

// NewRingCollector builds a RingCollector reporting r's occupancy under
// the given name label. Call prometheus.MustRegister on the result (or
// register it with a custom registry) to start scraping.
func NewRingCollector(name string, r Occupancy) *RingCollector {
	labels := []string{"ring"}
	c := &RingCollector{
		ring: r,
		name: name,
		size: prometheus.NewDesc("spscring_ring_size", "Number of live elements currently queued.", labels, nil),
		capacity: prometheus.NewDesc("spscring_ring_capacity",
			"Ring capacity rounded up to the nearest power of two.", labels, nil),
		available: prometheus.NewDesc("spscring_ring_available", "Free slots remaining before the ring reports full.", labels, nil),
		drops: prometheus.NewDesc("spscring_ring_drops_total",
			"Total pushes rejected under Drop policy.", labels, nil),
		overwrite: prometheus.NewDesc("spscring_ring_overwrites_total",
			"Total elements evicted under Overwrite policy.", labels, nil),
	}
	if counters, ok := r.(Counters); ok {
		c.counters = counters
	}
	return c
}

// Describe implements prometheus.Collector.
func (c *RingCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.size
	ch <- c.capacity
	ch <- c.available
	if c.counters != nil {
		ch <- c.drops
		ch <- c.overwrite
	}
}

// Collect implements prometheus.Collector.
func (c *RingCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.size, prometheus.GaugeValue, float64(c.ring.Size()), c.name)
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(c.ring.Capacity()), c.name)
	ch <- prometheus.MustNewConstMetric(c.available, prometheus.GaugeValue, float64(c.ring.Available()), c.name)
	if c.counters != nil {
		ch <- prometheus.MustNewConstMetric(c.drops, prometheus.CounterValue, float64(c.counters.DropCount()), c.name)
		ch <- prometheus.MustNewConstMetric(c.overwrite, prometheus.CounterValue, float64(c.counters.OverwriteCount()), c.name)
	}
}

// StageStats is the view a StageCollector needs from a pipeline.Stage.
type StageStats interface {
	Ticks() uint64
	Failures() uint64
	BytesTransferred() uint64
}

// StageCollector is a prometheus.Collector reporting live tick, failure,
// and transferred-byte counts for a named pipeline stage. Like
// RingCollector it reads straight through to the wrapped Stage on every
// Collect call rather than requiring the caller to report each outcome
// manually.
type StageCollector struct {
	stage StageStats
	name  string

	ticks            *prometheus.Desc
	failures         *prometheus.Desc
	bytesTransferred *prometheus.Desc
}

// NewStageCollector builds a StageCollector reporting s's counters under
// the given name label. Call prometheus.MustRegister on the result to
// start scraping.
func NewStageCollector(name string, s StageStats) *StageCollector {
	labels := []string{"stage"}
	return &StageCollector{
		stage: s,
		name:  name,
		ticks: prometheus.NewDesc("spscring_stage_ticks_total",
			"Total number of Stage.Transfer calls.", labels, nil),
		failures: prometheus.NewDesc("spscring_stage_transfer_failures_total",
			"Total number of Stage.Transfer calls that returned an error.", labels, nil),
		bytesTransferred: prometheus.NewDesc("spscring_stage_bytes_transferred_total",
			"Total bytes successfully handed to the data adapter's Transfer.", labels, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *StageCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.ticks
	ch <- c.failures
	ch <- c.bytesTransferred
}

// Collect implements prometheus.Collector.
func (c *StageCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.ticks, prometheus.CounterValue, float64(c.stage.Ticks()), c.name)
	ch <- prometheus.MustNewConstMetric(c.failures, prometheus.CounterValue, float64(c.stage.Failures()), c.name)
	ch <- prometheus.MustNewConstMetric(c.bytesTransferred, prometheus.CounterValue, float64(c.stage.BytesTransferred()), c.name)
}

// Instrument registers a RingCollector for r under name against reg and
// returns it, mirroring grafana-loki's cache.Instrument: observability
// is opt-in, wired at construction time by whichever caller wants it,
// rather than built into the ring itself.
func Instrument(name string, r Occupancy, reg prometheus.Registerer) *RingCollector {
	c := NewRingCollector(name, r)
	reg.MustRegister(c)
	return c
}

// InstrumentStage registers a StageCollector for s under name against
// reg and returns it.
func InstrumentStage(name string, s StageStats, reg prometheus.Registerer) *StageCollector {
	c := NewStageCollector(name, s)
	reg.MustRegister(c)
	return c
}
