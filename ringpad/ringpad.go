// Package ringpad provides the false-sharing padding primitive shared by
// the ring cursors in this module: ring.Ring and trivialring.Ring hold
// their head and tail in padded Cells so that producer- and
// consumer-owned words never share a cache line. pipeline.Stage's
// counters are not padded.
package ringpad

import "github.com/templexxx/cpu"

// Line is sized to the platform's false-sharing range rather than a
// hardcoded 64 bytes, so padding stays correct on CPUs with larger
// coherency granules (some server parts prefetch adjacent lines).
type Line [cpu.X86FalseSharingRange]byte

// Cell wraps a uint64 counter with trailing padding so that two adjacent
// Cells never land on the same cache line. The counter itself is placed
// first so callers can take its address for atomic ops without an
// intermediate accessor.
type Cell struct {
	V uint64
	_ Line
}
