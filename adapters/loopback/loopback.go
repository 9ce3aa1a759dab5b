// Package loopback provides an in-process pipeline.DataAdapter and
// pipeline.MetadataAdapter pair for tests and the ringflow-demo command.
// It has no analogue as a real transport — it exists to exercise
// pipeline.Stage without a shared-memory segment or an RDMA-capable NIC,
// the same role the teacher's package tests play against an in-memory
// ring instead of a live WebSocket feed.
package loopback

import (
	"context"
	"sync"

	"github.com/latticeflow/spscring/pipeline"
)

// Data is a pipeline.DataAdapter moving bytes between two in-process
// byte slices addressed as flat, non-wrapping regions. Real transports
// (shared memory, RDMA) must additionally handle the ring's wraparound;
// this adapter is deliberately linear since exercising wraparound is
// already covered by trivialring's own tests.
type Data struct {
	elemSize int
	src, dst []byte
}

// NewData builds a Data adapter over caller-owned src/dst byte slices,
// interpreting offsets and lengths passed to LocalWindow/RemoteWindow as
// element counts of elemSize bytes each.
func NewData(elemSize int, src, dst []byte) *Data {
	return &Data{elemSize: elemSize, src: src, dst: dst}
}

type sliceBuffer struct{ b []byte }

func (s sliceBuffer) SizeBytes() int { return len(s.b) }
func (s sliceBuffer) Data() []byte   { return s.b }

func (d *Data) window(buf []byte, offset, length uint32) pipeline.Buffer {
	capacity := uint32(len(buf) / d.elemSize)
	start := (offset % capacity) * uint32(d.elemSize)
	end := start + length*uint32(d.elemSize)
	return sliceBuffer{b: buf[start:end]}
}

// LocalWindow implements pipeline.DataAdapter.
func (d *Data) LocalWindow(offset, length uint32) pipeline.Buffer {
	return d.window(d.src, offset, length)
}

// RemoteWindow implements pipeline.DataAdapter.
func (d *Data) RemoteWindow(offset, length uint32) pipeline.Buffer {
	return d.window(d.dst, offset, length)
}

// Transfer implements pipeline.DataAdapter by copying bytes directly;
// there is no network or DMA engine to await.
func (d *Data) Transfer(ctx context.Context, src, dst pipeline.Buffer) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	n := copy(dst.Data(), src.Data())
	_ = n
	return nil
}

// Metadata is a pipeline.MetadataAdapter backed by a mutex-guarded
// counter, standing in for the 8-byte metadata window a real transport
// would ship; pipeline.EncodeMetadata/DecodeMetadata are what a real
// transport-backed adapter would use to lay that window out over shared
// or registered memory.
type Metadata struct {
	mu      sync.Mutex
	counter uint32
	window  [pipeline.MetadataWindowSize]byte
}

// NewMetadata builds a Metadata adapter initialized to zero.
func NewMetadata() *Metadata { return &Metadata{} }

// Publish implements pipeline.MetadataAdapter.
func (m *Metadata) Publish(ctx context.Context, counter uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	pipeline.EncodeMetadata(m.window[:], counter)
	m.counter = counter
	return nil
}

// Fetch implements pipeline.MetadataAdapter.
func (m *Metadata) Fetch(ctx context.Context) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return pipeline.DecodeMetadata(m.window[:]), nil
}
