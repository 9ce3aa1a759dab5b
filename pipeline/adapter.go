// Package pipeline implements the segmented pipeline abstraction: a chain
// of stages, each forwarding data across an abstract transport and
// shipping head/tail metadata to keep its neighbors' cached windows in
// sync.
//
// The concrete transports (shared memory, RDMA write/read/send/receive)
// are external collaborators — this package only defines the Adapter
// contract they must satisfy and drives it.
package pipeline

import "context"

// Buffer is a transfer endpoint descriptor. For a LocalBuffer, Data is a
// directly usable slice; for a RemoteBuffer, Data is an opaque local
// descriptor of the remote region (a registration handle, a shared
// memory offset, …), not a dereferenceable pointer.
type Buffer interface {
	SizeBytes() int
	Data() []byte
}

// DataAdapter is the pluggable data-plane transport a Stage forwards
// through. LocalWindow/RemoteWindow resolve a stage's abstract
// [offset, offset+length) counters into transport-specific buffer
// descriptors; Transfer copies min(src.SizeBytes(), dst.SizeBytes())
// bytes of src into the region dst designates.
//
// Transfer must surface failure as a returned error, never a panic or
// process abort: transport failures must be recoverable so the owning
// stage can retry on its next tick.
type DataAdapter interface {
	LocalWindow(offset, length uint32) Buffer
	RemoteWindow(offset, length uint32) Buffer
	Transfer(ctx context.Context, src, dst Buffer) error
}

// MetadataAdapter carries one direction of the 8-byte metadata plane
// between two adjacent stages: Publish ships this stage's counter to the
// peer; Fetch reads the peer's most recently published counter. A single
// MetadataAdapter instance is shared by the two stages on either side of
// a link — one side only ever calls Publish, the other only ever calls
// Fetch, matching the ring's own single-writer/single-reader discipline.
type MetadataAdapter interface {
	Publish(ctx context.Context, counter uint32) error
	Fetch(ctx context.Context) (uint32, error)
}

// Link bundles the two metadata planes that connect one stage to an
// adjacent one: Forward carries the tail counter in the direction data
// flows, Backward carries the head counter in reclaim direction.
type Link struct {
	Forward  MetadataAdapter
	Backward MetadataAdapter
}
