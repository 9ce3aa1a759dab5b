package pipeline

import "encoding/binary"

// MetadataWindowSize is the wire width of one metadata-plane window: a
// 4-byte counter followed by 4 reserved bytes, kept distinct from the
// payload so a transport can place it in its own cache line.
const MetadataWindowSize = 8

// EncodeMetadata writes counter into the first 4 bytes of buf and
// zeroes the reserved tail. buf must be at least MetadataWindowSize
// long. Adapter implementations use this to lay out a metadata window
// over whatever transport-specific storage they own (a shared memory
// slot, an RDMA-registered scratch buffer, …).
//
// Byte order is host-native: this plane is meant for two adapters on the
// same machine or the same architecture family, never for wire transport
// between differently-endian peers.
func EncodeMetadata(buf []byte, counter uint32) {
	_ = buf[MetadataWindowSize-1]
	binary.NativeEndian.PutUint32(buf[:4], counter)
	buf[4], buf[5], buf[6], buf[7] = 0, 0, 0, 0
}

// DecodeMetadata reads the counter written by EncodeMetadata.
func DecodeMetadata(buf []byte) uint32 {
	_ = buf[MetadataWindowSize-1]
	return binary.NativeEndian.Uint32(buf[:4])
}
