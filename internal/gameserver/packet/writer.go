package packet

import (
	"bytes"
	"sync"
)

// Writer provides methods for writing packet data.
// Uses Little-Endian byte order for all multi-byte values.
type Writer struct {
	buf *bytes.Buffer
}

// writerPool reduces allocations by reusing Writers on the broadcast hot path.
var writerPool = sync.Pool{
	New: func() any {
		return &Writer{
			buf: bytes.NewBuffer(make([]byte, 0, 256)),
		}
	},
}

// Get returns a Writer from the pool (already Reset).
func Get() *Writer {
	w := writerPool.Get().(*Writer)
	w.Reset()
	return w
}

// Put returns a Writer to the pool for reuse.
// IMPORTANT: Do not use the Writer (or slices from Bytes) after calling Put.
func (w *Writer) Put() {
	writerPool.Put(w)
}

// WriteByte writes a single byte.
func (w *Writer) WriteByte(b byte) error {
	return w.buf.WriteByte(b)
}

// WriteShort writes a uint16 (2 bytes, LE).
func (w *Writer) WriteShort(val uint16) {
	w.buf.WriteByte(byte(val))
	w.buf.WriteByte(byte(val >> 8))
}

// WriteInt writes a uint32 (4 bytes, LE).
func (w *Writer) WriteInt(val uint32) {
	w.buf.WriteByte(byte(val))
	w.buf.WriteByte(byte(val >> 8))
	w.buf.WriteByte(byte(val >> 16))
	w.buf.WriteByte(byte(val >> 24))
}

// Bytes returns the accumulated packet data.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Copy returns a copy of the accumulated data that survives Put.
func (w *Writer) Copy() []byte {
	return bytes.Clone(w.buf.Bytes())
}

// Len returns the current length of the packet.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Reset clears the buffer for reuse.
func (w *Writer) Reset() {
	w.buf.Reset()
}
