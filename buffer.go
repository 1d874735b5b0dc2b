package x64

import (
	"encoding/binary"
)

// buffer is a growable, append-only byte sink. Existing bytes are only ever
// rewritten by patchInt32/patchUint64 during relocation, never by the
// emitters themselves.
type buffer struct {
	b []byte
	i int
}

func newBuffer(capacity int) *buffer {
	if capacity < 64 {
		capacity = 64
	}
	return &buffer{b: make([]byte, capacity)}
}

// extend grows the backing array so that at least length more bytes can be
// appended without reallocating again, doubling capacity each time (or
// growing to fit length directly, whichever is larger).
func (b *buffer) extend(length int) {
	if len(b.b)-b.i >= length {
		return
	}
	newCap := len(b.b) * 2
	if min := b.i + length; newCap < min {
		newCap = min
	}
	bb := make([]byte, newCap)
	copy(bb, b.b[:b.i])
	b.b = bb
}

func (b *buffer) Len() int    { return b.i }
func (b *buffer) Get() []byte { return b.b[:b.i] }

func (b *buffer) Byte(v byte) {
	b.extend(1)
	b.b[b.i] = v
	b.i++
}

func (b *buffer) Bytes(v ...byte) {
	b.extend(len(v))
	copy(b.b[b.i:], v)
	b.i += len(v)
}

func (b *buffer) Uint16(v uint16) {
	b.extend(2)
	binary.LittleEndian.PutUint16(b.b[b.i:], v)
	b.i += 2
}

func (b *buffer) Uint32(v uint32) {
	b.extend(4)
	binary.LittleEndian.PutUint32(b.b[b.i:], v)
	b.i += 4
}

func (b *buffer) Uint64(v uint64) {
	b.extend(8)
	binary.LittleEndian.PutUint64(b.b[b.i:], v)
	b.i += 8
}

// patchInt32 overwrites the four bytes at offset with a little-endian signed
// 32-bit value. offset must already be within the written portion of the
// buffer (it always is: relocations only ever target placeholder bytes an
// emitter has already appended).
func patchInt32(dst []byte, offset int, v int32) {
	binary.LittleEndian.PutUint32(dst[offset:], uint32(v))
}

// patchUint64 overwrites the eight bytes at offset with a little-endian
// unsigned 64-bit value.
func patchUint64(dst []byte, offset int, v uint64) {
	binary.LittleEndian.PutUint64(dst[offset:], v)
}
