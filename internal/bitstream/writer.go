package bitstream

import "math"

// Writer builds an LSB-first bit-packed buffer. It is the inverse of Reader
// and is mostly used to assemble fixtures.
type Writer struct {
	data []byte
	bits int
}

// WriteBits appends the low n bits of v.
func (w *Writer) WriteBits(v uint64, n int) {
	for i := 0; i < n; i++ {
		if w.bits&7 == 0 {
			w.data = append(w.data, 0)
		}
		if v>>i&1 == 1 {
			w.data[w.bits>>3] |= 1 << (w.bits & 7)
		}
		w.bits++
	}
}

func (w *Writer) WriteBool(b bool) {
	if b {
		w.WriteBits(1, 1)
		return
	}
	w.WriteBits(0, 1)
}

func (w *Writer) WriteUint8(v uint8)   { w.WriteBits(uint64(v), 8) }
func (w *Writer) WriteUint16(v uint16) { w.WriteBits(uint64(v), 16) }
func (w *Writer) WriteInt16(v int16)   { w.WriteBits(uint64(uint16(v)), 16) }
func (w *Writer) WriteUint32(v uint32) { w.WriteBits(uint64(v), 32) }
func (w *Writer) WriteInt32(v int32)   { w.WriteBits(uint64(uint32(v)), 32) }
func (w *Writer) WriteUint64(v uint64) { w.WriteBits(v, 64) }

func (w *Writer) WriteFloat32(f float32) {
	w.WriteBits(uint64(math.Float32bits(f)), 32)
}

// WriteVarUint32 appends v as a base-128 varint.
func (w *Writer) WriteVarUint32(v uint32) {
	for v >= 0x80 {
		w.WriteUint8(uint8(v) | 0x80)
		v >>= 7
	}
	w.WriteUint8(uint8(v))
}

func (w *Writer) WriteBytes(b []byte) {
	for _, c := range b {
		w.WriteUint8(c)
	}
}

// WriteBitSlice appends the first n bits of b.
func (w *Writer) WriteBitSlice(b []byte, n int) {
	r := NewReaderBits(b, n)
	for r.BitsLeft() > 0 {
		take := min(r.BitsLeft(), 64)
		v, _ := r.ReadBits(take)
		w.WriteBits(v, take)
	}
}

// WriteString appends s followed by a NUL terminator.
func (w *Writer) WriteString(s string) {
	w.WriteBytes([]byte(s))
	w.WriteUint8(0)
}

// Len returns the number of bits written.
func (w *Writer) Len() int {
	return w.bits
}

// Bytes returns the written buffer; unused bits of the last byte are zero.
func (w *Writer) Bytes() []byte {
	return w.data
}
