// Package bitstream reads and writes the LSB-first bit-packed buffers used by
// Source engine network messages and demo frames.
package bitstream

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	bitread "github.com/markus-wa/gobitread"
)

// ErrUnexpectedEnd is returned when a read needs more bits than remain.
var ErrUnexpectedEnd = errors.New("bitstream: read past end of buffer")

// Reader reads bits least-significant first from a byte slice. Bit extraction
// is done by gobitread; Reader bounds every read so that running out of input
// is an error value instead of a panic.
type Reader struct {
	br  *bitread.BitReader
	pos int
	end int
}

// NewReader returns a Reader over every bit of data.
func NewReader(data []byte) *Reader {
	return NewReaderBits(data, len(data)*8)
}

// NewReaderBits returns a Reader over the first bits bits of data.
func NewReaderBits(data []byte, bits int) *Reader {
	if bits > len(data)*8 {
		bits = len(data) * 8
	}
	if bits <= 0 {
		return &Reader{}
	}
	br := new(bitread.BitReader)
	br.Open(bytes.NewReader(data), 32)
	return &Reader{br: br, end: bits}
}

// BitsLeft returns the number of unread bits.
func (r *Reader) BitsLeft() int {
	return r.end - r.pos
}

// Position returns the number of bits consumed so far.
func (r *Reader) Position() int {
	return r.pos
}

func (r *Reader) need(n int) error {
	if n < 0 {
		return fmt.Errorf("bitstream: negative read of %d bits", n)
	}
	if r.end-r.pos < n {
		return fmt.Errorf("%w: need %d bits, have %d", ErrUnexpectedEnd, n, r.end-r.pos)
	}
	return nil
}

// read checks that n bits remain, then runs fn against the underlying reader.
// gobitread panics with io.ErrUnexpectedEOF when its input runs dry; that is
// turned back into ErrUnexpectedEnd.
func (r *Reader) read(n int, fn func(br *bitread.BitReader)) (err error) {
	if err := r.need(n); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	defer func() {
		if p := recover(); p != nil {
			if e, ok := p.(error); ok && (errors.Is(e, io.ErrUnexpectedEOF) || errors.Is(e, io.EOF)) {
				err = fmt.Errorf("%w: %v", ErrUnexpectedEnd, e)
				return
			}
			panic(p)
		}
	}()
	fn(r.br)
	r.pos += n
	return nil
}

// ReadBits reads n (at most 64) bits as an unsigned integer.
func (r *Reader) ReadBits(n int) (uint64, error) {
	if n > 64 {
		return 0, fmt.Errorf("bitstream: cannot read %d bits into a uint64", n)
	}
	var v uint64
	err := r.read(n, func(br *bitread.BitReader) {
		for read := 0; read < n; {
			take := min(n-read, 32)
			v |= uint64(br.ReadInt(take)) << read
			read += take
		}
	})
	return v, err
}

// ReadBool reads a single bit.
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadBits(1)
	return v == 1, err
}

func (r *Reader) ReadUint8() (uint8, error) {
	v, err := r.ReadBits(8)
	return uint8(v), err
}

func (r *Reader) ReadUint16() (uint16, error) {
	v, err := r.ReadBits(16)
	return uint16(v), err
}

func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadBits(16)
	return int16(uint16(v)), err
}

func (r *Reader) ReadUint32() (uint32, error) {
	v, err := r.ReadBits(32)
	return uint32(v), err
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadBits(32)
	return int32(uint32(v)), err
}

func (r *Reader) ReadUint64() (uint64, error) {
	return r.ReadBits(64)
}

func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadBits(32)
	return math.Float32frombits(uint32(v)), err
}

// ReadVarUint32 reads a protobuf-style base-128 varint of at most five bytes.
func (r *Reader) ReadVarUint32() (uint32, error) {
	var result uint32
	for i := 0; i < 5; i++ {
		b, err := r.ReadUint8()
		if err != nil {
			return 0, err
		}
		result |= uint32(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			return result, nil
		}
	}
	return 0, errors.New("bitstream: varint overflows 32 bits")
}

// ReadBytes reads n whole bytes. The read position need not be byte aligned.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("bitstream: negative read of %d bytes", n)
	}
	out := []byte{}
	err := r.read(n*8, func(br *bitread.BitReader) {
		out = br.ReadBytes(n)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReadBitSlice reads n bits into a fresh byte-aligned buffer. The final byte
// holds the trailing n%8 bits in its low bits.
func (r *Reader) ReadBitSlice(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	out, err := r.ReadBytes(n / 8)
	if err != nil {
		return nil, err
	}
	if rem := n % 8; rem > 0 {
		b, err := r.ReadBits(rem)
		if err != nil {
			return nil, err
		}
		out = append(out, byte(b))
	}
	return out, nil
}

// ReadString reads a NUL-terminated string. Reaching the end of the buffer
// before the terminator is an error.
func (r *Reader) ReadString() (string, error) {
	var buf []byte
	for {
		b, err := r.ReadUint8()
		if err != nil {
			return "", err
		}
		if b == 0 {
			return string(buf), nil
		}
		buf = append(buf, b)
	}
}

// Skip advances the read position by n bits.
func (r *Reader) Skip(n int) error {
	return r.read(n, func(br *bitread.BitReader) {
		br.Skip(n)
	})
}
