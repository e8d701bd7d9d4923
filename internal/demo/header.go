package demo

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

const (
	// HeaderSize is the fixed size of the demo file header.
	HeaderSize = 1072

	headerMagic    = "HL2DEMO\x00"
	headerPathSize = 260
)

// rawHeader mirrors the on-disk layout of the demo header.
// Layout: [Magic:8][DemoProtocol:4][NetworkProtocol:4][Server:260][Nick:260]
// [Map:260][GameDir:260][PlaybackTime:4][Ticks:4][Frames:4][SignonLength:4]
type rawHeader struct {
	Magic           [8]byte
	DemoProtocol    int32
	NetworkProtocol int32
	Server          [headerPathSize]byte
	Nick            [headerPathSize]byte
	Map             [headerPathSize]byte
	GameDir         [headerPathSize]byte
	PlaybackTime    float32
	Ticks           int32
	Frames          int32
	SignonLength    int32
}

// Header describes a recording.
type Header struct {
	DemoProtocol    int32
	NetworkProtocol int32
	Server          string
	Nick            string
	Map             string
	GameDir         string
	PlaybackTime    float32
	Ticks           int32
	Frames          int32
	SignonLength    int32
}

// Duration returns the playback time as a time.Duration.
func (h *Header) Duration() time.Duration {
	return time.Duration(float64(h.PlaybackTime) * float64(time.Second))
}

// String returns the summary printed before processing a recording.
func (h *Header) String() string {
	return fmt.Sprintf("Map: %s\nRecorder: %s\nDuration: %s (%d ticks)",
		h.Map, h.Nick, h.Duration().Round(time.Millisecond), h.Ticks)
}

// ReadHeader reads and validates the demo header.
func ReadHeader(r io.Reader) (*Header, error) {
	var raw rawHeader
	if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
		return nil, fmt.Errorf("failed to read demo header: %w", err)
	}

	if string(raw.Magic[:]) != headerMagic {
		return nil, fmt.Errorf("invalid demo file: bad magic %q", raw.Magic[:])
	}

	return &Header{
		DemoProtocol:    raw.DemoProtocol,
		NetworkProtocol: raw.NetworkProtocol,
		Server:          cString(raw.Server[:]),
		Nick:            cString(raw.Nick[:]),
		Map:             cString(raw.Map[:]),
		GameDir:         cString(raw.GameDir[:]),
		PlaybackTime:    raw.PlaybackTime,
		Ticks:           raw.Ticks,
		Frames:          raw.Frames,
		SignonLength:    raw.SignonLength,
	}, nil
}

// cString extracts a NUL-terminated string from a fixed-size byte array.
func cString(buf []byte) string {
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}
