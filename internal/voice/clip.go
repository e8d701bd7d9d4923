package voice

import (
	"math"
	"time"
)

const (
	// FrameSize is the number of samples in one Opus frame (20ms).
	FrameSize = 480
	// SampleRate is the sample rate of decoded voice audio.
	SampleRate = 24000
	// TickRate is the number of demo ticks per second.
	TickRate = 200.0 / 3.0
	// FrameTicks is the duration of one frame in ticks.
	FrameTicks = float64(FrameSize) / SampleRate * TickRate
)

// EncodedFrame is an Opus frame as received, kept for archival.
type EncodedFrame struct {
	Frame uint16
	Data  []byte
}

// Clip is a contiguous run of frames from one speaker. StartTick is fixed
// when the clip opens; samples are only ever appended.
type Clip struct {
	StartTick uint32
	Samples   []float32
	Packets   []EncodedFrame
}

// NewClip opens an empty clip at tick.
func NewClip(tick uint32) *Clip {
	return &Clip{StartTick: tick}
}

// Frames returns the number of frames held by the clip.
func (c *Clip) Frames() int {
	return len(c.Samples) / FrameSize
}

// Duration returns the audio duration of the clip.
func (c *Clip) Duration() time.Duration {
	return time.Duration(len(c.Samples)) * time.Second / SampleRate
}

// EndTickFloat returns the tick at which the clip's audio ends.
func (c *Clip) EndTickFloat() float64 {
	return float64(c.StartTick) + float64(len(c.Samples))/SampleRate*TickRate
}

// EndTick returns EndTickFloat rounded up.
func (c *Clip) EndTick() uint32 {
	return uint32(math.Ceil(c.EndTickFloat()))
}
