package voice

import (
	"math"
)

// Decoder is a stateful mono Opus decoder running at SampleRate.
type Decoder interface {
	// Decode decodes one packet into pcm and returns the samples written.
	Decode(payload []byte, pcm []float32) (int, error)
	// Conceal fills pcm with a loss-concealment frame.
	Conceal(pcm []float32) error
}

// SessionState is the position of a session in its frame sequence.
type SessionState int

const (
	// AwaitingFirstFrame means no clip has been opened yet.
	AwaitingFirstFrame SessionState = iota
	// InClip means frames are being appended to the last clip.
	InClip
)

func (s SessionState) String() string {
	switch s {
	case AwaitingFirstFrame:
		return "awaiting-first-frame"
	case InClip:
		return "in-clip"
	default:
		return "unknown"
	}
}

// SessionStats counts what happened to a speaker's frames.
type SessionStats struct {
	FramesDecoded   int
	FramesConcealed int
	StaleFrames     int
	SilenceMarkers  int
}

// Session is the decoding state of a single speaker. It owns its decoder, so
// a Session must only be used from one goroutine.
type Session struct {
	SpeakerID uint64

	dec       Decoder
	state     SessionState
	nextFrame int
	clips     []*Clip
	truncated bool
	stats     SessionStats
}

// NewSession returns a session in the AwaitingFirstFrame state.
func NewSession(speakerID uint64, dec Decoder) *Session {
	return &Session{SpeakerID: speakerID, dec: dec}
}

func (s *Session) State() SessionState { return s.state }
func (s *Session) Clips() []*Clip      { return s.clips }
func (s *Session) Stats() SessionStats { return s.stats }

// Truncated reports whether decoding stopped early because of a decode
// failure.
func (s *Session) Truncated() bool { return s.truncated }

// Truncate stops all further decoding for the session. Clips decoded so far
// are kept.
func (s *Session) Truncate() { s.truncated = true }

// AddSilence records a silence marker. Silence does not change the timeline.
func (s *Session) AddSilence() { s.stats.SilenceMarkers++ }

// DecodeChunk appends the frame carried by chunk, which arrived at tick.
//
// Frame 0 opens a new clip at tick. A gap between the expected and the
// received frame index is filled with concealment frames, so a clip always
// holds exactly one frame per index. Frames older than the expected index
// are dropped. A session whose first frame is not frame 0 opens a clip
// back-dated to where frame 0 would have started.
func (s *Session) DecodeChunk(chunk Chunk, tick uint32) error {
	if s.truncated {
		return nil
	}

	switch {
	case chunk.Frame == 0:
		s.openClip(tick)
	case s.state == AwaitingFirstFrame:
		start := math.Round(float64(tick) - float64(chunk.Frame)*FrameTicks)
		s.openClip(uint32(math.Max(start, 0)))
	case int(chunk.Frame) < s.nextFrame:
		s.stats.StaleFrames++
		return nil
	}

	clip := s.clips[len(s.clips)-1]

	for frame := s.nextFrame; frame < int(chunk.Frame); frame++ {
		pcm := make([]float32, FrameSize)
		if err := s.dec.Conceal(pcm); err != nil {
			return &DecodeFailure{SpeakerID: s.SpeakerID, Frame: uint16(frame), Tick: tick, Concealed: true, Err: err}
		}
		clip.Samples = append(clip.Samples, pcm...)
		s.stats.FramesConcealed++
		s.nextFrame = frame + 1
	}

	pcm := make([]float32, FrameSize)
	if _, err := s.dec.Decode(chunk.Data, pcm); err != nil {
		return &DecodeFailure{SpeakerID: s.SpeakerID, Frame: chunk.Frame, Tick: tick, Err: err}
	}
	clip.Samples = append(clip.Samples, pcm...)
	clip.Packets = append(clip.Packets, EncodedFrame{Frame: chunk.Frame, Data: chunk.Data})
	s.stats.FramesDecoded++
	s.nextFrame = int(chunk.Frame) + 1

	return nil
}

func (s *Session) openClip(tick uint32) {
	s.clips = append(s.clips, NewClip(tick))
	s.state = InClip
	s.nextFrame = 0
}
