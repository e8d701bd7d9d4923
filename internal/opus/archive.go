package opus

import (
	"errors"
	"fmt"
	"io"

	"github.com/glizzus/demovoice/internal/voice"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3/pkg/media/oggwriter"
)

const (
	// granuleRate is the Ogg/Opus granule clock, fixed at 48 kHz.
	granuleRate = 48000
	// frameGranules is the granule advance of one frame.
	frameGranules = voice.FrameSize * granuleRate / voice.SampleRate
	// archiveSSRC identifies the single stream of an archive.
	archiveSSRC = 1
)

var ErrNoFrames = errors.New("no frames to archive")

// WriteArchive writes frames as an Ogg/Opus stream to w. Frames must be in
// ascending frame order, as stored in a clip.
func WriteArchive(w io.Writer, frames []voice.EncodedFrame) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}

	ogg, err := oggwriter.NewWith(w, voice.SampleRate, 1)
	if err != nil {
		return fmt.Errorf("failed to start ogg stream: %w", err)
	}

	for i, f := range frames {
		packet := &rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				SequenceNumber: uint16(i),
				Timestamp:      uint32(f.Frame) * frameGranules,
				SSRC:           archiveSSRC,
			},
			Payload: f.Data,
		}
		if err := ogg.WriteRTP(packet); err != nil {
			ogg.Close()
			return fmt.Errorf("failed to write frame %d: %w", f.Frame, err)
		}
	}

	return ogg.Close()
}
