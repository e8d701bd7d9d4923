package opus

import (
	"fmt"

	"github.com/glizzus/demovoice/internal/voice"
	hopus "gopkg.in/hraban/opus.v2"
)

// Decoder is a mono libopus decoder running at voice.SampleRate.
type Decoder struct {
	dec *hopus.Decoder
}

var _ voice.Decoder = (*Decoder)(nil)

// NewDecoder returns a fresh decoder. Each speaker needs its own.
func NewDecoder() (*Decoder, error) {
	dec, err := hopus.NewDecoder(voice.SampleRate, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}
	return &Decoder{dec: dec}, nil
}

// NewVoiceDecoder adapts NewDecoder to voice.Options.
func NewVoiceDecoder() (voice.Decoder, error) {
	return NewDecoder()
}

// Decode decodes payload into pcm. An empty payload is a discontinuous
// transmission frame and is decoded as a concealment frame.
func (d *Decoder) Decode(payload []byte, pcm []float32) (int, error) {
	if len(payload) == 0 {
		if err := d.dec.DecodePLCFloat32(pcm); err != nil {
			return 0, err
		}
		return len(pcm), nil
	}
	return d.dec.DecodeFloat32(payload, pcm)
}

func (d *Decoder) Conceal(pcm []float32) error {
	return d.dec.DecodePLCFloat32(pcm)
}
