package voice

import "math"

// TrailingPad is the number of silent samples appended to a merged track.
const TrailingPad = SampleRate

// Span is a clip placed on the tick timeline.
type Span struct {
	StartTick uint32
	EndTick   uint32
	Samples   []float32
}

// Synthesize merges clips into one track. Each clip is preceded by enough
// silence to place it at its start tick relative to the end of the previous
// clip; overlapping clips are appended back to back. The track always ends
// with one second of silence.
func Synthesize(clips []*Clip) []float32 {
	size := TrailingPad
	for _, c := range clips {
		size += len(c.Samples)
	}
	track := make([]float32, 0, size)

	var tick float64
	for _, c := range clips {
		gap := math.Round((float64(c.StartTick) - tick) / TickRate * SampleRate)
		if gap > 0 {
			track = append(track, make([]float32, int(gap))...)
		}
		track = append(track, c.Samples...)
		tick = c.EndTickFloat()
	}

	return append(track, make([]float32, TrailingPad)...)
}

// SplitClips returns one span per clip, in clip order.
func SplitClips(clips []*Clip) []Span {
	spans := make([]Span, 0, len(clips))
	for _, c := range clips {
		spans = append(spans, Span{
			StartTick: c.StartTick,
			EndTick:   c.EndTick(),
			Samples:   c.Samples,
		})
	}
	return spans
}
