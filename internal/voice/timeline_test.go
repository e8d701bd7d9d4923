package voice_test

import (
	"math"
	"testing"

	"github.com/glizzus/demovoice/internal/voice"
	"github.com/google/go-cmp/cmp"
)

func clipWith(start uint32, samples int, value float32) *voice.Clip {
	c := voice.NewClip(start)
	c.Samples = make([]float32, samples)
	for i := range c.Samples {
		c.Samples[i] = value
	}
	return c
}

func TestSynthesizeGap(t *testing.T) {
	a := clipWith(0, 24000, 1)
	b := clipWith(200, 4800, 1)

	track := voice.Synthesize([]*voice.Clip{a, b})

	gap := int(math.Round((200 - a.EndTickFloat()) / voice.TickRate * voice.SampleRate))
	if gap != 48000 {
		t.Fatalf("expected a 48000 sample gap, computed %d", gap)
	}
	if got, want := len(track), 24000+gap+4800+voice.TrailingPad; got != want {
		t.Fatalf("expected %d samples, got %d", want, got)
	}
	for i, want := range map[int]float32{
		0:                  1,
		23999:              1,
		24000:              0,
		24000 + gap - 1:    0,
		24000 + gap:        1,
		24000 + gap + 4799: 1,
		24000 + gap + 4800: 0,
		len(track) - 1:     0,
	} {
		if track[i] != want {
			t.Errorf("sample %d: expected %v, got %v", i, want, track[i])
		}
	}
}

func TestSynthesizeOverlapNeverNegative(t *testing.T) {
	a := clipWith(100, 24000, 1)
	b := clipWith(120, 480, 1)

	track := voice.Synthesize([]*voice.Clip{a, b})
	if got, want := len(track), 24000+480+voice.TrailingPad; got != want {
		t.Errorf("expected %d samples, got %d", want, got)
	}
}

func TestSynthesizeLeadingSilence(t *testing.T) {
	// 200 ticks are 3 seconds.
	track := voice.Synthesize([]*voice.Clip{clipWith(200, 480, 1)})
	if got, want := len(track), 3*voice.SampleRate+480+voice.TrailingPad; got != want {
		t.Errorf("expected %d samples, got %d", want, got)
	}
}

func TestSynthesizeEmpty(t *testing.T) {
	track := voice.Synthesize(nil)
	if len(track) != voice.TrailingPad {
		t.Fatalf("expected only the trailing pad, got %d samples", len(track))
	}
	for _, s := range track {
		if s != 0 {
			t.Fatalf("expected silence, got %v", s)
		}
	}
}

func TestSplitClips(t *testing.T) {
	a := clipWith(0, 24000, 1)
	b := clipWith(200, 4800, 1)

	got := voice.SplitClips([]*voice.Clip{a, b})
	want := []voice.Span{
		{StartTick: 0, EndTick: 67, Samples: a.Samples},
		{StartTick: 200, EndTick: 214, Samples: b.Samples},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("spans mismatch (-want +got):\n%s", diff)
	}
}
