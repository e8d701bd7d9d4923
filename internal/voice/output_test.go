package voice_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/glizzus/demovoice/internal/datalayer"
	"github.com/glizzus/demovoice/internal/sink"
	"github.com/glizzus/demovoice/internal/voice"
	"github.com/google/go-cmp/cmp"
)

// twoSpeakers returns sessions for speaker A with one clip of 2 frames and
// speaker B with clips of 1 and 4 frames, the latter with one concealed frame.
func twoSpeakers(t *testing.T) []*voice.Session {
	t.Helper()
	a := voice.NewSession(speakerA, &fakeDecoder{})
	decodeAll(t, a, 0, frames(0, 1))

	b := voice.NewSession(speakerB, &fakeDecoder{})
	decodeAll(t, b, 100, frames(0))
	decodeAll(t, b, 300, frames(0, 1, 3))

	return []*voice.Session{a, b}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func readWAV(t *testing.T, path string) []float32 {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	samples, rate, err := sink.DecodeWAV(data)
	if err != nil {
		t.Fatalf("failed to decode %s: %v", path, err)
	}
	if rate != voice.SampleRate {
		t.Errorf("%s: expected sample rate %d, got %d", path, voice.SampleRate, rate)
	}
	return samples
}

func TestWriterMerged(t *testing.T) {
	dir := t.TempDir()
	w := voice.NewWriter(voice.WriterOptions{
		Sink:   &sink.Dir{Path: dir},
		Stem:   "match",
		Logger: quietLogger(),
	})

	sessions := twoSpeakers(t)
	names, err := w.WriteAll(context.Background(), sessions)
	if err != nil {
		t.Fatalf("WriteAll returned error: %v", err)
	}

	want := []string{
		"match_76561198000000001.wav",
		"match_76561198000000002.wav",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	for i, s := range sessions {
		samples := readWAV(t, filepath.Join(dir, want[i]))
		if diff := cmp.Diff(voice.Synthesize(s.Clips()), samples); diff != "" {
			t.Errorf("%s: samples mismatch (-want +got):\n%s", want[i], diff)
		}
	}
}

func TestWriterSplit(t *testing.T) {
	dir := t.TempDir()
	w := voice.NewWriter(voice.WriterOptions{
		Sink:   &sink.Dir{Path: dir},
		Stem:   "match",
		Split:  true,
		Logger: quietLogger(),
	})

	empty := voice.NewSession(3, &fakeDecoder{})
	if err := empty.DecodeChunk(voice.Chunk{Frame: 0, Data: []byte("bad")}, 50); err == nil {
		t.Fatal("expected decode failure")
	}

	names, err := w.WriteAll(context.Background(), append(twoSpeakers(t), empty))
	if err != nil {
		t.Fatalf("WriteAll returned error: %v", err)
	}

	want := []string{
		"match_0-3_76561198000000001.wav",
		"match_100-102_76561198000000002.wav",
		"match_300-306_76561198000000002.wav",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to list %s: %v", dir, err)
	}
	if len(entries) != len(want) {
		t.Errorf("expected %d files, found %d", len(want), len(entries))
	}
	if got := len(readWAV(t, filepath.Join(dir, want[2]))); got != 4*voice.FrameSize {
		t.Errorf("expected %d samples in the concealed clip, got %d", 4*voice.FrameSize, got)
	}
}

func TestWriterArchiveAndUpload(t *testing.T) {
	storage := datalayer.NewMemoryStorage()
	var archived [][]voice.EncodedFrame
	w := voice.NewWriter(voice.WriterOptions{
		Sink: &sink.Blob{Storage: storage, Prefix: "voice/run-1"},
		Stem: "match",
		Archive: func(out io.Writer, frames []voice.EncodedFrame) error {
			archived = append(archived, frames)
			_, err := out.Write([]byte("OggS"))
			return err
		},
		Logger: quietLogger(),
	})

	names, err := w.WriteAll(context.Background(), twoSpeakers(t))
	if err != nil {
		t.Fatalf("WriteAll returned error: %v", err)
	}

	want := []string{
		"match_76561198000000001.wav",
		"match_0-3_76561198000000001.ogg",
		"match_76561198000000002.wav",
		"match_100-102_76561198000000002.ogg",
		"match_300-306_76561198000000002.ogg",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	var keys []string
	for k := range storage.Objects {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	wantKeys := make([]string, 0, len(want))
	for _, n := range want {
		wantKeys = append(wantKeys, "voice/run-1/"+n)
	}
	slices.Sort(wantKeys)
	if diff := cmp.Diff(wantKeys, keys); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}

	if got := storage.Objects["voice/run-1/match_0-3_76561198000000001.ogg"].ContentType; got != sink.ContentTypeOgg {
		t.Errorf("expected content type %s, got %s", sink.ContentTypeOgg, got)
	}
	if len(archived) != 3 || len(archived[2]) != 3 || archived[2][2].Frame != 3 {
		t.Errorf("unexpected archived frames %v", archived)
	}
}

type failingSink struct{}

func (failingSink) Put(context.Context, string, []byte, string) error {
	return errors.New("disk full")
}

func TestWriterSinkFailure(t *testing.T) {
	w := voice.NewWriter(voice.WriterOptions{Sink: failingSink{}, Stem: "match", Logger: quietLogger()})
	if _, err := w.WriteAll(context.Background(), twoSpeakers(t)); err == nil {
		t.Fatal("expected sink error to be returned")
	}
}
