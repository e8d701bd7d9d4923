package voice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/glizzus/demovoice/internal/sink"
)

// MergedName is the file name of a speaker's merged track.
func MergedName(stem string, speakerID uint64) string {
	return fmt.Sprintf("%s_%d.wav", stem, speakerID)
}

// ClipName is the file name of a single clip. ext includes the dot.
func ClipName(stem string, startTick, endTick uint32, speakerID uint64, ext string) string {
	return fmt.Sprintf("%s_%d-%d_%d%s", stem, startTick, endTick, speakerID, ext)
}

// ArchiveFunc writes the original Opus frames of a clip to w.
type ArchiveFunc func(w io.Writer, frames []EncodedFrame) error

// WriterOptions configures a Writer.
type WriterOptions struct {
	Sink sink.Sink
	// Stem prefixes every file name, usually the demo file name without its
	// extension.
	Stem string
	// Split writes one file per clip instead of one per speaker.
	Split bool
	// Archive, when set, also stores each clip's Opus frames as an .ogg file.
	Archive ArchiveFunc
	Logger  *slog.Logger
}

// Writer turns sessions into WAV files.
type Writer struct {
	sink    sink.Sink
	stem    string
	split   bool
	archive ArchiveFunc
	logger  *slog.Logger
}

func NewWriter(opts WriterOptions) *Writer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		sink:    opts.Sink,
		stem:    opts.Stem,
		split:   opts.Split,
		archive: opts.Archive,
		logger:  logger,
	}
}

// WriteAll writes every session in order and returns the names written.
func (w *Writer) WriteAll(ctx context.Context, sessions []*Session) ([]string, error) {
	var names []string
	for _, s := range sessions {
		written, err := w.WriteSession(ctx, s)
		names = append(names, written...)
		if err != nil {
			return names, err
		}
	}
	return names, nil
}

// WriteSession writes the files of one speaker and returns their names.
func (w *Writer) WriteSession(ctx context.Context, s *Session) ([]string, error) {
	var names []string

	if w.split {
		for _, span := range SplitClips(s.Clips()) {
			if len(span.Samples) == 0 {
				w.logger.Info("Skipping empty clip",
					slog.Uint64("speaker", s.SpeakerID),
					slog.Uint64("startTick", uint64(span.StartTick)),
				)
				continue
			}
			name := ClipName(w.stem, span.StartTick, span.EndTick, s.SpeakerID, ".wav")
			if err := w.putWAV(ctx, name, span.Samples); err != nil {
				return names, err
			}
			names = append(names, name)
		}
	} else {
		name := MergedName(w.stem, s.SpeakerID)
		if err := w.putWAV(ctx, name, Synthesize(s.Clips())); err != nil {
			return names, err
		}
		names = append(names, name)
	}

	if w.archive == nil {
		return names, nil
	}
	for _, clip := range s.Clips() {
		if len(clip.Packets) == 0 {
			continue
		}
		name := ClipName(w.stem, clip.StartTick, clip.EndTick(), s.SpeakerID, ".ogg")
		var buf bytes.Buffer
		if err := w.archive(&buf, clip.Packets); err != nil {
			return names, fmt.Errorf("failed to archive %s: %w", name, err)
		}
		if err := w.sink.Put(ctx, name, buf.Bytes(), sink.ContentTypeOgg); err != nil {
			return names, err
		}
		names = append(names, name)
	}

	return names, nil
}

func (w *Writer) putWAV(ctx context.Context, name string, samples []float32) error {
	data, err := sink.EncodeWAV(samples, SampleRate)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	return w.sink.Put(ctx, name, data, sink.ContentTypeWAV)
}
