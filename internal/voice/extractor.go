package voice

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/glizzus/demovoice/internal/demo"
	"github.com/glizzus/demovoice/internal/util"
)

// FrameSource yields demo frames in tick order. *demo.Reader implements it.
type FrameSource interface {
	Header() *demo.Header
	Next() (*demo.Frame, error)
}

var _ FrameSource = (*demo.Reader)(nil)

// Options configures an Extractor.
type Options struct {
	// NewDecoder creates the decoder for a newly seen speaker.
	NewDecoder func() (Decoder, error)
	Policy     Policy
	Logger     *slog.Logger
	// Progress receives a status line, rewritten in place, on every server
	// tick. Nil disables it.
	Progress io.Writer
}

// Stats summarizes a run.
type Stats struct {
	VoicePackets      int
	DroppedPackets    int
	IgnoredPackets    int
	TruncatedSpeakers int
}

// Extractor routes voice payloads to per-speaker sessions. It owns the
// session map and is not safe for concurrent use.
type Extractor struct {
	newDecoder func() (Decoder, error)
	policy     Policy
	logger     *slog.Logger
	progress   io.Writer

	sessions map[uint64]*Session
	stats    Stats
}

// NewExtractor returns an Extractor with no sessions.
func NewExtractor(opts Options) *Extractor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	policy := opts.Policy
	if policy.Protocol == "" {
		policy.Protocol = DefaultPolicy.Protocol
	}
	if policy.Decode == "" {
		policy.Decode = DefaultPolicy.Decode
	}
	return &Extractor{
		newDecoder: opts.NewDecoder,
		policy:     policy,
		logger:     logger,
		progress:   opts.Progress,
		sessions:   make(map[uint64]*Session),
	}
}

// Run consumes every frame of src.
func (e *Extractor) Run(src FrameSource) error {
	header := src.Header()

	for {
		frame, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read demo: %w", err)
		}
		if frame.Command != demo.CommandPacket && frame.Command != demo.CommandSignon {
			continue
		}

		for _, msg := range frame.Messages {
			switch m := msg.(type) {
			case *demo.NetTickMessage:
				e.reportProgress(frame.Tick, header.Ticks)
			case *demo.VoiceDataMessage:
				if err := e.HandleVoiceData(frame.Tick, m); err != nil {
					return err
				}
			}
		}
	}

	if e.progress != nil {
		fmt.Fprintln(e.progress)
	}
	return nil
}

// HandleVoiceData processes one VoiceData message received at tick. It
// returns an error only when the policy says the run must stop.
func (e *Extractor) HandleVoiceData(tick uint32, msg *demo.VoiceDataMessage) error {
	e.stats.VoicePackets++

	packet, err := ParsePacket(msg.Data, msg.Bits)
	if err != nil {
		if !e.policy.IsRecoverable(err) {
			return fmt.Errorf("voice packet at tick %d: %w", tick, err)
		}
		e.stats.DroppedPackets++
		e.logger.Warn("Dropping voice packet",
			slog.Uint64("tick", uint64(tick)),
			slog.Int("client", int(msg.Client)),
			slog.Any("error", err),
		)
		return nil
	}

	session, err := e.session(packet.SpeakerID)
	if err != nil {
		return err
	}
	if session.Truncated() {
		e.stats.IgnoredPackets++
		return nil
	}

	switch packet.Kind {
	case PacketSilence:
		session.AddSilence()
		e.logger.Debug("Silence",
			slog.Uint64("tick", uint64(tick)),
			slog.Uint64("speaker", packet.SpeakerID),
			slog.Int("durationNanos", int(packet.SilenceNanos)),
		)

	case PacketOpus:
		for _, chunk := range packet.Chunks {
			err := session.DecodeChunk(chunk, tick)
			if err == nil {
				continue
			}
			if !e.policy.IsRecoverable(err) {
				return err
			}
			session.Truncate()
			e.stats.TruncatedSpeakers++
			e.logger.Warn("Stopped decoding speaker",
				slog.Uint64("speaker", packet.SpeakerID),
				slog.Any("error", err),
			)
			break
		}
	}

	return nil
}

func (e *Extractor) session(id uint64) (*Session, error) {
	if s, ok := e.sessions[id]; ok {
		return s, nil
	}
	dec, err := e.newDecoder()
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder for speaker %d: %w", id, err)
	}
	s := NewSession(id, dec)
	e.sessions[id] = s
	e.logger.Debug("New speaker", slog.Uint64("speaker", id))
	return s, nil
}

func (e *Extractor) reportProgress(tick uint32, total int32) {
	if e.progress == nil {
		return
	}
	var pct float64
	if total > 0 {
		pct = float64(tick) * 100 / float64(total)
	}
	fmt.Fprintf(e.progress, "Tick %d, %.2f%%, %d voice packets, %d speakers, %d clips\r",
		tick, pct, e.stats.VoicePackets, len(e.sessions),
		util.SumBy(e.sessions, func(s *Session) int { return len(s.Clips()) }))
}

// Sessions returns every session in ascending speaker id order.
func (e *Extractor) Sessions() []*Session {
	ids := util.SortedKeys(e.sessions)
	sessions := make([]*Session, 0, len(ids))
	for _, id := range ids {
		sessions = append(sessions, e.sessions[id])
	}
	return sessions
}

// Stats returns the counters of the run so far.
func (e *Extractor) Stats() Stats {
	return e.stats
}
