package voice

import (
	"fmt"
	"hash/crc32"

	"github.com/glizzus/demovoice/internal/bitstream"
)

// PacketKind is the payload type byte following the sample rate.
type PacketKind uint8

const (
	PacketSilence PacketKind = 0x00
	PacketOpus    PacketKind = 0x06
)

func (k PacketKind) String() string {
	switch k {
	case PacketSilence:
		return "silence"
	case PacketOpus:
		return "opus"
	default:
		return fmt.Sprintf("unknown(0x%02x)", uint8(k))
	}
}

const (
	checksumBits  = 32
	payloadMarker = 0x0B
	chunkSentinel = -1
)

// Chunk is one Opus frame of an Opus payload.
type Chunk struct {
	Frame uint16
	Data  []byte
}

// Packet is a validated voice payload.
type Packet struct {
	SpeakerID  uint64
	SampleRate uint16
	Kind       PacketKind

	// Chunks holds the frames of an Opus payload in payload order.
	Chunks []Chunk
	// SilenceNanos is the duration carried by a silence payload.
	SilenceNanos uint16
}

// ParsePacket validates and splits a voice payload of the given bit length.
//
// Layout: [body][crc32:32] where the checksum covers the whole bytes of body
// and body is [speaker:64][0x0B:8][rate:16][kind:8] followed by either
// [regionLen:16][chunks] for Opus or [duration:16] for silence. Each chunk is
// [len:16 signed][frame:16][len bytes]; a length of -1 is a bare sentinel.
//
// A checksum failure returns an *IntegrityError; any layout error after that
// returns a *ProtocolViolation.
func ParsePacket(data []byte, bits int) (*Packet, error) {
	if bits < checksumBits || bits > len(data)*8 {
		return nil, &IntegrityError{Bits: bits}
	}

	r := bitstream.NewReaderBits(data, bits)
	bodyBits := bits - checksumBits
	body, err := r.ReadBitSlice(bodyBits)
	if err != nil {
		return nil, &IntegrityError{Bits: bits}
	}
	checksum, err := r.ReadUint32()
	if err != nil {
		return nil, &IntegrityError{Bits: bits}
	}
	if computed := crc32.ChecksumIEEE(body[:bodyBits/8]); computed != checksum {
		return nil, &IntegrityError{Bits: bits, Checksum: checksum, Computed: computed}
	}

	return parseBody(bitstream.NewReaderBits(body, bodyBits))
}

func parseBody(r *bitstream.Reader) (*Packet, error) {
	var p Packet
	var err error

	violation := func(format string, args ...any) error {
		return &ProtocolViolation{SpeakerID: p.SpeakerID, Reason: fmt.Sprintf(format, args...)}
	}

	if p.SpeakerID, err = r.ReadUint64(); err != nil {
		return nil, violation("truncated speaker id")
	}
	marker, err := r.ReadUint8()
	if err != nil {
		return nil, violation("truncated payload marker")
	}
	if marker != payloadMarker {
		return nil, violation("unexpected payload marker 0x%02x", marker)
	}
	if p.SampleRate, err = r.ReadUint16(); err != nil {
		return nil, violation("truncated sample rate")
	}
	if p.SampleRate != SampleRate {
		return nil, violation("unsupported sample rate %d", p.SampleRate)
	}
	kind, err := r.ReadUint8()
	if err != nil {
		return nil, violation("truncated payload type")
	}
	p.Kind = PacketKind(kind)

	switch p.Kind {
	case PacketOpus:
		regionLen, err := r.ReadUint16()
		if err != nil {
			return nil, violation("truncated opus region length")
		}
		region, err := r.ReadBytes(int(regionLen))
		if err != nil {
			return nil, violation("opus region of %d bytes overruns the payload", regionLen)
		}
		if p.Chunks, err = parseChunks(region); err != nil {
			return nil, violation("%v", err)
		}

	case PacketSilence:
		if p.SilenceNanos, err = r.ReadUint16(); err != nil {
			return nil, violation("truncated silence duration")
		}

	default:
		return nil, violation("unknown payload type %s", p.Kind)
	}

	return &p, nil
}

func parseChunks(region []byte) ([]Chunk, error) {
	r := bitstream.NewReader(region)
	var chunks []Chunk

	for r.BitsLeft() > 0 {
		length, err := r.ReadInt16()
		if err != nil {
			return nil, fmt.Errorf("truncated chunk length at byte %d", r.Position()/8)
		}
		if length == chunkSentinel {
			continue
		}
		if length < 0 {
			return nil, fmt.Errorf("negative chunk length %d", length)
		}

		frame, err := r.ReadUint16()
		if err != nil {
			return nil, fmt.Errorf("truncated frame index at byte %d", r.Position()/8)
		}
		data, err := r.ReadBytes(int(length))
		if err != nil {
			return nil, fmt.Errorf("chunk of %d bytes for frame %d overruns the region", length, frame)
		}
		chunks = append(chunks, Chunk{Frame: frame, Data: data})
	}

	return chunks, nil
}
