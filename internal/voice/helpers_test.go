package voice_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"

	"github.com/glizzus/demovoice/internal/demo"
	"github.com/glizzus/demovoice/internal/voice"
)

const (
	speakerA uint64 = 76561198000000001
	speakerB uint64 = 76561198000000002
)

// fakeDecoder fills decoded frames with 0.5 and concealed frames with -0.25.
// The payload "bad" fails and "short" decodes to 100 samples.
type fakeDecoder struct {
	decoded   int
	concealed int
}

func (d *fakeDecoder) Decode(payload []byte, pcm []float32) (int, error) {
	switch string(payload) {
	case "bad":
		return 0, errors.New("corrupted stream")
	case "short":
		for i := range pcm[:100] {
			pcm[i] = 0.5
		}
		d.decoded++
		return 100, nil
	}
	for i := range pcm {
		pcm[i] = 0.5
	}
	d.decoded++
	return len(pcm), nil
}

func (d *fakeDecoder) Conceal(pcm []float32) error {
	for i := range pcm {
		pcm[i] = -0.25
	}
	d.concealed++
	return nil
}

func newFakeDecoder() (voice.Decoder, error) {
	return &fakeDecoder{}, nil
}

type header struct {
	speaker uint64
	marker  byte
	rate    uint16
	kind    byte
}

func validHeader(speaker uint64, kind voice.PacketKind) header {
	return header{speaker: speaker, marker: 0x0B, rate: voice.SampleRate, kind: byte(kind)}
}

func (h header) write(buf *bytes.Buffer) {
	binary.Write(buf, binary.LittleEndian, h.speaker)
	buf.WriteByte(h.marker)
	binary.Write(buf, binary.LittleEndian, h.rate)
	buf.WriteByte(h.kind)
}

// region encodes chunks; a nil Data writes a -1 sentinel instead.
func region(chunks ...voice.Chunk) []byte {
	var buf bytes.Buffer
	for _, c := range chunks {
		if c.Data == nil {
			binary.Write(&buf, binary.LittleEndian, int16(-1))
			continue
		}
		binary.Write(&buf, binary.LittleEndian, int16(len(c.Data)))
		binary.Write(&buf, binary.LittleEndian, c.Frame)
		buf.Write(c.Data)
	}
	return buf.Bytes()
}

func withChecksum(body []byte) []byte {
	return binary.LittleEndian.AppendUint32(body, crc32.ChecksumIEEE(body))
}

func opusBody(h header, reg []byte) []byte {
	var buf bytes.Buffer
	h.write(&buf)
	binary.Write(&buf, binary.LittleEndian, uint16(len(reg)))
	buf.Write(reg)
	return buf.Bytes()
}

func opusPayload(speaker uint64, chunks ...voice.Chunk) []byte {
	return withChecksum(opusBody(validHeader(speaker, voice.PacketOpus), region(chunks...)))
}

func silencePayload(speaker uint64, nanos uint16) []byte {
	var buf bytes.Buffer
	validHeader(speaker, voice.PacketSilence).write(&buf)
	binary.Write(&buf, binary.LittleEndian, nanos)
	return withChecksum(buf.Bytes())
}

func frames(indices ...uint16) []voice.Chunk {
	chunks := make([]voice.Chunk, 0, len(indices))
	for _, i := range indices {
		chunks = append(chunks, voice.Chunk{Frame: i, Data: []byte{0xF8, byte(i)}})
	}
	return chunks
}

func voiceMessage(payload []byte) *demo.VoiceDataMessage {
	return &demo.VoiceDataMessage{Client: 1, Bits: len(payload) * 8, Data: payload}
}
