package demo

import (
	"fmt"

	"github.com/glizzus/demovoice/internal/bitstream"
)

// MessageKind is the 6-bit type tag of a network message.
type MessageKind uint8

const (
	MessageNop                MessageKind = 0
	MessageDisconnect         MessageKind = 1
	MessageFile               MessageKind = 2
	MessageNetTick            MessageKind = 3
	MessageStringCmd          MessageKind = 4
	MessageSetConVar          MessageKind = 5
	MessageSignonState        MessageKind = 6
	MessagePrint              MessageKind = 7
	MessageServerInfo         MessageKind = 8
	MessageSendTable          MessageKind = 9
	MessageClassInfo          MessageKind = 10
	MessageSetPause           MessageKind = 11
	MessageCreateStringTable  MessageKind = 12
	MessageUpdateStringTable  MessageKind = 13
	MessageVoiceInit          MessageKind = 14
	MessageVoiceData          MessageKind = 15
	MessageSounds             MessageKind = 17
	MessageSetView            MessageKind = 18
	MessageFixAngle           MessageKind = 19
	MessageCrosshairAngle     MessageKind = 20
	MessageBSPDecal           MessageKind = 21
	MessageUserMessage        MessageKind = 23
	MessageEntityMessage      MessageKind = 24
	MessageGameEvent          MessageKind = 25
	MessagePacketEntities     MessageKind = 26
	MessageTempEntities       MessageKind = 27
	MessagePrefetch           MessageKind = 28
	MessageMenu               MessageKind = 29
	MessageGameEventList      MessageKind = 30
	MessageGetCvarValue       MessageKind = 31
	MessageCmdKeyValues       MessageKind = 32
)

const (
	messageKindBits       = 6
	maxEdictBits          = 11
	coordIntegerBits      = 14
	coordFractionalBits   = 5
	replayProtocolVersion = 16
)

// Message is a decoded network message.
type Message interface {
	Kind() MessageKind
}

// NetTickMessage carries the server tick the following messages belong to.
type NetTickMessage struct {
	Tick      uint32
	FrameTime uint16
	StdDev    uint16
}

func (*NetTickMessage) Kind() MessageKind { return MessageNetTick }

// VoiceDataMessage carries one voice payload relayed by the server. Data
// holds exactly Bits bits; the last byte may be partially used.
type VoiceDataMessage struct {
	Client    uint8
	Proximity bool
	Bits      int
	Data      []byte
}

func (*VoiceDataMessage) Kind() MessageKind { return MessageVoiceData }

// VoiceInitMessage announces the voice codec used by the server.
type VoiceInitMessage struct {
	Codec      string
	Quality    uint8
	SampleRate uint16
}

func (*VoiceInitMessage) Kind() MessageKind { return MessageVoiceInit }

// TextMessage covers messages whose only payload is a string (Print,
// StringCmd, Disconnect).
type TextMessage struct {
	MessageKind MessageKind
	Text        string
}

func (m *TextMessage) Kind() MessageKind { return m.MessageKind }

// ServerInfoMessage describes the server the demo was recorded on.
type ServerInfoMessage struct {
	Protocol     uint16
	MaxClasses   uint16
	MaxPlayers   uint8
	TickInterval float32
	GameDir      string
	Map          string
	Hostname     string
}

func (*ServerInfoMessage) Kind() MessageKind { return MessageServerInfo }

// OpaqueMessage stands in for any message the reader only skips over.
type OpaqueMessage struct {
	MessageKind MessageKind
	Bits        int
}

func (m *OpaqueMessage) Kind() MessageKind { return m.MessageKind }

func (k MessageKind) String() string {
	if name, ok := messageNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", uint8(k))
}

var messageNames = map[MessageKind]string{
	MessageNop:               "Nop",
	MessageDisconnect:        "Disconnect",
	MessageFile:              "File",
	MessageNetTick:           "NetTick",
	MessageStringCmd:         "StringCmd",
	MessageSetConVar:         "SetConVar",
	MessageSignonState:       "SignonState",
	MessagePrint:             "Print",
	MessageServerInfo:        "ServerInfo",
	MessageSendTable:         "SendTable",
	MessageClassInfo:         "ClassInfo",
	MessageSetPause:          "SetPause",
	MessageCreateStringTable: "CreateStringTable",
	MessageUpdateStringTable: "UpdateStringTable",
	MessageVoiceInit:         "VoiceInit",
	MessageVoiceData:         "VoiceData",
	MessageSounds:            "Sounds",
	MessageSetView:           "SetView",
	MessageFixAngle:          "FixAngle",
	MessageCrosshairAngle:    "CrosshairAngle",
	MessageBSPDecal:          "BSPDecal",
	MessageUserMessage:       "UserMessage",
	MessageEntityMessage:     "EntityMessage",
	MessageGameEvent:         "GameEvent",
	MessagePacketEntities:    "PacketEntities",
	MessageTempEntities:      "TempEntities",
	MessagePrefetch:          "Prefetch",
	MessageMenu:              "Menu",
	MessageGameEventList:     "GameEventList",
	MessageGetCvarValue:      "GetCvarValue",
	MessageCmdKeyValues:      "CmdKeyValues",
}

// ParseMessages decodes the network messages of a Signon or Packet frame.
// Nop messages and trailing padding are dropped.
func ParseMessages(data []byte) ([]Message, error) {
	r := bitstream.NewReader(data)
	var msgs []Message

	for r.BitsLeft() >= messageKindBits {
		k, _ := r.ReadBits(messageKindBits)
		kind := MessageKind(k)
		if kind == MessageNop {
			continue
		}

		start := r.Position()
		msg, err := parseMessage(r, kind)
		if err != nil {
			return msgs, fmt.Errorf("message %s at bit %d: %w", kind, start, err)
		}
		if msg == nil {
			msg = &OpaqueMessage{MessageKind: kind, Bits: r.Position() - start}
		}
		msgs = append(msgs, msg)
	}

	return msgs, nil
}

// parseMessage consumes one message body. It returns a nil Message for
// message kinds that are skipped rather than decoded.
func parseMessage(r *bitstream.Reader, kind MessageKind) (Message, error) {
	switch kind {
	case MessageNetTick:
		var m NetTickMessage
		var err error
		if m.Tick, err = r.ReadUint32(); err != nil {
			return nil, err
		}
		if m.FrameTime, err = r.ReadUint16(); err != nil {
			return nil, err
		}
		if m.StdDev, err = r.ReadUint16(); err != nil {
			return nil, err
		}
		return &m, nil

	case MessageVoiceData:
		return parseVoiceData(r)

	case MessageVoiceInit:
		return parseVoiceInit(r)

	case MessageDisconnect, MessageStringCmd, MessagePrint:
		text, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		return &TextMessage{MessageKind: kind, Text: text}, nil

	case MessageServerInfo:
		return parseServerInfo(r)

	case MessageFile:
		return nil, skipSeq(r, bits(32), str, bits(1))

	case MessageSetConVar:
		count, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		for i := 0; i < int(count); i++ {
			if err := skipSeq(r, str, str); err != nil {
				return nil, err
			}
		}
		return nil, nil

	case MessageSignonState:
		return nil, skipSeq(r, bits(8), bits(32))

	case MessageSendTable:
		return nil, skipSeq(r, bits(1), sized(16))

	case MessageClassInfo:
		return nil, skipClassInfo(r)

	case MessageSetPause:
		return nil, r.Skip(1)

	case MessageCreateStringTable:
		return nil, skipCreateStringTable(r)

	case MessageUpdateStringTable:
		if err := r.Skip(5); err != nil {
			return nil, err
		}
		multiple, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		if multiple {
			if err := r.Skip(16); err != nil {
				return nil, err
			}
		}
		return nil, skipSeq(r, sized(20))

	case MessageSounds:
		reliable, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		if reliable {
			return nil, skipSeq(r, sized(8))
		}
		return nil, skipSeq(r, bits(8), sized(16))

	case MessageSetView:
		return nil, r.Skip(maxEdictBits)

	case MessageFixAngle:
		return nil, r.Skip(1 + 3*16)

	case MessageCrosshairAngle:
		return nil, r.Skip(3 * 16)

	case MessageBSPDecal:
		return nil, skipBSPDecal(r)

	case MessageUserMessage:
		return nil, skipSeq(r, bits(8), sized(11))

	case MessageEntityMessage:
		return nil, skipSeq(r, bits(maxEdictBits), bits(9), sized(11))

	case MessageGameEvent:
		return nil, skipSeq(r, sized(11))

	case MessagePacketEntities:
		if err := r.Skip(maxEdictBits); err != nil {
			return nil, err
		}
		delta, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		if delta {
			if err := r.Skip(32); err != nil {
				return nil, err
			}
		}
		if err := r.Skip(1 + maxEdictBits); err != nil {
			return nil, err
		}
		length, err := r.ReadBits(20)
		if err != nil {
			return nil, err
		}
		if err := r.Skip(1); err != nil {
			return nil, err
		}
		return nil, r.Skip(int(length))

	case MessageTempEntities:
		if err := r.Skip(8); err != nil {
			return nil, err
		}
		length, err := r.ReadVarUint32()
		if err != nil {
			return nil, err
		}
		return nil, r.Skip(int(length))

	case MessagePrefetch:
		return nil, r.Skip(14)

	case MessageMenu:
		if err := r.Skip(16); err != nil {
			return nil, err
		}
		length, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		return nil, r.Skip(int(length) * 8)

	case MessageGameEventList:
		return nil, skipSeq(r, bits(9), sized(20))

	case MessageGetCvarValue:
		return nil, skipSeq(r, bits(32), str)

	case MessageCmdKeyValues:
		length, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		return nil, r.Skip(int(length) * 8)

	default:
		return nil, fmt.Errorf("unsupported message kind %d", uint8(kind))
	}
}

func parseVoiceData(r *bitstream.Reader) (Message, error) {
	var m VoiceDataMessage
	var err error
	if m.Client, err = r.ReadUint8(); err != nil {
		return nil, err
	}
	proximity, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	m.Proximity = proximity != 0

	length, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	m.Bits = int(length)
	if m.Data, err = r.ReadBitSlice(m.Bits); err != nil {
		return nil, err
	}
	return &m, nil
}

func parseVoiceInit(r *bitstream.Reader) (Message, error) {
	var m VoiceInitMessage
	var err error
	if m.Codec, err = r.ReadString(); err != nil {
		return nil, err
	}
	if m.Quality, err = r.ReadUint8(); err != nil {
		return nil, err
	}
	switch {
	case m.Quality == 255:
		if m.SampleRate, err = r.ReadUint16(); err != nil {
			return nil, err
		}
	case m.Codec == "vaudio_celt":
		m.SampleRate = 22050
	default:
		m.SampleRate = 11025
	}
	return &m, nil
}

func parseServerInfo(r *bitstream.Reader) (Message, error) {
	var m ServerInfoMessage
	var err error
	if m.Protocol, err = r.ReadUint16(); err != nil {
		return nil, err
	}
	// server count, stv flag, dedicated flag, client crc
	if err := r.Skip(32 + 1 + 1 + 32); err != nil {
		return nil, err
	}
	if m.MaxClasses, err = r.ReadUint16(); err != nil {
		return nil, err
	}
	// map md5, player slot
	if err := r.Skip(16*8 + 8); err != nil {
		return nil, err
	}
	if m.MaxPlayers, err = r.ReadUint8(); err != nil {
		return nil, err
	}
	if m.TickInterval, err = r.ReadFloat32(); err != nil {
		return nil, err
	}
	// platform
	if err := r.Skip(8); err != nil {
		return nil, err
	}
	if m.GameDir, err = r.ReadString(); err != nil {
		return nil, err
	}
	if m.Map, err = r.ReadString(); err != nil {
		return nil, err
	}
	if _, err = r.ReadString(); err != nil { // skybox
		return nil, err
	}
	if m.Hostname, err = r.ReadString(); err != nil {
		return nil, err
	}
	if m.Protocol >= replayProtocolVersion {
		if err := r.Skip(1); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

func skipClassInfo(r *bitstream.Reader) error {
	count, err := r.ReadUint16()
	if err != nil {
		return err
	}
	createOnClient, err := r.ReadBool()
	if err != nil {
		return err
	}
	if createOnClient {
		return nil
	}
	idBits := log2(int(count)) + 1
	for i := 0; i < int(count); i++ {
		if err := skipSeq(r, bits(idBits), str, str); err != nil {
			return err
		}
	}
	return nil
}

func skipCreateStringTable(r *bitstream.Reader) error {
	if _, err := r.ReadString(); err != nil {
		return err
	}
	maxEntries, err := r.ReadUint16()
	if err != nil {
		return err
	}
	if err := r.Skip(log2(int(maxEntries)) + 1); err != nil {
		return err
	}
	length, err := r.ReadVarUint32()
	if err != nil {
		return err
	}
	fixedSize, err := r.ReadBool()
	if err != nil {
		return err
	}
	if fixedSize {
		if err := r.Skip(12 + 4); err != nil {
			return err
		}
	}
	// compressed flag
	if err := r.Skip(1); err != nil {
		return err
	}
	return r.Skip(int(length))
}

func skipBSPDecal(r *bitstream.Reader) error {
	var present [3]bool
	for i := range present {
		b, err := r.ReadBool()
		if err != nil {
			return err
		}
		present[i] = b
	}
	for _, p := range present {
		if !p {
			continue
		}
		if err := skipCoord(r); err != nil {
			return err
		}
	}
	if err := r.Skip(9); err != nil {
		return err
	}
	hasEntity, err := r.ReadBool()
	if err != nil {
		return err
	}
	if hasEntity {
		if err := r.Skip(maxEdictBits * 2); err != nil {
			return err
		}
	}
	return r.Skip(1)
}

func skipCoord(r *bitstream.Reader) error {
	hasInt, err := r.ReadBool()
	if err != nil {
		return err
	}
	hasFrac, err := r.ReadBool()
	if err != nil {
		return err
	}
	if !hasInt && !hasFrac {
		return nil
	}
	n := 1
	if hasInt {
		n += coordIntegerBits
	}
	if hasFrac {
		n += coordFractionalBits
	}
	return r.Skip(n)
}

// field consumes one element of a message layout.
type field func(r *bitstream.Reader) error

// bits skips a fixed-width field.
func bits(n int) field {
	return func(r *bitstream.Reader) error { return r.Skip(n) }
}

// sized reads an n-bit length and skips that many bits of payload.
func sized(n int) field {
	return func(r *bitstream.Reader) error {
		length, err := r.ReadBits(n)
		if err != nil {
			return err
		}
		return r.Skip(int(length))
	}
}

func str(r *bitstream.Reader) error {
	_, err := r.ReadString()
	return err
}

func skipSeq(r *bitstream.Reader, fields ...field) error {
	for _, f := range fields {
		if err := f(r); err != nil {
			return err
		}
	}
	return nil
}

// log2 returns floor(log2(n)) for n > 0 and 0 otherwise.
func log2(n int) int {
	l := 0
	for n > 1 {
		n >>= 1
		l++
	}
	return l
}
