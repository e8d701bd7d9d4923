package demo

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Command identifies the kind of a demo frame.
type Command uint8

const (
	CommandSignon       Command = 1
	CommandPacket       Command = 2
	CommandSyncTick     Command = 3
	CommandConsoleCmd   Command = 4
	CommandUserCmd      Command = 5
	CommandDataTables   Command = 6
	CommandStop         Command = 7
	CommandStringTables Command = 8
)

func (c Command) String() string {
	switch c {
	case CommandSignon:
		return "Signon"
	case CommandPacket:
		return "Packet"
	case CommandSyncTick:
		return "SyncTick"
	case CommandConsoleCmd:
		return "ConsoleCmd"
	case CommandUserCmd:
		return "UserCmd"
	case CommandDataTables:
		return "DataTables"
	case CommandStop:
		return "Stop"
	case CommandStringTables:
		return "StringTables"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(c))
	}
}

const (
	// cmdInfoSize is the size of the view/origin block preceding packet data.
	cmdInfoSize = 76
	// sequenceInfoSize covers the incoming and outgoing sequence numbers.
	sequenceInfoSize = 8
	// maxFrameLength guards against allocating absurd buffers on corrupt input.
	maxFrameLength = 1 << 26
)

// Frame is one top-level entry of the demo stream.
type Frame struct {
	Command Command
	Tick    uint32

	// Messages holds the decoded network messages of Signon and Packet frames.
	Messages []Message
	// Text holds the command line of ConsoleCmd frames.
	Text string
	// Data holds the raw payload of UserCmd, DataTables and StringTables
	// frames, and of Signon and Packet frames when messages are skipped.
	Data []byte
}

// Reader yields the frames of a demo in file order, which is tick order.
type Reader struct {
	// SkipMessages leaves the Messages of Signon and Packet frames empty and
	// stores their raw payload in Data instead.
	SkipMessages bool

	r      *bufio.Reader
	header *Header
	done   bool
}

// NewReader reads the demo header from r and returns a Reader positioned at
// the first frame.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	header, err := ReadHeader(br)
	if err != nil {
		return nil, err
	}
	return &Reader{r: br, header: header}, nil
}

// File is a Reader backed by an open demo file.
type File struct {
	*Reader
	f *os.File
}

// Open opens the demo at path and reads its header.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open demo %s: %w", path, err)
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read demo %s: %w", path, err)
	}
	return &File{Reader: r, f: f}, nil
}

func (f *File) Close() error {
	return f.f.Close()
}

// Header returns the parsed demo header.
func (r *Reader) Header() *Header {
	return r.header
}

// Next returns the next frame. It returns io.EOF after the Stop frame or at
// the end of the input.
func (r *Reader) Next() (*Frame, error) {
	if r.done {
		return nil, io.EOF
	}

	cmd, err := r.r.ReadByte()
	if err != nil {
		r.done = true
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read frame command: %w", err)
	}

	frame := &Frame{Command: Command(cmd)}

	var tick int32
	if err := binary.Read(r.r, binary.LittleEndian, &tick); err != nil {
		if frame.Command == CommandStop {
			// Some recorders truncate the file right after the stop command.
			r.done = true
			return frame, nil
		}
		return nil, fmt.Errorf("failed to read %s frame tick: %w", frame.Command, err)
	}
	frame.Tick = uint32(tick)

	switch frame.Command {
	case CommandSignon, CommandPacket:
		if _, err := r.r.Discard(cmdInfoSize + sequenceInfoSize); err != nil {
			return nil, fmt.Errorf("failed to skip %s frame header: %w", frame.Command, err)
		}
		data, err := r.readChunk()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s frame at tick %d: %w", frame.Command, frame.Tick, err)
		}
		if r.SkipMessages {
			frame.Data = data
			break
		}
		frame.Messages, err = ParseMessages(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s frame at tick %d: %w", frame.Command, frame.Tick, err)
		}

	case CommandSyncTick:

	case CommandConsoleCmd:
		data, err := r.readChunk()
		if err != nil {
			return nil, fmt.Errorf("failed to read console command at tick %d: %w", frame.Tick, err)
		}
		frame.Text = strings.TrimRight(string(data), "\x00")

	case CommandUserCmd:
		if _, err := r.r.Discard(4); err != nil {
			return nil, fmt.Errorf("failed to skip user command sequence: %w", err)
		}
		fallthrough

	case CommandDataTables, CommandStringTables:
		data, err := r.readChunk()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s frame at tick %d: %w", frame.Command, frame.Tick, err)
		}
		frame.Data = data

	case CommandStop:
		r.done = true

	default:
		r.done = true
		return nil, fmt.Errorf("unknown demo command %d at tick %d", cmd, frame.Tick)
	}

	return frame, nil
}

// readChunk reads a length-prefixed payload.
func (r *Reader) readChunk() ([]byte, error) {
	var size int32
	if err := binary.Read(r.r, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	if size < 0 || size > maxFrameLength {
		return nil, fmt.Errorf("invalid payload length %d", size)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r.r, data); err != nil {
		return nil, err
	}
	return data, nil
}
