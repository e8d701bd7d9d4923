// Package inputs lists the key presses and releases recorded in a demo.
package inputs

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/glizzus/demovoice/internal/demo"
)

// trailingCode matches the button code a bind command ends with.
var trailingCode = regexp.MustCompile(` (\d+)\s*$`)

// FrameSource yields demo frames in tick order.
type FrameSource interface {
	Header() *demo.Header
	Next() (*demo.Frame, error)
}

// Input is a +command or -command issued by a key bind.
type Input struct {
	Tick    uint32
	Command string
	Key     string
}

// Pressed reports whether the input is a press rather than a release.
func (i Input) Pressed() bool {
	return strings.HasPrefix(i.Command, "+")
}

func (i Input) String() string {
	return fmt.Sprintf("%d: %-20s -> %s%s", i.Tick, i.Command, i.Command[:1], i.Key)
}

// Parse returns the input carried by a console command. Commands that are not
// bound to a known button are ignored.
func Parse(tick uint32, command string) (Input, bool) {
	if !strings.HasPrefix(command, "+") && !strings.HasPrefix(command, "-") {
		return Input{}, false
	}
	m := trailingCode.FindStringSubmatch(command)
	if m == nil {
		return Input{}, false
	}
	code, err := strconv.Atoi(m[1])
	if err != nil {
		return Input{}, false
	}
	key, ok := ButtonName(code)
	if !ok {
		return Input{}, false
	}
	return Input{Tick: tick, Command: command, Key: key}, true
}

// Extract returns every input of the demo in tick order.
func Extract(src FrameSource) ([]Input, error) {
	var inputs []Input
	for {
		frame, err := src.Next()
		if errors.Is(err, io.EOF) {
			return inputs, nil
		}
		if err != nil {
			return nil, err
		}
		if frame.Command != demo.CommandConsoleCmd {
			continue
		}
		if in, ok := Parse(frame.Tick, frame.Text); ok {
			inputs = append(inputs, in)
		}
	}
}

// Dump writes the demo summary followed by one line per input.
func Dump(w io.Writer, src FrameSource) error {
	inputs, err := Extract(src)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(src.Header().String())
	b.WriteString("\n\nInputs:\n")
	for _, in := range inputs {
		b.WriteString(in.String())
		b.WriteByte('\n')
	}
	_, err = io.WriteString(w, b.String())
	return err
}

// DefaultOutput returns the file an input dump of demoPath is written to when
// no output file is given.
func DefaultOutput(demoPath string) string {
	return "inputs-" + filepath.Base(demoPath) + ".txt"
}
