package demo

import (
	"errors"
	"fmt"
	"io"
)

// Dump writes a line per frame, and an indented line per network message, to
// w. Progress is reported to progress when it is non-nil.
func Dump(r *Reader, w io.Writer, progress io.Writer) error {
	header := r.Header()
	if _, err := fmt.Fprintf(w, "%+v\n\n", *header); err != nil {
		return err
	}

	for {
		frame, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		if progress != nil && frame.Command == CommandPacket && header.Ticks > 0 {
			fmt.Fprintf(progress, "%d/%d (%.0f%%)\r",
				frame.Tick, header.Ticks, float64(frame.Tick)*100/float64(header.Ticks))
		}

		if err := dumpFrame(w, frame); err != nil {
			return err
		}
	}

	if progress != nil {
		fmt.Fprintln(progress)
	}
	return nil
}

func dumpFrame(w io.Writer, frame *Frame) error {
	var err error
	switch frame.Command {
	case CommandSignon, CommandPacket:
		_, err = fmt.Fprintf(w, "%d %s messages=%d\n", frame.Tick, frame.Command, len(frame.Messages))
		for _, msg := range frame.Messages {
			if err != nil {
				break
			}
			_, err = fmt.Fprintf(w, "\t%s %+v\n", msg.Kind(), msg)
		}
	case CommandConsoleCmd:
		_, err = fmt.Fprintf(w, "%d %s %q\n", frame.Tick, frame.Command, frame.Text)
	case CommandDataTables:
		err = dumpDataTables(w, frame)
	default:
		_, err = fmt.Fprintf(w, "%d %s bytes=%d\n", frame.Tick, frame.Command, len(frame.Data))
	}
	return err
}

// dumpDataTables lists every send table, preceded by the server class that
// uses it, with one indented line per property.
func dumpDataTables(w io.Writer, frame *Frame) error {
	if _, err := fmt.Fprintf(w, "%d %s bytes=%d\n", frame.Tick, frame.Command, len(frame.Data)); err != nil {
		return err
	}
	dt, err := ParseDataTables(frame.Data)
	if err != nil {
		return fmt.Errorf("failed to parse data tables at tick %d: %w", frame.Tick, err)
	}
	for _, table := range dt.Tables {
		if class, ok := dt.ClassFor(table.Name); ok {
			if _, err := fmt.Fprintf(w, "%s\n", class.Name); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s\n", table.Name); err != nil {
			return err
		}
		for _, prop := range table.Props {
			if _, err := fmt.Fprintf(w, "    %s: %s\n", prop.Name, prop); err != nil {
				return err
			}
		}
	}
	return nil
}
