package players_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/glizzus/demovoice/internal/bitstream"
	"github.com/glizzus/demovoice/internal/demo"
	"github.com/glizzus/demovoice/internal/players"
	"github.com/google/go-cmp/cmp"
)

// writeDemo writes a demo whose only content is a userinfo string table with
// the given players, keyed by name with a SteamID value.
func writeDemo(t *testing.T, path string, list players.PlayerMap) {
	t.Helper()
	var buf bytes.Buffer

	header := make([]byte, demo.HeaderSize)
	copy(header, "HL2DEMO\x00")
	copy(header[16+520:], "koth_viaduct")
	buf.Write(header)

	// A packet frame that is skipped without being parsed.
	buf.WriteByte(byte(demo.CommandPacket))
	binary.Write(&buf, binary.LittleEndian, int32(1))
	buf.Write(make([]byte, 76+8))
	binary.Write(&buf, binary.LittleEndian, int32(3))
	buf.Write([]byte{0xFF, 0xFF, 0xFF})

	var w bitstream.Writer
	w.WriteUint8(1)
	w.WriteString("userinfo")
	w.WriteUint16(uint16(len(list)))
	i := 0
	for name, steamID := range list {
		data := make([]byte, 32+4+33)
		copy(data, name)
		binary.LittleEndian.PutUint32(data[32:], uint32(i+2))
		copy(data[36:], steamID)

		w.WriteString(fmt.Sprint(i))
		w.WriteBool(true)
		w.WriteUint16(uint16(len(data)))
		w.WriteBytes(data)
		i++
	}
	w.WriteBool(false)

	buf.WriteByte(byte(demo.CommandStringTables))
	binary.Write(&buf, binary.LittleEndian, int32(2))
	binary.Write(&buf, binary.LittleEndian, int32(len(w.Bytes())))
	buf.Write(w.Bytes())

	buf.WriteByte(byte(demo.CommandStop))
	binary.Write(&buf, binary.LittleEndian, int32(3))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("failed to write demo: %v", err)
	}
}

func TestHarvest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "match.dem")
	want := players.PlayerMap{"Heavy Weapons Guy": "[U:1:22202]", "Medic": "[U:1:33303]"}
	writeDemo(t, path, want)

	got, err := players.Harvest(context.Background(), path)
	if err != nil {
		t.Fatalf("Harvest failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("players mismatch (-want +got):\n%s", diff)
	}
}

func TestCollectIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	const n = 7
	for i := 0; i < n; i++ {
		path := filepath.Join(dir, fmt.Sprintf("demo%d.dem", i))
		if i == 3 {
			if err := os.WriteFile(path, []byte("not a demo"), 0o644); err != nil {
				t.Fatalf("failed to write corrupted demo: %v", err)
			}
			continue
		}
		writeDemo(t, path, players.PlayerMap{fmt.Sprintf("Player %d", i): fmt.Sprintf("[U:1:%d]", i)})
	}

	paths, err := players.Glob(filepath.Join(dir, "*.dem"))
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	if len(paths) != n {
		t.Fatalf("expected %d demos, found %d", n, len(paths))
	}

	for _, workers := range []int{1, 2, 3, 8} {
		t.Run(fmt.Sprintf("%d workers", workers), func(t *testing.T) {
			report, err := players.Collect(context.Background(), paths, players.Options{
				Workers: workers,
				Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
			})
			if err != nil {
				t.Fatalf("Collect failed: %v", err)
			}

			if len(report.Players) != n-1 {
				t.Errorf("expected %d entries, got %d", n-1, len(report.Players))
			}
			if len(report.Failures) != 1 {
				t.Fatalf("expected 1 failure, got %d", len(report.Failures))
			}
			if got := filepath.Base(report.Failures[0].Path); got != "demo3.dem" {
				t.Errorf("expected demo3.dem to fail, got %s", got)
			}
			if got := report.Players[filepath.Join(dir, "demo5.dem")]; got["Player 5"] != "[U:1:5]" {
				t.Errorf("unexpected players for demo5.dem: %v", got)
			}
		})
	}
}

func TestCollectWithHarvester(t *testing.T) {
	harvest := func(_ context.Context, path string) (players.PlayerMap, error) {
		if path == "b.dem" {
			return nil, fmt.Errorf("truncated")
		}
		return players.PlayerMap{"Sniper": path}, nil
	}

	var progress bytes.Buffer
	report, err := players.Collect(context.Background(), []string{"a.dem", "b.dem", "c.dem"}, players.Options{
		Workers:  2,
		Harvest:  harvest,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Progress: &progress,
	})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	var buf bytes.Buffer
	if err := report.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	var decoded map[string]map[string]string
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	want := map[string]map[string]string{
		"a.dem": {"Sniper": "a.dem"},
		"c.dem": {"Sniper": "c.dem"},
	}
	if diff := cmp.Diff(want, decoded); diff != "" {
		t.Errorf("json mismatch (-want +got):\n%s", diff)
	}
	if !bytes.Contains(progress.Bytes(), []byte("Parsing 3 demos on 2 workers")) {
		t.Errorf("unexpected progress output %q", progress.String())
	}
}
