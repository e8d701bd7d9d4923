// Package players builds a player directory from a folder of demos.
package players

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/glizzus/demovoice/internal/demo"
	"github.com/glizzus/demovoice/internal/worker"
)

// PlayerMap maps player names to SteamIDs.
type PlayerMap map[string]string

// Harvester extracts the players of a single demo.
type Harvester func(ctx context.Context, path string) (PlayerMap, error)

// Harvest reads every string table snapshot of the demo at path and returns
// the players listed in them.
func Harvest(_ context.Context, path string) (PlayerMap, error) {
	f, err := demo.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	f.SkipMessages = true

	players := make(PlayerMap)
	for {
		frame, err := f.Next()
		if errors.Is(err, io.EOF) {
			return players, nil
		}
		if err != nil {
			return nil, err
		}
		if frame.Command != demo.CommandStringTables {
			continue
		}

		tables, err := demo.ParseStringTables(frame.Data)
		if err != nil {
			return nil, fmt.Errorf("string tables at tick %d: %w", frame.Tick, err)
		}
		list, err := demo.Players(tables)
		if err != nil {
			return nil, fmt.Errorf("string tables at tick %d: %w", frame.Tick, err)
		}
		for _, p := range list {
			players[p.Name] = p.SteamID
		}
	}
}

// Failure is a demo that could not be harvested.
type Failure struct {
	Path string
	Err  error
}

// Report is the outcome of a batch harvest.
type Report struct {
	// Players maps demo paths to their players.
	Players  map[string]PlayerMap
	Failures []Failure
}

// Options configures Collect.
type Options struct {
	Workers int
	// Harvest defaults to Harvest.
	Harvest Harvester
	Logger  *slog.Logger
	// Progress receives one line per processed demo. Nil disables it.
	Progress io.Writer
}

// Collect harvests every path on a pool of workers. A demo that fails is
// recorded in the report and does not stop the others.
func Collect(ctx context.Context, paths []string, opts Options) (*Report, error) {
	harvest := opts.Harvest
	if harvest == nil {
		harvest = Harvest
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.Progress != nil {
		fmt.Fprintf(opts.Progress, "Parsing %d demos on %d workers\n", len(paths), max(opts.Workers, 1))
	}

	report := &Report{Players: make(map[string]PlayerMap, len(paths))}
	results := worker.Run(ctx, opts.Workers, worker.NewQueue(paths...), worker.Handler[string, PlayerMap](harvest))

	processed := 0
	for r := range results {
		processed++
		if r.Err != nil {
			logger.Error("Failed to parse demo", slog.String("path", r.Job), slog.Any("error", r.Err))
			report.Failures = append(report.Failures, Failure{Path: r.Job, Err: r.Err})
			continue
		}
		report.Players[r.Job] = r.Value
		if opts.Progress != nil {
			fmt.Fprintf(opts.Progress, "Processed demo %q (%d/%d | %.2f%%)\n",
				r.Job, processed, len(paths), float64(processed)*100/float64(len(paths)))
		}
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// Glob returns the demos matching pattern.
func Glob(pattern string) ([]string, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return paths, nil
}

// WriteJSON writes the player directory as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r.Players)
}
