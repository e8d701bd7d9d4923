package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/glizzus/demovoice/internal/config"
	"github.com/glizzus/demovoice/internal/datalayer"
	"github.com/glizzus/demovoice/internal/demo"
	"github.com/glizzus/demovoice/internal/generator"
	"github.com/glizzus/demovoice/internal/inputs"
	"github.com/glizzus/demovoice/internal/opus"
	"github.com/glizzus/demovoice/internal/players"
	"github.com/glizzus/demovoice/internal/sink"
	"github.com/glizzus/demovoice/internal/voice"
	"github.com/urfave/cli/v2"
)

var runIDGenerator generator.Generator[string] = &generator.UUIDV4Generator{}

func voiceCommand(cfg *config.ExtractConfig, logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:      "voice",
		Usage:     "Extract voice chat from a demo",
		ArgsUsage: "<demo>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "split-clips",
				Aliases: []string{"s"},
				Usage:   "Output a separate audio clip for each voice chat transmission",
			},
			&cli.StringFlag{
				Name:    "output-folder",
				Aliases: []string{"o"},
				Usage:   "Folder to write audio files to",
				Value:   cfg.OutputDir,
			},
			&cli.BoolFlag{
				Name:  "archive-opus",
				Usage: "Also write the received Opus frames of each clip to an Ogg file",
			},
			&cli.BoolFlag{
				Name:  "upload",
				Usage: "Also upload every output file to the configured bucket",
			},
			&cli.StringFlag{
				Name:  "protocol-policy",
				Usage: "What to do with malformed voice packets (abort or skip)",
				Value: cfg.ProtocolPolicy,
			},
			&cli.StringFlag{
				Name:  "decode-policy",
				Usage: "What to do when a frame fails to decode (isolate or abort)",
				Value: cfg.DecodePolicy,
			},
		},
		Action: func(c *cli.Context) error {
			demoPath := c.Args().First()
			if demoPath == "" {
				return cli.Exit("Please provide a demo file", 1)
			}

			protocol, err := voice.ParseProtocolPolicy(c.String("protocol-policy"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			decode, err := voice.ParseDecodePolicy(c.String("decode-policy"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			f, err := demo.Open(demoPath)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer f.Close()
			fmt.Println(f.Header())

			extractor := voice.NewExtractor(voice.Options{
				NewDecoder: opus.NewVoiceDecoder,
				Policy:     voice.Policy{Protocol: protocol, Decode: decode},
				Logger:     logger,
				Progress:   os.Stdout,
			})
			if err := extractor.Run(f); err != nil {
				return cli.Exit("Failed to extract voice: "+err.Error(), 1)
			}

			stats := extractor.Stats()
			logger.Info("Extracted voice",
				slog.Int("voicePackets", stats.VoicePackets),
				slog.Int("droppedPackets", stats.DroppedPackets),
				slog.Int("ignoredPackets", stats.IgnoredPackets),
				slog.Int("truncatedSpeakers", stats.TruncatedSpeakers),
			)

			out, err := outputSink(c, cfg, logger)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			opts := voice.WriterOptions{
				Sink:   out,
				Stem:   strings.TrimSuffix(filepath.Base(demoPath), filepath.Ext(demoPath)),
				Split:  c.Bool("split-clips"),
				Logger: logger,
			}
			if c.Bool("archive-opus") {
				opts.Archive = opus.WriteArchive
			}

			names, err := voice.NewWriter(opts).WriteAll(c.Context, extractor.Sessions())
			if err != nil {
				return cli.Exit("Failed to write audio: "+err.Error(), 1)
			}
			for _, name := range names {
				fmt.Printf("Wrote %s\n", name)
			}
			return nil
		},
	}
}

// outputSink returns the output folder, teed with the bucket when uploading.
func outputSink(c *cli.Context, cfg *config.ExtractConfig, logger *slog.Logger) (sink.Sink, error) {
	dir := &sink.Dir{Path: c.String("output-folder")}
	if !c.Bool("upload") {
		return dir, nil
	}

	storage, err := datalayer.NewMinioStorageFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create blob storage: %w", err)
	}
	if err := storage.EnsureBucket(c.Context); err != nil {
		return nil, err
	}
	runID, err := runIDGenerator.Next()
	if err != nil {
		return nil, fmt.Errorf("failed to generate run id: %w", err)
	}

	prefix := path.Join(cfg.UploadPrefix, runID)
	logger.Info("Uploading output", slog.String("prefix", prefix))
	return sink.Tee{dir, &sink.Blob{Storage: storage, Prefix: prefix}}, nil
}

func playersCommand(cfg *config.HarvestConfig, logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:      "players",
		Usage:     "Collect the players of every demo in a folder",
		ArgsUsage: "[out_file]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of demos parsed in parallel",
				Value: cfg.PoolSize(),
			},
			&cli.StringFlag{
				Name:  "pattern",
				Usage: "Glob selecting the demos to parse",
				Value: cfg.Pattern,
			},
		},
		Action: func(c *cli.Context) error {
			outPath := c.Args().First()
			if outPath == "" {
				outPath = "demo_dump.json"
			}

			paths, err := players.Glob(c.String("pattern"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			report, err := players.Collect(c.Context, paths, players.Options{
				Workers:  c.Int("workers"),
				Logger:   logger,
				Progress: os.Stdout,
			})
			if err != nil {
				return cli.Exit("Failed to collect players: "+err.Error(), 1)
			}

			fmt.Printf("Writing data to %s\n", outPath)
			if err := writeFile(outPath, report.WriteJSON); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

func inputsCommand() *cli.Command {
	return &cli.Command{
		Name:      "inputs",
		Usage:     "Dump the key presses recorded in a demo",
		ArgsUsage: "<demo> [out_file]",
		Action: func(c *cli.Context) error {
			demoPath := c.Args().Get(0)
			if demoPath == "" {
				return cli.Exit("Please provide a demo file", 1)
			}
			outPath := c.Args().Get(1)
			if outPath == "" {
				outPath = inputs.DefaultOutput(demoPath)
			}

			f, err := demo.Open(demoPath)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer f.Close()

			err = writeFile(outPath, func(w io.Writer) error {
				return inputs.Dump(io.MultiWriter(w, os.Stdout), f)
			})
			if err != nil {
				return cli.Exit("Failed to dump inputs: "+err.Error(), 1)
			}
			return nil
		},
	}
}

func packetsCommand() *cli.Command {
	return &cli.Command{
		Name:      "packets",
		Usage:     "Dump every frame and message of a demo",
		ArgsUsage: "<demo> <out_file>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return cli.Exit("Please provide a demo file and an output file", 1)
			}

			f, err := demo.Open(c.Args().Get(0))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer f.Close()

			err = writeFile(c.Args().Get(1), func(w io.Writer) error {
				return demo.Dump(f.Reader, w, os.Stdout)
			})
			if err != nil {
				return cli.Exit("Failed to dump packets: "+err.Error(), 1)
			}
			return nil
		},
	}
}

// writeFile creates name and hands a buffered writer for it to write.
func writeFile(name string, write func(io.Writer) error) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := write(w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return f.Close()
}
