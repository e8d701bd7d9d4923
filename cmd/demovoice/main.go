package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/glizzus/demovoice/internal/config"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Fatalf("Failed to load .env file: %v", err)
	}

	extractCfg, err := config.NewExtractConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to load voice config: %v", err)
	}
	harvestCfg, err := config.NewHarvestConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to load players config: %v", err)
	}

	level, err := extractCfg.Level()
	if err != nil {
		log.Fatalf("Failed to parse log level: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	app := &cli.App{
		Name:        "demovoice",
		Usage:       "Extract voice chat and other data from Source engine demos",
		Description: "Reconstructs per-speaker audio tracks from the voice packets recorded in a demo",
		Commands: []*cli.Command{
			voiceCommand(extractCfg, logger),
			playersCommand(harvestCfg, logger),
			inputsCommand(),
			packetsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
