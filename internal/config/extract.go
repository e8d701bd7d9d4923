package config

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"slices"

	"github.com/sethvargo/go-envconfig"
)

// ExtractConfig holds the defaults of the voice command. Flags override them.
type ExtractConfig struct {
	OutputDir      string `env:"VOICE_OUTPUT_DIR, default=."`
	ProtocolPolicy string `env:"VOICE_PROTOCOL_POLICY, default=abort"`
	DecodePolicy   string `env:"VOICE_DECODE_POLICY, default=isolate"`
	LogLevel       string `env:"VOICE_LOG_LEVEL, default=info"`
	UploadPrefix   string `env:"VOICE_UPLOAD_PREFIX, default=voice"`
}

func NewExtractConfigFromEnv() (*ExtractConfig, error) {
	return newExtractConfig(context.Background(), envconfig.OsLookuper())
}

func newExtractConfig(ctx context.Context, l envconfig.Lookuper) (*ExtractConfig, error) {
	var cfg ExtractConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if err := oneOf("VOICE_PROTOCOL_POLICY", cfg.ProtocolPolicy, "abort", "skip"); err != nil {
		return nil, err
	}
	if err := oneOf("VOICE_DECODE_POLICY", cfg.DecodePolicy, "isolate", "abort"); err != nil {
		return nil, err
	}
	if _, err := cfg.Level(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func oneOf(name, value string, allowed ...string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return fmt.Errorf("invalid %s %q: expected one of %v", name, value, allowed)
}

// Level returns the configured log level.
func (c *ExtractConfig) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid VOICE_LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// HarvestConfig holds the defaults of the players command.
type HarvestConfig struct {
	Workers int    `env:"PLAYERS_WORKERS, default=0"`
	Pattern string `env:"PLAYERS_PATTERN, default=*.dem"`
}

func NewHarvestConfigFromEnv() (*HarvestConfig, error) {
	return newHarvestConfig(context.Background(), envconfig.OsLookuper())
}

func newHarvestConfig(ctx context.Context, l envconfig.Lookuper) (*HarvestConfig, error) {
	var cfg HarvestConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("PLAYERS_WORKERS must not be negative, got %d", cfg.Workers)
	}
	return &cfg, nil
}

// PoolSize returns the configured worker count, or one worker per CPU when
// none is set.
func (c *HarvestConfig) PoolSize() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}
