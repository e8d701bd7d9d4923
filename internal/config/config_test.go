package config

import (
	"context"
	"log/slog"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sethvargo/go-envconfig"
)

func TestExtractConfig(t *testing.T) {
	tc := []struct {
		name     string
		env      map[string]string
		expected *ExtractConfig
		err      bool
	}{
		{
			name: "defaults",
			env:  map[string]string{},
			expected: &ExtractConfig{
				OutputDir:      ".",
				ProtocolPolicy: "abort",
				DecodePolicy:   "isolate",
				LogLevel:       "info",
				UploadPrefix:   "voice",
			},
		},
		{
			name: "overrides",
			env: map[string]string{
				"VOICE_OUTPUT_DIR":      "/tmp/voice",
				"VOICE_PROTOCOL_POLICY": "skip",
				"VOICE_DECODE_POLICY":   "abort",
				"VOICE_LOG_LEVEL":       "debug",
				"VOICE_UPLOAD_PREFIX":   "matches",
			},
			expected: &ExtractConfig{
				OutputDir:      "/tmp/voice",
				ProtocolPolicy: "skip",
				DecodePolicy:   "abort",
				LogLevel:       "debug",
				UploadPrefix:   "matches",
			},
		},
		{
			name: "unknown protocol policy",
			env:  map[string]string{"VOICE_PROTOCOL_POLICY": "ignore"},
			err:  true,
		},
		{
			name: "unknown decode policy",
			env:  map[string]string{"VOICE_DECODE_POLICY": "retry"},
			err:  true,
		},
		{
			name: "unknown log level",
			env:  map[string]string{"VOICE_LOG_LEVEL": "loud"},
			err:  true,
		},
	}

	for _, test := range tc {
		t.Run(test.name, func(t *testing.T) {
			cfg, err := newExtractConfig(context.Background(), envconfig.MapLookuper(test.env))
			if test.err {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(test.expected, cfg); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractConfigLevel(t *testing.T) {
	cfg, err := newExtractConfig(context.Background(), envconfig.MapLookuper(map[string]string{
		"VOICE_LOG_LEVEL": "warn",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	level, err := cfg.Level()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if level != slog.LevelWarn {
		t.Errorf("expected level %v, got %v", slog.LevelWarn, level)
	}
}

func TestHarvestConfig(t *testing.T) {
	cfg, err := newHarvestConfig(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Pattern != "*.dem" {
		t.Errorf("expected default pattern *.dem, got %q", cfg.Pattern)
	}
	if cfg.PoolSize() != runtime.NumCPU() {
		t.Errorf("expected pool size %d, got %d", runtime.NumCPU(), cfg.PoolSize())
	}

	cfg, err = newHarvestConfig(context.Background(), envconfig.MapLookuper(map[string]string{"PLAYERS_WORKERS": "3"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.PoolSize() != 3 {
		t.Errorf("expected pool size 3, got %d", cfg.PoolSize())
	}

	if _, err := newHarvestConfig(context.Background(), envconfig.MapLookuper(map[string]string{"PLAYERS_WORKERS": "-1"})); err == nil {
		t.Errorf("expected error for negative worker count")
	}
}

func TestMinioConfig(t *testing.T) {
	if _, err := newMinioConfig(context.Background(), envconfig.MapLookuper(map[string]string{})); err == nil {
		t.Errorf("expected error when required variables are missing")
	}

	cfg, err := newMinioConfig(context.Background(), envconfig.MapLookuper(map[string]string{
		"MINIO_ENDPOINT": "localhost:9000",
		"MINIO_USERNAME": "minio",
		"MINIO_PASSWORD": "minio123",
		"MINIO_SECURE":   "true",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := &MinioConfig{
		Endpoint: "localhost:9000",
		Username: "minio",
		Password: "minio123",
		Bucket:   "demovoice",
		Secure:   true,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}
