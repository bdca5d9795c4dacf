package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lazyload.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	want := DefaultConfig()
	if *cfg != *want {
		t.Errorf("expected defaults %+v, got %+v", want, cfg)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
viewport:
  width: 1024
  height: 768
loader:
  offset: 200
  load_delay: 250ms
  loaded_class: shown
  attribute: data-src
  show_stats: true
  scripts: false
simulate:
  step: 50
  interval: 10ms
logging:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Viewport.Width != 1024 || cfg.Viewport.Height != 768 {
		t.Errorf("viewport: %+v", cfg.Viewport)
	}
	if cfg.Loader.LoadDelay != 250*time.Millisecond || cfg.Loader.Attribute != "data-src" || !cfg.Loader.ShowStats || cfg.Loader.Scripts {
		t.Errorf("loader: %+v", cfg.Loader)
	}
	if cfg.Simulate.Step != 50 || cfg.Simulate.Interval != 10*time.Millisecond {
		t.Errorf("simulate: %+v", cfg.Simulate)
	}
	if cfg.Simulate.Settle != time.Second {
		t.Errorf("unset keys keep defaults, settle = %v", cfg.Simulate.Settle)
	}

	opts := cfg.Loader.Options(nil)
	if opts.Offset != 200 || opts.LoadedClass != "shown" || !opts.ShowStats {
		t.Errorf("options: %+v", opts)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "loader:\n  offset: 10\n")
	t.Setenv("LAZYLOAD_LOADER_OFFSET", "75")
	t.Setenv("LAZYLOAD_LOADER_LOAD_DELAY", "40ms")
	t.Setenv("LAZYLOAD_VIEWPORT_HEIGHT", "900")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Loader.Offset != 75 {
		t.Errorf("expected env offset 75, got %v", cfg.Loader.Offset)
	}
	if cfg.Loader.LoadDelay != 40*time.Millisecond {
		t.Errorf("expected env delay 40ms, got %v", cfg.Loader.LoadDelay)
	}
	if cfg.Viewport.Height != 900 {
		t.Errorf("expected env height 900, got %v", cfg.Viewport.Height)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed yaml", "viewport: [1, 2"},
		{"zero viewport", "viewport:\n  width: 0\n"},
		{"negative delay", "loader:\n  load_delay: -5ms\n"},
		{"bad format", "logging:\n  format: xml\n"},
		{"bad duration", "simulate:\n  interval: soon\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("an explicit path that does not exist is an error")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"Warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetupLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "lazyload.log")
	logger, err := SetupLogger(LoggingConfig{Level: "warn", Format: "json", File: path})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("dropped")
	logger.Warn("kept", "n", 1)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if strings.Contains(out, "dropped") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(out, `"msg":"kept"`) || !strings.Contains(out, `"n":1`) {
		t.Errorf("expected a JSON warn record, got %q", out)
	}
}
