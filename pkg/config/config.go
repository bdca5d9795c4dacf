// Package config loads lazyload settings from a YAML file and LAZYLOAD_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lazyload/pkg/lazyload"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. LAZYLOAD_LOADER_OFFSET.
const EnvPrefix = "LAZYLOAD"

// Config holds all application configuration
type Config struct {
	Viewport ViewportConfig `mapstructure:"viewport"`
	Loader   LoaderConfig   `mapstructure:"loader"`
	Simulate SimulateConfig `mapstructure:"simulate"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ViewportConfig struct {
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
}

// LoaderConfig mirrors lazyload.Options. Zero values select the loader
// defaults.
type LoaderConfig struct {
	Offset      float64       `mapstructure:"offset"`
	LoadDelay   time.Duration `mapstructure:"load_delay"`
	LoadedClass string        `mapstructure:"loaded_class"`
	Attribute   string        `mapstructure:"attribute"`
	ShowStats   bool          `mapstructure:"show_stats"`
	Scripts     bool          `mapstructure:"scripts"` // run page <script>s instead of a native loader
}

// SimulateConfig drives the headless scroll simulation.
type SimulateConfig struct {
	Step     float64       `mapstructure:"step"`     // pixels per scroll event
	Interval time.Duration `mapstructure:"interval"` // virtual time between events
	Settle   time.Duration `mapstructure:"settle"`   // virtual time after the last event
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
	File   string `mapstructure:"file"`   // empty for stderr
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Viewport: ViewportConfig{Width: 800, Height: 600},
		Loader: LoaderConfig{
			LoadDelay:   lazyload.DefaultLoadDelay,
			LoadedClass: lazyload.DefaultLoadedClass,
			Attribute:   lazyload.DefaultAttribute,
			Scripts:     true,
		},
		Simulate: SimulateConfig{
			Step:     120,
			Interval: 16 * time.Millisecond,
			Settle:   time.Second,
		},
		Logging: LoggingConfig{Level: "INFO", Format: "text"},
	}
}

// Load reads configuration. With an empty path it looks for lazyload.yaml
// in the working directory and the user config directory, and a missing
// file is not an error. Environment variables override the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	setDefaults(v, cfg)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("lazyload")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "lazyload"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that
// the file does not mention.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("viewport.width", cfg.Viewport.Width)
	v.SetDefault("viewport.height", cfg.Viewport.Height)

	v.SetDefault("loader.offset", cfg.Loader.Offset)
	v.SetDefault("loader.load_delay", cfg.Loader.LoadDelay)
	v.SetDefault("loader.loaded_class", cfg.Loader.LoadedClass)
	v.SetDefault("loader.attribute", cfg.Loader.Attribute)
	v.SetDefault("loader.show_stats", cfg.Loader.ShowStats)
	v.SetDefault("loader.scripts", cfg.Loader.Scripts)

	v.SetDefault("simulate.step", cfg.Simulate.Step)
	v.SetDefault("simulate.interval", cfg.Simulate.Interval)
	v.SetDefault("simulate.settle", cfg.Simulate.Settle)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.file", cfg.Logging.File)
}

// Validate rejects settings no page can run with.
func (c *Config) Validate() error {
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return fmt.Errorf("viewport must be positive, got %gx%g", c.Viewport.Width, c.Viewport.Height)
	}
	if c.Loader.LoadDelay < 0 {
		return fmt.Errorf("loader.load_delay must not be negative, got %v", c.Loader.LoadDelay)
	}
	if c.Simulate.Step <= 0 {
		return fmt.Errorf("simulate.step must be positive, got %g", c.Simulate.Step)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// Options converts the loader section for lazyload.New.
func (c LoaderConfig) Options(logger *slog.Logger) lazyload.Options {
	return lazyload.Options{
		Offset:      c.Offset,
		LoadDelay:   c.LoadDelay,
		LoadedClass: c.LoadedClass,
		Attribute:   c.Attribute,
		ShowStats:   c.ShowStats,
		Logger:      logger,
	}
}
