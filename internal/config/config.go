// Package config loads metricgraph settings from a config file, the
// environment and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. METRICGRAPH_LOG_LEVEL.
const EnvPrefix = "METRICGRAPH"

// Config holds all configuration for the CLI.
type Config struct {
	Workers int
	Log     LogConfig
	Engine  EngineConfig
	Metrics MetricsConfig
	Surface SurfaceConfig
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// EngineConfig holds pipeline evaluation settings.
type EngineConfig struct {
	Timeout time.Duration
}

// MetricsConfig controls the metrics dump written after a command.
type MetricsConfig struct {
	Output string // empty disables the dump; "-" means stderr
}

// SurfaceConfig holds defaults for the surface command.
type SurfaceConfig struct {
	Cells int
	Weld  float64
}

// Load reads configuration from file, environment and any bound flags.
// paths are searched in order for metricgraph.yaml; a missing file is
// not an error.
func Load(flags *pflag.FlagSet, paths ...string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("metricgraph")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	if len(paths) == 0 {
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Workers: v.GetInt("workers"),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Engine: EngineConfig{
			Timeout: v.GetDuration("engine.timeout"),
		},
		Metrics: MetricsConfig{
			Output: v.GetString("metrics.output"),
		},
		Surface: SurfaceConfig{
			Cells: v.GetInt("surface.cells"),
			Weld:  v.GetFloat64("surface.weld"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("workers", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("engine.timeout", 5*time.Second)
	v.SetDefault("metrics.output", "")
	v.SetDefault("surface.cells", 24)
	v.SetDefault("surface.weld", 1e-9)
}

// flagKeys maps persistent CLI flags onto config keys.
var flagKeys = map[string]string{
	"workers":    "workers",
	"log-level":  "log.level",
	"log-format": "log.format",
	"metrics":    "metrics.output",
	"timeout":    "engine.timeout",
}

// bindFlags binds the flags present in fs. Flags only override file and
// environment values when set on the command line.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	if c.Engine.Timeout <= 0 {
		return fmt.Errorf("engine.timeout must be positive, got %s", c.Engine.Timeout)
	}
	if c.Surface.Cells < 2 {
		return fmt.Errorf("surface.cells must be at least 2, got %d", c.Surface.Cells)
	}
	if c.Surface.Weld < 0 {
		return fmt.Errorf("surface.weld must be non-negative, got %g", c.Surface.Weld)
	}
	return nil
}
