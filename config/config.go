// Package config loads battista's startup configuration. It follows a
// two-stage viper/yaml pattern: viper reads the file into a loosely-typed
// map, then the final struct is
// obtained by round-tripping that map through yaml.Marshal/Unmarshal. Using
// the round trip (rather than viper's own mapstructure Unmarshal) keeps
// duration fields like "33ms" as strings in rawConfig, which Load then
// parses with time.ParseDuration.
package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is battista's full startup configuration.
type Config struct {
	Addr             string        `yaml:"addr"`
	PlotSide         int           `yaml:"plotSide"`
	TickInterval     time.Duration `yaml:"tickInterval"`
	MoveInterval     time.Duration `yaml:"moveInterval"`
	PlantMatureTicks int           `yaml:"plantMatureTicks"`
	RequestQueueSize int           `yaml:"requestQueueSize"`
	StatsLogInterval string        `yaml:"statsLogInterval"`
	LogLevel         string        `yaml:"logLevel"`
}

// Default returns literal constants as a Config.
func Default() Config {
	return Config{
		Addr:             "127.0.0.1:8000",
		PlotSide:         20,
		TickInterval:     33 * time.Millisecond,
		MoveInterval:     100 * time.Millisecond,
		PlantMatureTicks: 50,
		RequestQueueSize: 32,
		StatsLogInterval: "*/30 * * * * *",
		LogLevel:         "info",
	}
}

// rawConfig mirrors Config but with plain string duration fields, which
// Load parses itself. Its tags are lowercase because viper folds every key
// to lowercase, so AllSettings yields "plotside", not "plotSide".
type rawConfig struct {
	Addr             string `yaml:"addr"`
	PlotSide         int    `yaml:"plotside"`
	TickInterval     string `yaml:"tickinterval"`
	MoveInterval     string `yaml:"moveinterval"`
	PlantMatureTicks int    `yaml:"plantmatureticks"`
	RequestQueueSize int    `yaml:"requestqueuesize"`
	StatsLogInterval string `yaml:"statsloginterval"`
	LogLevel         string `yaml:"loglevel"`
}

// Load reads an optional battista.yaml at path. A missing file is not an
// error — it returns Default unchanged. A present but malformed
// file is a startup error returned to the caller; Load never panics.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	if err := vp.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}

	raw := rawConfig{}
	spec, err := yaml.Marshal(vp.AllSettings())
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(spec, &raw); err != nil {
		return cfg, err
	}

	if raw.Addr != "" {
		cfg.Addr = raw.Addr
	}
	if raw.PlotSide != 0 {
		cfg.PlotSide = raw.PlotSide
	}
	if raw.TickInterval != "" {
		d, err := time.ParseDuration(raw.TickInterval)
		if err != nil {
			return cfg, err
		}
		cfg.TickInterval = d
	}
	if raw.MoveInterval != "" {
		d, err := time.ParseDuration(raw.MoveInterval)
		if err != nil {
			return cfg, err
		}
		cfg.MoveInterval = d
	}
	if raw.PlantMatureTicks != 0 {
		cfg.PlantMatureTicks = raw.PlantMatureTicks
	}
	if raw.RequestQueueSize != 0 {
		cfg.RequestQueueSize = raw.RequestQueueSize
	}
	if raw.StatsLogInterval != "" {
		cfg.StatsLogInterval = raw.StatsLogInterval
	}
	if raw.LogLevel != "" {
		cfg.LogLevel = raw.LogLevel
	}

	return cfg, nil
}
