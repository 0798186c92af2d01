package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load reads the YAML config at path, applies defaults, resolves the API key
// from the environment and validates the result.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults()
	// The environment always wins over a key committed to the config file.
	if env := strings.TrimSpace(os.Getenv(cfg.API.KeyEnv)); env != "" {
		cfg.API.Key = env
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Timeout returns the per-request timeout for API calls.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// Interval returns the delay between scheduled fetch runs.
func (f FetchConfig) Interval() time.Duration {
	return time.Duration(f.IntervalHours) * time.Hour
}

// CacheTTL returns how long the viewer may serve its cached dataset.
func (v ViewerConfig) CacheTTL() time.Duration {
	return time.Duration(v.CacheTTLSeconds) * time.Second
}

// MasterPath is the absolute-ish location of the master CSV.
func (d DataConfig) MasterPath() string {
	return filepath.Join(d.Dir, d.MasterFile)
}

// RunlogPath is the location of the run-history SQLite database.
func (d DataConfig) RunlogPath() string {
	return filepath.Join(d.Dir, d.RunlogFile)
}
