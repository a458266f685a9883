package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-paramkit/pkg/script"
)

// Config is the YAML file passed with --config. Flags override it.
//
//	output: yaml
//	labels: human
//	http:
//	  enabled: true
//	  timeout: 10s
//	maxBytes: 524288
//	debounce: 50ms
type Config struct {
	Output   string        `yaml:"output"`
	Labels   string        `yaml:"labels"`
	HTTP     HTTPConfig    `yaml:"http"`
	MaxBytes int64         `yaml:"maxBytes"`
	Debounce time.Duration `yaml:"debounce"`
}

// HTTPConfig controls remote script loading.
type HTTPConfig struct {
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"`
}

const (
	labelsKey   = "key"
	labelsHuman = "human"
)

func defaultConfig() Config {
	return Config{
		Output:   "json",
		Labels:   labelsKey,
		HTTP:     HTTPConfig{Timeout: 10 * time.Second},
		MaxBytes: script.DefaultMaxBytes,
	}
}

// loadConfig reads path over the defaults. An empty path returns the
// defaults; unknown keys are rejected.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Labels {
	case labelsKey, labelsHuman:
	default:
		return fmt.Errorf("config: labels must be %q or %q, got %q", labelsKey, labelsHuman, c.Labels)
	}
	if c.MaxBytes < 0 {
		return errors.New("config: maxBytes must not be negative")
	}
	if c.Debounce < 0 || c.HTTP.Timeout < 0 {
		return errors.New("config: durations must not be negative")
	}
	return nil
}
