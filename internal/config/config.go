// Package config loads the API configuration: a YAML file (conf/api-conf.yml
// by default), an optional .env file, then environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tinoosan/chrono/internal/errs"
)

// DefaultPath is where the configuration file is looked up.
const DefaultPath = "conf/api-conf.yml"

// Dataset sources.
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

// Config is the effective runtime configuration.
type Config struct {
	Port      int           `yaml:"port" json:"port"`
	URLPrefix string        `yaml:"url_prefix" json:"url_prefix"`
	Dataset   DatasetConfig `yaml:"dataset" json:"dataset"`
	Log       LogConfig     `yaml:"log" json:"log"`
	// DatabaseURL only comes from the environment and is never echoed.
	DatabaseURL string `yaml:"-" json:"-"`

	raw map[string]any
}

type DatasetConfig struct {
	Source string `yaml:"source" json:"source"`
	Path   string `yaml:"path" json:"path"`
	Strict bool   `yaml:"strict" json:"strict"`
	Query  string `yaml:"query" json:"query"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Port:      5001,
		URLPrefix: "api",
		Dataset: DatasetConfig{
			Source: SourceCSV,
			Path:   "data/participants3.csv",
			Query:  "select * from participants order by _ord",
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads the configuration like Read and validates the result.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read loads .env, then path (a missing file is not an error), then the
// environment overrides. The result is not validated, so callers can apply
// their own overrides first.
func Read(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: .env: %v", errs.ErrConfig, err)
	}

	cfg := Default()
	if path == "" {
		path = DefaultPath
	}
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("%w: read %s: %v", errs.ErrConfig, path, err)
	default:
		if err := cfg.parse(b); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", errs.ErrConfig, path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

// Parse builds a Config from YAML bytes without touching the environment.
func Parse(b []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.parse(b); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrConfig, err)
	}
	cfg.normalize()
	return cfg, cfg.Validate()
}

func (c *Config) parse(b []byte) error {
	if err := yaml.Unmarshal(b, c); err != nil {
		return err
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return err
	}
	c.raw = raw
	return nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: PORT=%q", errs.ErrInvalid, v)
		}
		c.Port = p
	}
	if v, ok := os.LookupEnv("URL_PREFIX"); ok {
		c.URLPrefix = v
	}
	if v := strings.TrimSpace(os.Getenv("DATA_PATH")); v != "" {
		c.Dataset.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("DATASET_SOURCE")); v != "" {
		c.Dataset.Source = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		c.Log.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("LOG_FORMAT")); v != "" {
		c.Log.Format = v
	}
	c.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	return nil
}

func (c *Config) normalize() {
	c.URLPrefix = strings.Trim(strings.TrimSpace(c.URLPrefix), "/")
	c.Dataset.Source = strings.ToLower(strings.TrimSpace(c.Dataset.Source))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
}

// Validate checks the values the server cannot start without.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", errs.ErrInvalid, c.Port)
	}
	switch c.Dataset.Source {
	case SourceCSV:
		if c.Dataset.Path == "" {
			return fmt.Errorf("%w: dataset.path is required", errs.ErrConfig)
		}
	case SourcePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL is required for the postgres source", errs.ErrConfig)
		}
	default:
		return fmt.Errorf("%w: %q", errs.ErrUnsupportedSource, c.Dataset.Source)
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string { return ":" + strconv.Itoa(c.Port) }

// Echo returns the configuration as served by the supervision endpoint: the
// file's own keys, overlaid with the effective values.
func (c *Config) Echo() map[string]any {
	out := make(map[string]any, len(c.raw)+4)
	for k, v := range c.raw {
		out[k] = v
	}
	out["port"] = c.Port
	out["url_prefix"] = c.URLPrefix
	out["dataset"] = c.Dataset
	out["log"] = c.Log
	return out
}
