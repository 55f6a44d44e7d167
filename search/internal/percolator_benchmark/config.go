package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Index   IndexConfig   `yaml:"index"`
	Fields  FieldsConfig  `yaml:"fields"`
	Load    LoadConfig    `yaml:"load"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type IndexConfig struct {
	Directory string `yaml:"directory"`
	// JSON lines, one query document per line: {"id": "...", "query": {...}}.
	QueriesFile string `yaml:"queriesFile"`
	BatchSize   int    `yaml:"batchSize"`
	MaxQueries  int    `yaml:"maxQueries"`
}

type FieldsConfig struct {
	Id        string `yaml:"id"`
	Source    string `yaml:"source"`
	Type      string `yaml:"type"`
	TypeValue string `yaml:"typeValue"`
}

type LoadConfig struct {
	Iterations int `yaml:"iterations"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// loadConfig reads path, when not empty, over the defaults and then applies
// LYNX_* environment overrides.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Directory:   "directory",
			QueriesFile: "queries.jsonl",
			BatchSize:   100_000,
			MaxQueries:  1_000_000,
		},
		Fields: FieldsConfig{
			Id:        "_id",
			Source:    "_source",
			Type:      "_type",
			TypeValue: ".percolator",
		},
		Load: LoadConfig{
			Iterations: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LYNX_INDEX_DIRECTORY"); v != "" {
		cfg.Index.Directory = v
	}
	if v := os.Getenv("LYNX_INDEX_QUERIES_FILE"); v != "" {
		cfg.Index.QueriesFile = v
	}
	if v := os.Getenv("LYNX_INDEX_BATCH_SIZE"); v != "" {
		if batchSize, err := strconv.Atoi(v); err == nil {
			cfg.Index.BatchSize = batchSize
		}
	}
	if v := os.Getenv("LYNX_INDEX_MAX_QUERIES"); v != "" {
		if maxQueries, err := strconv.Atoi(v); err == nil {
			cfg.Index.MaxQueries = maxQueries
		}
	}
	if v := os.Getenv("LYNX_LOAD_ITERATIONS"); v != "" {
		if iterations, err := strconv.Atoi(v); err == nil {
			cfg.Load.Iterations = iterations
		}
	}
	if v := os.Getenv("LYNX_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LYNX_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("LYNX_METRICS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = enabled
		}
	}
}

func (cfg *Config) validate() error {
	if cfg.Index.Directory == "" {
		return fmt.Errorf("index.directory must be set")
	}
	if cfg.Index.BatchSize <= 0 {
		return fmt.Errorf("index.batchSize must be positive, got %d", cfg.Index.BatchSize)
	}
	if cfg.Fields.Id == "" || cfg.Fields.Source == "" {
		return fmt.Errorf("fields.id and fields.source must be set")
	}
	if cfg.Load.Iterations <= 0 {
		return fmt.Errorf("load.iterations must be positive, got %d", cfg.Load.Iterations)
	}
	return nil
}
