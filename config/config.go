// Package config loads the YAML configuration of the retrieval engine and
// its commands.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// OpenAIConfig configures the OpenAI embedder.
type OpenAIConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
	Normalize   bool   `yaml:"normalize"`
}

// CompatConfig configures an OpenAI-compatible embedding server.
type CompatConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	Dimensions  int    `yaml:"dimensions"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
	MaxRetries  int    `yaml:"max_retries"`
	Normalize   bool   `yaml:"normalize"`
}

// EmbedderConfig selects and configures the embedder: hashing, openai or
// compat.
type EmbedderConfig struct {
	Type      string        `yaml:"type"`
	Dimension int           `yaml:"dimension,omitempty"`
	OpenAI    *OpenAIConfig `yaml:"openai,omitempty"`
	Compat    *CompatConfig `yaml:"compat,omitempty"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	Size int `yaml:"size"`
}

// IndexConfig selects the vector index.
type IndexConfig struct {
	Kind    string `yaml:"kind"`
	Metric  string `yaml:"metric"`
	Rebuild string `yaml:"rebuild"`
}

// StorageConfig selects where state is persisted: file (a directory),
// sqlite (a database file) or memory.
type StorageConfig struct {
	Type string `yaml:"type"`
	Path string `yaml:"path"`
}

// QueryConfig holds query defaults.
type QueryConfig struct {
	TopK int `yaml:"top_k"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder EmbedderConfig `yaml:"embedder"`
	Chunker  ChunkerConfig  `yaml:"chunker"`
	Index    IndexConfig    `yaml:"index"`
	Storage  StorageConfig  `yaml:"storage"`
	Query    QueryConfig    `yaml:"query"`
}

// Load reads a config from path. If the file does not exist, it returns
// defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config to path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Default returns the configuration used when no file exists.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

// Validate rejects unknown component names.
func (c *AppConfig) Validate() error {
	switch c.Embedder.Type {
	case "hashing", "openai", "compat":
	default:
		return fmt.Errorf("config: unsupported embedder type %q", c.Embedder.Type)
	}
	switch c.Index.Kind {
	case "flat", "cover":
	default:
		return fmt.Errorf("config: unsupported index kind %q", c.Index.Kind)
	}
	switch c.Index.Metric {
	case "l2", "ip":
	default:
		return fmt.Errorf("config: unsupported index metric %q", c.Index.Metric)
	}
	switch c.Index.Rebuild {
	case "reembed", "reuse":
	default:
		return fmt.Errorf("config: unsupported rebuild mode %q", c.Index.Rebuild)
	}
	switch c.Storage.Type {
	case "memory":
	case "file", "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("config: storage %s requires a path", c.Storage.Type)
		}
	default:
		return fmt.Errorf("config: unsupported storage type %q", c.Storage.Type)
	}
	if c.Chunker.Size < 0 || c.Query.TopK < 0 {
		return errors.New("config: chunk size and top_k must not be negative")
	}
	return nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "hashing"
	}
	if cfg.Embedder.Type == "hashing" && cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = 384
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIConfig{}
		}
		o := cfg.Embedder.OpenAI
		if o.BaseURL == "" {
			o.BaseURL = "https://api.openai.com/v1"
		}
		if o.APIKeyEnv == "" {
			o.APIKeyEnv = "OPENAI_API_KEY"
		}
		if o.Model == "" {
			o.Model = "text-embedding-3-small"
		}
		if o.TimeoutSecs == 0 {
			o.TimeoutSecs = 30
		}
		if o.BatchSize == 0 {
			o.BatchSize = 64
		}
	}
	if cfg.Embedder.Type == "compat" {
		if cfg.Embedder.Compat == nil {
			cfg.Embedder.Compat = &CompatConfig{}
		}
		c := cfg.Embedder.Compat
		if c.BaseURL == "" {
			c.BaseURL = "http://localhost:11434/v1/"
		}
		if c.Model == "" {
			c.Model = "all-minilm"
		}
		if c.TimeoutSecs == 0 {
			c.TimeoutSecs = 30
		}
		if c.BatchSize == 0 {
			c.BatchSize = 32
		}
	}
	if cfg.Chunker.Size == 0 {
		cfg.Chunker.Size = 500
	}
	if cfg.Index.Kind == "" {
		cfg.Index.Kind = "flat"
	}
	if cfg.Index.Metric == "" {
		cfg.Index.Metric = "l2"
	}
	if cfg.Index.Rebuild == "" {
		cfg.Index.Rebuild = "reembed"
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "file"
	}
	if cfg.Storage.Path == "" {
		switch cfg.Storage.Type {
		case "file":
			cfg.Storage.Path = "rag_db"
		case "sqlite":
			cfg.Storage.Path = "rag.sqlite"
		}
	}
	if cfg.Query.TopK == 0 {
		cfg.Query.TopK = 3
	}
}
