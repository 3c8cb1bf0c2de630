// Package config provides configuration for the docsmcp binary.
// Sources are merged as: built-in defaults < docsmcp.toml < environment
// variables. A .env file, if present, is loaded into the environment by main
// before LoadConfig runs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ConfigFileName is looked up in the working directory, then under ~/.docsmcp/.
const ConfigFileName = "docsmcp.toml"

// UpsertBatchSize bounds the number of records sent to the store per upsert.
const UpsertBatchSize = 100

// DefaultResultCount is the fallback top-K for the ask_documentation tool.
const DefaultResultCount = 8

// Config holds all docsmcp configuration.
type Config struct {
	Docs      DocsConfig      `toml:"docs"`
	Store     StoreConfig     `toml:"store"`
	Embedding EmbeddingConfig `toml:"embedding"`
}

// DocsConfig holds source corpus settings.
type DocsConfig struct {
	Path     string   `toml:"path"`      // root directory of markdown docs
	SkipDirs []string `toml:"skip_dirs"` // directory names excluded from the walk
}

// StoreConfig holds vector index settings.
type StoreConfig struct {
	Path string `toml:"path"` // SQLite database file
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider"`   // "ollama" (default), "openai", "openai-compatible"
	Model      string `toml:"model"`      // model name (provider-specific default if empty)
	APIKey     string `toml:"api_key"`    // API key (required for openai)
	BaseURL    string `toml:"base_url"`   // base URL (provider-specific default if empty)
	Dimensions int    `toml:"dimensions"` // vector dimensions (0 = provider default)
}

// DefaultConfig returns a Config with all built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Docs: DocsConfig{
			Path:     "docs",
			SkipDirs: []string{".git", "node_modules", ".obsidian"},
		},
		Store: StoreConfig{
			Path: filepath.Join(".docsmcp", "index.db"),
		},
		Embedding: EmbeddingConfig{
			Provider: "ollama",
		},
	}
}

// LoadConfig merges all configuration sources and validates the result.
// Validation failures are fatal at startup: a missing credential must never
// be discovered mid-run.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	if path := findConfigFile(); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DOCSMCP_DOCS_PATH"); v != "" {
		cfg.Docs.Path = v
	}
	if v := os.Getenv("DOCSMCP_DB_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("DOCSMCP_SKIP_DIRS"); v != "" {
		for _, d := range strings.Split(v, ",") {
			d = strings.TrimSpace(d)
			if d != "" {
				cfg.Docs.SkipDirs = append(cfg.Docs.SkipDirs, d)
			}
		}
	}
	if v := os.Getenv("DOCSMCP_EMBED_PROVIDER"); v != "" {
		cfg.Embedding.Provider = v
	}
	if v := os.Getenv("DOCSMCP_EMBED_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("DOCSMCP_EMBED_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("DOCSMCP_EMBED_BASE_URL"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v := os.Getenv("OLLAMA_URL"); v != "" && cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = v
	}
	if v := os.Getenv("DOCSMCP_EMBED_DIMENSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Embedding.Dimensions = n
		}
	}
}

// Validate checks the merged configuration. The openai provider requires an
// API key up front; every other check guards against empty paths.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(&c.Docs,
		validation.Field(&c.Docs.Path, validation.Required),
	); err != nil {
		return fmt.Errorf("docs: %w", err)
	}
	if err := validation.ValidateStruct(&c.Store,
		validation.Field(&c.Store.Path, validation.Required),
	); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := validation.ValidateStruct(&c.Embedding,
		validation.Field(&c.Embedding.Provider,
			validation.In("", "ollama", "openai", "openai-compatible")),
		validation.Field(&c.Embedding.APIKey,
			validation.Required.When(c.Embedding.Provider == "openai").
				Error("is required for the openai provider")),
	); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	return nil
}

// EmbeddingDim returns the configured embedding dimensions, falling back to
// provider-specific defaults. Must stay in sync with the embedding package.
func (c *Config) EmbeddingDim() int {
	if c.Embedding.Dimensions > 0 {
		return c.Embedding.Dimensions
	}
	switch c.Embedding.Provider {
	case "openai", "openai-compatible":
		switch c.Embedding.Model {
		case "", "text-embedding-3-small", "text-embedding-ada-002":
			return 1536
		case "text-embedding-3-large":
			return 3072
		default:
			return 1536
		}
	default: // "ollama" or ""
		switch c.Embedding.Model {
		case "", "nomic-embed-text":
			return 768
		case "mxbai-embed-large", "snowflake-arctic-embed":
			return 1024
		case "all-minilm":
			return 384
		default:
			return 768
		}
	}
}

// StatsPath returns the path of the saved index stats file, kept next to the
// database.
func (c *Config) StatsPath() string {
	return filepath.Join(filepath.Dir(c.Store.Path), "index_stats.json")
}

func findConfigFile() string {
	if _, err := os.Stat(ConfigFileName); err == nil {
		return ConfigFileName
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(home, ".docsmcp", ConfigFileName)
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}
