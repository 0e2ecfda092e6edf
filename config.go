package govgraph

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the govgraph engine.
type Config struct {
	// Graph is the connection descriptor for the graph engine.
	Graph GraphConfig `json:"graph" yaml:"graph"`

	// IndexPath is the full path to the semantic index database file.
	// If empty, defaults to ~/.govgraph/index.db.
	IndexPath string `json:"index_path" yaml:"index_path"`

	// Embedding configures the embedding backend for the semantic index.
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding"`

	// EmbeddingDim must match the embedding model's output dimension.
	EmbeddingDim int `json:"embedding_dim" yaml:"embedding_dim"`
}

// GraphConfig is the connection descriptor for the graph engine.
type GraphConfig struct {
	URI      string `json:"uri" yaml:"uri"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
	Database string `json:"database" yaml:"database"`
}

// EmbeddingConfig configures a single embedding provider endpoint.
type EmbeddingConfig struct {
	Provider string `json:"provider" yaml:"provider"` // ollama, openai, custom
	Model    string `json:"model" yaml:"model"`
	BaseURL  string `json:"base_url" yaml:"base_url"`
	APIKey   string `json:"api_key" yaml:"api_key"`
}

// DefaultConfig returns a Config with sensible defaults for local use.
// The semantic index is stored in ~/.govgraph/index.db by default.
func DefaultConfig() Config {
	return Config{
		Graph: GraphConfig{
			URI:      "bolt://localhost:7687",
			User:     "neo4j",
			Database: "neo4j",
		},
		Embedding: EmbeddingConfig{
			Provider: "ollama",
			Model:    "nomic-embed-text",
			BaseURL:  "http://localhost:11434",
		},
		EmbeddingDim: 768,
	}
}

// LoadConfig reads a YAML config file, overlays defaults, and applies
// environment overrides. A .env file in the working directory is loaded
// first if present (credentials are usually kept there, not in the YAML).
func LoadConfig(path string) (Config, error) {
	// Missing .env is fine; only its contents are optional, not the mechanism.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}

	cfg.applyEnv()

	if cfg.EmbeddingDim <= 0 {
		cfg.EmbeddingDim = 768
	}
	return cfg, nil
}

// applyEnv overrides config fields from environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("NEO4J_URI"); v != "" {
		c.Graph.URI = v
	}
	if v := os.Getenv("NEO4J_USER"); v != "" {
		c.Graph.User = v
	}
	if v := os.Getenv("NEO4J_PASSWORD"); v != "" {
		c.Graph.Password = v
	}
	if v := os.Getenv("NEO4J_DATABASE"); v != "" {
		c.Graph.Database = v
	}
	if v := os.Getenv("GOVGRAPH_INDEX_PATH"); v != "" {
		c.IndexPath = v
	}
	if v := os.Getenv("GOVGRAPH_EMBED_BASE_URL"); v != "" {
		c.Embedding.BaseURL = v
	}
	if v := os.Getenv("GOVGRAPH_EMBED_API_KEY"); v != "" {
		c.Embedding.APIKey = v
	}
	if v := os.Getenv("GOVGRAPH_EMBED_MODEL"); v != "" {
		c.Embedding.Model = v
	}
}

// resolveIndexPath computes the final semantic index path.
func (c *Config) resolveIndexPath() string {
	if c.IndexPath != "" {
		return c.IndexPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "index.db" // fallback to cwd
	}
	return filepath.Join(home, ".govgraph", "index.db")
}
