package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the assistant.
type Config struct {
	Docs      DocsConfig      `yaml:"docs"`
	Index     IndexConfig     `yaml:"index"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Chat      ChatConfig      `yaml:"chat"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Server    ServerConfig    `yaml:"server"`
}

// DocsConfig describes where policy documents are loaded from.
type DocsConfig struct {
	Dir      string   `yaml:"dir"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// IndexConfig holds persisted-index configuration.
type IndexConfig struct {
	Path string `yaml:"path"`
	// VerifyCorpus rebuilds the index when the document set changed since it
	// was built. Off by default: the persisted index is authoritative and is
	// refreshed by deleting the file.
	VerifyCorpus bool `yaml:"verify_corpus"`
}

// ChunkingConfig configures the character-window chunker.
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider    string `yaml:"provider"` // "openai", "mock"
	Model       string `yaml:"model"`    // e.g., "text-embedding-3-small"
	APIKeyEnv   string `yaml:"api_key_env"`
	BaseURL     string `yaml:"base_url"`
	Dimension   int    `yaml:"dimension"`
	BatchSize   int    `yaml:"batch_size"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// ChatConfig holds the answer-generation configuration. Candidates are model
// identifiers tried in order until one succeeds.
type ChatConfig struct {
	Candidates  []string `yaml:"candidates"`
	Temperature float32  `yaml:"temperature"`
	APIKeyEnv   string   `yaml:"api_key_env"`
	BaseURL     string   `yaml:"base_url"`
	TimeoutSecs int      `yaml:"timeout_secs"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK      int     `yaml:"top_k"`
	Threshold float64 `yaml:"threshold"` // cosine similarity gate, in [-1,1]
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Docs: DocsConfig{
			Dir:      "docs",
			Includes: []string{"**/*.txt", "**/*.md"},
			Excludes: []string{"**/.*"},
		},
		Index: IndexConfig{
			Path: filepath.Join(".hrassist", "index.db"),
		},
		Chunking: ChunkingConfig{
			Size:    500,
			Overlap: 50,
		},
		Embedding: EmbeddingConfig{
			Provider:    "openai",
			Model:       "text-embedding-3-small",
			APIKeyEnv:   "OPENAI_API_KEY",
			BatchSize:   100,
			TimeoutSecs: 30,
		},
		Chat: ChatConfig{
			Candidates:  []string{"gpt-5-nano", "gpt-5-mini", "gpt-4o-mini"},
			Temperature: 0.2,
			APIKeyEnv:   "OPENAI_API_KEY",
			TimeoutSecs: 60,
		},
		Retrieve: RetrieveConfig{
			TopK:      3,
			Threshold: 0.2,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for hrassist.yaml,
// then .hrassist/config.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "hrassist.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".hrassist", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects configurations the pipeline cannot run with. These are
// startup-time configuration errors, not per-question failures.
func (c *Config) Validate() error {
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("config: chunk size must be positive, got %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("config: chunk overlap must satisfy 0 <= overlap < size, got overlap=%d size=%d",
			c.Chunking.Overlap, c.Chunking.Size)
	}
	if len(c.Chat.Candidates) == 0 {
		return fmt.Errorf("config: at least one chat model candidate is required")
	}
	if c.Retrieve.TopK <= 0 {
		return fmt.Errorf("config: top_k must be positive, got %d", c.Retrieve.TopK)
	}
	if c.Retrieve.Threshold < -1 || c.Retrieve.Threshold > 1 {
		return fmt.Errorf("config: threshold must be within [-1,1], got %f", c.Retrieve.Threshold)
	}
	return nil
}

// EnsureIndexDir ensures the directory holding the persisted index exists.
func EnsureIndexDir(indexPath string) error {
	return os.MkdirAll(filepath.Dir(indexPath), 0755)
}
