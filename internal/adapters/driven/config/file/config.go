// Package file provides the TOML application configuration for docchat.
// Configuration lives at ~/.docchat/config.toml by default; API keys
// are referenced by environment variable name, never stored in the file.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Provider and index type names accepted in the config file.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	IndexPinecone = "pinecone"
	IndexMemory   = "memory"
)

// LLMConfig selects and configures the generation model provider.
type LLMConfig struct {
	Provider  string   `toml:"provider"`
	Models    []string `toml:"models,omitempty"`
	APIKeyEnv string   `toml:"api_key_env"`
	BaseURL   string   `toml:"base_url,omitempty"`
}

// EmbeddingConfig selects and configures the embedding model provider.
type EmbeddingConfig struct {
	Provider  string `toml:"provider"`
	Model     string `toml:"model"`
	APIKeyEnv string `toml:"api_key_env"`
	BaseURL   string `toml:"base_url,omitempty"`
}

// IndexConfig selects the vector index backend.
type IndexConfig struct {
	Type string `toml:"type"`
}

// PineconeConfig holds Pinecone connection details.
type PineconeConfig struct {
	APIKeyEnv string `toml:"api_key_env"`
	Host      string `toml:"host"`
	Namespace string `toml:"namespace,omitempty"`
}

// ChunkerConfig configures chunk windowing.
type ChunkerConfig struct {
	ChunkSize int `toml:"chunk_size"`
	Overlap   int `toml:"overlap"`
}

// IndexerConfig configures batching and embedding rate limits.
type IndexerConfig struct {
	BatchSize int     `toml:"batch_size"`
	EmbedRPS  float64 `toml:"embed_rps,omitempty"`
}

// ChatConfig configures the conversation loop.
type ChatConfig struct {
	MaxRounds int `toml:"max_rounds"`
	TopK      int `toml:"top_k"`
}

// Config is the root application configuration.
type Config struct {
	LLM       LLMConfig       `toml:"llm"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Index     IndexConfig     `toml:"index"`
	Pinecone  PineconeConfig  `toml:"pinecone"`
	Chunker   ChunkerConfig   `toml:"chunker"`
	Indexer   IndexerConfig   `toml:"indexer"`
	Chat      ChatConfig      `toml:"chat"`

	// DataDir holds the metadata database (default ~/.docchat/data).
	DataDir string `toml:"data_dir,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:  ProviderGemini,
			APIKeyEnv: "GOOGLE_API_KEY",
		},
		Embedding: EmbeddingConfig{
			Provider:  ProviderGemini,
			Model:     "text-embedding-004",
			APIKeyEnv: "GOOGLE_API_KEY",
		},
		Index: IndexConfig{Type: IndexPinecone},
		Pinecone: PineconeConfig{
			APIKeyEnv: "PINECONE_API_KEY",
		},
		Chunker: ChunkerConfig{ChunkSize: 3000, Overlap: 200},
		Indexer: IndexerConfig{BatchSize: 100},
		Chat:    ChatConfig{MaxRounds: 3, TopK: 10},
	}
}

// DefaultPath returns ~/.docchat/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".docchat", "config.toml"), nil
}

// Load reads the config from path. A missing file yields defaults; a
// present file is merged over defaults so partial configs work.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

// Save writes the config to path, creating directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// APIKey resolves the environment variable named by env.
func APIKey(env string) string {
	return os.Getenv(env)
}

// applyDefaults backfills zero values left by a partial config file.
func applyDefaults(cfg *Config) {
	def := Default()

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = def.LLM.Provider
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = def.LLM.APIKeyEnv
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = def.Embedding.Provider
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = def.Embedding.Model
	}
	if cfg.Embedding.APIKeyEnv == "" {
		cfg.Embedding.APIKeyEnv = def.Embedding.APIKeyEnv
	}
	if cfg.Index.Type == "" {
		cfg.Index.Type = def.Index.Type
	}
	if cfg.Pinecone.APIKeyEnv == "" {
		cfg.Pinecone.APIKeyEnv = def.Pinecone.APIKeyEnv
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = def.Chunker.ChunkSize
	}
	if cfg.Chunker.Overlap == 0 {
		cfg.Chunker.Overlap = def.Chunker.Overlap
	}
	if cfg.Indexer.BatchSize == 0 {
		cfg.Indexer.BatchSize = def.Indexer.BatchSize
	}
	if cfg.Chat.MaxRounds == 0 {
		cfg.Chat.MaxRounds = def.Chat.MaxRounds
	}
	if cfg.Chat.TopK == 0 {
		cfg.Chat.TopK = def.Chat.TopK
	}
}
