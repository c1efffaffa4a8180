// Package cli implements the docchat command line interface. Commands
// are wired to the core services lazily so that commands like version
// and help work without any configuration or API keys present.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/arkive-labs/docchat/internal/adapters/driven/config/file"
	geminiembed "github.com/arkive-labs/docchat/internal/adapters/driven/embedding/gemini"
	openaiembed "github.com/arkive-labs/docchat/internal/adapters/driven/embedding/openai"
	"github.com/arkive-labs/docchat/internal/adapters/driven/index/memory"
	"github.com/arkive-labs/docchat/internal/adapters/driven/index/pinecone"
	geminillm "github.com/arkive-labs/docchat/internal/adapters/driven/llm/gemini"
	openaillm "github.com/arkive-labs/docchat/internal/adapters/driven/llm/openai"
	"github.com/arkive-labs/docchat/internal/adapters/driven/storage/sqlite"
	"github.com/arkive-labs/docchat/internal/adapters/driven/tokenizer/tiktoken"
	"github.com/arkive-labs/docchat/internal/chunker"
	"github.com/arkive-labs/docchat/internal/core/ports/driven"
	"github.com/arkive-labs/docchat/internal/core/ports/driving"
	"github.com/arkive-labs/docchat/internal/core/services"
	"github.com/arkive-labs/docchat/internal/logger"
)

// version is set at build time via ldflags.
var version = "0.1.0"

var (
	verbose    bool
	configPath string
)

// Services shared by the commands. Populated by initServices.
var (
	appConfig     *file.Config
	ingestService driving.Ingestor
	searchService driving.Searcher
	chatService   driving.Chatter

	closers []io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "docchat",
	Short: "Chat with your documents",
	Long: `docchat ingests text documents into a vector index and answers
questions about them with cited sources, using an LLM with
retrieval-augmented generation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.docchat/config.toml)")
}

// Execute runs the root command with the given context. The context
// is cancelled on interrupt by the caller, which stops long-running
// commands like watch and mcp serve.
func Execute(ctx context.Context) error {
	defer closeServices()
	return rootCmd.ExecuteContext(ctx)
}

// initServices builds the adapter stack from configuration. It is
// called by commands that need the core services and is a no-op when
// already initialised.
func initServices() error {
	if appConfig != nil {
		return nil
	}

	logger.SetVerbose(verbose)

	path := configPath
	if path == "" {
		var err error
		path, err = file.DefaultPath()
		if err != nil {
			return err
		}
	}

	cfg, err := file.Load(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger.Debug("config loaded from %s", path)

	tok, err := tiktoken.New(tiktoken.DefaultEncoding)
	if err != nil {
		return fmt.Errorf("initialising tokenizer: %w", err)
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}
	closers = append(closers, embedder)

	index, err := buildIndex(cfg)
	if err != nil {
		return err
	}
	closers = append(closers, index)

	indexerOpts := []services.IndexerOption{
		services.WithBatchSize(cfg.Indexer.BatchSize),
	}
	if cfg.Indexer.EmbedRPS > 0 {
		indexerOpts = append(indexerOpts, services.WithEmbedRateLimit(cfg.Indexer.EmbedRPS, 1))
	}
	indexer := services.NewIndexer(embedder, index, indexerOpts...)

	store, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening document store: %w", err)
	}
	closers = append(closers, store)

	split := chunker.New(tok,
		chunker.WithChunkSize(cfg.Chunker.ChunkSize),
		chunker.WithOverlap(cfg.Chunker.Overlap),
	)

	llm, err := buildLLM(cfg)
	if err != nil {
		return err
	}
	closers = append(closers, llm)

	appConfig = cfg
	ingestService = services.NewIngestService(split, indexer, store)
	searchService = indexer
	chatService = services.NewChatService(llm, indexer,
		services.WithMaxRounds(cfg.Chat.MaxRounds),
		services.WithToolTopK(cfg.Chat.TopK),
	)

	return nil
}

// buildEmbedder constructs the configured embedding provider.
func buildEmbedder(cfg *file.Config) (driven.EmbeddingService, error) {
	key := file.APIKey(cfg.Embedding.APIKeyEnv)

	switch cfg.Embedding.Provider {
	case file.ProviderGemini:
		if key == "" {
			return nil, fmt.Errorf("embedding: %s is not set", cfg.Embedding.APIKeyEnv)
		}
		return geminiembed.NewEmbeddingService(geminiembed.Config{
			APIKey:  key,
			BaseURL: cfg.Embedding.BaseURL,
			Model:   cfg.Embedding.Model,
		})
	case file.ProviderOpenAI:
		if key == "" {
			return nil, fmt.Errorf("embedding: %s is not set", cfg.Embedding.APIKeyEnv)
		}
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  key,
			BaseURL: cfg.Embedding.BaseURL,
			Model:   cfg.Embedding.Model,
		})
	default:
		return nil, fmt.Errorf("embedding: unknown provider %q", cfg.Embedding.Provider)
	}
}

// buildIndex constructs the configured vector index backend.
func buildIndex(cfg *file.Config) (driven.VectorIndex, error) {
	switch cfg.Index.Type {
	case file.IndexPinecone:
		key := file.APIKey(cfg.Pinecone.APIKeyEnv)
		if key == "" {
			return nil, fmt.Errorf("pinecone: %s is not set", cfg.Pinecone.APIKeyEnv)
		}
		return pinecone.New(pinecone.Config{
			APIKey:    key,
			Host:      cfg.Pinecone.Host,
			Namespace: cfg.Pinecone.Namespace,
		})
	case file.IndexMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("index: unknown type %q", cfg.Index.Type)
	}
}

// buildLLM constructs the configured generation provider.
func buildLLM(cfg *file.Config) (driven.LLMService, error) {
	key := file.APIKey(cfg.LLM.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("llm: %s is not set", cfg.LLM.APIKeyEnv)
	}

	switch cfg.LLM.Provider {
	case file.ProviderGemini:
		return geminillm.NewLLMService(geminillm.LLMConfig{
			APIKey:  key,
			BaseURL: cfg.LLM.BaseURL,
			Models:  cfg.LLM.Models,
		})
	case file.ProviderOpenAI:
		model := ""
		if len(cfg.LLM.Models) > 0 {
			model = cfg.LLM.Models[0]
		}
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  key,
			BaseURL: cfg.LLM.BaseURL,
			Model:   model,
		})
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.LLM.Provider)
	}
}

// closeServices releases all adapter resources.
func closeServices() {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			logger.Debug("close: %v", err)
		}
	}
	closers = nil
}
