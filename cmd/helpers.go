package cmd

import (
	"fmt"
	"os"

	"github.com/doc2mcp/doc2mcp/internal/config"
	"github.com/doc2mcp/doc2mcp/internal/embeddings"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `doc2mcp init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	switch cfg.Embedding.Provider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		model := cfg.Embedding.Model
		if model == "" {
			model = "text-embedding-3-small"
		}
		return embeddings.NewOpenAIEmbedder(apiKey, model), nil
	case config.ProviderOllama:
		model := cfg.Embedding.Model
		if model == "" {
			model = "nomic-embed-text"
		}
		return embeddings.NewOllamaEmbedder(cfg.Embedding.OllamaURL, model), nil
	default:
		return embeddings.NewLocalEmbedder(), nil
	}
}
