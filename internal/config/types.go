package config

// ProviderType identifies an embedding provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
	ProviderLocal  ProviderType = "local"
)

// Config is the top-level doc2mcp configuration, corresponding to .doc2mcp.yml.
type Config struct {
	Server    ServerConfig    `yaml:"server" koanf:"server"`
	Embedding EmbeddingConfig `yaml:"embedding" koanf:"embedding"`
	Chunking  ChunkingConfig  `yaml:"chunking" koanf:"chunking"`
	DataDir   string          `yaml:"data_dir" koanf:"data_dir"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int     `yaml:"port" koanf:"port"`
	BaseURL        string  `yaml:"base_url" koanf:"base_url"`
	AllowAll       bool    `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps" koanf:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst" koanf:"rate_limit_burst"`
}

// EmbeddingConfig selects and configures the relevance-scoring backend.
type EmbeddingConfig struct {
	Provider  ProviderType `yaml:"provider" koanf:"provider"`
	Model     string       `yaml:"model" koanf:"model"`
	OllamaURL string       `yaml:"ollama_url" koanf:"ollama_url"`
}

// ChunkingConfig controls document segmentation.
type ChunkingConfig struct {
	MaxChars     int `yaml:"max_chars" koanf:"max_chars"`
	OverlapChars int `yaml:"overlap_chars" koanf:"overlap_chars"`
}
