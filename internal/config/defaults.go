package config

// DefaultChunkMaxChars and DefaultChunkOverlap define the chunking policy
// applied when the config does not override it. Overlap keeps content that
// straddles a chunk boundary retrievable from at least one chunk.
const (
	DefaultChunkMaxChars = 1200
	DefaultChunkOverlap  = 200
)

// DefaultConfig returns a Config with sensible defaults. The local embedding
// provider works offline so a fresh install can ingest and search without
// any API keys.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           5000,
			BaseURL:        "http://localhost:5000",
			AllowAll:       false,
			RateLimitRPS:   20,
			RateLimitBurst: 40,
		},
		Embedding: EmbeddingConfig{
			Provider: ProviderLocal,
			Model:    "",
		},
		Chunking: ChunkingConfig{
			MaxChars:     DefaultChunkMaxChars,
			OverlapChars: DefaultChunkOverlap,
		},
		DataDir: ".doc2mcp",
	}
}
