// Package embeddings provides the injected relevance-scoring capability:
// the index turns query and chunk text into vectors through an Embedder and
// ranks by cosine similarity. The service itself never implements a model.
package embeddings

import "context"

// Embedder defines the interface for generating text embeddings.
type Embedder interface {
	// Embed generates embeddings for one or more texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the number of dimensions in the embedding vectors.
	Dimensions() int

	// Name returns the name/identifier of the embedding model.
	Name() string
}
