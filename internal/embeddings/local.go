package embeddings

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// localDimensions is the bucket count for the hashed bag-of-words vectors.
const localDimensions = 384

// LocalEmbedder produces deterministic embeddings without any external
// service. Tokens are hashed into a fixed number of buckets and the result
// is L2-normalized, so texts sharing vocabulary score close under cosine
// similarity. Quality is far below a real model; it exists so the service
// runs fully offline out of the box.
type LocalEmbedder struct{}

// NewLocalEmbedder creates the offline default embedder.
func NewLocalEmbedder() *LocalEmbedder { return &LocalEmbedder{} }

func (e *LocalEmbedder) Name() string { return "local-hash" }

func (e *LocalEmbedder) Dimensions() int { return localDimensions }

func (e *LocalEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = embedLocal(text)
	}
	return out, nil
}

func embedLocal(text string) []float32 {
	vec := make([]float32, localDimensions)

	for _, tok := range tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%localDimensions]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		// Zero vectors break cosine similarity; pin empty text to a
		// fixed unit vector instead.
		vec[0] = 1
		return vec
	}

	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
