// Package index maintains per-project vector collections and serves ranked
// similarity queries over them. A rebuild publishes a whole new collection
// in one step, so readers never observe a half-built index.
package index

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/doc2mcp/doc2mcp/internal/embeddings"
	"github.com/doc2mcp/doc2mcp/internal/errs"
)

// DefaultLimit is the number of results returned when the caller does not
// ask for a specific count.
const DefaultLimit = 5

// embedConcurrency bounds parallel embedding work inside chromem.
const embedConcurrency = 4

// Chunk is one indexable unit of a source file.
type Chunk struct {
	Source    string // file name the chunk came from
	Ordinal   int    // position of the file in the upload manifest
	Offset    int    // byte offset of the chunk within the file
	Content   string // raw text, returned verbatim in results
	EmbedText string // text actually embedded (markdown stripped)
}

// Result is a ranked search hit.
type Result struct {
	Content string  `json:"content"`
	Source  string  `json:"source"`
	Offset  int     `json:"offset"`
	Score   float64 `json:"score"`

	ordinal int
}

// Index holds one published collection per project.
type Index struct {
	embedder embeddings.Embedder

	mu   sync.RWMutex
	db   *chromem.DB
	live map[string]*chromem.Collection
}

// New creates an in-memory index backed by the given embedder.
func New(embedder embeddings.Embedder) *Index {
	return &Index{
		embedder: embedder,
		db:       chromem.NewDB(),
		live:     make(map[string]*chromem.Collection),
	}
}

// Swap builds a fresh collection for the project from the given chunks and
// publishes it atomically, replacing any previous collection. Generation
// disambiguates collection names across rebuilds of the same project.
func (ix *Index) Swap(ctx context.Context, projectID string, generation int, chunks []Chunk) error {
	name := collectionName(projectID, generation)

	// A retried build of the same generation must not append to leftovers.
	_ = ix.db.DeleteCollection(name)
	col, err := ix.db.GetOrCreateCollection(name, nil, embeddings.ToChromemFunc(ix.embedder))
	if err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}

	if len(chunks) > 0 {
		docs, err := ix.buildDocuments(ctx, chunks)
		if err != nil {
			_ = ix.db.DeleteCollection(name)
			return err
		}
		if err := col.AddDocuments(ctx, docs, embedConcurrency); err != nil {
			_ = ix.db.DeleteCollection(name)
			return fmt.Errorf("add documents to %s: %w", name, err)
		}
	}

	ix.mu.Lock()
	old := ix.live[projectID]
	ix.live[projectID] = col
	ix.mu.Unlock()

	if old != nil && old.Name != name {
		_ = ix.db.DeleteCollection(old.Name)
	}
	return nil
}

// buildDocuments embeds the chunks' search text in one batch and pairs each
// vector with the chunk's raw content, so markdown stays intact in results.
func (ix *Index) buildDocuments(ctx context.Context, chunks []Chunk) ([]chromem.Document, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.EmbedText
	}

	vectors, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %d chunks: %w", len(chunks), err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = chromem.Document{
			ID:        fmt.Sprintf("%d-%d", c.Ordinal, c.Offset),
			Content:   c.Content,
			Embedding: vectors[i],
			Metadata: map[string]string{
				"source":  c.Source,
				"ordinal": strconv.Itoa(c.Ordinal),
				"offset":  strconv.Itoa(c.Offset),
			},
		}
	}
	return docs, nil
}

// Search runs a similarity query against the project's published collection.
// limit <= 0 selects DefaultLimit. Ties are broken by manifest position and
// then by offset within the file, so equal-score results order stably.
func (ix *Index) Search(ctx context.Context, projectID, query string, limit int) ([]Result, error) {
	ix.mu.RLock()
	col := ix.live[projectID]
	ix.mu.RUnlock()

	if col == nil {
		return nil, errs.Newf(errs.KindNotReady, "project %s has no published index", projectID)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	count := col.Count()
	if count == 0 {
		return []Result{}, nil
	}

	qvecs, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	// Rank every candidate, not just the top limit: cutting off inside
	// chromem would let its internal map order decide which score-tied
	// chunks survive, making equal-score results irreproducible.
	hits, err := col.QueryEmbedding(ctx, qvecs[0], count, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		ordinal, _ := strconv.Atoi(h.Metadata["ordinal"])
		offset, _ := strconv.Atoi(h.Metadata["offset"])
		results = append(results, Result{
			Content: h.Content,
			Source:  h.Metadata["source"],
			Offset:  offset,
			Score:   float64(h.Similarity),
			ordinal: ordinal,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].ordinal != results[j].ordinal {
			return results[i].ordinal < results[j].ordinal
		}
		return results[i].Offset < results[j].Offset
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Drop removes the project's collection, if any.
func (ix *Index) Drop(projectID string) {
	ix.mu.Lock()
	col := ix.live[projectID]
	delete(ix.live, projectID)
	ix.mu.Unlock()

	if col != nil {
		_ = ix.db.DeleteCollection(col.Name)
	}
}

// Count reports how many chunks the project's published collection holds.
func (ix *Index) Count(projectID string) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if col := ix.live[projectID]; col != nil {
		return col.Count()
	}
	return 0
}

// Ready reports whether the project has a published collection.
func (ix *Index) Ready(projectID string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.live[projectID] != nil
}

func collectionName(projectID string, generation int) string {
	return fmt.Sprintf("project-%s-g%d", projectID, generation)
}
