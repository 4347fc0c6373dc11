package index

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/doc2mcp/doc2mcp/internal/embeddings"
	"github.com/doc2mcp/doc2mcp/internal/errs"
)

func testChunks(texts ...string) []Chunk {
	chunks := make([]Chunk, len(texts))
	for i, s := range texts {
		chunks[i] = Chunk{
			Source:    fmt.Sprintf("doc-%d.md", i),
			Ordinal:   i,
			Offset:    0,
			Content:   s,
			EmbedText: s,
		}
	}
	return chunks
}

func TestSearchRanksByRelevance(t *testing.T) {
	ix := New(embeddings.NewLocalEmbedder())
	ctx := context.Background()

	err := ix.Swap(ctx, "p1", 1, testChunks(
		"the deployment pipeline builds docker images every night",
		"authentication requires an api key sent in the request header",
		"our office coffee machine needs descaling monthly",
	))
	if err != nil {
		t.Fatalf("Swap: %v", err)
	}

	results, err := ix.Search(ctx, "p1", "how do I authenticate api requests", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if !strings.Contains(results[0].Content, "authentication") {
		t.Errorf("most relevant chunk should rank first, got %q", results[0].Content)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("scores must be non-increasing at position %d", i)
		}
	}
}

func TestSearchTieBreakByManifestOrder(t *testing.T) {
	ix := New(embeddings.NewLocalEmbedder())
	ctx := context.Background()

	// Identical content embeds identically, forcing a score tie.
	same := "rate limits reset every sixty seconds"
	chunks := []Chunk{
		{Source: "b.md", Ordinal: 2, Offset: 40, Content: same, EmbedText: same},
		{Source: "a.md", Ordinal: 0, Offset: 80, Content: same, EmbedText: same},
		{Source: "a.md", Ordinal: 0, Offset: 10, Content: same, EmbedText: same},
	}
	if err := ix.Swap(ctx, "p1", 1, chunks); err != nil {
		t.Fatalf("Swap: %v", err)
	}

	results, err := ix.Search(ctx, "p1", "rate limits", 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Source != "a.md" || results[0].Offset != 10 {
		t.Errorf("first tie-broken result wrong: %s@%d", results[0].Source, results[0].Offset)
	}
	if results[1].Source != "a.md" || results[1].Offset != 80 {
		t.Errorf("second tie-broken result wrong: %s@%d", results[1].Source, results[1].Offset)
	}
	if results[2].Source != "b.md" {
		t.Errorf("later manifest file must sort last, got %s", results[2].Source)
	}
}

// A score tie at the limit cutoff must always resolve to the
// manifest-earlier chunk, on every call.
func TestSearchTieBreakAtLimitCutoff(t *testing.T) {
	ix := New(embeddings.NewLocalEmbedder())
	ctx := context.Background()

	same := "tokens expire after one hour"
	chunks := []Chunk{
		{Source: "later.md", Ordinal: 1, Offset: 0, Content: same, EmbedText: same},
		{Source: "earlier.md", Ordinal: 0, Offset: 0, Content: same, EmbedText: same},
	}
	if err := ix.Swap(ctx, "p1", 1, chunks); err != nil {
		t.Fatalf("Swap: %v", err)
	}

	for i := 0; i < 50; i++ {
		results, err := ix.Search(ctx, "p1", "token expiry", 1)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("expected 1 result, got %d", len(results))
		}
		if results[0].Source != "earlier.md" {
			t.Fatalf("call %d: manifest-later chunk survived the cutoff", i)
		}
	}
}

func TestSearchDefaultLimit(t *testing.T) {
	ix := New(embeddings.NewLocalEmbedder())
	ctx := context.Background()

	texts := make([]string, 12)
	for i := range texts {
		texts[i] = fmt.Sprintf("section %d covers endpoint number %d in detail", i, i)
	}
	if err := ix.Swap(ctx, "p1", 1, testChunks(texts...)); err != nil {
		t.Fatalf("Swap: %v", err)
	}

	results, err := ix.Search(ctx, "p1", "endpoint", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != DefaultLimit {
		t.Errorf("expected %d results by default, got %d", DefaultLimit, len(results))
	}
}

func TestSearchLimitClampedToCollection(t *testing.T) {
	ix := New(embeddings.NewLocalEmbedder())
	ctx := context.Background()

	if err := ix.Swap(ctx, "p1", 1, testChunks("only one chunk here")); err != nil {
		t.Fatalf("Swap: %v", err)
	}
	results, err := ix.Search(ctx, "p1", "chunk", 50)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 result, got %d", len(results))
	}
}

func TestSearchUnpublishedProject(t *testing.T) {
	ix := New(embeddings.NewLocalEmbedder())

	_, err := ix.Search(context.Background(), "ghost", "anything", 5)
	if err == nil {
		t.Fatal("expected error for project without a published index")
	}
	if errs.KindOf(err) != errs.KindNotReady {
		t.Errorf("expected not_ready kind, got %s", errs.KindOf(err))
	}
}

func TestSwapReplacesAtomically(t *testing.T) {
	ix := New(embeddings.NewLocalEmbedder())
	ctx := context.Background()

	if err := ix.Swap(ctx, "p1", 1, testChunks("generation one alpha", "generation one beta")); err != nil {
		t.Fatalf("Swap gen 1: %v", err)
	}

	// Readers racing the rebuild must always see a complete generation,
	// never a mix or an empty window.
	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			results, err := ix.Search(ctx, "p1", "generation", 10)
			if err != nil {
				t.Errorf("Search during swap: %v", err)
				return
			}
			if n := len(results); n != 2 && n != 3 {
				t.Errorf("observed partial index with %d chunks", n)
				return
			}
		}
	}()

	for g := 2; g <= 5; g++ {
		err := ix.Swap(ctx, "p1", g, testChunks(
			"generation two alpha", "generation two beta", "generation two gamma"))
		if err != nil {
			t.Fatalf("Swap gen %d: %v", g, err)
		}
	}
	close(stop)
	wg.Wait()

	if got := ix.Count("p1"); got != 3 {
		t.Errorf("expected 3 chunks after final swap, got %d", got)
	}
}

func TestDrop(t *testing.T) {
	ix := New(embeddings.NewLocalEmbedder())
	ctx := context.Background()

	if err := ix.Swap(ctx, "p1", 1, testChunks("content")); err != nil {
		t.Fatalf("Swap: %v", err)
	}
	if !ix.Ready("p1") {
		t.Fatal("expected project to be ready after swap")
	}

	ix.Drop("p1")
	if ix.Ready("p1") {
		t.Error("expected project to be gone after drop")
	}
	if _, err := ix.Search(ctx, "p1", "content", 5); errs.KindOf(err) != errs.KindNotReady {
		t.Errorf("expected not_ready after drop, got %v", err)
	}
}
