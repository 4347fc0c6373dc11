package chunker

import (
	"strings"
	"testing"

	"github.com/doc2mcp/doc2mcp/internal/errs"
)

func TestSplitDeterministic(t *testing.T) {
	content := strings.Repeat("All API requests require an API key in the header. ", 100)
	cfg := Config{MaxChars: 300, OverlapChars: 50}

	first, err := Split("api.md", content, cfg)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	second, err := Split("api.md", content, cfg)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestSplitEmptyFile(t *testing.T) {
	chunks, err := Split("empty.txt", "", Config{})
	if err != nil {
		t.Fatalf("empty file must not error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected zero chunks, got %d", len(chunks))
	}
}

func TestSplitShortFile(t *testing.T) {
	content := "Just one short paragraph."
	chunks, err := Split("short.txt", content, Config{MaxChars: 1000, OverlapChars: 100})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected exactly one chunk, got %d", len(chunks))
	}
	if chunks[0].Content != content {
		t.Errorf("chunk must cover the whole file, got %q", chunks[0].Content)
	}
	if chunks[0].Offset != 0 {
		t.Errorf("expected offset 0, got %d", chunks[0].Offset)
	}
}

func TestSplitOverlapCoversBoundaries(t *testing.T) {
	// A marker placed right at a chunk boundary must appear whole in at
	// least one chunk.
	marker := "NEEDLE"
	content := strings.Repeat("a", 297) + marker + strings.Repeat("b", 300)
	chunks, err := Split("doc.txt", content, Config{MaxChars: 300, OverlapChars: 60})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	found := false
	for _, c := range chunks {
		if strings.Contains(c.Content, marker) {
			found = true
		}
	}
	if !found {
		t.Error("boundary-straddling text lost by chunking")
	}
}

func TestSplitOffsetsAndCoverage(t *testing.T) {
	content := strings.Repeat("0123456789", 20)
	chunks, err := Split("doc.txt", content, Config{MaxChars: 50, OverlapChars: 10})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	for i, c := range chunks {
		if got := content[c.Offset : c.Offset+len(c.Content)]; got != c.Content {
			t.Errorf("chunk %d offset %d does not address its content", i, c.Offset)
		}
		if i > 0 && c.Offset <= chunks[i-1].Offset {
			t.Errorf("offsets must strictly increase, chunk %d", i)
		}
	}

	last := chunks[len(chunks)-1]
	if last.Offset+len(last.Content) != len(content) {
		t.Error("chunks must cover the file through its end")
	}
}

func TestSplitRejectsBinary(t *testing.T) {
	_, err := Split("blob.bin", "PK\x03\x04\x00\xff\xfe\x00binary", Config{})
	if err == nil {
		t.Fatal("expected document_format error for binary content")
	}
	if errs.KindOf(err) != errs.KindDocumentFormat {
		t.Errorf("expected document_format kind, got %s", errs.KindOf(err))
	}
}

func TestSplitMultibyteBoundaries(t *testing.T) {
	content := strings.Repeat("héllo wörld ", 50)
	chunks, err := Split("i18n.txt", content, Config{MaxChars: 40, OverlapChars: 8})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	for i, c := range chunks {
		if !strings.HasPrefix(content[c.Offset:], c.Content) {
			t.Fatalf("chunk %d not aligned to rune boundary", i)
		}
	}
}

func TestMarkdownEmbedText(t *testing.T) {
	content := "# Authentication\n\nAll requests require an **API key**.\n\n```\nAuthorization: Bearer token\n```\n"
	chunks, err := Split("auth.md", content, Config{MaxChars: 2000, OverlapChars: 0})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected one chunk, got %d", len(chunks))
	}

	embed := chunks[0].EmbedText
	if strings.Contains(embed, "**") || strings.Contains(embed, "# ") {
		t.Errorf("markdown formatting leaked into embed text: %q", embed)
	}
	if !strings.Contains(embed, "Authentication") {
		t.Errorf("heading text missing from embed text: %q", embed)
	}
	if !strings.Contains(embed, "Authorization: Bearer token") {
		t.Errorf("code block content missing from embed text: %q", embed)
	}
	// Raw content is preserved for display.
	if chunks[0].Content != content {
		t.Error("raw chunk content must keep the original markdown")
	}
}
