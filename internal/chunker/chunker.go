// Package chunker splits uploaded documents into bounded, overlapping
// retrieval units. Segmentation is deterministic: the same content and
// configuration always yield the same chunk sequence, which is what makes
// re-ingestion idempotent.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/doc2mcp/doc2mcp/internal/errs"
)

// Config controls chunk sizing. Overlap keeps text that straddles a chunk
// boundary retrievable from at least one chunk.
type Config struct {
	MaxChars     int
	OverlapChars int
}

// DefaultConfig is used when a zero Config is passed.
var DefaultConfig = Config{MaxChars: 1200, OverlapChars: 200}

func (c Config) withDefaults() Config {
	if c.MaxChars <= 0 {
		c.MaxChars = DefaultConfig.MaxChars
	}
	if c.OverlapChars < 0 {
		c.OverlapChars = 0
	}
	if c.OverlapChars >= c.MaxChars {
		c.OverlapChars = c.MaxChars / 4
	}
	return c
}

// Chunk is one bounded segment of a source file.
type Chunk struct {
	// Content is the raw slice of the source file.
	Content string

	// Offset is the byte offset of Content within the source file.
	Offset int

	// EmbedText is the text handed to the relevance scorer. For markdown
	// files this is the plain-text rendering of Content; otherwise it
	// equals Content.
	EmbedText string
}

// Split segments a file's content into overlapping chunks. Undecodable
// binary content is rejected with a document_format error; an empty file
// yields zero chunks and no error; a file shorter than one chunk yields
// exactly one chunk covering the whole file.
func Split(name, content string, cfg Config) ([]Chunk, error) {
	cfg = cfg.withDefaults()

	if len(content) == 0 {
		return nil, nil
	}
	if !utf8.ValidString(content) || strings.ContainsRune(content, 0) {
		return nil, errs.Newf(errs.KindDocumentFormat, "file %q is not decodable text", name)
	}

	markdown := isMarkdown(name)

	var chunks []Chunk
	pos := 0
	for {
		end := advance(content, pos, cfg.MaxChars)
		raw := content[pos:end]

		embed := raw
		if markdown {
			if plain := markdownToPlain(raw); plain != "" {
				embed = plain
			}
		}

		chunks = append(chunks, Chunk{Content: raw, Offset: pos, EmbedText: embed})

		if end >= len(content) {
			break
		}
		next := advance(content, pos, cfg.MaxChars-cfg.OverlapChars)
		if next <= pos {
			next = end
		}
		pos = next
	}

	return chunks, nil
}

func isMarkdown(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown")
}

// advance returns the byte index that lies n runes past from, clamped to the
// end of s. Chunk boundaries always fall on rune boundaries.
func advance(s string, from, n int) int {
	i := from
	for ; n > 0 && i < len(s); n-- {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return i
}
