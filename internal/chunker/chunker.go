// Package chunker splits extracted document text into bounded,
// overlapping, page-tracked chunks measured in subword tokens.
package chunker

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/arkive-labs/docchat/internal/core/domain"
	"github.com/arkive-labs/docchat/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of tokens per chunk.
const DefaultChunkSize = 3000

// DefaultOverlap is the default number of overlapping tokens between
// consecutive chunks.
const DefaultOverlap = 200

// pageMarker matches the in-band page sentinel inserted by the
// extraction service at page boundaries.
var pageMarker = regexp.MustCompile(`\[\[PAGE_(\d+)\]\]`)

// Chunker windows tokenized page text into chunks.
type Chunker struct {
	tokenizer driven.Tokenizer
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in tokens.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in tokens.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker over the given tokenizer.
func New(tokenizer driven.Tokenizer, opts ...Option) *Chunker {
	c := &Chunker{
		tokenizer: tokenizer,
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// page is one page-delimited segment of the input in document order.
type page struct {
	number int
	text   string
}

// Chunk converts extracted text into an ordered chunk sequence.
// It never fails on well-formed strings; empty input yields no chunks.
// Re-chunking identical (text, source) input yields identical ids and
// text, which keeps re-ingestion idempotent at the storage-key level.
func (c *Chunker) Chunk(text, source string) []domain.Chunk {
	pages, marked := c.splitPages(text)

	now := time.Now().UTC()
	seq := 0
	var chunks []domain.Chunk

	for _, p := range pages {
		if strings.TrimSpace(p.text) == "" {
			continue
		}

		tokens := c.tokenizer.Encode(p.text)
		if len(tokens) == 0 {
			continue
		}

		stride := c.chunkSize - c.overlap
		for window, start := 0, 0; ; window, start = window+1, start+stride {
			end := start + c.chunkSize
			if end > len(tokens) {
				end = len(tokens)
			}

			id := fmt.Sprintf("%s-p%d-%d", source, p.number, window)
			if !marked {
				id = fmt.Sprintf("%s-%d", source, window)
			}

			chunks = append(chunks, domain.Chunk{
				ID:            id,
				Text:          c.tokenizer.Decode(tokens[start:end]),
				Source:        source,
				PageRange:     strconv.Itoa(p.number),
				SequenceIndex: seq,
				CreatedAt:     now,
			})
			seq++

			if end == len(tokens) {
				break
			}
		}
	}

	return chunks
}

// splitPages consumes the page sentinels, returning (pageNumber, text)
// pairs in document order. When the input carries no markers the whole
// text becomes a single logical page 1 and marked is false. Stray text
// before the first marker is folded into the first page.
func (c *Chunker) splitPages(text string) (pages []page, marked bool) {
	locs := pageMarker.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return []page{{number: 1, text: text}}, false
	}

	prefix := text[:locs[0][0]]

	for i, loc := range locs {
		number, _ := strconv.Atoi(text[loc[2]:loc[3]])

		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := text[loc[1]:end]

		if i == 0 && strings.TrimSpace(prefix) != "" {
			body = prefix + body
		}

		pages = append(pages, page{number: number, text: body})
	}

	return pages, true
}
