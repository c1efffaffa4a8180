package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/arkive-labs/docchat/internal/core/domain"
	"github.com/arkive-labs/docchat/internal/core/ports/driven"
	"github.com/arkive-labs/docchat/internal/core/ports/driving"
	"github.com/arkive-labs/docchat/internal/logger"
)

// Ensure Indexer implements the interface.
var _ driving.Searcher = (*Indexer)(nil)

// DefaultBatchSize is the default number of chunks embedded and
// upserted per round trip, sized to upstream batch limits.
const DefaultBatchSize = 100

// DefaultQueryTopK is the default number of matches for direct queries.
const DefaultQueryTopK = 5

// Indexer turns chunks and queries into vectors and maintains the
// similarity index. Batches are processed sequentially so memory use
// stays bounded for large documents.
type Indexer struct {
	embedder  driven.EmbeddingService
	index     driven.VectorIndex
	batchSize int
	limiter   *rate.Limiter
}

// IndexerOption configures the indexer.
type IndexerOption func(*Indexer)

// WithBatchSize sets the embedding/upsert batch size.
func WithBatchSize(size int) IndexerOption {
	return func(s *Indexer) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithEmbedRateLimit caps embedding round trips with a token bucket.
// Zero or negative rps disables the limit.
func WithEmbedRateLimit(rps float64, burst int) IndexerOption {
	return func(s *Indexer) {
		if rps > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// NewIndexer creates an indexer over the given embedding service and
// vector index.
func NewIndexer(embedder driven.EmbeddingService, index driven.VectorIndex, opts ...IndexerOption) *Indexer {
	s := &Indexer{
		embedder:  embedder,
		index:     index,
		batchSize: DefaultBatchSize,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Embed generates an embedding for a single text, normalising
// whitespace first. The vector dimension is validated against the
// model's declared dimension.
func (s *Indexer) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	if err := s.waitEmbed(ctx); err != nil {
		return nil, err
	}

	vector, err := s.embedder.Embed(ctx, normalizeText(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
	}
	if err := s.checkDimension(vector); err != nil {
		return nil, err
	}

	return vector, nil
}

// UpsertBatch embeds and upserts chunks in fixed-size batches, one
// embedding round trip per batch, in chunk order. A failing batch
// aborts the remainder; batches already written stay in the index.
func (s *Indexer) UpsertBatch(ctx context.Context, chunks []domain.Chunk) error {
	if s.embedder == nil {
		return domain.ErrEmbeddingUnavailable
	}
	if s.index == nil {
		return domain.ErrVectorIndexUnavailable
	}
	if len(chunks) == 0 {
		return nil
	}

	logger.Section("Index Upsert")
	logger.Debug("Upserting %d chunks in batches of %d", len(chunks), s.batchSize)

	for start := 0; start < len(chunks); start += s.batchSize {
		end := start + s.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		if err := s.upsertOne(ctx, chunks[start:end]); err != nil {
			return fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		logger.Debug("Batch %d-%d upserted", start, end)
	}

	return nil
}

// upsertOne embeds and writes a single batch.
func (s *Indexer) upsertOne(ctx context.Context, batch []domain.Chunk) error {
	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = normalizeText(chunk.Text)
	}

	if err := s.waitEmbed(ctx); err != nil {
		return err
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrEmbedding, len(vectors), len(batch))
	}

	entries := make([]domain.IndexEntry, len(batch))
	for i, chunk := range batch {
		if err := s.checkDimension(vectors[i]); err != nil {
			return err
		}
		entries[i] = domain.IndexEntry{
			ID:     chunk.ID,
			Vector: vectors[i],
			Metadata: domain.EntryMetadata{
				Source:    chunk.Source,
				PageRange: chunk.PageRange,
				Text:      chunk.Text,
			},
		}
	}

	if err := s.index.Upsert(ctx, entries); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIndexWrite, err)
	}

	return nil
}

// Query embeds the query text and returns the topK nearest chunks,
// closest first. An empty index yields an empty slice.
func (s *Indexer) Query(ctx context.Context, queryText string, topK int) ([]domain.Match, error) {
	if s.index == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	if topK <= 0 {
		topK = DefaultQueryTopK
	}

	logger.Debug("Query: %q (topK=%d)", queryText, topK)

	vector, err := s.Embed(ctx, queryText)
	if err != nil {
		return nil, err
	}

	matches, err := s.index.Query(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexQuery, err)
	}

	logger.Debug("Query: %d matches", len(matches))
	return matches, nil
}

// DeleteBySource removes all index entries for a source. This is
// best-effort: the authoritative document record drives deletion, so
// index failures are logged and swallowed, never propagated.
func (s *Indexer) DeleteBySource(ctx context.Context, source string) {
	if s.index == nil {
		return
	}

	if err := s.index.DeleteBySource(ctx, source); err != nil {
		logger.Error("Index cleanup for source %q failed: %v", source, err)
		return
	}
	logger.Info("Deleted index entries for source %q", source)
}

// waitEmbed applies the embedding rate limit, if configured.
func (s *Indexer) waitEmbed(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

// checkDimension validates a vector against the model's declared size.
func (s *Indexer) checkDimension(vector []float32) error {
	want := s.embedder.Dimensions()
	if want > 0 && len(vector) != want {
		return fmt.Errorf("%w: dimension %d, want %d", domain.ErrEmbedding, len(vector), want)
	}
	if len(vector) == 0 {
		return fmt.Errorf("%w: empty vector", domain.ErrEmbedding)
	}
	return nil
}

// normalizeText collapses newlines to spaces before embedding.
func normalizeText(text string) string {
	return strings.ReplaceAll(text, "\n", " ")
}
