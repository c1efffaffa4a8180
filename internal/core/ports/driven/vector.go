package driven

import (
	"context"

	"github.com/arkive-labs/docchat/internal/core/domain"
)

// VectorIndex is the durable store of truth for retrieval: a key-value
// store keyed by chunk id with similarity query support and exact-match
// metadata filtering.
//
// Implementations may include:
//   - Pinecone (serverless, REST data plane)
//   - In-memory cosine index (local mode, tests)
type VectorIndex interface {
	// Upsert writes entries keyed by chunk id, replacing any existing
	// entry with the same id.
	Upsert(ctx context.Context, entries []domain.IndexEntry) error

	// Query returns the topK nearest entries to the query vector,
	// ordered by descending similarity score. An empty index yields an
	// empty slice, not an error.
	Query(ctx context.Context, vector []float32, topK int) ([]domain.Match, error)

	// DeleteBySource removes every entry whose metadata source exactly
	// equals the given value.
	DeleteBySource(ctx context.Context, source string) error

	// Close releases resources.
	Close() error
}
