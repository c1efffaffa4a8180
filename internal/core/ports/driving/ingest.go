package driving

import (
	"context"

	"github.com/arkive-labs/docchat/internal/core/domain"
)

// Ingestor drives the ingestion pipeline: chunk, embed, upsert.
type Ingestor interface {
	// Ingest chunks the extracted text, embeds the chunks in batches
	// and upserts them into the vector index under the given source
	// name. Re-ingestion under an existing source overwrites entries
	// that share chunk ids; call Remove first for a clean slate.
	Ingest(ctx context.Context, text, source string) error

	// Remove deletes the document record for the source and cleans up
	// its index entries best-effort.
	Remove(ctx context.Context, source string) error

	// List returns all registered document records, newest first.
	List(ctx context.Context) ([]domain.Document, error)
}

// Searcher exposes similarity retrieval over the ingested corpus.
type Searcher interface {
	// Query embeds the query text and returns the topK nearest chunks,
	// ordered by descending similarity score.
	Query(ctx context.Context, queryText string, topK int) ([]domain.Match, error)
}
