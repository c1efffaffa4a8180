package domain

import "time"

// DocumentStatus tracks a document through the ingestion pipeline.
type DocumentStatus string

const (
	// StatusPending means the document is registered but not yet processed.
	StatusPending DocumentStatus = "pending"

	// StatusProcessing means chunking and embedding are in progress.
	StatusProcessing DocumentStatus = "processing"

	// StatusCompleted means all chunks are embedded and indexed.
	StatusCompleted DocumentStatus = "completed"

	// StatusError means ingestion failed; the index may hold a partial
	// set of this document's chunks.
	StatusError DocumentStatus = "error"
)

// Document represents a registered source document.
// The extracted text itself is not persisted here; the vector index
// holds chunk text as metadata and is the store of truth for retrieval.
type Document struct {
	// ID is the unique identifier for the document record.
	ID string

	// Source is the logical source name used for chunk ids and
	// delete-by-source. Unique per document.
	Source string

	// Status is the current processing status.
	Status DocumentStatus

	// ChunkCount is the number of chunks produced by the last ingestion.
	ChunkCount int

	// CreatedAt is when the document was registered.
	CreatedAt time.Time

	// UpdatedAt is when the status last changed.
	UpdatedAt time.Time
}

// Chunk is the unit of retrieval: a bounded, overlapping, page-tracked
// window of document text. Chunks are immutable once created; re-ingestion
// supersedes them, it never mutates them.
type Chunk struct {
	// ID is deterministic: "{source}-p{page}-{window}", or
	// "{source}-{window}" when the input carried no page markers.
	// Re-ingesting identical input yields identical ids.
	ID string

	// Text is the decoded token window.
	Text string

	// Source is the originating document's source name.
	Source string

	// PageRange is the page number as a string ("1" on the fallback path).
	PageRange string

	// SequenceIndex is the chunk's ordinal position across the whole
	// document, in document order.
	SequenceIndex int

	// CreatedAt is when the chunk was produced.
	CreatedAt time.Time
}

// EntryMetadata is the metadata stored alongside a vector in the index.
// Text is carried so query results need no second lookup.
type EntryMetadata struct {
	Source    string
	PageRange string
	Text      string
}

// IndexEntry is what gets upserted into the vector index, keyed by chunk id.
type IndexEntry struct {
	ID       string
	Vector   []float32
	Metadata EntryMetadata
}

// Match is a single similarity search hit.
type Match struct {
	// Text is the matched chunk's text.
	Text string

	// Score is the index's similarity metric, higher is more relevant.
	// It is passed through unchanged, never renormalised.
	Score float64

	// Source is the originating document's source name.
	Source string

	// PageRange is the matched chunk's page number string.
	PageRange string
}
