package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Ingestion-path errors. Either aborts ingestion and the document's
	// status is marked as error.

	// ErrEmbedding indicates the embedding call failed or returned a
	// vector of unexpected dimension.
	ErrEmbedding = errors.New("embedding failed")

	// ErrIndexWrite indicates an upsert batch failed. Batches already
	// written before the failure remain in the index.
	ErrIndexWrite = errors.New("index write failed")

	// Query-path errors. Both abort the answer entirely.

	// ErrIndexQuery indicates the similarity query failed.
	ErrIndexQuery = errors.New("index query failed")

	// ErrGeneration indicates a language model round trip failed.
	// Callers surface the underlying message plus a quota hint.
	ErrGeneration = errors.New("generation failed")

	// ErrLLMUnavailable indicates no language model service is configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates no embedding service is configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates no vector index is configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")
)
