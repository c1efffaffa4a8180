package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/arkive-labs/docchat/internal/core/domain"
	"github.com/arkive-labs/docchat/internal/core/ports/driven"
	"github.com/arkive-labs/docchat/internal/core/ports/driving"
	"github.com/arkive-labs/docchat/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// Splitter converts extracted text into an ordered chunk sequence.
// Implemented by the chunker.
type Splitter interface {
	Chunk(text, source string) []domain.Chunk
}

// IngestService drives the ingestion pipeline: register the document,
// chunk the text, embed and upsert, and track processing status.
type IngestService struct {
	splitter Splitter
	indexer  *Indexer
	docStore driven.DocumentStore
}

// NewIngestService creates an ingest service. The docStore is optional;
// without it, status tracking and listing are disabled.
func NewIngestService(splitter Splitter, indexer *Indexer, docStore driven.DocumentStore) *IngestService {
	return &IngestService{
		splitter: splitter,
		indexer:  indexer,
		docStore: docStore,
	}
}

// Ingest chunks, embeds and indexes the extracted text under the given
// source name. An ingestion failure marks the document record as
// errored; chunks from batches written before the failure remain in
// the index until the source is removed.
//
// Re-ingesting an existing source adds or overwrites entries keyed by
// the deterministic chunk ids but does not delete stale ones; callers
// wanting a clean slate remove the source first.
func (s *IngestService) Ingest(ctx context.Context, text, source string) error {
	if source == "" {
		return fmt.Errorf("%w: empty source name", domain.ErrInvalidInput)
	}

	logger.Section("Ingest")
	logger.Info("Ingesting source %q (%d bytes)", source, len(text))

	doc, err := s.registerDocument(ctx, source)
	if err != nil {
		return err
	}

	chunks := s.splitter.Chunk(text, source)
	logger.Info("Produced %d chunks", len(chunks))

	if err := s.indexer.UpsertBatch(ctx, chunks); err != nil {
		s.setStatus(ctx, doc, domain.StatusError, 0)
		return fmt.Errorf("ingest %q: %w", source, err)
	}

	s.setStatus(ctx, doc, domain.StatusCompleted, len(chunks))
	return nil
}

// Remove deletes the authoritative document record, then cleans up the
// source's index entries best-effort. Index cleanup failures never
// propagate.
func (s *IngestService) Remove(ctx context.Context, source string) error {
	if s.docStore != nil {
		doc, err := s.docStore.GetBySource(ctx, source)
		if err != nil {
			return fmt.Errorf("remove %q: %w", source, err)
		}
		if err := s.docStore.DeleteDocument(ctx, doc.ID); err != nil {
			return fmt.Errorf("remove %q: %w", source, err)
		}
	}

	s.indexer.DeleteBySource(ctx, source)
	return nil
}

// List returns all registered document records, newest first.
func (s *IngestService) List(ctx context.Context) ([]domain.Document, error) {
	if s.docStore == nil {
		return nil, nil
	}
	return s.docStore.ListDocuments(ctx)
}

// registerDocument creates or reuses the record for a source and marks
// it processing.
func (s *IngestService) registerDocument(ctx context.Context, source string) (*domain.Document, error) {
	if s.docStore == nil {
		return nil, nil
	}

	doc, err := s.docStore.GetBySource(ctx, source)
	switch {
	case err == nil:
		// Re-ingestion of a known source.
	case errors.Is(err, domain.ErrNotFound):
		doc = &domain.Document{
			ID:        uuid.New().String(),
			Source:    source,
			Status:    domain.StatusPending,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}
		if err := s.docStore.CreateDocument(ctx, doc); err != nil {
			return nil, fmt.Errorf("register %q: %w", source, err)
		}
	default:
		return nil, fmt.Errorf("register %q: %w", source, err)
	}

	s.setStatus(ctx, doc, domain.StatusProcessing, 0)
	return doc, nil
}

// setStatus updates a record's status, logging rather than failing the
// pipeline when the metadata write itself errors.
func (s *IngestService) setStatus(ctx context.Context, doc *domain.Document, status domain.DocumentStatus, chunkCount int) {
	if s.docStore == nil || doc == nil {
		return
	}
	if err := s.docStore.UpdateStatus(ctx, doc.ID, status, chunkCount); err != nil {
		logger.Error("Status update for %q to %s failed: %v", doc.Source, status, err)
	}
}
