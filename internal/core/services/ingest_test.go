package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkive-labs/docchat/internal/core/domain"
)

// --- Mock implementations ---

// mockSplitter implements Splitter, returning a fixed chunk sequence.
type mockSplitter struct {
	chunks []domain.Chunk

	texts   []string
	sources []string
}

func (m *mockSplitter) Chunk(text, source string) []domain.Chunk {
	m.texts = append(m.texts, text)
	m.sources = append(m.sources, source)
	return m.chunks
}

// mockDocStore implements driven.DocumentStore over a map.
type mockDocStore struct {
	docs map[string]*domain.Document // keyed by source

	createErr error
	updateErr error
	deleteErr error

	statusUpdates []domain.DocumentStatus
}

func newMockDocStore() *mockDocStore {
	return &mockDocStore{docs: make(map[string]*domain.Document)}
}

func (m *mockDocStore) CreateDocument(_ context.Context, doc *domain.Document) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.docs[doc.Source]; ok {
		return domain.ErrAlreadyExists
	}
	copied := *doc
	m.docs[doc.Source] = &copied
	return nil
}

func (m *mockDocStore) GetBySource(_ context.Context, source string) (*domain.Document, error) {
	doc, ok := m.docs[source]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (m *mockDocStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	var docs []domain.Document
	for _, doc := range m.docs {
		docs = append(docs, *doc)
	}
	return docs, nil
}

func (m *mockDocStore) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, chunkCount int) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.statusUpdates = append(m.statusUpdates, status)
	for _, doc := range m.docs {
		if doc.ID == id {
			doc.Status = status
			doc.ChunkCount = chunkCount
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockDocStore) DeleteDocument(_ context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for source, doc := range m.docs {
		if doc.ID == id {
			delete(m.docs, source)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockDocStore) Close() error { return nil }

// newTestIngest wires an ingest service over mock adapters.
func newTestIngest(splitter *mockSplitter, store *mockDocStore) (*IngestService, *mockIndex) {
	index := &mockIndex{}
	indexer := NewIndexer(&mockEmbedder{dims: 3}, index)
	return NewIngestService(splitter, indexer, store), index
}

// --- Tests ---

func TestIngestService_Ingest(t *testing.T) {
	t.Run("full pipeline", func(t *testing.T) {
		splitter := &mockSplitter{chunks: makeChunks(3)}
		store := newMockDocStore()
		svc, index := newTestIngest(splitter, store)

		err := svc.Ingest(context.Background(), "document text", "doc.txt")
		require.NoError(t, err)

		assert.Equal(t, []string{"document text"}, splitter.texts)
		assert.Equal(t, []string{"doc.txt"}, splitter.sources)
		assert.Len(t, index.entries, 3)

		doc, err := store.GetBySource(context.Background(), "doc.txt")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, doc.Status)
		assert.Equal(t, 3, doc.ChunkCount)
	})

	t.Run("empty source rejected", func(t *testing.T) {
		splitter := &mockSplitter{}
		svc, _ := newTestIngest(splitter, newMockDocStore())

		err := svc.Ingest(context.Background(), "text", "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Empty(t, splitter.texts)
	})

	t.Run("indexing failure marks record errored", func(t *testing.T) {
		splitter := &mockSplitter{chunks: makeChunks(3)}
		store := newMockDocStore()
		index := &mockIndex{upsertErr: errors.New("index down")}
		indexer := NewIndexer(&mockEmbedder{dims: 3}, index)
		svc := NewIngestService(splitter, indexer, store)

		err := svc.Ingest(context.Background(), "text", "doc.txt")
		require.Error(t, err)

		doc, getErr := store.GetBySource(context.Background(), "doc.txt")
		require.NoError(t, getErr)
		assert.Equal(t, domain.StatusError, doc.Status)
	})

	t.Run("re-ingest reuses the record", func(t *testing.T) {
		splitter := &mockSplitter{chunks: makeChunks(2)}
		store := newMockDocStore()
		svc, _ := newTestIngest(splitter, store)

		require.NoError(t, svc.Ingest(context.Background(), "v1", "doc.txt"))
		first, err := store.GetBySource(context.Background(), "doc.txt")
		require.NoError(t, err)

		require.NoError(t, svc.Ingest(context.Background(), "v2", "doc.txt"))
		second, err := store.GetBySource(context.Background(), "doc.txt")
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Len(t, store.docs, 1)
	})

	t.Run("works without a document store", func(t *testing.T) {
		splitter := &mockSplitter{chunks: makeChunks(1)}
		indexer := NewIndexer(&mockEmbedder{dims: 3}, &mockIndex{})
		svc := NewIngestService(splitter, indexer, nil)

		assert.NoError(t, svc.Ingest(context.Background(), "text", "doc.txt"))
	})

	t.Run("status update failure does not fail the pipeline", func(t *testing.T) {
		splitter := &mockSplitter{chunks: makeChunks(1)}
		store := newMockDocStore()
		store.updateErr = errors.New("db locked")
		svc, _ := newTestIngest(splitter, store)

		assert.NoError(t, svc.Ingest(context.Background(), "text", "doc.txt"))
	})
}

func TestIngestService_Remove(t *testing.T) {
	t.Run("removes record and index entries", func(t *testing.T) {
		splitter := &mockSplitter{chunks: makeChunks(2)}
		store := newMockDocStore()
		svc, index := newTestIngest(splitter, store)

		require.NoError(t, svc.Ingest(context.Background(), "text", "doc.txt"))
		require.NoError(t, svc.Remove(context.Background(), "doc.txt"))

		_, err := store.GetBySource(context.Background(), "doc.txt")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, []string{"doc.txt"}, index.deleted)
	})

	t.Run("unknown source", func(t *testing.T) {
		svc, _ := newTestIngest(&mockSplitter{}, newMockDocStore())

		err := svc.Remove(context.Background(), "missing.txt")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("index cleanup failure is swallowed", func(t *testing.T) {
		splitter := &mockSplitter{chunks: makeChunks(1)}
		store := newMockDocStore()
		index := &mockIndex{}
		indexer := NewIndexer(&mockEmbedder{dims: 3}, index)
		svc := NewIngestService(splitter, indexer, store)

		require.NoError(t, svc.Ingest(context.Background(), "text", "doc.txt"))

		index.deleteErr = errors.New("index down")
		assert.NoError(t, svc.Remove(context.Background(), "doc.txt"))
	})
}

func TestIngestService_List(t *testing.T) {
	t.Run("lists documents", func(t *testing.T) {
		splitter := &mockSplitter{chunks: makeChunks(1)}
		store := newMockDocStore()
		svc, _ := newTestIngest(splitter, store)

		require.NoError(t, svc.Ingest(context.Background(), "text", "a.txt"))
		require.NoError(t, svc.Ingest(context.Background(), "text", "b.txt"))

		docs, err := svc.List(context.Background())
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})

	t.Run("no store yields nothing", func(t *testing.T) {
		indexer := NewIndexer(&mockEmbedder{dims: 3}, &mockIndex{})
		svc := NewIngestService(&mockSplitter{}, indexer, nil)

		docs, err := svc.List(context.Background())
		require.NoError(t, err)
		assert.Nil(t, docs)
	})
}
