package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkive-labs/docchat/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testDoc(id, source string) *domain.Document {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.Document{
		ID:        id,
		Source:    source,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := testDoc("id-1", "doc.txt")
	require.NoError(t, store.CreateDocument(ctx, doc))

	got, err := store.GetBySource(ctx, "doc.txt")
	require.NoError(t, err)
	assert.Equal(t, "id-1", got.ID)
	assert.Equal(t, "doc.txt", got.Source)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Equal(t, 0, got.ChunkCount)
}

func TestStore_CreateDuplicateSource(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateDocument(ctx, testDoc("id-1", "doc.txt")))

	err := store.CreateDocument(ctx, testDoc("id-2", "doc.txt"))
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestStore_GetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetBySource(context.Background(), "missing.txt")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ListDocuments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	older := testDoc("id-1", "old.txt")
	older.CreatedAt = older.CreatedAt.Add(-time.Hour)
	require.NoError(t, store.CreateDocument(ctx, older))
	require.NoError(t, store.CreateDocument(ctx, testDoc("id-2", "new.txt")))

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	// Newest first.
	assert.Equal(t, "new.txt", docs[0].Source)
	assert.Equal(t, "old.txt", docs[1].Source)
}

func TestStore_UpdateStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateDocument(ctx, testDoc("id-1", "doc.txt")))
	require.NoError(t, store.UpdateStatus(ctx, "id-1", domain.StatusCompleted, 42))

	got, err := store.GetBySource(ctx, "doc.txt")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, 42, got.ChunkCount)

	err = store.UpdateStatus(ctx, "unknown-id", domain.StatusCompleted, 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_DeleteDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateDocument(ctx, testDoc("id-1", "doc.txt")))
	require.NoError(t, store.DeleteDocument(ctx, "id-1"))

	_, err := store.GetBySource(ctx, "doc.txt")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = store.DeleteDocument(ctx, "id-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_MigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.CreateDocument(context.Background(), testDoc("id-1", "doc.txt")))
	require.NoError(t, store.Close())

	// Reopening must not re-run applied migrations or lose data.
	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetBySource(context.Background(), "doc.txt")
	require.NoError(t, err)
	assert.Equal(t, "id-1", got.ID)
}
