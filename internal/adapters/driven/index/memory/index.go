// Package memory provides an in-memory vector index using cosine
// similarity. It backs local mode and tests; nothing persists across
// process restarts.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/arkive-labs/docchat/internal/core/domain"
	"github.com/arkive-labs/docchat/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is a thread-safe in-memory vector index keyed by chunk id.
type Index struct {
	mu      sync.RWMutex
	entries map[string]domain.IndexEntry
}

// New creates an empty index.
func New() *Index {
	return &Index{
		entries: make(map[string]domain.IndexEntry),
	}
}

// Upsert writes entries, replacing any with the same id.
func (x *Index) Upsert(_ context.Context, entries []domain.IndexEntry) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	for _, e := range entries {
		x.entries[e.ID] = e
	}
	return nil
}

// Query returns the topK entries nearest the query vector by cosine
// similarity, highest first.
func (x *Index) Query(_ context.Context, vector []float32, topK int) ([]domain.Match, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	matches := make([]domain.Match, 0, len(x.entries))
	for _, e := range x.entries {
		matches = append(matches, domain.Match{
			Text:      e.Metadata.Text,
			Score:     cosineSimilarity(vector, e.Vector),
			Source:    e.Metadata.Source,
			PageRange: e.Metadata.PageRange,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// DeleteBySource removes every entry whose source matches exactly.
func (x *Index) DeleteBySource(_ context.Context, source string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	for id, e := range x.entries {
		if e.Metadata.Source == source {
			delete(x.entries, id)
		}
	}
	return nil
}

// Len returns the number of stored entries.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Close releases resources.
func (x *Index) Close() error {
	return nil
}

// cosineSimilarity computes the cosine of the angle between a and b.
// Mismatched lengths or zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
