package mcp

import (
	"context"

	"github.com/arkive-labs/docchat/internal/core/domain"
)

// mockSearcher implements driving.Searcher for testing.
type mockSearcher struct {
	matches []domain.Match
	err     error

	queries []string
	topKs   []int
}

func (m *mockSearcher) Query(_ context.Context, queryText string, topK int) ([]domain.Match, error) {
	m.queries = append(m.queries, queryText)
	m.topKs = append(m.topKs, topK)
	if m.err != nil {
		return nil, m.err
	}
	return m.matches, nil
}

// mockChatter implements driving.Chatter for testing.
type mockChatter struct {
	answer *domain.StructuredAnswer
	err    error

	messages []string
}

func (m *mockChatter) Answer(_ context.Context, message string) (*domain.StructuredAnswer, error) {
	m.messages = append(m.messages, message)
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

// mockIngestor implements driving.Ingestor for testing.
type mockIngestor struct {
	docs []domain.Document
	err  error
}

func (m *mockIngestor) Ingest(_ context.Context, _, _ string) error { return m.err }

func (m *mockIngestor) Remove(_ context.Context, _ string) error { return m.err }

func (m *mockIngestor) List(_ context.Context) ([]domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.docs, nil
}
