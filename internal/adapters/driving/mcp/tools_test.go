package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkive-labs/docchat/internal/core/domain"
)

func TestHandleSearch(t *testing.T) {
	t.Run("returns matches", func(t *testing.T) {
		searcher := &mockSearcher{matches: []domain.Match{
			{Text: "chunk text", Score: 0.87, Source: "doc.txt", PageRange: "4"},
		}}
		server, err := NewServer(&Ports{Search: searcher})
		require.NoError(t, err)

		_, output, err := server.handleSearch(context.Background(), nil, SearchInput{
			Query: "warranty",
			TopK:  3,
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"warranty"}, searcher.queries)
		assert.Equal(t, []int{3}, searcher.topKs)

		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		assert.Equal(t, "doc.txt", output.Results[0].Source)
		assert.Equal(t, "4", output.Results[0].PageRange)
		assert.Equal(t, "chunk text", output.Results[0].Content)
	})

	t.Run("defaults topK", func(t *testing.T) {
		searcher := &mockSearcher{}
		server, err := NewServer(&Ports{Search: searcher})
		require.NoError(t, err)

		_, _, err = server.handleSearch(context.Background(), nil, SearchInput{Query: "q"})
		require.NoError(t, err)
		assert.Equal(t, []int{10}, searcher.topKs)
	})

	t.Run("propagates errors", func(t *testing.T) {
		searcher := &mockSearcher{err: errors.New("index down")}
		server, err := NewServer(&Ports{Search: searcher})
		require.NoError(t, err)

		_, _, err = server.handleSearch(context.Background(), nil, SearchInput{Query: "q"})
		assert.Error(t, err)
	})
}

func TestHandleAsk(t *testing.T) {
	chatter := &mockChatter{answer: &domain.StructuredAnswer{
		AnswerText: "The warranty period is two years.",
		Sources: []domain.Citation{
			{Name: "manual.pdf (Page: 12)", Snippet: "two years"},
		},
	}}
	server, err := NewServer(&Ports{Search: &mockSearcher{}, Chat: chatter})
	require.NoError(t, err)

	_, output, err := server.handleAsk(context.Background(), nil, AskInput{
		Question: "how long is the warranty?",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"how long is the warranty?"}, chatter.messages)
	assert.Equal(t, "The warranty period is two years.", output.Answer)
	require.Len(t, output.Sources, 1)
	assert.Equal(t, "manual.pdf (Page: 12)", output.Sources[0].Name)
	assert.Equal(t, "two years", output.Sources[0].Snippet)
}
