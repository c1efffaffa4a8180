package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkive-labs/docchat/internal/answer"
	"github.com/arkive-labs/docchat/internal/core/domain"
	"github.com/arkive-labs/docchat/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockLLM implements driven.LLMService, replaying scripted responses.
type mockLLM struct {
	responses []*driven.GenerateResponse
	errs      []error

	requests []driven.GenerateRequest
}

func (m *mockLLM) Generate(_ context.Context, req driven.GenerateRequest) (*driven.GenerateResponse, error) {
	i := len(m.requests)
	m.requests = append(m.requests, req)

	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i < len(m.responses) {
		return m.responses[i], nil
	}
	return &driven.GenerateResponse{}, nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }

func (m *mockLLM) Ping(_ context.Context) error { return nil }

func (m *mockLLM) Close() error { return nil }

// mockSearcher implements driving.Searcher for testing.
type mockSearcher struct {
	matches  []domain.Match
	queryErr error

	queries []string
	topKs   []int
}

func (m *mockSearcher) Query(_ context.Context, queryText string, topK int) ([]domain.Match, error) {
	m.queries = append(m.queries, queryText)
	m.topKs = append(m.topKs, topK)
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.matches, nil
}

// Scripted model outputs used across tests.
const completedAnswer = `[ANSWER]The warranty period is two years.[/ANSWER]
[CITED_SOURCES]
- Source: "manual.pdf", Page: "12", Snippet: "two years"
[/CITED_SOURCES]
[COMPLETED]`

func searchCall(query string) *driven.ToolCall {
	return &driven.ToolCall{
		Name: SearchToolName,
		Args: map[string]string{"query": query},
	}
}

// --- Tests ---

func TestChatService_Answer_ToolCallThenAnswer(t *testing.T) {
	llm := &mockLLM{responses: []*driven.GenerateResponse{
		{ToolCall: searchCall("warranty period")},
		{Text: completedAnswer},
	}}
	searcher := &mockSearcher{matches: []domain.Match{
		{Text: "warranty period of two years", Score: 0.9, Source: "manual.pdf", PageRange: "12"},
	}}

	svc := NewChatService(llm, searcher)
	result, err := svc.Answer(context.Background(), "how long is the warranty?")
	require.NoError(t, err)

	assert.Equal(t, "The warranty period is two years.", result.AnswerText)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "manual.pdf (Page: 12)", result.Sources[0].Name)

	// Retrieval used the model's query and the configured topK.
	assert.Equal(t, []string{"warranty period"}, searcher.queries)
	assert.Equal(t, []int{DefaultToolTopK}, searcher.topKs)

	// The second request carries the tool call and its formatted result.
	require.Len(t, llm.requests, 2)
	msgs := llm.requests[1].Messages
	require.Len(t, msgs, 3)
	require.NotNil(t, msgs[1].ToolCall)
	require.NotNil(t, msgs[2].ToolResult)
	assert.Contains(t, msgs[2].ToolResult.Content, "SOURCE: manual.pdf")
	assert.Contains(t, msgs[2].ToolResult.Content, "PAGE: 12")
	assert.Contains(t, msgs[2].ToolResult.Content, "CONTENT: warranty period of two years")
}

func TestChatService_Answer_LoopTerminatesAtCap(t *testing.T) {
	// The model never stops calling the tool; the round cap must end it.
	llm := &mockLLM{responses: []*driven.GenerateResponse{
		{ToolCall: searchCall("q1")},
		{ToolCall: searchCall("q2")},
		{ToolCall: searchCall("q3")},
		{ToolCall: searchCall("q4")},
	}}
	searcher := &mockSearcher{}

	svc := NewChatService(llm, searcher)
	result, err := svc.Answer(context.Background(), "question")
	require.NoError(t, err)

	assert.Len(t, llm.requests, DefaultMaxRounds)
	assert.Equal(t, answer.ApologyMessage, result.AnswerText)
	assert.Empty(t, result.Sources)
}

func TestChatService_Answer_VerificationFlow(t *testing.T) {
	// Text without [COMPLETED] triggers one verification prompt.
	llm := &mockLLM{responses: []*driven.GenerateResponse{
		{Text: "[ANSWER]The warranty period is two years.[/ANSWER]"},
		{Text: completedAnswer},
	}}

	svc := NewChatService(llm, &mockSearcher{})
	result, err := svc.Answer(context.Background(), "question")
	require.NoError(t, err)

	require.Len(t, llm.requests, 2)
	msgs := llm.requests[1].Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, driven.RoleAssistant, msgs[1].Role)
	assert.Equal(t, driven.RoleUser, msgs[2].Role)
	assert.Contains(t, msgs[2].Content, "Verify your previous response")

	assert.Equal(t, "The warranty period is two years.", result.AnswerText)
}

func TestChatService_Answer_RecoversEarlierAnswerBlock(t *testing.T) {
	// The final round is a bare completion marker; the answer block from
	// the earlier round must be recovered.
	llm := &mockLLM{responses: []*driven.GenerateResponse{
		{Text: "[ANSWER]The warranty period is two years.[/ANSWER]"},
		{Text: "[COMPLETED]"},
	}}

	svc := NewChatService(llm, &mockSearcher{})
	result, err := svc.Answer(context.Background(), "question")
	require.NoError(t, err)

	assert.Equal(t, "The warranty period is two years.", result.AnswerText)
}

func TestChatService_Answer_ToolCallTakesPrecedence(t *testing.T) {
	// A response carrying both a tool call and a completion marker must
	// dispatch the tool.
	llm := &mockLLM{responses: []*driven.GenerateResponse{
		{Text: "[COMPLETED]", ToolCall: searchCall("more context")},
		{Text: completedAnswer},
	}}
	searcher := &mockSearcher{}

	svc := NewChatService(llm, searcher)
	result, err := svc.Answer(context.Background(), "question")
	require.NoError(t, err)

	assert.Len(t, llm.requests, 2)
	assert.Equal(t, []string{"more context"}, searcher.queries)
	assert.Equal(t, "The warranty period is two years.", result.AnswerText)
}

func TestChatService_Answer_GenerationError(t *testing.T) {
	llm := &mockLLM{errs: []error{errors.New("429 too many requests")}}

	svc := NewChatService(llm, &mockSearcher{})
	_, err := svc.Answer(context.Background(), "question")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGeneration)
	assert.Contains(t, err.Error(), QuotaHint)
}

func TestChatService_Answer_RetrievalErrorAborts(t *testing.T) {
	llm := &mockLLM{responses: []*driven.GenerateResponse{
		{ToolCall: searchCall("query")},
	}}
	searcher := &mockSearcher{queryErr: errors.New("index unreachable")}

	svc := NewChatService(llm, searcher)
	_, err := svc.Answer(context.Background(), "question")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrieval tool")
}

func TestChatService_Answer_EmptyMatches(t *testing.T) {
	llm := &mockLLM{responses: []*driven.GenerateResponse{
		{ToolCall: searchCall("nothing matches this")},
		{Text: completedAnswer},
	}}
	searcher := &mockSearcher{}

	svc := NewChatService(llm, searcher)
	_, err := svc.Answer(context.Background(), "question")
	require.NoError(t, err)

	msgs := llm.requests[1].Messages
	require.NotNil(t, msgs[2].ToolResult)
	assert.Equal(t, "No matching document content was found.", msgs[2].ToolResult.Content)
}

func TestChatService_Answer_DedupesCitations(t *testing.T) {
	raw := `[ANSWER]The warranty period is two years.[/ANSWER]
[CITED_SOURCES]
- Source: "manual.pdf", Page: "12", Snippet: "first"
- Source: "manual.pdf", Page: "12", Snippet: "second"
- Source: "manual.pdf", Page: "13", Snippet: "third"
[/CITED_SOURCES]
[COMPLETED]`

	llm := &mockLLM{responses: []*driven.GenerateResponse{{Text: raw}}}

	svc := NewChatService(llm, &mockSearcher{})
	result, err := svc.Answer(context.Background(), "question")
	require.NoError(t, err)

	require.Len(t, result.Sources, 2)
	assert.Equal(t, "manual.pdf (Page: 12)", result.Sources[0].Name)
	assert.Equal(t, "manual.pdf (Page: 13)", result.Sources[1].Name)
	// First-seen snippet wins.
	assert.Equal(t, "first", result.Sources[0].Snippet)
}

func TestChatService_Answer_NilLLM(t *testing.T) {
	svc := NewChatService(nil, &mockSearcher{})

	_, err := svc.Answer(context.Background(), "question")
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestFormatMatches(t *testing.T) {
	matches := []domain.Match{
		{Text: "first chunk", Source: "a.txt", PageRange: "1"},
		{Text: "second chunk", Source: "b.txt", PageRange: "2"},
	}

	got := formatMatches(matches)
	blocks := strings.Split(got, "\n\n---\n\n")
	require.Len(t, blocks, 2)
	assert.Equal(t, "SOURCE: a.txt\nPAGE: 1\nCONTENT: first chunk", blocks[0])
	assert.Equal(t, "SOURCE: b.txt\nPAGE: 2\nCONTENT: second chunk", blocks[1])
}
