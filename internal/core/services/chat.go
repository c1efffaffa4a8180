package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/arkive-labs/docchat/internal/answer"
	"github.com/arkive-labs/docchat/internal/core/domain"
	"github.com/arkive-labs/docchat/internal/core/ports/driven"
	"github.com/arkive-labs/docchat/internal/core/ports/driving"
	"github.com/arkive-labs/docchat/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.Chatter = (*ChatService)(nil)

// DefaultMaxRounds caps total model round trips per question, across
// tool calls and verification prompts, to bound cost and latency.
const DefaultMaxRounds = 3

// DefaultToolTopK is the match count for tool-invoked retrieval.
const DefaultToolTopK = 10

// SearchToolName is the retrieval tool declared to the model.
const SearchToolName = "search_documents"

// minPlausibleLength is the threshold under which a final response
// without an answer block is treated as truncated and recovered from
// earlier rounds.
const minPlausibleLength = 50

// QuotaHint is appended to generation failures so users can act on the
// most common cause.
const QuotaHint = "your API key may have exhausted its quota; check billing settings or try a new key"

// systemInstruction is fixed and non-negotiable: it pins the model to
// tool-grounded answers and the marker-delimited output contract the
// parser expects.
const systemInstruction = `You are a document question answering assistant.

Rules you must always follow:
1. For EVERY question, call the ` + SearchToolName + ` tool to retrieve document content before answering.
2. Answer ONLY from content returned by the tool. Never use outside knowledge.
3. If the tool returns nothing relevant, say the answer was not found in the documents.
4. Wrap your final grounded answer in an [ANSWER]...[/ANSWER] block.
5. After the answer, add a [CITED_SOURCES]...[/CITED_SOURCES] block listing one line per cited source in exactly this form:
- Source: "name", Page: "range", Snippet: "supporting text"
6. When your answer is complete and fully grounded, include the marker [COMPLETED].`

// verificationPrompt is the single fixed self-check issued when the
// model produced text without declaring completion.
const verificationPrompt = `Verify your previous response: confirm every statement is grounded strictly in the tool-returned document content. If it is accurate and complete, repeat the final answer with the [COMPLETED] marker. Otherwise call ` + SearchToolName + ` again or correct the text.`

// loopState enumerates the orchestration state machine. Keeping it
// explicit keeps the termination bound (max rounds) obvious.
type loopState int

const (
	stateAwaitModel loopState = iota
	stateToolDispatch
	stateVerify
	stateDone
)

// ChatService runs the bounded retrieval-augmented conversation loop:
// the model may call the search tool, is pushed to self-verify
// grounding, and its final text is parsed into a structured answer.
// Each call is independent; no memory is kept across user messages.
type ChatService struct {
	llm       driven.LLMService
	searcher  driving.Searcher
	maxRounds int
	topK      int
}

// ChatOption configures the chat service.
type ChatOption func(*ChatService)

// WithMaxRounds sets the hard cap on model round trips per question.
func WithMaxRounds(n int) ChatOption {
	return func(s *ChatService) {
		if n > 0 {
			s.maxRounds = n
		}
	}
}

// WithToolTopK sets the match count for tool-invoked retrieval.
func WithToolTopK(k int) ChatOption {
	return func(s *ChatService) {
		if k > 0 {
			s.topK = k
		}
	}
}

// NewChatService creates the orchestrator over a language model and a
// retrieval searcher.
func NewChatService(llm driven.LLMService, searcher driving.Searcher, opts ...ChatOption) *ChatService {
	s := &ChatService{
		llm:       llm,
		searcher:  searcher,
		maxRounds: DefaultMaxRounds,
		topK:      DefaultToolTopK,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Answer drives one user message to one structured answer.
//
// The loop is a state machine AWAIT_MODEL -> {TOOL_DISPATCH, VERIFY,
// DONE}; tool dispatch and verification both feed back into
// AWAIT_MODEL, and the round counter terminates the loop at the cap
// regardless of model state. Across rounds it tracks the last response
// carrying a complete answer block and the last non-empty response, so
// a model that stops mid tool-call or truncates its final output still
// yields the best text seen.
func (s *ChatService) Answer(ctx context.Context, message string) (*domain.StructuredAnswer, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	logger.Section("Chat")
	logger.Debug("Question: %q", message)

	req := driven.GenerateRequest{
		System: systemInstruction,
		Messages: []driven.Message{
			{Role: driven.RoleUser, Content: message},
		},
		Tools: []driven.ToolDecl{{
			Name:        SearchToolName,
			Description: "Search the ingested documents for content relevant to a query.",
			Parameters: map[string]string{
				"query": "the search query",
			},
		}},
	}

	var lastAnswerBlock, lastNonEmpty, finalRaw string

	state := stateAwaitModel
	for round := 0; round < s.maxRounds && state != stateDone; round++ {
		// AWAIT_MODEL: one blocking round trip.
		resp, err := s.llm.Generate(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v (%s)", domain.ErrGeneration, err, QuotaHint)
		}

		finalRaw = resp.Text
		if strings.TrimSpace(resp.Text) != "" {
			lastNonEmpty = resp.Text
			if answer.HasAnswerBlock(resp.Text) {
				lastAnswerBlock = resp.Text
			}
		}

		switch {
		case resp.ToolCall != nil && resp.ToolCall.Name == SearchToolName:
			state = stateToolDispatch
		case answer.HasCompleted(resp.Text):
			state = stateDone
		default:
			state = stateVerify
		}

		switch state {
		case stateToolDispatch:
			logger.Debug("Round %d: tool call %q", round+1, resp.ToolCall.Args["query"])
			result, err := s.dispatchSearch(ctx, resp.ToolCall)
			if err != nil {
				return nil, err
			}
			req.Messages = append(req.Messages,
				driven.Message{Role: driven.RoleAssistant, ToolCall: resp.ToolCall},
				driven.Message{Role: driven.RoleTool, ToolResult: result},
			)
			state = stateAwaitModel

		case stateVerify:
			logger.Debug("Round %d: verification prompt", round+1)
			req.Messages = append(req.Messages,
				driven.Message{Role: driven.RoleAssistant, Content: resp.Text},
				driven.Message{Role: driven.RoleUser, Content: verificationPrompt},
			)
			state = stateAwaitModel

		case stateDone:
			logger.Debug("Round %d: completed", round+1)
		}
	}

	chosen := s.recoverText(finalRaw, lastAnswerBlock, lastNonEmpty)
	text, citations := answer.Parse(chosen)

	return &domain.StructuredAnswer{
		AnswerText: text,
		Sources:    dedupeCitations(citations),
	}, nil
}

// dispatchSearch runs the retrieval tool and formats the result for
// the model. Query failures abort the whole answer.
func (s *ChatService) dispatchSearch(ctx context.Context, call *driven.ToolCall) (*driven.ToolResult, error) {
	matches, err := s.searcher.Query(ctx, call.Args["query"], s.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieval tool: %w", err)
	}

	return &driven.ToolResult{
		Name:    SearchToolName,
		Content: formatMatches(matches),
	}, nil
}

// recoverText picks the text to parse after loop exit. A final round
// that lacks an answer block and is implausibly short is assumed
// truncated and replaced by the best earlier text.
func (s *ChatService) recoverText(finalRaw, lastAnswerBlock, lastNonEmpty string) string {
	if answer.HasAnswerBlock(finalRaw) || len(strings.TrimSpace(finalRaw)) >= minPlausibleLength {
		return finalRaw
	}
	if lastAnswerBlock != "" {
		logger.Debug("Recovering earlier answer block")
		return lastAnswerBlock
	}
	if lastNonEmpty != "" {
		logger.Debug("Recovering last non-empty response")
		return lastNonEmpty
	}
	return finalRaw
}

// formatMatches renders retrieval matches as SOURCE/PAGE/CONTENT blocks.
func formatMatches(matches []domain.Match) string {
	if len(matches) == 0 {
		return "No matching document content was found."
	}

	blocks := make([]string, len(matches))
	for i, m := range matches {
		blocks[i] = fmt.Sprintf("SOURCE: %s\nPAGE: %s\nCONTENT: %s", m.Source, m.PageRange, m.Text)
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

// dedupeCitations removes citations with a duplicate display name,
// keeping first-seen order.
func dedupeCitations(citations []domain.Citation) []domain.Citation {
	seen := make(map[string]bool, len(citations))
	out := make([]domain.Citation, 0, len(citations))
	for _, c := range citations {
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		out = append(out, c)
	}
	return out
}
