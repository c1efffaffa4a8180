// Package gemini provides an LLM service adapter using the Google
// Generative Language API, with function calling support.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/arkive-labs/docchat/internal/core/ports/driven"
	"github.com/arkive-labs/docchat/internal/logger"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://generativelanguage.googleapis.com"
	DefaultLLMTimeout = 120 * time.Second
)

// DefaultModels is the ordered fallback list of generation models.
// The first one that answers a minimal probe is kept for the session.
var DefaultModels = []string{
	"gemini-2.5-flash-lite",
	"gemini-2.5-flash",
	"gemini-1.5-flash",
}

// LLMConfig holds configuration for the Gemini LLM service.
type LLMConfig struct {
	// APIKey is the Google AI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: the public endpoint).
	BaseURL string

	// Models is the ordered candidate list (default: DefaultModels).
	Models []string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// LLMService provides generation round trips using the Gemini API.
// The working model is resolved lazily on first use by probing the
// candidate list in order.
type LLMService struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	candidates []string

	mu    sync.Mutex
	model string
}

// Request/response formats for generateContent (minimal fields).

type gmPart struct {
	Text             string              `json:"text,omitempty"`
	FunctionCall     *gmFunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *gmFunctionResponse `json:"functionResponse,omitempty"`
}

type gmFunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

type gmFunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type gmContent struct {
	Role  string   `json:"role,omitempty"`
	Parts []gmPart `json:"parts"`
}

type gmSchema struct {
	Type       string              `json:"type"`
	Properties map[string]gmSchema `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`

	Description string `json:"description,omitempty"`
}

type gmFunctionDecl struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Parameters  *gmSchema `json:"parameters,omitempty"`
}

type gmTool struct {
	FunctionDeclarations []gmFunctionDecl `json:"functionDeclarations"`
}

type gmGenerationConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

type gmRequest struct {
	SystemInstruction *gmContent          `json:"systemInstruction,omitempty"`
	Contents          []gmContent         `json:"contents"`
	Tools             []gmTool            `json:"tools,omitempty"`
	GenerationConfig  *gmGenerationConfig `json:"generationConfig,omitempty"`
}

type gmResponse struct {
	Candidates []struct {
		Content gmContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// NewLLMService creates a new Gemini LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if len(cfg.Models) == 0 {
		cfg.Models = DefaultModels
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	return &LLMService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		candidates: cfg.Models,
	}, nil
}

// Generate issues one generation round trip.
func (s *LLMService) Generate(ctx context.Context, req driven.GenerateRequest) (*driven.GenerateResponse, error) {
	model, err := s.resolveModel(ctx)
	if err != nil {
		return nil, err
	}

	body := gmRequest{
		Contents: toContents(req.Messages),
		Tools:    toTools(req.Tools),
	}
	if req.System != "" {
		body.SystemInstruction = &gmContent{Parts: []gmPart{{Text: req.System}}}
	}

	resp, err := s.generateContent(ctx, model, body)
	if err != nil {
		return nil, err
	}

	return parseResponse(resp), nil
}

// resolveModel returns the working model, probing the candidate list in
// order on first use. Each candidate gets one minimal 1-token request;
// the first success is kept. If every probe fails the first candidate
// is kept anyway so the real request surfaces the underlying error.
func (s *LLMService) resolveModel(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model != "" {
		return s.model, nil
	}

	probe := gmRequest{
		Contents:         []gmContent{{Role: "user", Parts: []gmPart{{Text: "h"}}}},
		GenerationConfig: &gmGenerationConfig{MaxOutputTokens: 1},
	}

	for _, candidate := range s.candidates {
		if _, err := s.generateContent(ctx, candidate, probe); err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			logger.Warn("Model %s failed probe (%v), trying next", candidate, err)
			continue
		}
		logger.Info("Using generation model %s", candidate)
		s.model = candidate
		return s.model, nil
	}

	s.model = s.candidates[0]
	logger.Warn("All model probes failed, keeping %s", s.model)
	return s.model, nil
}

// generateContent issues one raw generateContent call.
func (s *LLMService) generateContent(ctx context.Context, model string, body gmRequest) (*gmResponse, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("gemini: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", s.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("gemini: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini: send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gemini: read response: %w", err)
	}

	var gmResp gmResponse
	if err := json.Unmarshal(respBody, &gmResp); err != nil {
		return nil, fmt.Errorf("gemini: decode response: %w", err)
	}

	if gmResp.Error != nil {
		return nil, fmt.Errorf("gemini error (status %d): %s", gmResp.Error.Code, gmResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return &gmResp, nil
}

// toContents converts the turn history to the wire format.
func toContents(messages []driven.Message) []gmContent {
	contents := make([]gmContent, 0, len(messages))
	for _, m := range messages {
		switch {
		case m.ToolCall != nil:
			contents = append(contents, gmContent{
				Role: "model",
				Parts: []gmPart{{FunctionCall: &gmFunctionCall{
					Name: m.ToolCall.Name,
					Args: toAnyMap(m.ToolCall.Args),
				}}},
			})
		case m.ToolResult != nil:
			contents = append(contents, gmContent{
				Role: "user",
				Parts: []gmPart{{FunctionResponse: &gmFunctionResponse{
					Name:     m.ToolResult.Name,
					Response: map[string]any{"content": m.ToolResult.Content},
				}}},
			})
		default:
			role := "user"
			if m.Role == driven.RoleAssistant {
				role = "model"
			}
			contents = append(contents, gmContent{
				Role:  role,
				Parts: []gmPart{{Text: m.Content}},
			})
		}
	}
	return contents
}

// toTools converts tool declarations to function declarations.
func toTools(decls []driven.ToolDecl) []gmTool {
	if len(decls) == 0 {
		return nil
	}

	fns := make([]gmFunctionDecl, len(decls))
	for i, d := range decls {
		fn := gmFunctionDecl{
			Name:        d.Name,
			Description: d.Description,
		}
		if len(d.Parameters) > 0 {
			props := make(map[string]gmSchema, len(d.Parameters))
			required := make([]string, 0, len(d.Parameters))
			for name, desc := range d.Parameters {
				props[name] = gmSchema{Type: "STRING", Description: desc}
				required = append(required, name)
			}
			fn.Parameters = &gmSchema{
				Type:       "OBJECT",
				Properties: props,
				Required:   required,
			}
		}
		fns[i] = fn
	}

	return []gmTool{{FunctionDeclarations: fns}}
}

// parseResponse extracts text and an optional tool call from the first
// candidate. Text parts are concatenated.
func parseResponse(resp *gmResponse) *driven.GenerateResponse {
	out := &driven.GenerateResponse{}
	if len(resp.Candidates) == 0 {
		return out
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
		if part.FunctionCall != nil && out.ToolCall == nil {
			out.ToolCall = &driven.ToolCall{
				Name: part.FunctionCall.Name,
				Args: toStringMap(part.FunctionCall.Args),
			}
		}
	}
	out.Text = text.String()
	return out
}

// toAnyMap widens string args for the wire.
func toAnyMap(in map[string]string) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// toStringMap narrows wire args; non-string values are formatted.
func toStringMap(in map[string]any) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		if s, ok := v.(string); ok {
			out[k] = s
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}

// ModelName returns the resolved model, or the first candidate before
// resolution.
func (s *LLMService) ModelName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model != "" {
		return s.model
	}
	return s.candidates[0]
}

// Ping validates the service is reachable by resolving the model.
func (s *LLMService) Ping(ctx context.Context) error {
	_, err := s.resolveModel(ctx)
	return err
}

// Close releases resources.
func (s *LLMService) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
