// Package openai provides an LLM service adapter using the OpenAI chat
// completions API, with tool calling support.
package openai

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/arkive-labs/docchat/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// DefaultModel is the default chat model.
const DefaultModel = "gpt-4o-mini"

// LLMConfig holds configuration for the OpenAI LLM service.
type LLMConfig struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL overrides the API base URL for compatible providers.
	BaseURL string

	// Model is the chat model to use (default: gpt-4o-mini).
	Model string
}

// LLMService provides generation round trips using the OpenAI API.
type LLMService struct {
	client *openai.Client
	model  string
}

// NewLLMService creates a new OpenAI LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &LLMService{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

// Generate issues one chat completion round trip.
func (s *LLMService) Generate(ctx context.Context, req driven.GenerateRequest) (*driven.GenerateResponse, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    s.model,
		Messages: toMessages(req.System, req.Messages),
		Tools:    toTools(req.Tools),
	})
	if err != nil {
		return nil, fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: no response choices returned")
	}

	return parseChoice(resp.Choices[0]), nil
}

// toMessages converts the system instruction and turn history to the
// wire format. Tool call ids only need to be consistent within one
// request, so they are synthesised from the message position.
func toMessages(system string, messages []driven.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if system != "" {
		out = append(out, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}

	for i, m := range messages {
		switch {
		case m.ToolCall != nil:
			args, _ := json.Marshal(m.ToolCall.Args)
			out = append(out, openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleAssistant,
				ToolCalls: []openai.ToolCall{{
					ID:   fmt.Sprintf("call_%d", i),
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      m.ToolCall.Name,
						Arguments: string(args),
					},
				}},
			})
		case m.ToolResult != nil:
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    m.ToolResult.Content,
				Name:       m.ToolResult.Name,
				ToolCallID: fmt.Sprintf("call_%d", i-1),
			})
		default:
			role := openai.ChatMessageRoleUser
			if m.Role == driven.RoleAssistant {
				role = openai.ChatMessageRoleAssistant
			}
			out = append(out, openai.ChatCompletionMessage{
				Role:    role,
				Content: m.Content,
			})
		}
	}
	return out
}

// toTools converts tool declarations to function tools.
func toTools(decls []driven.ToolDecl) []openai.Tool {
	if len(decls) == 0 {
		return nil
	}

	tools := make([]openai.Tool, len(decls))
	for i, d := range decls {
		props := make(map[string]jsonschema.Definition, len(d.Parameters))
		required := make([]string, 0, len(d.Parameters))
		for name, desc := range d.Parameters {
			props[name] = jsonschema.Definition{
				Type:        jsonschema.String,
				Description: desc,
			}
			required = append(required, name)
		}

		tools[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters: jsonschema.Definition{
					Type:       jsonschema.Object,
					Properties: props,
					Required:   required,
				},
			},
		}
	}
	return tools
}

// parseChoice extracts text and an optional tool call.
func parseChoice(choice openai.ChatCompletionChoice) *driven.GenerateResponse {
	out := &driven.GenerateResponse{Text: choice.Message.Content}

	for _, call := range choice.Message.ToolCalls {
		if call.Type != openai.ToolTypeFunction {
			continue
		}

		args := make(map[string]string)
		var raw map[string]any
		if err := json.Unmarshal([]byte(call.Function.Arguments), &raw); err == nil {
			for k, v := range raw {
				if s, ok := v.(string); ok {
					args[k] = s
				} else {
					args[k] = fmt.Sprint(v)
				}
			}
		}

		out.ToolCall = &driven.ToolCall{
			Name: call.Function.Name,
			Args: args,
		}
		break
	}
	return out
}

// ModelName returns the name of the model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by listing models.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx); err != nil {
		return fmt.Errorf("openai: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
