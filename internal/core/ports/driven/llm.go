package driven

import "context"

// Message roles in a generation request.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// LLMService provides language model round trips with tool support.
//
// Implementations may include:
//   - Gemini (generateContent with function declarations)
//   - OpenAI (chat completions with tools)
type LLMService interface {
	// Generate issues one generation round trip. The response carries
	// free text, a tool-call request, or both.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateRequest is one round trip's input: a fixed system instruction,
// the running turn history, and the tools the model may call.
type GenerateRequest struct {
	System   string
	Messages []Message
	Tools    []ToolDecl
}

// Message is one turn in the conversation history.
// Exactly one of Content, ToolCall, ToolResult is meaningful per role:
// user/assistant text carries Content, an assistant tool request carries
// ToolCall, and a RoleTool message carries ToolResult.
type Message struct {
	Role       string
	Content    string
	ToolCall   *ToolCall
	ToolResult *ToolResult
}

// ToolDecl declares a callable tool to the model.
type ToolDecl struct {
	Name        string
	Description string
	// Parameters maps parameter name to a plain-text description.
	// All declared parameters are typed as strings.
	Parameters map[string]string
}

// ToolCall is the model's request to invoke a tool.
type ToolCall struct {
	Name string
	Args map[string]string
}

// ToolResult feeds a tool invocation's output back to the model.
type ToolResult struct {
	Name    string
	Content string
}

// GenerateResponse is one round trip's output.
type GenerateResponse struct {
	// Text is the textual content, may be empty when the model only
	// requested a tool.
	Text string

	// ToolCall is non-nil when the model requested a tool invocation.
	ToolCall *ToolCall
}
