package agent

import (
	"encoding/json"
	"time"
)

// Role is an OpenAI chat message role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a function/tool invocation emitted by the model.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ToolSchema describes a callable tool offered to the model.
type ToolSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// Message is one canonical OpenAI-shape chat message.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// ChatRequest is the canonical OpenAI-format chat completion request every
// agent variant accepts. Translation converts this to the provider's wire
// shape and back.
type ChatRequest struct {
	Model       string       `json:"model"`
	Messages    []Message    `json:"messages"`
	Tools       []ToolSchema `json:"tools,omitempty"`
	ToolChoice  string       `json:"tool_choice,omitempty"`
	Temperature float32      `json:"temperature,omitempty"`
	TopP        float32      `json:"top_p,omitempty"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
	Stream      bool         `json:"stream,omitempty"`
}

// ChatUsage is the canonical OpenAI-format token usage block.
type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatChoice is one candidate completion.
type ChatChoice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// ChatResponse is the canonical OpenAI-format chat completion response.
// Every agent variant's ChatCompletion produces this shape regardless of the
// upstream's native wire format.
type ChatResponse struct {
	ID        string       `json:"id"`
	Object    string       `json:"object"`
	CreatedAt time.Time    `json:"-"`
	Model     string       `json:"model"`
	Provider  string       `json:"-"`
	Choices   []ChatChoice `json:"choices"`
	Usage     ChatUsage    `json:"usage"`
}

// StreamChunk is one element of a chat_completion_stream sequence. Done is
// set on the terminal chunk corresponding to the `[DONE]` SSE sentinel; no
// further chunks follow it. Err is set on a mid-stream disconnect, after
// which the stream is closed.
type StreamChunk struct {
	ID           string `json:"id,omitempty"`
	Model        string `json:"model,omitempty"`
	DeltaRole    Role   `json:"-"`
	DeltaContent string `json:"-"`
	FinishReason string `json:"-"`
	Done         bool   `json:"-"`
	Err          error  `json:"-"`
}

// HealthStatus is the result of Agent.HealthCheck.
type HealthStatus struct {
	Healthy   bool
	LatencyMs float64
}
