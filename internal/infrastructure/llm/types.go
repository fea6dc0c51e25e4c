package llm

import "encoding/json"

// Message roles in a chat completion conversation.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is a single chat message exchanged with the model.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction carries the function name and its JSON-encoded arguments.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDefinition describes a callable function exposed to the model.
// Parameters is a JSON schema object.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// JSONSchemaFormat constrains the model output to a named JSON schema.
type JSONSchemaFormat struct {
	Name   string
	Schema map[string]any
}

// ChatRequest is a single chat completion call.
type ChatRequest struct {
	Messages       []Message
	Tools          []ToolDefinition
	ResponseFormat *JSONSchemaFormat
}

// ChatResponse is the model's reply to a ChatRequest.
type ChatResponse struct {
	Message      Message
	FinishReason string
}

// wire types for the Azure OpenAI chat completions API

type chatCompletionRequest struct {
	Messages       []Message           `json:"messages"`
	Tools          []toolSpec          `json:"tools,omitempty"`
	ResponseFormat *responseFormatSpec `json:"response_format,omitempty"`
}

type toolSpec struct {
	Type     string           `json:"type"`
	Function toolFunctionSpec `json:"function"`
}

type toolFunctionSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

type responseFormatSpec struct {
	Type       string         `json:"type"`
	JSONSchema jsonSchemaSpec `json:"json_schema"`
}

type jsonSchemaSpec struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
	Strict bool           `json:"strict"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ParseArguments decodes the tool call arguments into dst.
func (c ToolCall) ParseArguments(dst any) error {
	return json.Unmarshal([]byte(c.Function.Arguments), dst)
}
