package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrToolRoundsExceeded indicates the model kept requesting tools beyond the
// configured round limit.
var ErrToolRoundsExceeded = errors.New("llm: tool call rounds exceeded")

// ToolSet exposes callable tools to an agent. Call returns the tool output
// as text; tool failures are reported as error text to the model rather
// than aborting the run.
type ToolSet interface {
	Definitions(ctx context.Context) ([]ToolDefinition, error)
	Call(ctx context.Context, name string, arguments json.RawMessage) (string, error)
}

// Completer is the model call an agent depends on.
type Completer interface {
	Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Agent is a chat agent with fixed instructions and an optional tool set.
// It drives the tool-calling loop until the model produces a final answer.
type Agent struct {
	name          string
	instructions  string
	client        Completer
	tools         ToolSet
	maxToolRounds int
}

// AgentOption configures an Agent.
type AgentOption func(*Agent)

// WithTools attaches a tool set to the agent.
func WithTools(tools ToolSet) AgentOption {
	return func(a *Agent) {
		a.tools = tools
	}
}

// WithMaxToolRounds caps the number of tool call rounds per run.
func WithMaxToolRounds(rounds int) AgentOption {
	return func(a *Agent) {
		a.maxToolRounds = rounds
	}
}

// NewAgent creates an agent with the given display name and instructions.
func NewAgent(name, instructions string, client Completer, opts ...AgentOption) *Agent {
	agent := &Agent{
		name:          name,
		instructions:  instructions,
		client:        client,
		maxToolRounds: 10,
	}
	for _, opt := range opts {
		opt(agent)
	}
	return agent
}

// Name returns the agent's display name.
func (a *Agent) Name() string {
	return a.name
}

// AgentResponse is the outcome of one agent run.
type AgentResponse struct {
	// Text is the final assistant message content.
	Text string
	// Messages holds the text of every non-empty assistant message produced
	// during the run, in order.
	Messages []string
}

// Run sends the input through the model, resolving tool calls until the
// model returns a plain message. A non-nil format constrains the final
// output to that JSON schema.
func (a *Agent) Run(ctx context.Context, input []Message, format *JSONSchemaFormat) (*AgentResponse, error) {
	messages := make([]Message, 0, len(input)+1)
	messages = append(messages, Message{Role: RoleSystem, Content: a.instructions})
	messages = append(messages, input...)

	var tools []ToolDefinition
	if a.tools != nil {
		defs, err := a.tools.Definitions(ctx)
		if err != nil {
			return nil, fmt.Errorf("llm: failed to list tools: %w", err)
		}
		tools = defs
	}

	result := &AgentResponse{}
	for round := 0; round <= a.maxToolRounds; round++ {
		resp, err := a.client.Complete(ctx, ChatRequest{
			Messages:       messages,
			Tools:          tools,
			ResponseFormat: format,
		})
		if err != nil {
			return nil, err
		}

		msg := resp.Message
		messages = append(messages, msg)
		if strings.TrimSpace(msg.Content) != "" {
			result.Messages = append(result.Messages, msg.Content)
		}

		if len(msg.ToolCalls) == 0 {
			result.Text = msg.Content
			return result, nil
		}

		for _, call := range msg.ToolCalls {
			var output string
			if a.tools == nil {
				// The model hallucinated a tool on a tool-less agent.
				output = fmt.Sprintf("tool %s is not available: no tools are attached", call.Function.Name)
			} else if out, err := a.tools.Call(ctx, call.Function.Name, json.RawMessage(call.Function.Arguments)); err != nil {
				// Report the failure to the model so it can recover or
				// pick another tool.
				output = fmt.Sprintf("tool %s failed: %v", call.Function.Name, err)
			} else {
				output = out
			}
			messages = append(messages, Message{
				Role:       RoleTool,
				Content:    output,
				ToolCallID: call.ID,
			})
		}
	}

	return nil, ErrToolRoundsExceeded
}

// RunText is a convenience wrapper for a single user prompt.
func (a *Agent) RunText(ctx context.Context, prompt string, format *JSONSchemaFormat) (*AgentResponse, error) {
	return a.Run(ctx, []Message{{Role: RoleUser, Content: prompt}}, format)
}
