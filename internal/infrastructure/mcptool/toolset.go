package mcptool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/zava/retail-backend/internal/infrastructure/llm"
)

// RLSUserHeader carries the row-level-security principal the tool servers
// scope their queries to.
const RLSUserHeader = "x-rls-user-id"

// ErrToolFailed indicates the tool server reported an error result.
var ErrToolFailed = errors.New("mcptool: tool call failed")

// ToolSet connects to one MCP tool server over streamable HTTP and exposes
// its tools to an agent. Tool definitions are fetched once and cached for
// the lifetime of the set.
type ToolSet struct {
	name   string
	client *client.Client

	mu   sync.Mutex
	defs []llm.ToolDefinition
}

// Config holds the connection settings for one tool server.
type Config struct {
	// Name identifies the tool set in errors and logs.
	Name string
	// URL is the streamable HTTP endpoint, e.g. http://localhost:8002/mcp.
	URL string
	// RLSUserID is sent as the x-rls-user-id header on every request.
	RLSUserID string
	// Timeout bounds each request to the tool server.
	Timeout time.Duration
}

// NewToolSet connects to the tool server and performs the MCP handshake.
func NewToolSet(ctx context.Context, cfg Config) (*ToolSet, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("mcptool: %s: url is required", cfg.Name)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	opts := []transport.StreamableHTTPCOption{
		transport.WithHTTPTimeout(timeout),
	}
	if cfg.RLSUserID != "" {
		opts = append(opts, transport.WithHTTPHeaders(map[string]string{
			RLSUserHeader: cfg.RLSUserID,
		}))
	}

	mcpClient, err := client.NewStreamableHttpClient(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("mcptool: %s: failed to create client: %w", cfg.Name, err)
	}

	if err := mcpClient.Start(ctx); err != nil {
		return nil, fmt.Errorf("mcptool: %s: failed to start transport: %w", cfg.Name, err)
	}

	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "retail-backend",
		Version: "1.0.0",
	}
	if _, err := mcpClient.Initialize(ctx, initRequest); err != nil {
		_ = mcpClient.Close()
		return nil, fmt.Errorf("mcptool: %s: failed to initialize session: %w", cfg.Name, err)
	}

	return &ToolSet{
		name:   cfg.Name,
		client: mcpClient,
	}, nil
}

// Definitions lists the server's tools as model tool definitions.
func (s *ToolSet) Definitions(ctx context.Context) ([]llm.ToolDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.defs != nil {
		return s.defs, nil
	}

	result, err := s.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("mcptool: %s: failed to list tools: %w", s.name, err)
	}

	defs := make([]llm.ToolDefinition, 0, len(result.Tools))
	for _, tool := range result.Tools {
		params, err := schemaToMap(tool.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("mcptool: %s: invalid schema for tool %s: %w", s.name, tool.Name, err)
		}
		defs = append(defs, llm.ToolDefinition{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  params,
		})
	}

	s.defs = defs
	return defs, nil
}

// Call invokes a tool and returns its concatenated text content.
func (s *ToolSet) Call(ctx context.Context, name string, arguments json.RawMessage) (string, error) {
	var args map[string]any
	if len(arguments) > 0 {
		if err := json.Unmarshal(arguments, &args); err != nil {
			return "", fmt.Errorf("mcptool: %s: invalid arguments for %s: %w", s.name, name, err)
		}
	}

	request := mcp.CallToolRequest{}
	request.Params.Name = name
	request.Params.Arguments = args

	result, err := s.client.CallTool(ctx, request)
	if err != nil {
		return "", fmt.Errorf("mcptool: %s: call %s: %w", s.name, name, err)
	}

	text := textContent(result)
	if result.IsError {
		return "", fmt.Errorf("%w: %s: %s", ErrToolFailed, name, text)
	}
	return text, nil
}

// Close terminates the session with the tool server.
func (s *ToolSet) Close() error {
	return s.client.Close()
}

func schemaToMap(schema mcp.ToolInputSchema) (map[string]any, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	var params map[string]any
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, err
	}
	return params, nil
}

func textContent(result *mcp.CallToolResult) string {
	var parts []string
	for _, content := range result.Content {
		if text, ok := mcp.AsTextContent(content); ok {
			parts = append(parts, text.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Ensure ToolSet implements the agent tool interface
var _ llm.ToolSet = (*ToolSet)(nil)
