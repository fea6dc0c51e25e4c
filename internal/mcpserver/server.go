package mcpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Version is reported to MCP clients during initialization.
const Version = "1.0.0"

// DefaultRLSUserID is used when a client does not send the x-rls-user-id
// header. It is the catch-all identity with no row level restrictions.
const DefaultRLSUserID = "00000000-0000-0000-0000-000000000000"

type rlsUserIDKey struct{}

// Tool is one MCP tool: a schema definition plus its handler.
type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// newServer assembles an MCP server with the given tools registered.
func newServer(name, instructions string, tools ...Tool) *server.MCPServer {
	s := server.NewMCPServer(
		name,
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	for _, tool := range tools {
		s.AddTool(tool.Definition(), tool.Handle)
	}
	return s
}

// NewHTTPServer wraps an MCP server in a streamable HTTP transport at
// /mcp. The x-rls-user-id request header is propagated into the tool
// context for row level scoping.
func NewHTTPServer(mcpServer *server.MCPServer, addr string) *http.Server {
	streamable := server.NewStreamableHTTPServer(
		mcpServer,
		server.WithEndpointPath("/mcp"),
		server.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			userID := r.Header.Get("x-rls-user-id")
			if userID == "" {
				userID = DefaultRLSUserID
			}
			return context.WithValue(ctx, rlsUserIDKey{}, userID)
		}),
	)
	return &http.Server{
		Addr:              addr,
		Handler:           streamable,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// RLSUserID returns the row level security identity for the request, or
// the default identity when none was provided.
func RLSUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(rlsUserIDKey{}).(string); ok && userID != "" {
		return userID
	}
	return DefaultRLSUserID
}
