package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zava/retail-backend/internal/infrastructure/config"
)

func testLLMConfig(endpoint string) config.LLMConfig {
	return config.LLMConfig{
		Endpoint:   endpoint,
		APIKey:     "test-key",
		Deployment: "gpt-4o-mini",
		APIVersion: "2024-10-21",
		Timeout:    5 * time.Second,
	}
}

func TestNewChatClient(t *testing.T) {
	t.Run("requires endpoint, key and deployment", func(t *testing.T) {
		_, err := NewChatClient(config.LLMConfig{})
		assert.ErrorIs(t, err, ErrNotConfigured)

		_, err = NewChatClient(config.LLMConfig{Endpoint: "https://example.openai.azure.com", APIKey: "k"})
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("trims trailing slash from endpoint", func(t *testing.T) {
		client, err := NewChatClient(testLLMConfig("https://example.openai.azure.com/"))
		require.NoError(t, err)
		assert.Equal(t, "https://example.openai.azure.com", client.endpoint)
	})
}

func TestChatClient_Complete(t *testing.T) {
	t.Run("sends deployment path, api key and parses the reply", func(t *testing.T) {
		var gotReq chatCompletionRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/openai/deployments/gpt-4o-mini/chat/completions", r.URL.Path)
			assert.Equal(t, "2024-10-21", r.URL.Query().Get("api-version"))
			assert.Equal(t, "test-key", r.Header.Get("api-key"))

			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"choices": [{
					"message": {"role": "assistant", "content": "restock 5 items"},
					"finish_reason": "stop"
				}]
			}`))
		}))
		defer server.Close()

		client, err := NewChatClient(testLLMConfig(server.URL))
		require.NoError(t, err)

		resp, err := client.Complete(context.Background(), ChatRequest{
			Messages: []Message{{Role: RoleUser, Content: "what should we restock?"}},
			Tools: []ToolDefinition{{
				Name:        "get_current_inventory_status",
				Description: "Current stock levels",
				Parameters:  map[string]any{"type": "object"},
			}},
		})

		require.NoError(t, err)
		assert.Equal(t, "restock 5 items", resp.Message.Content)
		assert.Equal(t, "stop", resp.FinishReason)

		require.Len(t, gotReq.Tools, 1)
		assert.Equal(t, "function", gotReq.Tools[0].Type)
		assert.Equal(t, "get_current_inventory_status", gotReq.Tools[0].Function.Name)
	})

	t.Run("encodes a json schema response format", func(t *testing.T) {
		var gotReq chatCompletionRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
			_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{}"},"finish_reason":"stop"}]}`))
		}))
		defer server.Close()

		client, err := NewChatClient(testLLMConfig(server.URL))
		require.NoError(t, err)

		_, err = client.Complete(context.Background(), ChatRequest{
			Messages: []Message{{Role: RoleUser, Content: "hi"}},
			ResponseFormat: &JSONSchemaFormat{
				Name:   "stock_items",
				Schema: map[string]any{"type": "object"},
			},
		})

		require.NoError(t, err)
		require.NotNil(t, gotReq.ResponseFormat)
		assert.Equal(t, "json_schema", gotReq.ResponseFormat.Type)
		assert.Equal(t, "stock_items", gotReq.ResponseFormat.JSONSchema.Name)
		assert.True(t, gotReq.ResponseFormat.JSONSchema.Strict)
	})

	t.Run("returns tool calls", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{
				"choices": [{
					"message": {
						"role": "assistant",
						"content": "",
						"tool_calls": [{
							"id": "call_1",
							"type": "function",
							"function": {"name": "get_stores", "arguments": "{}"}
						}]
					},
					"finish_reason": "tool_calls"
				}]
			}`))
		}))
		defer server.Close()

		client, err := NewChatClient(testLLMConfig(server.URL))
		require.NoError(t, err)

		resp, err := client.Complete(context.Background(), ChatRequest{
			Messages: []Message{{Role: RoleUser, Content: "list stores"}},
		})

		require.NoError(t, err)
		require.Len(t, resp.Message.ToolCalls, 1)
		assert.Equal(t, "get_stores", resp.Message.ToolCalls[0].Function.Name)
	})

	t.Run("maps API errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":"401","message":"invalid api key"}}`))
		}))
		defer server.Close()

		client, err := NewChatClient(testLLMConfig(server.URL))
		require.NoError(t, err)

		_, err = client.Complete(context.Background(), ChatRequest{
			Messages: []Message{{Role: RoleUser, Content: "hi"}},
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRequestFailed)
		assert.Contains(t, err.Error(), "invalid api key")
	})

	t.Run("rejects an empty choice list", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		defer server.Close()

		client, err := NewChatClient(testLLMConfig(server.URL))
		require.NoError(t, err)

		_, err = client.Complete(context.Background(), ChatRequest{
			Messages: []Message{{Role: RoleUser, Content: "hi"}},
		})
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})

	t.Run("maps connection failures to ErrUnavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		server.Close()

		client, err := NewChatClient(testLLMConfig(server.URL))
		require.NoError(t, err)

		_, err = client.Complete(context.Background(), ChatRequest{
			Messages: []Message{{Role: RoleUser, Content: "hi"}},
		})
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}
