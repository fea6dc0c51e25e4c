package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zava/retail-backend/internal/infrastructure/config"
)

// maxResponseSize is the maximum allowed response size from the model API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Common errors
var (
	ErrNotConfigured   = errors.New("llm: endpoint, api key and deployment are required")
	ErrUnavailable     = errors.New("llm: service unavailable")
	ErrRequestFailed   = errors.New("llm: request failed")
	ErrInvalidResponse = errors.New("llm: invalid response")
)

// ChatClient calls the Azure OpenAI chat completions API for one deployment.
type ChatClient struct {
	endpoint   string
	apiKey     string
	deployment string
	apiVersion string
	httpClient *http.Client
}

// NewChatClient creates a chat client from the LLM configuration.
func NewChatClient(cfg config.LLMConfig) (*ChatClient, error) {
	if cfg.Endpoint == "" || cfg.APIKey == "" || cfg.Deployment == "" {
		return nil, ErrNotConfigured
	}

	return &ChatClient{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		deployment: cfg.Deployment,
		apiVersion: cfg.APIVersion,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

// Complete performs a single chat completion call.
func (c *ChatClient) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	body := chatCompletionRequest{
		Messages: req.Messages,
	}
	for _, tool := range req.Tools {
		body.Tools = append(body.Tools, toolSpec{
			Type: "function",
			Function: toolFunctionSpec{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}
	if req.ResponseFormat != nil {
		body.ResponseFormat = &responseFormatSpec{
			Type: "json_schema",
			JSONSchema: jsonSchemaSpec{
				Name:   req.ResponseFormat.Name,
				Schema: req.ResponseFormat.Schema,
				Strict: true,
			},
		}
	}

	respBody, err := c.doRequest(ctx, body)
	if err != nil {
		return nil, err
	}

	var resp chatCompletionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", ErrInvalidResponse, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%w: %s - %s", ErrRequestFailed, resp.Error.Code, resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrInvalidResponse)
	}

	choice := resp.Choices[0]
	return &ChatResponse{
		Message:      choice.Message,
		FinishReason: choice.FinishReason,
	}, nil
}

// doRequest performs an HTTP request to the chat completions endpoint
func (c *ChatClient) doRequest(ctx context.Context, body chatCompletionRequest) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("llm: failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.endpoint, url.PathEscape(c.deployment), url.QueryEscape(c.apiVersion))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("llm: failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("llm: failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		// Surface the Retry-After hint when the deployment throttles us.
		retryAfter := resp.Header.Get("Retry-After")
		if retryAfter != "" {
			return nil, fmt.Errorf("%w: HTTP 429, retry after %ss", ErrRequestFailed, retryAfter)
		}
	}
	if resp.StatusCode >= 400 {
		var errResp chatCompletionResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != nil {
			return nil, fmt.Errorf("%w: HTTP %d: %s", ErrRequestFailed, resp.StatusCode, errResp.Error.Message)
		}
		return nil, fmt.Errorf("%w: HTTP %d", ErrRequestFailed, resp.StatusCode)
	}

	return respBody, nil
}

// Timeout returns the configured per-request timeout.
func (c *ChatClient) Timeout() time.Duration {
	return c.httpClient.Timeout
}
