// Package restock runs the inventory restocking pipeline: an analyst agent
// consults the finance tools for stock levels, a context pass reprioritizes
// the items against the original request, and a summarizer produces the
// overview shown to the user.
package restock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/zava/retail-backend/internal/infrastructure/llm"
	"github.com/zava/retail-backend/internal/infrastructure/logger"
	"github.com/zava/retail-backend/internal/workflow"
)

const (
	stockAnalyzerID   = "Stock Analyzer"
	contextAnalyzerID = "Context Analyzer"
	summarizerID      = "Summarizer"

	stockAnalyzerInstructions = "You determine strategies for restocking items. " +
		"Consult the tools for stock levels and prioritise which items to restock first."
	contextAnalyzerInstructions = "You look at the context to prioritize restocking items."
	summarizerInstructions      = "You are an excellent workflow summarizer. " +
		"You summarize the restocking task and what the user asked for into an overview. " +
		"Do not list the items one by one as the user will get these in the final output. " +
		"Look at the specific user instructions and context to provide a tailored summary."
)

// collectionSchema constrains model output to a StockItemCollection.
func collectionSchema() *llm.JSONSchemaFormat {
	itemSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"sku":           map[string]any{"type": "string"},
			"product_name":  map[string]any{"type": "string"},
			"category_name": map[string]any{"type": "string"},
			"stock_level":   map[string]any{"type": "integer"},
			"cost":          map[string]any{"type": "number"},
		},
		"required":             []string{"sku", "product_name", "category_name", "stock_level", "cost"},
		"additionalProperties": false,
	}
	return &llm.JSONSchemaFormat{
		Name: "stock_item_collection",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"items": map[string]any{"type": "array", "items": itemSchema},
			},
			"required":             []string{"items"},
			"additionalProperties": false,
		},
	}
}

// stockAnalyzer is the entry executor. It asks the model, armed with the
// finance tools, which items need restocking.
type stockAnalyzer struct {
	agent *llm.Agent
}

func (e *stockAnalyzer) ID() string { return stockAnalyzerID }

func (e *stockAnalyzer) Execute(ctx context.Context, message any, wc *workflow.Context) error {
	request, ok := message.(string)
	if !ok {
		return fmt.Errorf("restock: expected string request, got %T", message)
	}

	resp, err := e.agent.RunText(ctx, request, collectionSchema())
	if err != nil {
		return fmt.Errorf("restock: stock analysis failed: %w", err)
	}

	var collection StockItemCollection
	if err := json.Unmarshal([]byte(resp.Text), &collection); err != nil {
		return fmt.Errorf("restock: invalid stock analysis output: %w", err)
	}

	return wc.SendMessage(ctx, analysisState{
		Context:    request,
		Messages:   resp.Messages,
		Collection: collection,
	})
}

// contextAnalyzer reprioritizes the extracted items against the original
// request. It runs without tools.
type contextAnalyzer struct {
	agent *llm.Agent
}

func (e *contextAnalyzer) ID() string { return contextAnalyzerID }

func (e *contextAnalyzer) Execute(ctx context.Context, message any, wc *workflow.Context) error {
	state, ok := message.(analysisState)
	if !ok {
		return fmt.Errorf("restock: expected analysis state, got %T", message)
	}

	current, err := json.Marshal(state.Collection)
	if err != nil {
		return fmt.Errorf("restock: marshal current items: %w", err)
	}
	prompt := contextAnalyzerInstructions +
		"Original Request:\n" + state.Context +
		"\n\nCurrent Items:\n" + string(current)

	resp, err := e.agent.RunText(ctx, prompt, collectionSchema())
	if err != nil {
		return fmt.Errorf("restock: context analysis failed: %w", err)
	}

	var collection StockItemCollection
	if err := json.Unmarshal([]byte(resp.Text), &collection); err != nil {
		return fmt.Errorf("restock: invalid context analysis output: %w", err)
	}

	state.Collection = collection
	state.Messages = append(state.Messages, resp.Messages...)
	return wc.SendMessage(ctx, state)
}

// summarizer condenses the run transcript into an overview and yields the
// final result.
type summarizer struct {
	agent *llm.Agent
}

func (e *summarizer) ID() string { return summarizerID }

func (e *summarizer) Execute(ctx context.Context, message any, wc *workflow.Context) error {
	state, ok := message.(analysisState)
	if !ok {
		return fmt.Errorf("restock: expected analysis state, got %T", message)
	}

	resp, err := e.agent.RunText(ctx, strings.Join(state.Messages, "\n"), nil)
	if err != nil {
		return fmt.Errorf("restock: summarization failed: %w", err)
	}

	return wc.YieldOutput(ctx, Result{
		Items:   state.Collection.Items,
		Summary: resp.Text,
	})
}

// Service builds and runs the restocking workflow.
type Service struct {
	client llm.Completer
	tools  llm.ToolSet
}

// NewService returns a restocking service backed by the given model client
// and finance tool set.
func NewService(client llm.Completer, tools llm.ToolSet) *Service {
	return &Service{client: client, tools: tools}
}

func (s *Service) build() (*workflow.Workflow, error) {
	analyzer := &stockAnalyzer{
		agent: llm.NewAgent(stockAnalyzerID, stockAnalyzerInstructions, s.client, llm.WithTools(s.tools)),
	}
	contexter := &contextAnalyzer{
		agent: llm.NewAgent(contextAnalyzerID, contextAnalyzerInstructions, s.client),
	}
	summary := &summarizer{
		agent: llm.NewAgent(summarizerID, summarizerInstructions, s.client),
	}
	return workflow.NewBuilder().
		SetStartExecutor(analyzer).
		AddEdge(analyzer, contexter).
		AddEdge(contexter, summary).
		Build()
}

// Stream runs the pipeline for request and returns the workflow event channel.
// The channel closes when the run finishes.
func (s *Service) Stream(ctx context.Context, request string) (<-chan workflow.Event, error) {
	wf, err := s.build()
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("starting restock workflow", zap.Int("request_len", len(request)))
	return wf.RunStream(ctx, request), nil
}

// Run executes the pipeline and returns only the final result.
func (s *Service) Run(ctx context.Context, request string) (*Result, error) {
	wf, err := s.build()
	if err != nil {
		return nil, err
	}
	outputs, err := wf.Run(ctx, request)
	if err != nil {
		return nil, err
	}
	for _, out := range outputs {
		if result, ok := out.(Result); ok {
			return &result, nil
		}
	}
	return nil, fmt.Errorf("restock: workflow produced no result")
}
