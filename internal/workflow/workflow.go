// Package workflow provides a small engine for running directed pipelines of
// executors. Executors are wired together with edges, messages flow along the
// edges, and the run emits lifecycle events on a channel so callers can stream
// progress to clients while the pipeline is still running.
package workflow

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoStartExecutor is returned by Build when no start executor was set.
	ErrNoStartExecutor = errors.New("workflow: no start executor configured")
	// ErrUnknownExecutor is returned by Build when an edge references an
	// executor that was never registered.
	ErrUnknownExecutor = errors.New("workflow: edge references unknown executor")
	// ErrDuplicateEdge is returned by Build when the same edge was added twice.
	ErrDuplicateEdge = errors.New("workflow: duplicate edge")
	// ErrCyclicGraph is returned by Build when the edges form a cycle. A cyclic
	// graph would route messages forever.
	ErrCyclicGraph = errors.New("workflow: graph contains a cycle")
	// ErrNoOutput fails a run whose queue drained without any executor
	// yielding output.
	ErrNoOutput = errors.New("workflow: run stalled, no executor yielded output")
)

// EventType identifies a workflow lifecycle event.
type EventType string

const (
	// EventWorkflowStarted is emitted once, before the start executor runs.
	EventWorkflowStarted EventType = "workflow_started"
	// EventExecutorInvoked is emitted just before an executor handles a message.
	EventExecutorInvoked EventType = "executor_invoked"
	// EventExecutorCompleted is emitted after an executor returns without error.
	EventExecutorCompleted EventType = "executor_completed"
	// EventExecutorFailed is emitted when an executor returns an error. The run
	// stops after this event.
	EventExecutorFailed EventType = "executor_failed"
	// EventWorkflowOutput carries a value an executor yielded as workflow output.
	EventWorkflowOutput EventType = "workflow_output"
)

// Event is a single progress notification from a running workflow.
type Event struct {
	Type       EventType
	ExecutorID string
	// Data holds the yielded value for EventWorkflowOutput events.
	Data any
	// Err is set for EventExecutorFailed events.
	Err error
}

// Context is handed to executors so they can forward messages to downstream
// executors and yield values as workflow output.
type Context struct {
	run        *run
	executorID string
}

// SendMessage forwards msg to every executor connected by an outgoing edge
// from the current executor. Messages are processed in the order sent.
func (c *Context) SendMessage(ctx context.Context, msg any) error {
	return c.run.enqueue(ctx, c.executorID, msg)
}

// YieldOutput publishes value as a workflow output event.
func (c *Context) YieldOutput(ctx context.Context, value any) error {
	c.run.yielded = true
	return c.run.emit(ctx, Event{
		Type:       EventWorkflowOutput,
		ExecutorID: c.executorID,
		Data:       value,
	})
}

// Executor is a single processing step in a workflow.
type Executor interface {
	// ID returns a stable identifier used in events and edge wiring.
	ID() string
	// Execute handles one incoming message. Forwarded messages and yielded
	// outputs go through wc.
	Execute(ctx context.Context, message any, wc *Context) error
}

// Builder assembles a workflow from executors and edges.
type Builder struct {
	start     Executor
	executors []Executor
	edges     map[string][]string
}

// NewBuilder returns an empty workflow builder.
func NewBuilder() *Builder {
	return &Builder{edges: make(map[string][]string)}
}

// SetStartExecutor registers e as the entry point of the workflow.
func (b *Builder) SetStartExecutor(e Executor) *Builder {
	b.start = e
	b.register(e)
	return b
}

// AddEdge connects from to to. Messages sent by from are delivered to to.
func (b *Builder) AddEdge(from, to Executor) *Builder {
	b.register(from)
	b.register(to)
	b.edges[from.ID()] = append(b.edges[from.ID()], to.ID())
	return b
}

func (b *Builder) register(e Executor) {
	for _, known := range b.executors {
		if known.ID() == e.ID() {
			return
		}
	}
	b.executors = append(b.executors, e)
}

// Build validates the graph and returns a runnable workflow.
func (b *Builder) Build() (*Workflow, error) {
	if b.start == nil {
		return nil, ErrNoStartExecutor
	}
	byID := make(map[string]Executor, len(b.executors))
	for _, e := range b.executors {
		byID[e.ID()] = e
	}
	for from, targets := range b.edges {
		if _, ok := byID[from]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownExecutor, from)
		}
		seen := make(map[string]bool, len(targets))
		for _, to := range targets {
			if _, ok := byID[to]; !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownExecutor, to)
			}
			if seen[to] {
				return nil, fmt.Errorf("%w: %s -> %s", ErrDuplicateEdge, from, to)
			}
			seen[to] = true
		}
	}
	if cycleAt := findCycle(b.edges); cycleAt != "" {
		return nil, fmt.Errorf("%w: at %s", ErrCyclicGraph, cycleAt)
	}
	edges := make(map[string][]string, len(b.edges))
	for from, targets := range b.edges {
		edges[from] = append([]string(nil), targets...)
	}
	return &Workflow{start: b.start.ID(), executors: byID, edges: edges}, nil
}

// findCycle walks the edge map depth-first and returns the id of a node on
// a cycle, or "" when the graph is acyclic.
func findCycle(edges map[string][]string) string {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int, len(edges))

	var visit func(id string) string
	visit = func(id string) string {
		switch state[id] {
		case visiting:
			return id
		case done:
			return ""
		}
		state[id] = visiting
		for _, next := range edges[id] {
			if at := visit(next); at != "" {
				return at
			}
		}
		state[id] = done
		return ""
	}

	for id := range edges {
		if at := visit(id); at != "" {
			return at
		}
	}
	return ""
}

// Workflow is an immutable executor graph produced by Builder.Build.
type Workflow struct {
	start     string
	executors map[string]Executor
	edges     map[string][]string
}

type envelope struct {
	executorID string
	message    any
}

type run struct {
	wf      *Workflow
	events  chan<- Event
	queue   []envelope
	yielded bool
}

func (r *run) enqueue(ctx context.Context, fromID string, msg any) error {
	targets := r.wf.edges[fromID]
	if len(targets) == 0 {
		return fmt.Errorf("workflow: executor %s has no outgoing edges", fromID)
	}
	for _, target := range targets {
		r.queue = append(r.queue, envelope{executorID: target, message: msg})
	}
	return ctx.Err()
}

func (r *run) emit(ctx context.Context, ev Event) error {
	select {
	case r.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunStream executes the workflow with input delivered to the start executor
// and returns a channel of lifecycle events. The channel is always closed when
// the run finishes, whether it completes, fails, or the context is cancelled.
// An executor error surfaces as an EventExecutorFailed event and ends the run.
// A run whose message queue drains without any executor yielding output is a
// stall and fails with ErrNoOutput.
func (w *Workflow) RunStream(ctx context.Context, input any) <-chan Event {
	events := make(chan Event)
	go func() {
		defer close(events)
		r := &run{wf: w, events: events}
		if err := r.emit(ctx, Event{Type: EventWorkflowStarted}); err != nil {
			return
		}
		r.queue = append(r.queue, envelope{executorID: w.start, message: input})
		lastID := w.start
		for len(r.queue) > 0 {
			next := r.queue[0]
			r.queue = r.queue[1:]

			exec := w.executors[next.executorID]
			lastID = exec.ID()
			if err := r.emit(ctx, Event{Type: EventExecutorInvoked, ExecutorID: exec.ID()}); err != nil {
				return
			}
			wc := &Context{run: r, executorID: exec.ID()}
			if err := exec.Execute(ctx, next.message, wc); err != nil {
				r.emit(ctx, Event{Type: EventExecutorFailed, ExecutorID: exec.ID(), Err: err})
				return
			}
			if err := r.emit(ctx, Event{Type: EventExecutorCompleted, ExecutorID: exec.ID()}); err != nil {
				return
			}
		}
		if !r.yielded {
			r.emit(ctx, Event{Type: EventExecutorFailed, ExecutorID: lastID, Err: ErrNoOutput})
		}
	}()
	return events
}

// Run executes the workflow and collects all yielded outputs, discarding the
// intermediate events. It returns the outputs in yield order.
func (w *Workflow) Run(ctx context.Context, input any) ([]any, error) {
	var outputs []any
	for ev := range w.RunStream(ctx, input) {
		switch ev.Type {
		case EventWorkflowOutput:
			outputs = append(outputs, ev.Data)
		case EventExecutorFailed:
			return outputs, fmt.Errorf("workflow: executor %s: %w", ev.ExecutorID, ev.Err)
		}
	}
	if err := ctx.Err(); err != nil {
		return outputs, err
	}
	return outputs, nil
}
