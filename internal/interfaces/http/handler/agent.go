package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zava/retail-backend/internal/application/restock"
	"github.com/zava/retail-backend/internal/infrastructure/logger"
	"github.com/zava/retail-backend/internal/infrastructure/telemetry"
	"github.com/zava/retail-backend/internal/workflow"
)

// DefaultAgentRequest is the restocking prompt used when the client does
// not supply one.
const DefaultAgentRequest = "Analyze inventory and recommend restocking priorities"

// agentRequest is the first frame the client sends after connecting.
type agentRequest struct {
	Message string `json:"message"`
	StoreID *int   `json:"store_id"`
}

// AgentHandler streams the restocking agent workflow over a WebSocket.
type AgentHandler struct {
	restock  *restock.Service
	upgrader websocket.Upgrader
}

// NewAgentHandler creates the WebSocket handler for the inventory agent.
func NewAgentHandler(restockService *restock.Service) *AgentHandler {
	return &AgentHandler{
		restock: restockService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The dashboard frontend may be served from any host.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// RegisterRoutes registers the WebSocket route on the root group.
func (h *AgentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ws/ai-agent/inventory", h.InventoryAgent)
}

// InventoryAgent upgrades the connection, reads the initial request and
// streams workflow lifecycle frames until the run finishes.
func (h *AgentHandler) InventoryAgent(c *gin.Context) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	log := logger.L(ctx)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	_, payload, err := conn.ReadMessage()
	if err != nil {
		log.Warn("websocket read failed", zap.Error(err))
		return
	}

	req := agentRequest{Message: DefaultAgentRequest}
	if err := json.Unmarshal(payload, &req); err != nil {
		h.sendFrame(conn, map[string]any{
			"type":      "error",
			"message":   "Invalid request: expected a JSON object",
			"timestamp": isoTimestamp(),
		})
		return
	}
	if req.Message == "" {
		req.Message = DefaultAgentRequest
	}

	message := req.Message
	if req.StoreID != nil {
		message = message + "\n\nStore ID: " + strconv.Itoa(*req.StoreID)
	}
	log.Info("inventory agent request",
		zap.String("message", req.Message),
		zap.Any("store_id", req.StoreID))

	var spanOpts []telemetry.SpanOption
	if req.StoreID != nil {
		spanOpts = append(spanOpts, telemetry.WithAttribute(telemetry.SpanAttrStoreID, *req.StoreID))
	}
	ctx, span := telemetry.StartSpan(ctx, "agent.inventory_restock", spanOpts...)
	defer span.End()

	// No further client frames are expected; keep reading so a disconnect
	// cancels the run mid-step instead of surfacing at the next write.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	if !h.sendFrame(conn, map[string]any{
		"type":      "started",
		"message":   "AI Agent workflow initiated...",
		"timestamp": isoTimestamp(),
	}) {
		return
	}

	events, err := h.restock.Stream(ctx, message)
	if err != nil {
		telemetry.RecordError(span, err)
		h.sendFrame(conn, map[string]any{
			"type":      "error",
			"message":   "Workflow error: " + err.Error(),
			"timestamp": isoTimestamp(),
		})
		return
	}

	var output any
	var failure error
	for ev := range events {
		var frame map[string]any
		switch ev.Type {
		case workflow.EventWorkflowStarted:
			frame = map[string]any{
				"type":      "workflow_started",
				"event":     message,
				"timestamp": isoTimestamp(),
			}
		case workflow.EventWorkflowOutput:
			output = ev.Data
			frame = map[string]any{
				"type":      "workflow_output",
				"event":     ev.Data,
				"timestamp": isoTimestamp(),
			}
		case workflow.EventExecutorInvoked:
			telemetry.AddEvent(span, "step_started", telemetry.SpanAttrAgentStep, ev.ExecutorID)
			frame = map[string]any{
				"type":      "step_started",
				"id":        ev.ExecutorID,
				"timestamp": isoTimestamp(),
			}
		case workflow.EventExecutorCompleted:
			frame = map[string]any{
				"type":      "step_completed",
				"id":        ev.ExecutorID,
				"timestamp": isoTimestamp(),
			}
		case workflow.EventExecutorFailed:
			failure = ev.Err
			frame = map[string]any{
				"type":      "step_failed",
				"event":     ev.Err.Error(),
				"id":        ev.ExecutorID,
				"timestamp": isoTimestamp(),
			}
		default:
			continue
		}
		if !h.sendFrame(conn, frame) {
			return
		}
	}

	if failure != nil {
		telemetry.RecordError(span, failure)
		h.sendFrame(conn, map[string]any{
			"type":      "error",
			"message":   "Workflow error: " + failure.Error(),
			"timestamp": isoTimestamp(),
		})
		return
	}

	h.sendFrame(conn, map[string]any{
		"type":      "completed",
		"message":   "Workflow completed successfully",
		"output":    output,
		"timestamp": isoTimestamp(),
	})
	log.Info("inventory agent workflow completed")
}

// sendFrame writes one JSON frame and reports whether the connection is
// still usable.
func (h *AgentHandler) sendFrame(conn *websocket.Conn, frame map[string]any) bool {
	return conn.WriteJSON(frame) == nil
}

func isoTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
