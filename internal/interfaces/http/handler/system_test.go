package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func doRequest(engine *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestSystemHandler_Root(t *testing.T) {
	engine := newTestEngine()
	NewSystemHandler(nil).RegisterRoutes(engine.Group("/"))

	w := doRequest(engine, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "Zava Retail API", body["service"])
	assert.Equal(t, "running", body["status"])

	endpoints, ok := body["endpoints"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/api/stores", endpoints["stores"])
	assert.Equal(t, "/api/management/inventory", endpoints["inventory"])
	assert.Contains(t, endpoints["ai_agent_inventory"], "/ws/ai-agent/inventory")
}

func TestSystemHandler_Health(t *testing.T) {
	engine := newTestEngine()
	NewSystemHandler(nil).RegisterRoutes(engine.Group("/"))

	w := doRequest(engine, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "disconnected", body["database"])
}
