package telemetry

import (
	"context"
	"runtime/pprof"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithProfilingLabels(t *testing.T) {
	t.Run("empty labels run fn unchanged", func(t *testing.T) {
		called := false
		WithProfilingLabels(context.Background(), nil, func(ctx context.Context) {
			called = true
		})
		assert.True(t, called)
	})

	t.Run("labels visible inside fn", func(t *testing.T) {
		labels := map[string]string{
			ProfilingLabelController: "ProductHandler",
			ProfilingLabelStoreID:    "44",
		}
		WithProfilingLabels(context.Background(), labels, func(ctx context.Context) {
			controller, ok := pprof.Label(ctx, ProfilingLabelController)
			require.True(t, ok)
			assert.Equal(t, "ProductHandler", controller)

			storeID, ok := pprof.Label(ctx, ProfilingLabelStoreID)
			require.True(t, ok)
			assert.Equal(t, "44", storeID)
		})
	})

	t.Run("all labels filtered still runs fn", func(t *testing.T) {
		called := false
		WithProfilingLabels(context.Background(), map[string]string{"user_id": "u-1"}, func(ctx context.Context) {
			called = true
			_, ok := pprof.Label(ctx, "user_id")
			assert.False(t, ok)
		})
		assert.True(t, called)
	})
}

func TestSanitizeLabels(t *testing.T) {
	t.Run("drops high cardinality keys", func(t *testing.T) {
		pairs := sanitizeLabels(map[string]string{
			"user_id":  "u-1",
			"trace_id": "abc",
			"route":    "/api/products",
		})
		assert.Equal(t, []string{"route", "/api/products"}, pairs)
	})

	t.Run("store_id passes through", func(t *testing.T) {
		pairs := sanitizeLabels(map[string]string{ProfilingLabelStoreID: "7"})
		assert.Equal(t, []string{"store_id", "7"}, pairs)
	})

	t.Run("drops empty keys and values", func(t *testing.T) {
		pairs := sanitizeLabels(map[string]string{
			"":       "x",
			"method": "",
		})
		assert.Empty(t, pairs)
	})

	t.Run("truncates long values", func(t *testing.T) {
		long := strings.Repeat("x", MaxLabelValueLength+50)
		pairs := sanitizeLabels(map[string]string{"route": long})
		require.Len(t, pairs, 2)
		assert.Len(t, pairs[1], MaxLabelValueLength)
	})

	t.Run("deterministic ordering", func(t *testing.T) {
		labels := map[string]string{"b": "2", "a": "1", "c": "3"}
		assert.Equal(t, []string{"a", "1", "b", "2", "c", "3"}, sanitizeLabels(labels))
	})
}

func TestSanitizeLabelKey(t *testing.T) {
	assert.Equal(t, "store_id", sanitizeLabelKey("Store ID"))
	assert.Equal(t, "http_route", sanitizeLabelKey("http-route"))
	assert.Equal(t, "method", sanitizeLabelKey("method!"))
	assert.Equal(t, "", sanitizeLabelKey("!!!"))
}
