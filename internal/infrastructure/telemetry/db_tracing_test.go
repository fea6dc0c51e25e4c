package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTracingDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&testProduct{}))
	return db
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()
	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgres", cfg.DBSystem)
}

func TestDBTracingPlugin_DisabledSkipsRegistration(t *testing.T) {
	db := openTracingDB(t)
	plugin := NewDBTracingPlugin(DBTracingConfig{Enabled: false}, zaptest.NewLogger(t))

	require.NoError(t, plugin.RegisterOtelGorm(db))
	require.NoError(t, db.Create(&testProduct{SKU: "CAMP-2001", Name: "Tent Stake Set"}).Error)
}

func TestDBTracingPlugin_EmitsQuerySpans(t *testing.T) {
	recorder := recordingTracer(t)

	db := openTracingDB(t)
	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	cfg.DBSystem = "sqlite"
	plugin := NewDBTracingPlugin(cfg, zaptest.NewLogger(t))
	require.NoError(t, plugin.RegisterOtelGorm(db))

	ctx, parent := otel.Tracer(TracerName).Start(context.Background(), "catalog.list_products")
	var products []testProduct
	require.NoError(t, db.WithContext(ctx).Find(&products).Error)
	parent.End()

	spans := recorder.Ended()
	require.Greater(t, len(spans), 1, "the query must produce a child span beside the parent")

	var querySpan bool
	for _, span := range spans {
		if span.Name() != "catalog.list_products" && span.Parent().IsValid() {
			querySpan = true
		}
	}
	assert.True(t, querySpan, "query span must be parented to the request span")
}

// annotateSpan is invoked by GORM callbacks; these tests call it
// directly with a populated statement to pin down each annotation.
func TestDBTracingPlugin_AnnotateSpan(t *testing.T) {
	plugin := NewDBTracingPlugin(DBTracingConfig{
		Enabled:         true,
		SlowQueryThresh: 200 * time.Millisecond,
	}, zaptest.NewLogger(t))

	newStatement := func(t *testing.T, ctx context.Context) *gorm.DB {
		t.Helper()
		db := openTracingDB(t)
		return db.WithContext(ctx)
	}

	t.Run("records table and row count", func(t *testing.T) {
		recorder := recordingTracer(t)
		ctx, span := StartSpan(context.Background(), "db.query")

		tx := newStatement(t, ctx)
		tx.Statement.Table = "products"
		tx.Statement.RowsAffected = 3
		plugin.annotateSpan(tx)
		span.End()

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		assert.Contains(t, spans[0].Attributes(), attribute.String("db.sql.table", "products"))
		assert.Contains(t, spans[0].Attributes(), attribute.Int64("db.rows_affected", 3))
	})

	t.Run("marks slow queries", func(t *testing.T) {
		recorder := recordingTracer(t)
		ctx, span := StartSpan(context.Background(), "db.query")
		ctx = context.WithValue(ctx, queryStartTimeKey, time.Now().Add(-time.Second))

		tx := newStatement(t, ctx)
		plugin.annotateSpan(tx)
		span.End()

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		assert.Contains(t, spans[0].Attributes(), attribute.Bool("db.slow_query", true))

		var warned bool
		for _, event := range spans[0].Events() {
			if event.Name == "slow_query_warning" {
				warned = true
			}
		}
		assert.True(t, warned)
	})

	t.Run("marks errors", func(t *testing.T) {
		recorder := recordingTracer(t)
		ctx, span := StartSpan(context.Background(), "db.query")

		tx := newStatement(t, ctx)
		tx.Error = errors.New("database is locked")
		plugin.annotateSpan(tx)
		span.End()

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status().Code)
	})

	t.Run("record not found is not an error", func(t *testing.T) {
		recorder := recordingTracer(t)
		ctx, span := StartSpan(context.Background(), "db.query")

		tx := newStatement(t, ctx)
		tx.Error = gorm.ErrRecordNotFound
		plugin.annotateSpan(tx)
		span.End()

		spans := recorder.Ended()
		require.Len(t, spans, 1)
		assert.NotEqual(t, codes.Error, spans[0].Status().Code)
	})
}
