package logger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLoggerTrace(t *testing.T) {
	newObserved := func(level gormlogger.LogLevel) (*GormLogger, *observer.ObservedLogs) {
		core, logs := observer.New(zap.DebugLevel)
		return NewGormLogger(zap.New(core), level), logs
	}

	t.Run("logs queries at debug", func(t *testing.T) {
		gl, logs := newObserved(gormlogger.Info)
		gl.Trace(context.Background(), time.Now(), func() (string, int64) {
			return "SELECT * FROM stores", 4
		}, nil)

		entries := logs.FilterMessage("SQL Query").All()
		assert.Len(t, entries, 1)
		assert.Equal(t, int64(4), entries[0].ContextMap()["rows"])
	})

	t.Run("logs errors", func(t *testing.T) {
		gl, logs := newObserved(gormlogger.Error)
		gl.Trace(context.Background(), time.Now(), func() (string, int64) {
			return "SELECT * FROM missing", 0
		}, assert.AnError)

		assert.Len(t, logs.FilterMessage("SQL Error").All(), 1)
	})

	t.Run("ignores record not found", func(t *testing.T) {
		gl, logs := newObserved(gormlogger.Error)
		gl.Trace(context.Background(), time.Now(), func() (string, int64) {
			return "SELECT * FROM products WHERE id = 99", 0
		}, gormlogger.ErrRecordNotFound)

		assert.Empty(t, logs.All())
	})

	t.Run("warns on slow queries", func(t *testing.T) {
		gl, logs := newObserved(gormlogger.Warn)
		gl.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) {
			return "SELECT pg_sleep(1)", 0
		}, nil)

		entries := logs.All()
		assert.Len(t, entries, 1)
		assert.Equal(t, zap.WarnLevel, entries[0].Level)
	})

	t.Run("silent logs nothing", func(t *testing.T) {
		gl, logs := newObserved(gormlogger.Silent)
		gl.Trace(context.Background(), time.Now(), func() (string, int64) {
			return "SELECT 1", 1
		}, nil)

		assert.Empty(t, logs.All())
	})

	t.Run("includes request id from context", func(t *testing.T) {
		gl, logs := newObserved(gormlogger.Info)
		ctx := context.WithValue(context.Background(), RequestIDKey, "req-42")
		gl.Trace(ctx, time.Now(), func() (string, int64) {
			return "SELECT 1", 1
		}, nil)

		assert.Equal(t, "req-42", logs.All()[0].ContextMap()["request_id"])
	})
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("info"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("other"))
}
