package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testProduct struct {
	ID   uint `gorm:"primaryKey"`
	SKU  string
	Name string
}

func openMetricsDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&testProduct{}))
	return db
}

func TestDefaultDBMetricsConfig(t *testing.T) {
	cfg := DefaultDBMetricsConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThreshold)
	assert.Equal(t, 15*time.Second, cfg.PoolStatsInterval)
}

func TestNewDBMetrics_AppliesDefaults(t *testing.T) {
	_, provider := manualMeter(t)

	m, err := NewDBMetrics(provider.Meter("db.client"), DBMetricsConfig{Enabled: true}, nil)
	require.NoError(t, err)

	assert.Equal(t, 200*time.Millisecond, m.config.SlowQueryThreshold)
	assert.Equal(t, 15*time.Second, m.config.PoolStatsInterval)
}

func TestDBMetrics_RecordQuery(t *testing.T) {
	reader, provider := manualMeter(t)
	m, err := NewDBMetrics(provider.Meter("db.client"), DefaultDBMetricsConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordQuery(ctx, "select", "products", 10*time.Millisecond, nil)
	m.RecordQuery(ctx, "", "", 300*time.Millisecond, nil)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	total, ok := findMetric(rm, "db_query_total")
	require.True(t, ok)
	sum := total.Data.(metricdata.Sum[int64])
	ops := map[string]int64{}
	for _, dp := range sum.DataPoints {
		if op, found := dp.Attributes.Value(AttrDBOperation); found {
			ops[op.AsString()] = dp.Value
		}
	}
	assert.Equal(t, int64(1), ops["SELECT"], "operation is uppercased")
	assert.Equal(t, int64(1), ops["UNKNOWN"], "empty operation falls back to UNKNOWN")

	slow, ok := findMetric(rm, "db_slow_query_total")
	require.True(t, ok)
	slowSum := slow.Data.(metricdata.Sum[int64])
	require.Len(t, slowSum.DataPoints, 1)
	table, found := slowSum.DataPoints[0].Attributes.Value(AttrDBTable)
	require.True(t, found)
	assert.Equal(t, "unknown", table.AsString(), "missing table name falls back to unknown")

	duration, ok := findMetric(rm, "db_query_duration_seconds")
	require.True(t, ok)
	hist := duration.Data.(metricdata.Histogram[float64])
	assert.NotEmpty(t, hist.DataPoints)
}

func TestDBMetricsPlugin_RecordsGormOperations(t *testing.T) {
	reader, provider := manualMeter(t)
	m, err := NewDBMetrics(provider.Meter("db.client"), DefaultDBMetricsConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)

	db := openMetricsDB(t)
	require.NoError(t, db.Use(NewDBMetricsPlugin(m, zaptest.NewLogger(t))))

	require.NoError(t, db.Create(&testProduct{SKU: "CAMP-1001", Name: "Trail Stove"}).Error)
	var products []testProduct
	require.NoError(t, db.Find(&products).Error)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	total, ok := findMetric(rm, "db_query_total")
	require.True(t, ok)
	sum := total.Data.(metricdata.Sum[int64])
	ops := map[string]bool{}
	for _, dp := range sum.DataPoints {
		if op, found := dp.Attributes.Value(AttrDBOperation); found {
			ops[op.AsString()] = true
		}
	}
	assert.True(t, ops["INSERT"], "create must be counted as INSERT")
	assert.True(t, ops["SELECT"], "find must be counted as SELECT")
}

func TestDBMetrics_PoolStatsCollection(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	reader, provider := manualMeter(t)
	m, err := NewDBMetrics(provider.Meter("db.client"), DBMetricsConfig{
		Enabled:           true,
		PoolStatsInterval: time.Hour, // only the immediate sample matters here
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	m.SetSQLDB(sqlDB)
	m.StartPoolStatsCollection(context.Background())
	defer m.Stop()

	require.Eventually(t, func() bool {
		var rm metricdata.ResourceMetrics
		if err := reader.Collect(context.Background(), &rm); err != nil {
			return false
		}
		_, ok := findMetric(rm, "db_pool_connections_max")
		return ok
	}, 2*time.Second, 20*time.Millisecond)
}

func TestDBMetrics_StartWithoutSQLDB(t *testing.T) {
	_, provider := manualMeter(t)
	m, err := NewDBMetrics(provider.Meter("db.client"), DefaultDBMetricsConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)

	// Without a sql.DB the sampler must not start; Stop still works.
	m.StartPoolStatsCollection(context.Background())
	m.Stop()
	m.Stop()
}

func TestRegisterDBMetrics(t *testing.T) {
	t.Run("disabled config returns nil", func(t *testing.T) {
		db := openMetricsDB(t)
		_, provider := manualMeter(t)
		mp := &MeterProvider{provider: provider, logger: zaptest.NewLogger(t), config: MetricsConfig{Enabled: true}}

		m, err := RegisterDBMetrics(db, mp, DBMetricsConfig{Enabled: false}, zaptest.NewLogger(t))
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("disabled meter provider returns nil", func(t *testing.T) {
		db := openMetricsDB(t)
		mp, err := NewMeterProvider(context.Background(), MetricsConfig{Enabled: false}, zaptest.NewLogger(t))
		require.NoError(t, err)

		m, err := RegisterDBMetrics(db, mp, DefaultDBMetricsConfig(), zaptest.NewLogger(t))
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("registers plugin and pool sampler", func(t *testing.T) {
		db := openMetricsDB(t)
		reader, provider := manualMeter(t)
		mp := &MeterProvider{
			provider: provider,
			logger:   zaptest.NewLogger(t),
			config:   MetricsConfig{Enabled: true},
		}

		m, err := RegisterDBMetrics(db, mp, DefaultDBMetricsConfig(), zaptest.NewLogger(t))
		require.NoError(t, err)
		require.NotNil(t, m)
		defer m.Stop()

		require.NoError(t, db.Create(&testProduct{SKU: "CAMP-1002", Name: "Headlamp"}).Error)

		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(context.Background(), &rm))
		_, ok := findMetric(rm, "db_query_total")
		assert.True(t, ok)
	})
}

func TestDetectOperationType(t *testing.T) {
	cases := map[string]string{
		"SELECT * FROM products":          "SELECT",
		"  select 1":                      "SELECT",
		"INSERT INTO stores VALUES (1)":   "INSERT",
		"UPDATE inventory SET level = 0":  "UPDATE",
		"DELETE FROM order_items":         "DELETE",
		"PRAGMA foreign_keys = ON":        "OTHER",
		"":                                "OTHER",
	}
	for sql, want := range cases {
		assert.Equal(t, want, detectOperationType(sql), "sql %q", sql)
	}
}
