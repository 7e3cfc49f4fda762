package metrics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Thaththathirian/lifeboat-college/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sum(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	data, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "%s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range data.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := metrics.New(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordCollegeRegistered(ctx)
	m.RecordCollegeRegistered(ctx)
	m.RecordRegistrationRejected(ctx, "missing_field")
	m.RecordStatusUpdated(ctx, "approved")
	m.RecordEventPublished(ctx, "college.registered", nil)
	m.RecordEventPublished(ctx, "college.registered", errors.New("nats down"))
	m.RecordQuery(ctx, "insert", "colleges", 3*time.Millisecond, nil)

	got := collect(t, reader)
	assert.Equal(t, int64(2), sum(t, got["registry.colleges.registered"]))
	assert.Equal(t, int64(1), sum(t, got["registry.registrations.rejected"]))
	assert.Equal(t, int64(1), sum(t, got["registry.colleges.status_updated"]))
	assert.Equal(t, int64(1), sum(t, got["messaging.messages.published"]))
	assert.Equal(t, int64(1), sum(t, got["messaging.messages.errors"]))
	assert.Contains(t, got, "db.query.duration")
}

func TestMetrics_NilSafe(t *testing.T) {
	ctx := context.Background()

	var nilMetrics *metrics.Metrics
	mock := metrics.NewMock()

	for _, m := range []*metrics.Metrics{nilMetrics, mock} {
		assert.NotPanics(t, func() {
			m.RecordCollegeRegistered(ctx)
			m.RecordRegistrationRejected(ctx, "upload")
			m.RecordCollegeViewed(ctx)
			m.RecordCollegesListViewed(ctx)
			m.RecordStatusUpdated(ctx, "approved")
			m.RecordEventPublished(ctx, "college.registered", errors.New("x"))
			m.RecordQuery(ctx, "select", "colleges", time.Millisecond, nil)
		})
	}
}

func TestRuntimeMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	_, err := metrics.NewRuntimeMetrics(provider.Meter("test"))
	require.NoError(t, err)

	got := collect(t, reader)
	require.Contains(t, got, "runtime.go.goroutines")
	require.Contains(t, got, "service.uptime")

	gauge, ok := got["runtime.go.goroutines"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Positive(t, gauge.DataPoints[0].Value)
}
