package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	collegesRegistered  metric.Int64Counter
	registrationsDenied metric.Int64Counter
	collegesViewed      metric.Int64Counter
	collegesListViewed  metric.Int64Counter
	statusUpdates       metric.Int64Counter
	eventsPublished     metric.Int64Counter
	eventErrors         metric.Int64Counter
	queryDuration       metric.Float64Histogram
	queryErrors         metric.Int64Counter
}

func New(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.collegesRegistered, err = meter.Int64Counter(
		"registry.colleges.registered",
		metric.WithDescription("Total number of colleges registered"),
		metric.WithUnit("{college}"),
	)
	if err != nil {
		return nil, err
	}

	m.registrationsDenied, err = meter.Int64Counter(
		"registry.registrations.rejected",
		metric.WithDescription("Registrations refused before a record was created"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	m.collegesViewed, err = meter.Int64Counter(
		"registry.colleges.viewed",
		metric.WithDescription("Total number of single college lookups"),
		metric.WithUnit("{view}"),
	)
	if err != nil {
		return nil, err
	}

	m.collegesListViewed, err = meter.Int64Counter(
		"registry.colleges.list_viewed",
		metric.WithDescription("Total number of times the college list was viewed"),
		metric.WithUnit("{view}"),
	)
	if err != nil {
		return nil, err
	}

	m.statusUpdates, err = meter.Int64Counter(
		"registry.colleges.status_updated",
		metric.WithDescription("Total number of status changes"),
		metric.WithUnit("{update}"),
	)
	if err != nil {
		return nil, err
	}

	m.eventsPublished, err = meter.Int64Counter(
		"messaging.messages.published",
		metric.WithDescription("Total number of events published"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	m.eventErrors, err = meter.Int64Counter(
		"messaging.messages.errors",
		metric.WithDescription("Events that could not be published"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	// Buckets: 1ms, 5ms, 10ms, 25ms, 50ms, 100ms, 250ms, 500ms, 1s, 2.5s, 5s
	m.queryDuration, err = meter.Float64Histogram(
		"db.query.duration",
		metric.WithDescription("Registry store operation duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)
	if err != nil {
		return nil, err
	}

	m.queryErrors, err = meter.Int64Counter(
		"db.query.errors",
		metric.WithDescription("Registry store operation errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) RecordCollegeRegistered(ctx context.Context) {
	if m != nil && m.collegesRegistered != nil {
		m.collegesRegistered.Add(ctx, 1)
	}
}

// RecordRegistrationRejected counts a refused registration by reason
// (missing_field, account_mismatch, invalid_format, upload).
func (m *Metrics) RecordRegistrationRejected(ctx context.Context, reason string) {
	if m != nil && m.registrationsDenied != nil {
		m.registrationsDenied.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}

func (m *Metrics) RecordCollegeViewed(ctx context.Context) {
	if m != nil && m.collegesViewed != nil {
		m.collegesViewed.Add(ctx, 1)
	}
}

func (m *Metrics) RecordCollegesListViewed(ctx context.Context) {
	if m != nil && m.collegesListViewed != nil {
		m.collegesListViewed.Add(ctx, 1)
	}
}

func (m *Metrics) RecordStatusUpdated(ctx context.Context, status string) {
	if m != nil && m.statusUpdates != nil {
		m.statusUpdates.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

func (m *Metrics) RecordEventPublished(ctx context.Context, eventType string, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("type", eventType))
	if err != nil {
		if m.eventErrors != nil {
			m.eventErrors.Add(ctx, 1, attrs)
		}
		return
	}
	if m.eventsPublished != nil {
		m.eventsPublished.Add(ctx, 1, attrs)
	}
}

func (m *Metrics) RecordQuery(ctx context.Context, operation string, table string, duration time.Duration, err error) {
	if m == nil || m.queryDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.String("table", table),
	}

	m.queryDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))

	if err != nil && m.queryErrors != nil {
		m.queryErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// NewMock creates a no-op Metrics instance for testing
// The returned Metrics will safely ignore all Record* calls
func NewMock() *Metrics {
	return &Metrics{}
}
