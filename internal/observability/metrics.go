package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/yungbote/neurobridge-lessons"

// Metrics records aggregate and background-work signals through the OTel
// metric API. Without a configured MeterProvider every call is a no-op.
type Metrics struct {
	aggDuration     metric.Float64Histogram
	aggConflicts    metric.Int64Counter
	aggRetries      metric.Int64Counter
	activityDropped metric.Int64Counter
	activityFailed  metric.Int64Counter
}

// NewMetrics builds instruments on meter; nil uses the global provider.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter(meterName)
	}
	m := &Metrics{}
	var err error
	if m.aggDuration, err = meter.Float64Histogram(
		"aggregate.operation.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of aggregate write operations"),
	); err != nil {
		return nil, err
	}
	if m.aggConflicts, err = meter.Int64Counter(
		"aggregate.conflicts",
		metric.WithDescription("Aggregate writes that ended in a conflict"),
	); err != nil {
		return nil, err
	}
	if m.aggRetries, err = meter.Int64Counter(
		"aggregate.retries",
		metric.WithDescription("Aggregate write attempts retried after a lost race"),
	); err != nil {
		return nil, err
	}
	if m.activityDropped, err = meter.Int64Counter(
		"activity.dropped",
		metric.WithDescription("Activity entries dropped because the queue was full"),
	); err != nil {
		return nil, err
	}
	if m.activityFailed, err = meter.Int64Counter(
		"activity.failed",
		metric.WithDescription("Activity entries whose write failed"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) ObserveAggregateOperation(name, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggDuration.Record(context.Background(), dur.Seconds(), metric.WithAttributes(
		attribute.String("operation", name),
		attribute.String("status", status),
	))
}

func (m *Metrics) IncAggregateConflict(name string) {
	if m == nil {
		return
	}
	m.aggConflicts.Add(context.Background(), 1, metric.WithAttributes(attribute.String("operation", name)))
}

func (m *Metrics) IncAggregateRetry(name string) {
	if m == nil {
		return
	}
	m.aggRetries.Add(context.Background(), 1, metric.WithAttributes(attribute.String("operation", name)))
}

func (m *Metrics) IncActivityDropped(activityType string) {
	if m == nil {
		return
	}
	m.activityDropped.Add(context.Background(), 1, metric.WithAttributes(attribute.String("type", activityType)))
}

func (m *Metrics) IncActivityFailed(activityType string) {
	if m == nil {
		return
	}
	m.activityFailed.Add(context.Background(), 1, metric.WithAttributes(attribute.String("type", activityType)))
}
