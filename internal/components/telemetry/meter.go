package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterAPI turns reports into otel metrics: broken and warning reports increment the
// counters "reports.broken" and "reports.warning", counts are recorded on the gauge
// "reports.count". Every data point carries the report id as the "id" attribute. Debug
// reports are dropped.
type MeterAPI struct {
	broken  metric.Int64Counter
	warning metric.Int64Counter
	count   metric.Int64Gauge
}

func NewMeterAPI(meter metric.Meter) (MeterAPI, error) {
	broken, err := meter.Int64Counter("reports.broken")
	if err != nil {
		return MeterAPI{}, err
	}
	warning, err := meter.Int64Counter("reports.warning")
	if err != nil {
		return MeterAPI{}, err
	}
	count, err := meter.Int64Gauge("reports.count")
	if err != nil {
		return MeterAPI{}, err
	}
	return MeterAPI{broken: broken, warning: warning, count: count}, nil
}

func withId(id string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("id", id))
}

func (m MeterAPI) ReportBroken(id string, params ...any) {
	m.broken.Add(context.Background(), 1, withId(id))
}

func (m MeterAPI) ReportWarning(id string, params ...any) {
	m.warning.Add(context.Background(), 1, withId(id))
}

func (m MeterAPI) ReportDebug(msg string, params ...any) {}

func (m MeterAPI) ReportCount(id string, count int64) {
	m.count.Record(context.Background(), count, withId(id))
}
