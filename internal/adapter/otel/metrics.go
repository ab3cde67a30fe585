package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "marketplace"

// Metrics holds all marketplace metric instruments.
type Metrics struct {
	RequestsSubmitted metric.Int64Counter
	RequestsApproved  metric.Int64Counter
	RequestsRejected  metric.Int64Counter
	ReadsAuthorized   metric.Int64Counter
	ReadsDenied       metric.Int64Counter
	ReadDuration      metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.RequestsSubmitted, err = meter.Int64Counter("marketplace.requests.submitted",
		metric.WithDescription("Number of access requests submitted"))
	if err != nil {
		return nil, err
	}

	m.RequestsApproved, err = meter.Int64Counter("marketplace.requests.approved",
		metric.WithDescription("Number of access requests approved"))
	if err != nil {
		return nil, err
	}

	m.RequestsRejected, err = meter.Int64Counter("marketplace.requests.rejected",
		metric.WithDescription("Number of access requests rejected"))
	if err != nil {
		return nil, err
	}

	m.ReadsAuthorized, err = meter.Int64Counter("marketplace.reads.authorized",
		metric.WithDescription("Number of authorized data reads"))
	if err != nil {
		return nil, err
	}

	m.ReadsDenied, err = meter.Int64Counter("marketplace.reads.denied",
		metric.WithDescription("Number of denied data reads"))
	if err != nil {
		return nil, err
	}

	m.ReadDuration, err = meter.Float64Histogram("marketplace.read.duration_seconds",
		metric.WithDescription("Data read duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
