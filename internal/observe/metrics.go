// Package observe provides the OpenTelemetry metric instruments for
// wayfinder and the Prometheus exporter bridge that serves them on /metrics.
//
// Tests should build their own [Metrics] with [NewMetrics] and a
// [sdkmetric.ManualReader]-backed provider instead of using [DefaultMetrics].
// Every Record method is a no-op on a nil *Metrics, so components can treat
// metrics as optional.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope for all wayfinder metrics.
const meterName = "github.com/teslashibe/go-wayfinder"

// Metrics holds all metric instruments. The OTel types synchronize
// themselves, so a *Metrics is safe for concurrent use.
type Metrics struct {
	// NarrationDuration tracks narration service latency. Attributes:
	//   attribute.String("variant", ...)
	NarrationDuration metric.Float64Histogram

	// NarrationRequests counts gateway calls. Attributes:
	//   attribute.String("variant", ...), attribute.String("status", ...)
	NarrationRequests metric.Int64Counter

	// DetectionDuration tracks object detector latency per frame.
	DetectionDuration metric.Float64Histogram

	// Observations counts classified objects. Attribute:
	//   attribute.String("risk", ...)
	Observations metric.Int64Counter

	// Alerts counts throttle decisions. Attribute:
	//   attribute.String("outcome", "spoken"|"suppressed")
	Alerts metric.Int64Counter

	// AudioSegments counts voice segments found. Attribute:
	//   attribute.String("direction", ...)
	AudioSegments metric.Int64Counter

	// FrameErrors counts frames dropped by sensor errors. Attribute:
	//   attribute.String("stage", "capture"|"detect")
	FrameErrors metric.Int64Counter

	// HTTPRequestDuration tracks handler latency. Attributes:
	//   attribute.String("method", ...), attribute.String("path", ...),
	//   attribute.Int("status", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets are histogram boundaries in seconds, sized for detector
// and remote narration latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
}

// NewMetrics creates all instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.NarrationDuration, err = m.Float64Histogram("wayfinder.narration.duration",
		metric.WithDescription("Latency of narration service calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.DetectionDuration, err = m.Float64Histogram("wayfinder.detection.duration",
		metric.WithDescription("Latency of object detection per frame."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("wayfinder.http.request.duration",
		metric.WithDescription("HTTP request latency by method, path and status."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if met.NarrationRequests, err = m.Int64Counter("wayfinder.narration.requests",
		metric.WithDescription("Narration gateway calls by variant and status."),
	); err != nil {
		return nil, err
	}
	if met.Observations, err = m.Int64Counter("wayfinder.observations",
		metric.WithDescription("Classified objects by risk level."),
	); err != nil {
		return nil, err
	}
	if met.Alerts, err = m.Int64Counter("wayfinder.alerts",
		metric.WithDescription("Alert throttle decisions by outcome."),
	); err != nil {
		return nil, err
	}
	if met.AudioSegments, err = m.Int64Counter("wayfinder.audio.segments",
		metric.WithDescription("Voice segments found by estimated direction."),
	); err != nil {
		return nil, err
	}
	if met.FrameErrors, err = m.Int64Counter("wayfinder.frame.errors",
		metric.WithDescription("Frames skipped because of sensor errors, by stage."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level instance built on the global
// meter provider. Call [InitProvider] first so it is backed by Prometheus.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordNarration records one gateway call.
func (m *Metrics) RecordNarration(ctx context.Context, variant, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.NarrationRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("variant", variant),
		attribute.String("status", status),
	))
	if d > 0 {
		m.NarrationDuration.Record(ctx, d.Seconds(),
			metric.WithAttributes(attribute.String("variant", variant)))
	}
}

// RecordDetection records detector latency.
func (m *Metrics) RecordDetection(ctx context.Context, d time.Duration) {
	if m == nil {
		return
	}
	m.DetectionDuration.Record(ctx, d.Seconds())
}

// RecordObservation counts one classified object.
func (m *Metrics) RecordObservation(ctx context.Context, risk string) {
	if m == nil {
		return
	}
	m.Observations.Add(ctx, 1, metric.WithAttributes(attribute.String("risk", risk)))
}

// RecordAlert counts a throttle decision.
func (m *Metrics) RecordAlert(ctx context.Context, spoken bool) {
	if m == nil {
		return
	}
	outcome := "suppressed"
	if spoken {
		outcome = "spoken"
	}
	m.Alerts.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordSegment counts one voice segment.
func (m *Metrics) RecordSegment(ctx context.Context, direction string) {
	if m == nil {
		return
	}
	m.AudioSegments.Add(ctx, 1, metric.WithAttributes(attribute.String("direction", direction)))
}

// RecordFrameError counts a skipped frame.
func (m *Metrics) RecordFrameError(ctx context.Context, stage string) {
	if m == nil {
		return
	}
	m.FrameErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordHTTP records one handled request.
func (m *Metrics) RecordHTTP(ctx context.Context, method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status", status),
	))
}
