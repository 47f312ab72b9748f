package telemetry

import (
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
)

// Metrics holds the discode instrument bundle. Shared read-mostly across the
// pipeline, gateway and window manager.
type Metrics struct {
	HookEvents    metric.Int64Counter
	HookDuration  metric.Float64Histogram
	ChatFailures  metric.Int64Counter
	ParseErrors   metric.Int64Counter
	VTBytes       metric.Int64Counter
	StreamFlushes metric.Int64Counter
}

// NewMetrics creates the instruments from a meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.HookEvents, err = meter.Int64Counter("discode.hook.events",
		metric.WithDescription("Hook events received, by type and outcome"),
	)
	if err != nil {
		return nil, err
	}

	m.HookDuration, err = meter.Float64Histogram("discode.hook.duration",
		metric.WithDescription("Hook event handling duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.ChatFailures, err = meter.Int64Counter("discode.chat.failures",
		metric.WithDescription("Chat-platform calls that failed and were dropped"),
	)
	if err != nil {
		return nil, err
	}

	m.ParseErrors, err = meter.Int64Counter("discode.pipeline.parse_errors",
		metric.WithDescription("Structured tool-activity payloads that failed to parse"),
	)
	if err != nil {
		return nil, err
	}

	m.VTBytes, err = meter.Int64Counter("discode.vt.bytes",
		metric.WithDescription("PTY bytes fed into terminal screens"),
	)
	if err != nil {
		return nil, err
	}

	m.StreamFlushes, err = meter.Int64Counter("discode.stream.flushes",
		metric.WithDescription("Streaming updater debounce flushes"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// Noop returns a metrics bundle backed by no-op instruments, for tests and
// disabled telemetry.
func Noop() *Metrics {
	m, _ := NewMetrics(metricnoop.NewMeterProvider().Meter(ScopeName))
	return m
}
