// Package observe provides application-wide observability primitives for
// Fireside: OpenTelemetry metrics, tracing, and structured logging helpers.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Fireside metrics.
const meterName = "github.com/MrWong99/fireside"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// STTDuration tracks speech-to-text transcription latency.
	STTDuration metric.Float64Histogram

	// TTSDuration tracks text-to-speech synthesis latency.
	TTSDuration metric.Float64Histogram

	// RecordingDuration tracks the length of captured utterances.
	RecordingDuration metric.Float64Histogram

	// InteractionDuration tracks end-to-end wake-to-reply latency.
	InteractionDuration metric.Float64Histogram

	// --- Counters ---

	// WakeDetections counts wake-word activations. Use with attribute:
	//   attribute.String("model", ...)
	WakeDetections metric.Int64Counter

	// Dispatches counts command dispatches. Use with attributes:
	//   attribute.String("command", ...), attribute.String("status", ...)
	Dispatches metric.Int64Counter

	// TimerFirings counts timers that reached their deadline and announced.
	TimerFirings metric.Int64Counter

	// ReminderFirings counts reminders that reached their deadline and announced.
	ReminderFirings metric.Int64Counter

	// --- Error counters ---

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// SpeechQueueDepth tracks the number of utterances waiting for playback.
	SpeechQueueDepth metric.Int64UpDownCounter

	// ActiveTimers tracks the number of pending timers.
	ActiveTimers metric.Int64UpDownCounter

	// ActiveReminders tracks the number of pending reminders.
	ActiveReminders metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for voice-pipeline latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.STTDuration, err = m.Float64Histogram("fireside.stt.duration",
		metric.WithDescription("Latency of speech-to-text transcription."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TTSDuration, err = m.Float64Histogram("fireside.tts.duration",
		metric.WithDescription("Latency of text-to-speech synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.RecordingDuration, err = m.Float64Histogram("fireside.recording.duration",
		metric.WithDescription("Length of captured utterances."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.InteractionDuration, err = m.Float64Histogram("fireside.interaction.duration",
		metric.WithDescription("End-to-end wake-to-reply latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.WakeDetections, err = m.Int64Counter("fireside.wake.detections",
		metric.WithDescription("Total wake-word activations by model."),
	); err != nil {
		return nil, err
	}
	if met.Dispatches, err = m.Int64Counter("fireside.dispatch.total",
		metric.WithDescription("Total command dispatches by command name and status."),
	); err != nil {
		return nil, err
	}
	if met.TimerFirings, err = m.Int64Counter("fireside.timer.firings",
		metric.WithDescription("Total timers that reached their deadline."),
	); err != nil {
		return nil, err
	}
	if met.ReminderFirings, err = m.Int64Counter("fireside.reminder.firings",
		metric.WithDescription("Total reminders that reached their deadline."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.ProviderErrors, err = m.Int64Counter("fireside.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.SpeechQueueDepth, err = m.Int64UpDownCounter("fireside.speech.queue_depth",
		metric.WithDescription("Number of utterances waiting for playback."),
	); err != nil {
		return nil, err
	}
	if met.ActiveTimers, err = m.Int64UpDownCounter("fireside.active_timers",
		metric.WithDescription("Number of pending timers."),
	); err != nil {
		return nil, err
	}
	if met.ActiveReminders, err = m.Int64UpDownCounter("fireside.active_reminders",
		metric.WithDescription("Number of pending reminders."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
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

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordDispatch is a convenience method that records a dispatch counter
// increment with the standard attribute set.
func (m *Metrics) RecordDispatch(ctx context.Context, command, status string) {
	m.Dispatches.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("command", command),
			attribute.String("status", status),
		),
	)
}

// RecordWakeDetection is a convenience method that records a wake-word
// activation counter increment.
func (m *Metrics) RecordWakeDetection(ctx context.Context, model string) {
	m.WakeDetections.Add(ctx, 1,
		metric.WithAttributes(attribute.String("model", model)),
	)
}

// RecordProviderError is a convenience method that records a provider error
// counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}
