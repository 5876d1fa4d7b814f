package observe

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestNewMetrics_RecordsThroughProvider(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	ctx := context.Background()
	m.STTDuration.Record(ctx, 0.42)
	m.RecordWakeDetection(ctx, "alexa_v0.1")
	m.RecordDispatch(ctx, "timer", "handled")
	m.RecordDispatch(ctx, "timer", "handled")
	m.RecordProviderError(ctx, "stt", "transcribe")
	m.ActiveTimers.Add(ctx, 1)
	m.ActiveTimers.Add(ctx, -1)

	got := collect(t, reader)

	hist, ok := got["fireside.stt.duration"].Data.(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) != 1 {
		t.Fatalf("stt duration histogram = %+v, want one data point", got["fireside.stt.duration"])
	}
	if hist.DataPoints[0].Count != 1 {
		t.Fatalf("stt duration count = %d, want 1", hist.DataPoints[0].Count)
	}

	disp, ok := got["fireside.dispatch.total"].Data.(metricdata.Sum[int64])
	if !ok || len(disp.DataPoints) != 1 {
		t.Fatalf("dispatch counter = %+v, want one attribute set", got["fireside.dispatch.total"])
	}
	if disp.DataPoints[0].Value != 2 {
		t.Fatalf("dispatch count = %d, want 2", disp.DataPoints[0].Value)
	}

	timers, ok := got["fireside.active_timers"].Data.(metricdata.Sum[int64])
	if !ok || len(timers.DataPoints) != 1 {
		t.Fatalf("active timers gauge = %+v", got["fireside.active_timers"])
	}
	if timers.DataPoints[0].Value != 0 {
		t.Fatalf("active timers = %d, want 0 after add and remove", timers.DataPoints[0].Value)
	}

	if _, ok := got["fireside.wake.detections"]; !ok {
		t.Fatal("wake detections counter not registered")
	}
	if _, ok := got["fireside.provider.errors"]; !ok {
		t.Fatal("provider errors counter not registered")
	}
}

func TestDefaultMetrics_Singleton(t *testing.T) {
	a := DefaultMetrics()
	b := DefaultMetrics()
	if a != b {
		t.Fatal("DefaultMetrics returned distinct instances")
	}
}
