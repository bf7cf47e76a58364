package otel

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"kyc-onboarding/backend/internal/telemetry/domain"
)

// counterValue sums the data points of the named counter whose attributes include kv.
func counterValue(t *testing.T, rm metricdata.ResourceMetrics, name string, kv ...attribute.KeyValue) int64 {
	t.Helper()
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s is %T, want Sum[int64]", name, m.Data)
			}
			for _, dp := range sum.DataPoints {
				match := true
				for _, want := range kv {
					if got, ok := dp.Attributes.Value(want.Key); !ok || got.Emit() != want.Value.Emit() {
						match = false
					}
				}
				if match {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestMetricsEmitter_CountsEvents(t *testing.T) {
	reader := metric.NewManualReader()
	mp := metric.NewMeterProvider(metric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	em, err := NewMetricsEmitter(mp)
	if err != nil {
		t.Fatalf("NewMetricsEmitter: %v", err)
	}
	ctx := context.Background()
	for _, ev := range []*domain.Event{
		domain.NewEvent(domain.EventCodeRequested, "verification", "email", "c1"),
		domain.NewEvent(domain.EventCodeRequested, "verification", "phone", "c2"),
		domain.NewEvent(domain.EventDeliveryFailed, "verification", "phone", "c3"),
		domain.NewEvent(domain.EventCodeRejected, "verification", "email", "c1"),
		domain.NewEvent(domain.EventCodeVerified, "verification", "email", "c1"),
		domain.NewEvent(domain.EventProfileCreated, "profile", "", "p1"),
		nil,
	} {
		if err := em.Emit(ctx, ev); err != nil {
			t.Fatalf("Emit: %v", err)
		}
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	for _, tc := range []struct {
		name string
		kv   []attribute.KeyValue
		want int64
	}{
		{MetricEvents, nil, 6},
		{MetricEvents, []attribute.KeyValue{attribute.String("event_type", domain.EventProfileCreated)}, 1},
		{MetricCodeRequests, nil, 3},
		{MetricCodeRequests, []attribute.KeyValue{attribute.String("result", "failed")}, 1},
		{MetricCodeRequests, []attribute.KeyValue{attribute.String("channel", "phone"), attribute.String("result", "delivered")}, 1},
		{MetricCodeChecks, []attribute.KeyValue{attribute.String("outcome", "verified")}, 1},
		{MetricCodeChecks, []attribute.KeyValue{attribute.String("outcome", "rejected")}, 1},
	} {
		if got := counterValue(t, rm, tc.name, tc.kv...); got != tc.want {
			t.Errorf("%s %v = %d, want %d", tc.name, tc.kv, got, tc.want)
		}
	}
}

func TestNewMetricsEmitter_NilProviderIsNoop(t *testing.T) {
	em, err := NewMetricsEmitter(nil)
	if err != nil {
		t.Fatalf("NewMetricsEmitter(nil): %v", err)
	}
	if err := em.Emit(context.Background(), domain.NewEvent(domain.EventCodeVerified, "verification", "email", "c1")); err != nil {
		t.Errorf("Emit: %v", err)
	}
}
