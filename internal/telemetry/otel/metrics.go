package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	"kyc-onboarding/backend/internal/telemetry"
	"kyc-onboarding/backend/internal/telemetry/domain"
)

const meterName = "kyc.onboarding"

// Instrument names.
const (
	MetricEvents       = "kyc.onboarding.events"
	MetricCodeRequests = "kyc.verification.code_requests"
	MetricCodeChecks   = "kyc.verification.code_checks"
)

type metricsEmitter struct {
	events   otelmetric.Int64Counter
	requests otelmetric.Int64Counter
	checks   otelmetric.Int64Counter
}

// NewMetricsEmitter returns an EventEmitter that counts events on meters from provider:
// every event by type and channel, code requests by channel and delivery result, and code
// checks by channel and outcome.
func NewMetricsEmitter(provider otelmetric.MeterProvider) (telemetry.EventEmitter, error) {
	if provider == nil {
		return telemetry.Nop{}, nil
	}
	m := provider.Meter(meterName)
	var (
		e   metricsEmitter
		err error
	)
	if e.events, err = m.Int64Counter(MetricEvents,
		otelmetric.WithDescription("Onboarding telemetry events by type."),
		otelmetric.WithUnit("{event}")); err != nil {
		return nil, err
	}
	if e.requests, err = m.Int64Counter(MetricCodeRequests,
		otelmetric.WithDescription("Verification codes requested, by delivery result."),
		otelmetric.WithUnit("{code}")); err != nil {
		return nil, err
	}
	if e.checks, err = m.Int64Counter(MetricCodeChecks,
		otelmetric.WithDescription("Verification code checks, by outcome."),
		otelmetric.WithUnit("{check}")); err != nil {
		return nil, err
	}
	return &e, nil
}

// Emit records event; it never fails.
func (e *metricsEmitter) Emit(ctx context.Context, event *domain.Event) error {
	if event == nil {
		return nil
	}
	channel := attribute.String("channel", event.Channel)
	e.events.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("event_type", event.EventType), channel))
	switch event.EventType {
	case domain.EventCodeRequested:
		e.requests.Add(ctx, 1, otelmetric.WithAttributes(channel, attribute.String("result", "delivered")))
	case domain.EventDeliveryFailed:
		e.requests.Add(ctx, 1, otelmetric.WithAttributes(channel, attribute.String("result", "failed")))
	case domain.EventCodeVerified:
		e.checks.Add(ctx, 1, otelmetric.WithAttributes(channel, attribute.String("outcome", "verified")))
	case domain.EventCodeRejected:
		e.checks.Add(ctx, 1, otelmetric.WithAttributes(channel, attribute.String("outcome", "rejected")))
	}
	return nil
}
