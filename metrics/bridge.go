package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BridgeMetrics counts quote traffic and session outcomes. A nil receiver is
// valid and records nothing, so wiring metrics stays optional in tests.
type BridgeMetrics struct {
	quoteRequests     metric.Int64Counter
	providerErrors    metric.Int64Counter
	sessionsCompleted metric.Int64Counter
	sessionsFailed    metric.Int64Counter
}

func NewBridgeMetrics(meter metric.Meter) (*BridgeMetrics, error) {
	quoteRequests, err := meter.Int64Counter(
		"bridge.QuoteRequests",
		metric.WithDescription("Total number of quote aggregation requests"),
	)
	if err != nil {
		return nil, err
	}

	providerErrors, err := meter.Int64Counter(
		"bridge.ProviderErrors",
		metric.WithDescription("Provider adapter failures during quote aggregation"),
	)
	if err != nil {
		return nil, err
	}

	sessionsCompleted, err := meter.Int64Counter(
		"bridge.SessionsCompleted",
		metric.WithDescription("Bridge sessions that reached the completed state"),
	)
	if err != nil {
		return nil, err
	}

	sessionsFailed, err := meter.Int64Counter(
		"bridge.SessionsFailed",
		metric.WithDescription("Bridge sessions that reached the failed state"),
	)
	if err != nil {
		return nil, err
	}

	return &BridgeMetrics{
		quoteRequests:     quoteRequests,
		providerErrors:    providerErrors,
		sessionsCompleted: sessionsCompleted,
		sessionsFailed:    sessionsFailed,
	}, nil
}

func (m *BridgeMetrics) QuoteRequested(ctx context.Context) {
	if m == nil {
		return
	}
	m.quoteRequests.Add(ctx, 1)
}

func (m *BridgeMetrics) ProviderFailed(ctx context.Context, provider string) {
	if m == nil {
		return
	}
	m.providerErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", provider)))
}

func (m *BridgeMetrics) SessionCompleted(ctx context.Context) {
	if m == nil {
		return
	}
	m.sessionsCompleted.Add(ctx, 1)
}

func (m *BridgeMetrics) SessionFailed(ctx context.Context) {
	if m == nil {
		return
	}
	m.sessionsFailed.Add(ctx, 1)
}
