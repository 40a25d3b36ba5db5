package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Delivery outcomes recorded by the presence directory
const (
	DeliveryDelivered = "delivered"
	DeliveryOffline   = "offline"
	DeliveryFailed    = "failed"
)

// Metrics holds the instruments for chat and matching. A nil *Metrics records nothing.
type Metrics struct {
	messagesPersisted metric.Int64Counter
	deliveries        metric.Int64Counter
	evictions         metric.Int64Counter
	connected         metric.Int64UpDownCounter
	matchDuration     metric.Float64Histogram
}

// NewMetrics registers the instruments on the given meter provider
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter("rvsync/backend")

	persisted, err := meter.Int64Counter("chat.messages.persisted",
		metric.WithDescription("Chat messages written to the store"))
	if err != nil {
		return nil, err
	}
	deliveries, err := meter.Int64Counter("chat.deliveries",
		metric.WithDescription("Real-time push attempts by outcome"))
	if err != nil {
		return nil, err
	}
	evictions, err := meter.Int64Counter("presence.evictions",
		metric.WithDescription("Channels dropped after a failed push"))
	if err != nil {
		return nil, err
	}
	connected, err := meter.Int64UpDownCounter("presence.connected",
		metric.WithDescription("Users with a registered channel"))
	if err != nil {
		return nil, err
	}
	matchDuration, err := meter.Float64Histogram("matcher.duration",
		metric.WithDescription("Time spent scoring the opportunity catalog"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		messagesPersisted: persisted,
		deliveries:        deliveries,
		evictions:         evictions,
		connected:         connected,
		matchDuration:     matchDuration,
	}, nil
}

func (m *Metrics) MessagePersisted(ctx context.Context, messageType string) {
	if m == nil {
		return
	}
	m.messagesPersisted.Add(ctx, 1, metric.WithAttributes(attribute.String("type", messageType)))
}

func (m *Metrics) Delivery(result string) {
	if m == nil {
		return
	}
	m.deliveries.Add(context.Background(), 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *Metrics) Evicted() {
	if m == nil {
		return
	}
	m.evictions.Add(context.Background(), 1)
}

func (m *Metrics) Connected(delta int64) {
	if m == nil {
		return
	}
	m.connected.Add(context.Background(), delta)
}

func (m *Metrics) MatchDuration(ctx context.Context, d time.Duration, results int) {
	if m == nil {
		return
	}
	m.matchDuration.Record(ctx, float64(d.Microseconds())/1000,
		metric.WithAttributes(attribute.Int("results", results)))
}
