// Package events turns committed order changes into versioned envelopes on
// the order topics.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkax "github.com/ariefcatur/storefront-orders/internal/kafka"
	"github.com/ariefcatur/storefront-orders/internal/orders"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

const envelopeVersion = 1

// Sink is the transport; *kafka.Producer satisfies it.
type Sink interface {
	Publish(topic string, key, value []byte, headers ...kafkago.Header) error
}

type Publisher struct {
	Sink        Sink
	ServiceName string
	Now         func() time.Time
}

func (p *Publisher) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now().UTC()
}

func (p *Publisher) OrderPlaced(ctx context.Context, o orders.Order) error {
	return p.publish(ctx, orders.TopicOrderCreated, orders.EventOrderCreated, o.ID, orders.NewOrderCreatedPayload(o))
}

func (p *Publisher) OrderStatusChanged(ctx context.Context, before, after orders.Order) error {
	return p.publish(ctx, orders.TopicOrderStatusChanged, orders.EventOrderStatusChanged, after.ID, orders.NewStatusChangedPayload(before, after))
}

func (p *Publisher) publish(ctx context.Context, topic, eventType, orderID string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	env := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  envelopeVersion,
		OccurredAt:    p.now(),
		Producer:      p.ServiceName,
		TraceID:       TraceID(ctx),
		CorrelationID: orderID,
		Payload:       raw,
	}
	return p.Sink.Publish(topic, orders.PartitionKey(orderID), kafkax.MustMarshal(env), kafkax.EventHeaders(eventType, envelopeVersion)...)
}

// Discard is used when no broker is configured.
type Discard struct{}

func (Discard) OrderPlaced(context.Context, orders.Order) error { return nil }
func (Discard) OrderStatusChanged(context.Context, orders.Order, orders.Order) error { return nil }

type traceKey struct{}

// WithTraceID carries the request id into event envelopes.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceKey{}).(string)
	return id
}
