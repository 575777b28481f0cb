// Package projection keeps the order status view in Redis current from the
// order event stream. It runs inside cmd/projector.
package projection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	kafkax "github.com/ariefcatur/storefront-orders/internal/kafka"
	"github.com/ariefcatur/storefront-orders/internal/orders"
	"github.com/ariefcatur/storefront-orders/internal/redisx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"
)

// Views is the read model being maintained.
type Views interface {
	Put(ctx context.Context, v orders.StatusView) (bool, error)
}

type Service struct {
	Views       Views
	Redis       *redis.Client
	ServiceName string
	Log         zerolog.Logger
}

// Topics is what cmd/projector subscribes to.
func Topics() []string {
	return []string{orders.TopicOrderCreated, orders.TopicOrderStatusChanged}
}

// Handle dipasang sebagai handler consumer. Unknown events are skipped and
// committed. A failed projection releases its dedup key and returns the
// error, and the consumer retries the same message until it lands.
func (s *Service) Handle(ctx context.Context, m kafkago.Message) error {
	// 0) filter by header before touching the body
	if et := kafkax.Header(m, kafkax.HeaderEventType); et != "" && !projected(et) {
		return nil
	}

	// 1) decode envelope
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		s.Log.Warn().Err(err).Str("topic", m.Topic).Msg("skip undecodable message")
		return nil
	}

	var view orders.StatusView
	switch env.EventType {
	case orders.EventOrderCreated:
		p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
		if err != nil {
			return err
		}
		view = orders.StatusView{
			OrderID:       p.OrderID,
			UserID:        p.UserID,
			PaymentStatus: p.PaymentStatus,
			OrderStatus:   p.OrderStatus,
			UpdatedAt:     p.UpdatedAt,
		}
	case orders.EventOrderStatusChanged:
		p, err := kafkax.UnwrapPayload[orders.OrderStatusChangedPayload](env.Payload)
		if err != nil {
			return err
		}
		view = orders.StatusView{
			OrderID:       p.OrderID,
			UserID:        p.UserID,
			PaymentStatus: p.PaymentStatus,
			OrderStatus:   p.OrderStatus,
			UpdatedAt:     p.ChangedAt,
		}
	default:
		return nil // ignore
	}

	// 2) dedup via Redis (pakai event_id)
	first, err := s.claim(ctx, env.EventID)
	if err != nil {
		return err
	}
	if !first {
		s.Log.Debug().Str("event_id", env.EventID).Msg("duplicate event")
		return nil
	}

	// 3) tulis view
	written, err := s.Views.Put(ctx, view)
	if err != nil {
		if rerr := s.release(ctx, env.EventID); rerr != nil {
			err = errors.Join(err, rerr)
		}
		return fmt.Errorf("project %s %s: %w", env.EventType, view.OrderID, err)
	}
	s.Log.Info().
		Str("event_type", env.EventType).
		Str("order_id", view.OrderID).
		Str("order_status", string(view.OrderStatus)).
		Str("payment_status", string(view.PaymentStatus)).
		Bool("written", written).
		Msg("status projected")
	return nil
}

func projected(eventType string) bool {
	return eventType == orders.EventOrderCreated || eventType == orders.EventOrderStatusChanged
}

func (s *Service) dedupKey(eventID string) string {
	return fmt.Sprintf(redisx.KeyDedup, s.ServiceName, eventID)
}

func (s *Service) claim(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return true, nil
	}
	return s.Redis.SetNX(ctx, s.dedupKey(eventID), "1", redisx.TTLDedup).Result()
}

func (s *Service) release(ctx context.Context, eventID string) error {
	if eventID == "" {
		return nil
	}
	return s.Redis.Del(ctx, s.dedupKey(eventID)).Err()
}
