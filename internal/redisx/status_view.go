package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ariefcatur/storefront-orders/internal/orders"
	"github.com/redis/go-redis/v9"
)

// StatusViews is the projected order status read model.
type StatusViews struct {
	RDB *redis.Client
}

func (s *StatusViews) Status(ctx context.Context, id string) (orders.StatusView, bool, error) {
	b, err := s.RDB.Get(ctx, fmt.Sprintf(KeyOrderStatus, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return orders.StatusView{}, false, nil
	}
	if err != nil {
		return orders.StatusView{}, false, err
	}
	var v orders.StatusView
	if err := json.Unmarshal(b, &v); err != nil {
		return orders.StatusView{}, false, fmt.Errorf("decode status view: %w", err)
	}
	return v, true, nil
}

// Put stores v unless the stored view is newer. Events for one order can
// be handled by different workers.
func (s *StatusViews) Put(ctx context.Context, v orders.StatusView) (bool, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return false, err
	}
	return putNewest(ctx, s.RDB, fmt.Sprintf(KeyOrderStatus, v.OrderID), b, TTLStatusView, v.UpdatedAt)
}
