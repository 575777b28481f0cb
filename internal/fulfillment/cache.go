package fulfillment

import (
	"context"

	"github.com/ariefcatur/storefront-orders/internal/orders"
)

// load is cache-aside with concurrent misses for the same id collapsed
// into one store read.
func (s *Service) load(ctx context.Context, id string) (orders.Order, error) {
	if s.Cache != nil {
		o, ok, err := s.Cache.Get(ctx, id)
		if err != nil {
			s.Log.Warn().Err(err).Str("order_id", id).Msg("order cache get")
		}
		if ok {
			return o, nil
		}
	}

	v, err, _ := s.sf.Do(id, func() (any, error) {
		o, err := s.Store.Order(ctx, id)
		if err != nil {
			return orders.Order{}, err
		}
		if s.Cache != nil {
			if err := s.Cache.Set(ctx, o); err != nil {
				s.Log.Warn().Err(err).Str("order_id", id).Msg("order cache set")
			}
		}
		return o, nil
	})
	if err != nil {
		return orders.Order{}, err
	}
	return v.(orders.Order), nil
}

// refresh writes the updated order through. A reader still holding the
// old copy cannot overwrite it because Set keeps the newer UpdatedAt.
func (s *Service) refresh(ctx context.Context, o orders.Order) {
	if s.Cache == nil {
		return
	}
	err := s.Cache.Set(ctx, o)
	if err == nil {
		return
	}
	s.Log.Warn().Err(err).Str("order_id", o.ID).Msg("order cache refresh")
	if err := s.Cache.Invalidate(ctx, o.ID); err != nil {
		s.Log.Warn().Err(err).Str("order_id", o.ID).Msg("order cache invalidate")
	}
}
