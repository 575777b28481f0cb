package redisx

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/storefront-orders/internal/apperr"
	"github.com/redis/go-redis/v9"
)

const pendingMarker = "pending"

// ErrInFlight means the same key is being processed by another request.
var ErrInFlight = fmt.Errorf("%w: request with this Idempotency-Key is still in progress", apperr.ErrConflict)

// Idempotency remembers which order an Idempotency-Key produced, per user.
type Idempotency struct {
	RDB *redis.Client
}

func (i *Idempotency) key(userID, key string) string {
	return fmt.Sprintf(KeyIdemOrderCreate, userID, key)
}

// Claim reserves the key. It returns the earlier order id when the key has
// already completed, ErrInFlight while another request holds it, and ""
// with a nil error when the caller now owns it.
func (i *Idempotency) Claim(ctx context.Context, userID, key string) (string, error) {
	k := i.key(userID, key)
	ok, err := i.RDB.SetNX(ctx, k, pendingMarker, TTLIdemPending).Result()
	if err != nil {
		return "", err
	}
	if ok {
		return "", nil
	}
	v, err := i.RDB.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET, coba sekali lagi
		return i.Claim(ctx, userID, key)
	}
	if err != nil {
		return "", err
	}
	if v == pendingMarker {
		return "", ErrInFlight
	}
	return v, nil
}

// Complete binds the key to the created order.
func (i *Idempotency) Complete(ctx context.Context, userID, key, orderID string) error {
	return i.RDB.Set(ctx, i.key(userID, key), orderID, TTLIdempotency).Err()
}

// Release drops a claim whose request failed so the client may retry.
func (i *Idempotency) Release(ctx context.Context, userID, key string) error {
	return i.RDB.Del(ctx, i.key(userID, key)).Err()
}
