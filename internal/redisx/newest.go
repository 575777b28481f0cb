package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// stamped is the part of every cached document the newest-wins check reads.
type stamped struct {
	UpdatedAt time.Time `json:"updatedAt"`
}

// putNewest stores val under key unless the stored document carries a
// later updatedAt. Readers racing a writer may try to store an older copy;
// the compare runs under WATCH so that copy never replaces a newer one.
// An unreadable stored value is overwritten.
func putNewest(ctx context.Context, rdb *redis.Client, key string, val []byte, ttl time.Duration, at time.Time) (bool, error) {
	written := false
	txf := func(tx *redis.Tx) error {
		b, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			var cur stamped
			if json.Unmarshal(b, &cur) == nil && cur.UpdatedAt.After(at) {
				return nil
			}
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, val, ttl)
			return nil
		})
		if err == nil {
			written = true
		}
		return err
	}

	var err error
	for i := 0; i < 3; i++ {
		err = rdb.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return written, err
		}
	}
	return false, err
}
