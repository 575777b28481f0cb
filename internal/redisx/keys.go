package redisx

import "time"

const (
	// Idempotency create order: idem:order:create:{user_id}:{idempotency_key} -> order_id
	KeyIdemOrderCreate = "idem:order:create:%s:%s"

	// Cache order lengkap: order:{order_id} -> Order JSON
	KeyOrder = "order:%s"

	// View status order dari projector: order_status:{order_id} -> StatusView JSON
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLIdemPending = 30 * time.Second
	TTLStatusView  = 7 * 24 * time.Hour
	TTLDedup       = 48 * time.Hour
)
