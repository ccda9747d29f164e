package redisx

import "time"

const (
	// Order status cache: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Cart item count cache: cart_count:{user_id} -> int
	KeyCartCount = "cart_count:%s"

	// Dedup for consumed events: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLCountCache  = 1 * time.Minute
	TTLDedup       = 48 * time.Hour
)
