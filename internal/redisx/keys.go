package redisx

import "time"

const (
	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Cache of a confirmed order: order:{order_id} -> confirmation JSON
	KeyOrder = "order:%s"
)

var (
	TTLDedup = 48 * time.Hour
	TTLOrder = 24 * time.Hour

	// Snapshot TTLs for the cart/checkout Store wrappers. Carts live long;
	// an abandoned checkout session expires after a week.
	TTLCartSnapshot     = time.Duration(0)
	TTLCheckoutSnapshot = 7 * 24 * time.Hour
)
