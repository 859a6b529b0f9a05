package redisx

import "time"

const (
	// Order status cache: order_status:{order_id} -> {"status": "...", "next_actions": [...]}
	KeyOrderStatus = "order_status:%s"

	// Inventory summary cache, invalidated on every item write.
	KeyInventorySummary = "inventory:summary:%s" // {date}

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Pharmacy settings document.
	KeySettings = "settings:pharmacy"
)

var (
	TTLStatusCache  = 5 * time.Minute
	TTLSummaryCache = 10 * time.Minute
	TTLDedup        = 48 * time.Hour
)
