package persistence

import (
	"context"
	"time"
)

// WebhookDeduper remembers webhook event ids in Redis so redelivered events
// are only processed once.
type WebhookDeduper struct {
	redis *Redis
	ttl   time.Duration
}

// NewWebhookDeduper constructs a deduper with the given retention.
func NewWebhookDeduper(redis *Redis, ttl time.Duration) *WebhookDeduper {
	return &WebhookDeduper{redis: redis, ttl: ttl}
}

// FirstDelivery reports whether this event id has not been seen within the
// retention window. SETNX makes the check atomic across concurrent handlers.
func (d *WebhookDeduper) FirstDelivery(ctx context.Context, eventID string) (bool, error) {
	return d.redis.Client.SetNX(ctx, "webhook:event:"+eventID, 1, d.ttl).Result()
}
