package service

import (
	"context"

	"catalog/internal/events"
	"catalog/internal/logging"
)

// publish delivers event and only logs failures; a broker outage never fails a write.
func publish(ctx context.Context, publisher events.Publisher, event events.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logging.FromContext(ctx).Warn("publish event failed",
			"type", string(event.Type),
			"id", event.ID,
			"error", err,
		)
	}
}
