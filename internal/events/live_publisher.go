package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LivePublisher pushes ticket events onto per-ticket Redis pub/sub topics so
// connected clients see updates live. Delivery is fire-and-forget: publish
// failures are logged and never surfaced to the originating request.
type LivePublisher struct {
	client *redis.Client
	logger *zap.Logger
}

// NewLivePublisher builds a publisher over the shared Redis client.
func NewLivePublisher(client *redis.Client, logger *zap.Logger) *LivePublisher {
	return &LivePublisher{client: client, logger: logger}
}

// Register subscribes the publisher to the event types that feed the live
// update channel.
func (p *LivePublisher) Register(dispatcher Dispatcher) {
	dispatcher.Subscribe(EventTicketUpdated, p.Handle)
	dispatcher.Subscribe(EventCommentAdded, p.Handle)
}

// Handle serializes the event and publishes it to the ticket's topic.
func (p *LivePublisher) Handle(ctx context.Context, event Event) error {
	if p.client == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("marshal live event", zap.Error(err))
		return nil
	}
	if err := p.client.Publish(ctx, event.Topic(), payload).Err(); err != nil {
		p.logger.Warn("publish live event",
			zap.String("topic", event.Topic()),
			zap.Error(err))
	}
	return nil
}
