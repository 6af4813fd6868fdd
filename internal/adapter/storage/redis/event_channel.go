package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"multisig-registry/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

// EventChannel implements ports.EventSink by publishing each event as JSON on
// a pub/sub channel. Subscribers that are not connected miss the message;
// the events table is the durable record.
type EventChannel struct {
	client  *goredis.Client
	channel string
}

// NewEventChannel creates a sink publishing to channel.
func NewEventChannel(client *goredis.Client, channel string) *EventChannel {
	return &EventChannel{client: client, channel: channel}
}

func (c *EventChannel) Name() string { return "redis:" + c.channel }

func (c *EventChannel) Deliver(ctx context.Context, event domain.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := c.client.Publish(ctx, c.channel, body).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}
