package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisBroadcaster publishes changes over Redis pub/sub so every process and
// view observing the session sees them. When the Redis publish fails the
// change is delivered through the in-process fallback bus instead of being
// dropped.
type RedisBroadcaster struct {
	Client   *redis.Client
	Prefix   string
	Fallback *Bus
	Logger   *zerolog.Logger
}

func (rb RedisBroadcaster) channel(topic string) string {
	prefix := strings.TrimSpace(rb.Prefix)
	if prefix == "" {
		prefix = "events:"
	}
	return prefix + topic
}

// Publish sends the change to the topic channel, falling back to the local bus.
func (rb RedisBroadcaster) Publish(ctx context.Context, topic string, change Change) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return errors.New("events: topic is required")
	}
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("events: encode change: %w", err)
	}
	if rb.Client != nil {
		if err := rb.Client.Publish(ctx, rb.channel(topic), payload).Err(); err == nil {
			return nil
		} else if rb.Logger != nil {
			rb.Logger.Warn().Err(err).Str("topic", topic).Msg("redis publish failed, using local bus")
		}
	}
	if rb.Fallback == nil {
		return errors.New("events: no broadcast channel available")
	}
	return rb.Fallback.Publish(ctx, topic, change)
}

// Listen subscribes to the topic channel and forwards decoded changes to the
// local bus until the context is cancelled. Malformed payloads are skipped.
func (rb RedisBroadcaster) Listen(ctx context.Context, topic string) error {
	if rb.Client == nil {
		return errors.New("events: redis client not configured")
	}
	if rb.Fallback == nil {
		return errors.New("events: fallback bus not configured")
	}
	sub := rb.Client.Subscribe(ctx, rb.channel(topic))
	defer func() { _ = sub.Close() }()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var change Change
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				if rb.Logger != nil {
					rb.Logger.Warn().Err(err).Str("topic", topic).Msg("discard malformed broadcast")
				}
				continue
			}
			_ = rb.Fallback.Publish(ctx, topic, change)
		}
	}
}
