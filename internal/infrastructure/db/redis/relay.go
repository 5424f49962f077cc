package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/uptask/project-system/internal/core/ports"
)

const channelPrefix = "room:"

// relayEnvelope carries the event across the wire together with the origin
// session id, which the event's own encoding deliberately omits.
type relayEnvelope struct {
	Origin string          `json:"origin,omitempty"`
	Event  ports.TaskEvent `json:"event"`
}

// Relay fans realtime events out across instances via Redis pub/sub. Each
// project room maps to one channel; every instance subscribes to the whole
// prefix and delivers to its local sessions.
type Relay struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewRelay(client *redis.Client, log zerolog.Logger) *Relay {
	return &Relay{client: client, log: log}
}

// Publish sends the event to the project's channel.
func (r *Relay) Publish(ctx context.Context, ev ports.TaskEvent) error {
	payload, err := json.Marshal(relayEnvelope{Origin: ev.Origin, Event: ev})
	if err != nil {
		return fmt.Errorf("encode relay envelope: %w", err)
	}
	if err := r.client.Publish(ctx, channelPrefix+ev.ProjectID, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s%s: %w", channelPrefix, ev.ProjectID, err)
	}
	return nil
}

// Run subscribes to all room channels and feeds received events to deliver
// until ctx is cancelled.
func (r *Relay) Run(ctx context.Context, deliver func(ports.TaskEvent)) error {
	sub := r.client.PSubscribe(ctx, channelPrefix+"*")
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("relay subscription closed")
			}
			var env relayEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				r.log.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping malformed relay message")
				continue
			}
			env.Event.Origin = env.Origin
			deliver(env.Event)
		}
	}
}
