// Package redis carries organization change events over Redis pub/sub.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/isoflow/internal/domain"
)

// subscriberBuffer bounds the events queued for one slow subscriber.
const subscriberBuffer = 64

type Options struct {
	Addr     string
	Password string
	DB       int
}

// PubSub publishes and subscribes to organization change channels.
type PubSub struct {
	client *redis.Client
}

// New connects and pings the server.
func New(ctx context.Context, opts Options) (*PubSub, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}
	return &PubSub{client: client}, nil
}

func (ps *PubSub) Close() error {
	if err := ps.client.Close(); err != nil {
		return fmt.Errorf("redis.PubSub.Close: %w", err)
	}
	return nil
}

func (ps *PubSub) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := ps.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis.PubSub.Publish: %w", err)
	}
	return nil
}

// Events subscribes to the change channel of orgID. The returned channel is
// closed when ctx ends or the subscription drops; stop releases it early.
// Payloads that do not decode as a change event are skipped.
func (ps *PubSub) Events(ctx context.Context, orgID uuid.UUID) (<-chan domain.ChangeEvent, func(), error) {
	channel := OrgChannel(orgID)
	sub := ps.client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("redis.PubSub.Events: receive confirmation: %w", err)
	}

	out := make(chan domain.ChangeEvent, subscriberBuffer)
	go func() {
		defer close(out)
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				ev, err := Decode([]byte(msg.Payload))
				if err != nil {
					log.Warn().Err(err).Str("channel", channel).Msg("redis.PubSub.Events: dropped malformed payload")
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, func() { _ = sub.Close() }, nil
}

// Decode parses a published change event.
func Decode(payload []byte) (domain.ChangeEvent, error) {
	var ev domain.ChangeEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return domain.ChangeEvent{}, fmt.Errorf("redis.Decode: %w", err)
	}
	if ev.Type == "" || ev.OrganizationID == uuid.Nil {
		return domain.ChangeEvent{}, errors.New("redis.Decode: missing type or organization")
	}
	return ev, nil
}

// OrgChannel returns the Redis channel carrying the change events of one organization.
func OrgChannel(orgID uuid.UUID) string {
	return "org:" + orgID.String()
}
