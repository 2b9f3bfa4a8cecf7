// Package notify delivers committed change events to live subscribers and
// to the compliance Slack channel.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/isoflow/internal/domain"
)

// Publisher sends a payload to a pub/sub channel.
// *redis.PubSub satisfies this interface.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Poster posts a change event to a chat channel.
// *SlackPoster satisfies this interface.
type Poster interface {
	Post(ctx context.Context, ev domain.ChangeEvent) error
}

// Dispatcher fans a change event out to the organization channel and, for
// the event types worth a human's attention, to the chat poster. Either
// target may be nil.
type Dispatcher struct {
	publisher Publisher
	poster    Poster
	channel   func(orgID uuid.UUID) string
	posted    map[string]bool
}

// New returns a Dispatcher that publishes on channel(orgID) and posts the
// given event types.
func New(publisher Publisher, poster Poster, channel func(uuid.UUID) string, postTypes ...string) *Dispatcher {
	posted := make(map[string]bool, len(postTypes))
	for _, t := range postTypes {
		posted[t] = true
	}
	return &Dispatcher{publisher: publisher, poster: poster, channel: channel, posted: posted}
}

// Notify delivers ev to every configured target and reports all failures
// together.
func (d *Dispatcher) Notify(ctx context.Context, ev domain.ChangeEvent) error {
	var errs []error
	if d.publisher != nil {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("notify.Dispatcher.Notify: marshal: %w", err)
		}
		if err := d.publisher.Publish(ctx, d.channel(ev.OrganizationID), payload); err != nil {
			errs = append(errs, fmt.Errorf("notify.Dispatcher.Notify: publish: %w", err))
		}
	}
	if d.poster != nil && d.posted[ev.Type] {
		if err := d.poster.Post(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("notify.Dispatcher.Notify: post: %w", err))
		}
	}
	if len(errs) == 0 {
		log.Debug().Str("type", ev.Type).Str("organization_id", ev.OrganizationID.String()).Msg("notify.Dispatcher.Notify: delivered")
	}
	return errors.Join(errs...)
}
