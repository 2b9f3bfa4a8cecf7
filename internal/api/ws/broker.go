package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/isoflow/internal/domain"
)

const subscriberBuffer = 64

// Broker is an in-process EventSource for single-node deployments without
// Redis. It satisfies notify.Publisher; events are routed by their
// organization, so the channel name is ignored.
type Broker struct {
	mu   sync.Mutex
	subs map[uuid.UUID]map[chan domain.ChangeEvent]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[uuid.UUID]map[chan domain.ChangeEvent]struct{})}
}

// Publish delivers payload to every subscriber of its organization. A
// subscriber whose buffer is full misses the event.
func (b *Broker) Publish(_ context.Context, _ string, payload []byte) error {
	var ev domain.ChangeEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("ws.Broker.Publish: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[ev.OrganizationID] {
		select {
		case ch <- ev:
		default:
			log.Warn().Str("organization_id", ev.OrganizationID.String()).Msg("ws.Broker.Publish: subscriber lagging, event dropped")
		}
	}
	return nil
}

// Events subscribes to orgID. The channel is closed once ctx ends or stop is
// called, whichever comes first.
func (b *Broker) Events(ctx context.Context, orgID uuid.UUID) (<-chan domain.ChangeEvent, func(), error) {
	ch := make(chan domain.ChangeEvent, subscriberBuffer)

	b.mu.Lock()
	if b.subs[orgID] == nil {
		b.subs[orgID] = make(map[chan domain.ChangeEvent]struct{})
	}
	b.subs[orgID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[orgID], ch)
			if len(b.subs[orgID]) == 0 {
				delete(b.subs, orgID)
			}
			b.mu.Unlock()
			close(ch)
		})
	}
	release := context.AfterFunc(ctx, stop)

	return ch, func() { release(); stop() }, nil
}
