// Package service exposes the organization-scoped operations of the system.
// Every operation authorizes its principal before touching the store,
// validates input before any write, and records an audit entry in the same
// transaction as the mutation it describes.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/isoflow/internal/audit"
	"github.com/gosuda/isoflow/internal/domain"
)

// Notifier announces committed mutations. Delivery failures never fail the
// operation that triggered them.
type Notifier interface {
	Notify(ctx context.Context, ev domain.ChangeEvent) error
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, domain.ChangeEvent) error { return nil }

// Deps are the collaborators shared by all services.
type Deps struct {
	Store    domain.Store
	Recorder *audit.Recorder
	Notifier Notifier
	Now      func() time.Time
}

type core struct {
	store    domain.Store
	recorder *audit.Recorder
	notifier Notifier
	now      func() time.Time
}

func newCore(d Deps) core {
	c := core{store: d.Store, recorder: d.Recorder, notifier: d.Notifier, now: d.Now}
	if c.now == nil {
		c.now = time.Now
	}
	if c.recorder == nil {
		c.recorder = &audit.Recorder{Now: c.now}
	}
	if c.notifier == nil {
		c.notifier = nopNotifier{}
	}
	return c
}

func (c *core) clock() time.Time {
	return c.now().UTC()
}

// mutate runs write and the audit entry for it in one transaction, then
// notifies subscribers.
func (c *core) mutate(ctx context.Context, op string, actor *domain.Principal, entry audit.Entry, write func(ctx context.Context, tx domain.Repositories) error) error {
	err := c.store.WithinTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		if err := write(ctx, tx); err != nil {
			return domain.Upstream(op, err)
		}
		_, err := c.recorder.Record(ctx, tx.Audit(), actor, entry)
		return err
	})
	if err != nil {
		return domain.Upstream(op, err)
	}
	c.notify(ctx, actor, entry, nil)
	return nil
}

func (c *core) notify(ctx context.Context, actor *domain.Principal, entry audit.Entry, data map[string]any) {
	ev := domain.ChangeEvent{
		Type:           entry.Action,
		EntityType:     entry.EntityType,
		EntityID:       entry.EntityID,
		OrganizationID: entry.OrganizationID,
		ActorID:        actor.ID,
		At:             c.clock(),
		Data:           data,
	}
	if err := c.notifier.Notify(ctx, ev); err != nil {
		log.Warn().Err(err).
			Str("type", ev.Type).
			Str("entity_id", ev.EntityID.String()).
			Msg("service.notify: failed to deliver change event")
	}
}

// lookup maps a repository read failure to a typed error naming what.
func lookup(op, what string, id uuid.UUID, err error) error {
	if domain.KindOf(err) == domain.KindNotFound {
		return domain.NotFoundf(op, "%s %s not found", what, id)
	}
	return domain.Upstream(op, err)
}
