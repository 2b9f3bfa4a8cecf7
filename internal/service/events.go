package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/isoflow/internal/audit"
	"github.com/gosuda/isoflow/internal/authz"
	"github.com/gosuda/isoflow/internal/domain"
	"github.com/gosuda/isoflow/internal/filter"
	"github.com/gosuda/isoflow/internal/stats"
)

type Events struct {
	core
}

func NewEvents(d Deps) *Events {
	return &Events{core: newCore(d)}
}

func (s *Events) Create(ctx context.Context, p *domain.Principal, org *uuid.UUID, d domain.EventDraft) (*domain.Event, error) {
	orgID, err := authz.TargetOrg(p, authz.AnyRole, org)
	if err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	e := domain.NewEvent(d, orgID, p.ID, s.clock())
	err = s.mutate(ctx, "eventService.Create", p, audit.Entry{
		OrganizationID: orgID,
		Action:         audit.EventCreated,
		EntityType:     audit.EntityEvent,
		EntityID:       e.ID,
		Details: audit.Payload{
			"type":     string(e.Type),
			"title":    e.Title,
			"severity": e.Severity,
		},
	}, func(ctx context.Context, tx domain.Repositories) error {
		return tx.Events().Create(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Events) Get(ctx context.Context, p *domain.Principal, id uuid.UUID) (*domain.Event, error) {
	if err := authz.Authorize(p, authz.AnyRole, nil); err != nil {
		return nil, err
	}
	e, err := s.store.Events().GetByID(ctx, uuid.Nil, id)
	if err != nil {
		return nil, lookup("eventService.Get", "event", id, err)
	}
	if err := authz.AuthorizeOrg(p, authz.AnyRole, e.OrganizationID); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Events) List(ctx context.Context, p *domain.Principal, org *uuid.UUID, raw map[string]string) ([]*domain.Event, error) {
	orgID, err := authz.Scope(p, org)
	if err != nil {
		return nil, err
	}
	f, err := filter.Events(raw)
	if err != nil {
		return nil, err
	}
	events, err := s.store.Events().List(ctx, orgID, f)
	if err != nil {
		return nil, domain.Upstream("eventService.List", err)
	}
	return events, nil
}

func (s *Events) Update(ctx context.Context, p *domain.Principal, id uuid.UUID, patch domain.EventPatch) (*domain.Event, error) {
	if err := authz.Authorize(p, authz.AnyRole, nil); err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	e, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}

	changed := patch.Apply(e, s.clock())
	err = s.mutate(ctx, "eventService.Update", p, audit.Entry{
		OrganizationID: e.OrganizationID,
		Action:         audit.EventUpdated,
		EntityType:     audit.EntityEvent,
		EntityID:       e.ID,
		Details:        audit.Changes{Names: changed},
	}, func(ctx context.Context, tx domain.Repositories) error {
		return tx.Events().Update(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Delete requires ACCOUNT_ADMIN or SUPER_ADMIN.
func (s *Events) Delete(ctx context.Context, p *domain.Principal, id uuid.UUID) error {
	if err := authz.Authorize(p, authz.AdminRoles, nil); err != nil {
		return err
	}
	e, err := s.Get(ctx, p, id)
	if err != nil {
		return err
	}
	return s.mutate(ctx, "eventService.Delete", p, audit.Entry{
		OrganizationID: e.OrganizationID,
		Action:         audit.EventDeleted,
		EntityType:     audit.EntityEvent,
		EntityID:       e.ID,
		Details:        audit.Payload{"type": string(e.Type), "title": e.Title},
	}, func(ctx context.Context, tx domain.Repositories) error {
		return tx.Events().Delete(ctx, e.OrganizationID, e.ID)
	})
}

func (s *Events) Stats(ctx context.Context, p *domain.Principal, org *uuid.UUID) (stats.EventStats, error) {
	orgID, err := authz.Scope(p, org)
	if err != nil {
		return stats.EventStats{}, err
	}
	events, err := s.store.Events().List(ctx, orgID, domain.EventFilter{})
	if err != nil {
		return stats.EventStats{}, domain.Upstream("eventService.Stats", err)
	}
	return stats.Events(events, s.clock()), nil
}
