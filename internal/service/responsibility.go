package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/isoflow/internal/audit"
	"github.com/gosuda/isoflow/internal/authz"
	"github.com/gosuda/isoflow/internal/domain"
	"github.com/gosuda/isoflow/internal/responsibility"
)

type Responsibility struct {
	core
	resolver *responsibility.Resolver
}

func NewResponsibility(d Deps) *Responsibility {
	c := newCore(d)
	return &Responsibility{core: c, resolver: responsibility.NewResolver(c.store, c.recorder)}
}

func (s *Responsibility) Matrix(ctx context.Context, p *domain.Principal, org *uuid.UUID, f domain.ResponsibilityFilter) ([]domain.ResponsibilityAssignment, error) {
	orgID, err := authz.Scope(p, org)
	if err != nil {
		return nil, err
	}
	return s.resolver.Resolve(ctx, orgID, f)
}

func (s *Responsibility) Stats(ctx context.Context, p *domain.Principal, org *uuid.UUID, f domain.ResponsibilityFilter) (responsibility.MatrixStats, error) {
	orgID, err := authz.Scope(p, org)
	if err != nil {
		return responsibility.MatrixStats{}, err
	}
	return s.resolver.Stats(ctx, orgID, f)
}

// Reassign applies u and announces responsibility.updated.
func (s *Responsibility) Reassign(ctx context.Context, p *domain.Principal, u domain.AssignmentUpdate) (*domain.ResponsibilityAssignment, error) {
	row, err := s.resolver.Reassign(ctx, p, u)
	if err != nil {
		return nil, err
	}

	data := map[string]any{
		"title":         row.Title,
		"assignee_type": string(u.AssigneeType),
		"assignee_id":   u.AssigneeID.String(),
	}
	if row.User != nil {
		data["assignee"] = row.User.Email
	} else if row.Agent != nil {
		data["assignee"] = row.Agent.Name
	}
	s.notify(ctx, p, audit.Entry{
		OrganizationID: row.OrganizationID,
		Action:         audit.ResponsibilityUpdated,
		EntityType:     audit.EntityFor(u.EntityKind),
		EntityID:       u.EntityID,
	}, data)
	return row, nil
}
