package responsibility

import (
	"context"

	"github.com/google/uuid"

	"github.com/gosuda/isoflow/internal/domain"
)

// people indexes the assignable users and agents of one scope.
type people struct {
	users  map[uuid.UUID]*domain.User
	agents map[uuid.UUID]*domain.AIAgent
}

func (r *Resolver) directory(ctx context.Context, orgID uuid.UUID) (*people, error) {
	users, err := r.store.Users().List(ctx, orgID)
	if err != nil {
		return nil, domain.Upstream("responsibility.directory", err)
	}
	agents, err := r.store.Agents().List(ctx, orgID)
	if err != nil {
		return nil, domain.Upstream("responsibility.directory", err)
	}

	p := &people{
		users:  make(map[uuid.UUID]*domain.User, len(users)),
		agents: make(map[uuid.UUID]*domain.AIAgent, len(agents)),
	}
	for _, u := range users {
		p.users[u.ID] = u
	}
	for _, a := range agents {
		p.agents[a.ID] = a
	}
	return p, nil
}

func (p *people) clauseRow(c *domain.Clause) domain.ResponsibilityAssignment {
	row := clauseBase(c)
	p.decorate(c.Assignee, &row)
	return row
}

func (p *people) artefactRow(a *domain.Artefact) domain.ResponsibilityAssignment {
	row := artefactBase(a)
	p.decorate(a.Assignee, &row)
	return row
}

// decorate attaches the assignee projection. A reference to a user or agent
// outside the directory keeps its type but carries no projection.
func (p *people) decorate(a *domain.Assignee, row *domain.ResponsibilityAssignment) {
	if a == nil {
		return
	}
	typ := a.Type
	row.AssigneeType = &typ
	switch a.Type {
	case domain.AssigneeUser:
		if u, ok := p.users[a.ID()]; ok {
			row.User = userProjection(u)
		}
	case domain.AssigneeAIAgent:
		if ag, ok := p.agents[a.ID()]; ok {
			row.Agent = agentProjection(ag)
		}
	}
}

func clauseBase(c *domain.Clause) domain.ResponsibilityAssignment {
	return domain.ResponsibilityAssignment{
		EntityKind:     domain.EntityClause,
		EntityID:       c.ID,
		OrganizationID: c.OrganizationID,
		Title:          c.Title,
		Standard:       c.Standard,
		ClauseNumber:   c.ClauseNumber,
	}
}

func artefactBase(a *domain.Artefact) domain.ResponsibilityAssignment {
	return domain.ResponsibilityAssignment{
		EntityKind:     domain.EntityArtefact,
		EntityID:       a.ID,
		OrganizationID: a.OrganizationID,
		Title:          a.Title,
		ArtefactStatus: a.Status,
	}
}

func userProjection(u *domain.User) *domain.UserProjection {
	return &domain.UserProjection{ID: u.ID, Email: u.Email, Role: u.Role}
}

func agentProjection(a *domain.AIAgent) *domain.AgentProjection {
	return &domain.AgentProjection{ID: a.ID, Name: a.Name, Type: a.Type, IsActive: a.IsActive}
}
