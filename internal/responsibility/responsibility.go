// Package responsibility projects clause and artefact ownership into a single
// matrix and applies reassignments.
package responsibility

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gosuda/isoflow/internal/audit"
	"github.com/gosuda/isoflow/internal/authz"
	"github.com/gosuda/isoflow/internal/domain"
)

type Resolver struct {
	store    domain.Store
	recorder *audit.Recorder
}

func NewResolver(store domain.Store, recorder *audit.Recorder) *Resolver {
	return &Resolver{store: store, recorder: recorder}
}

// Resolve returns one row per clause followed by one row per artefact of
// orgID (uuid.Nil for all organizations), narrowed by f.
func (r *Resolver) Resolve(ctx context.Context, orgID uuid.UUID, f domain.ResponsibilityFilter) ([]domain.ResponsibilityAssignment, error) {
	wantClauses := f.EntityKind == nil || *f.EntityKind == domain.EntityClause
	wantArtefacts := (f.EntityKind == nil || *f.EntityKind == domain.EntityArtefact) && f.Standard == nil

	people, err := r.directory(ctx, orgID)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.ResponsibilityAssignment, 0)
	if wantClauses {
		clauses, err := r.store.Clauses().List(ctx, orgID, domain.ClauseFilter{Standard: f.Standard})
		if err != nil {
			return nil, domain.Upstream("responsibility.Resolve", err)
		}
		for _, c := range clauses {
			rows = append(rows, people.clauseRow(c))
		}
	}
	if wantArtefacts {
		artefacts, err := r.store.Artefacts().List(ctx, orgID, domain.ArtefactFilter{})
		if err != nil {
			return nil, domain.Upstream("responsibility.Resolve", err)
		}
		for _, a := range artefacts {
			rows = append(rows, people.artefactRow(a))
		}
	}

	out := rows[:0]
	for _, row := range rows {
		if f.Unassigned && row.Assigned() {
			continue
		}
		if f.AssigneeType != nil && (row.AssigneeType == nil || *row.AssigneeType != *f.AssigneeType) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

// Stats summarizes the rows Resolve returns for the same filter.
func (r *Resolver) Stats(ctx context.Context, orgID uuid.UUID, f domain.ResponsibilityFilter) (MatrixStats, error) {
	rows, err := r.Resolve(ctx, orgID, f)
	if err != nil {
		return MatrixStats{}, err
	}
	return Summarize(rows), nil
}

// Reassign binds the entity named by u to a new active assignee and records
// responsibility.updated in the same transaction. Only SUPER_ADMIN and
// ACCOUNT_ADMIN may reassign.
func (r *Resolver) Reassign(ctx context.Context, actor *domain.Principal, u domain.AssignmentUpdate) (*domain.ResponsibilityAssignment, error) {
	if err := authz.Authorize(actor, authz.AdminRoles, nil); err != nil {
		return nil, err
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}

	var (
		entityOrg uuid.UUID
		previous  *domain.Assignee
		row       domain.ResponsibilityAssignment
	)
	switch u.EntityKind {
	case domain.EntityClause:
		c, err := r.store.Clauses().GetByID(ctx, uuid.Nil, u.EntityID)
		if err != nil {
			return nil, lookupErr("clause", u.EntityID, err)
		}
		entityOrg, previous = c.OrganizationID, c.Assignee
		row = clauseBase(c)
	case domain.EntityArtefact:
		a, err := r.store.Artefacts().GetByID(ctx, uuid.Nil, u.EntityID)
		if err != nil {
			return nil, lookupErr("artefact", u.EntityID, err)
		}
		entityOrg, previous = a.OrganizationID, a.Assignee
		row = artefactBase(a)
	}
	if err := authz.AuthorizeOrg(actor, authz.AdminRoles, entityOrg); err != nil {
		return nil, err
	}

	next := domain.NewAssignee(u.AssigneeType, u.AssigneeID)
	if err := r.decorateActive(ctx, entityOrg, next, &row); err != nil {
		return nil, err
	}

	err := r.store.WithinTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
		var err error
		if u.EntityKind == domain.EntityClause {
			err = tx.Clauses().UpdateAssignee(ctx, entityOrg, u.EntityID, next)
		} else {
			err = tx.Artefacts().UpdateAssignee(ctx, entityOrg, u.EntityID, next)
		}
		if err != nil {
			return domain.Upstream("responsibility.Reassign", err)
		}
		_, err = r.recorder.Record(ctx, tx.Audit(), actor, audit.Entry{
			OrganizationID: entityOrg,
			Action:         audit.ResponsibilityUpdated,
			EntityType:     audit.EntityFor(u.EntityKind),
			EntityID:       u.EntityID,
			Details:        audit.Reassignment{EntityKind: u.EntityKind, Previous: previous, Next: next},
		})
		return err
	})
	if err != nil {
		return nil, domain.Upstream("responsibility.Reassign", err)
	}
	return &row, nil
}

// decorateActive resolves the new assignee inside org and rejects inactive ones.
func (r *Resolver) decorateActive(ctx context.Context, org uuid.UUID, a domain.Assignee, row *domain.ResponsibilityAssignment) error {
	typ := a.Type
	row.AssigneeType = &typ
	switch a.Type {
	case domain.AssigneeUser:
		usr, err := r.store.Users().GetByID(ctx, org, a.ID())
		if err != nil {
			return lookupErr("user", a.ID(), err)
		}
		if !usr.IsActive {
			return domain.Conflictf("responsibility.Reassign", "user %s is inactive", usr.ID)
		}
		row.User = userProjection(usr)
	case domain.AssigneeAIAgent:
		agent, err := r.store.Agents().GetByID(ctx, org, a.ID())
		if err != nil {
			return lookupErr("ai agent", a.ID(), err)
		}
		if !agent.IsActive {
			return domain.Conflictf("responsibility.Reassign", "ai agent %s is inactive", agent.ID)
		}
		row.Agent = agentProjection(agent)
	}
	return nil
}

func lookupErr(what string, id uuid.UUID, err error) error {
	if domain.KindOf(err) == domain.KindNotFound {
		return domain.NotFoundf("responsibility", "%s %s not found", what, id)
	}
	return domain.Upstream("responsibility", fmt.Errorf("get %s: %w", what, err))
}
