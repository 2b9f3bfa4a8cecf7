package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/gosuda/isoflow/internal/domain"
)

type orgRepo struct{ r repos }

func (o orgRepo) Create(_ context.Context, org *domain.Organization) error {
	return o.r.with("organizations.Create", func(st *state) error {
		for _, existing := range st.orgs {
			if existing.Slug == org.Slug {
				return domain.ErrConflict
			}
		}
		st.orgs[org.ID] = *org
		return nil
	})
}

func (o orgRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Organization, error) {
	var out *domain.Organization
	err := o.r.with("organizations.GetByID", func(st *state) error {
		org, ok := st.orgs[id]
		if !ok {
			return domain.ErrNotFound
		}
		out = &org
		return nil
	})
	return out, err
}

func (o orgRepo) GetBySlug(_ context.Context, slug string) (*domain.Organization, error) {
	var out *domain.Organization
	err := o.r.with("organizations.GetBySlug", func(st *state) error {
		for _, org := range st.orgs {
			if org.Slug == slug {
				out = &org
				return nil
			}
		}
		return domain.ErrNotFound
	})
	return out, err
}

func (o orgRepo) ListPaginated(_ context.Context, limit, offset int) ([]*domain.Organization, error) {
	var out []*domain.Organization
	err := o.r.with("organizations.List", func(st *state) error {
		for _, org := range st.orgs {
			out = append(out, &org)
		}
		slices.SortFunc(out, func(a, b *domain.Organization) int {
			return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID.String(), b.ID.String()))
		})
		out = page(out, limit, offset)
		return nil
	})
	return out, err
}

type userRepo struct{ r repos }

func (u userRepo) Create(_ context.Context, usr *domain.User) error {
	return u.r.with("users.Create", func(st *state) error {
		for _, existing := range st.users {
			if strings.EqualFold(existing.Email, usr.Email) {
				return domain.ErrConflict
			}
		}
		st.users[usr.ID] = *usr
		return nil
	})
}

func (u userRepo) GetByID(_ context.Context, orgID, id uuid.UUID) (*domain.User, error) {
	var out *domain.User
	err := u.r.with("users.GetByID", func(st *state) error {
		usr, ok := st.users[id]
		if !ok || !userInOrg(orgID, &usr) {
			return domain.ErrNotFound
		}
		out = &usr
		return nil
	})
	return out, err
}

func (u userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	var out *domain.User
	err := u.r.with("users.GetByEmail", func(st *state) error {
		for _, usr := range st.users {
			if strings.EqualFold(usr.Email, email) {
				out = &usr
				return nil
			}
		}
		return domain.ErrNotFound
	})
	return out, err
}

func (u userRepo) List(_ context.Context, orgID uuid.UUID) ([]*domain.User, error) {
	out := make([]*domain.User, 0)
	err := u.r.with("users.List", func(st *state) error {
		for _, usr := range st.users {
			if userInOrg(orgID, &usr) {
				out = append(out, &usr)
			}
		}
		slices.SortFunc(out, func(a, b *domain.User) int { return strings.Compare(a.Email, b.Email) })
		return nil
	})
	return out, err
}

func (u userRepo) SetActive(_ context.Context, orgID, id uuid.UUID, active bool) error {
	return u.r.with("users.SetActive", func(st *state) error {
		usr, ok := st.users[id]
		if !ok || !userInOrg(orgID, &usr) {
			return domain.ErrNotFound
		}
		usr.IsActive = active
		st.users[id] = usr
		return nil
	})
}

func userInOrg(orgID uuid.UUID, u *domain.User) bool {
	if orgID == uuid.Nil {
		return true
	}
	return u.OrganizationID != nil && *u.OrganizationID == orgID
}

type agentRepo struct{ r repos }

func (a agentRepo) Create(_ context.Context, agent *domain.AIAgent) error {
	return a.r.with("agents.Create", func(st *state) error {
		st.agents[agent.ID] = *agent
		return nil
	})
}

func (a agentRepo) GetByID(_ context.Context, orgID, id uuid.UUID) (*domain.AIAgent, error) {
	var out *domain.AIAgent
	err := a.r.with("agents.GetByID", func(st *state) error {
		agent, ok := st.agents[id]
		if !ok || !inOrg(orgID, agent.OrganizationID) {
			return domain.ErrNotFound
		}
		out = &agent
		return nil
	})
	return out, err
}

func (a agentRepo) List(_ context.Context, orgID uuid.UUID) ([]*domain.AIAgent, error) {
	out := make([]*domain.AIAgent, 0)
	err := a.r.with("agents.List", func(st *state) error {
		for _, agent := range st.agents {
			if inOrg(orgID, agent.OrganizationID) {
				out = append(out, &agent)
			}
		}
		slices.SortFunc(out, func(x, y *domain.AIAgent) int { return strings.Compare(x.Name, y.Name) })
		return nil
	})
	return out, err
}

func (a agentRepo) SetActive(_ context.Context, orgID, id uuid.UUID, active bool) error {
	return a.r.with("agents.SetActive", func(st *state) error {
		agent, ok := st.agents[id]
		if !ok || !inOrg(orgID, agent.OrganizationID) {
			return domain.ErrNotFound
		}
		agent.IsActive = active
		st.agents[id] = agent
		return nil
	})
}

type clauseRepo struct{ r repos }

func (c clauseRepo) Create(_ context.Context, cl *domain.Clause) error {
	return c.r.with("clauses.Create", func(st *state) error {
		for _, existing := range st.clauses {
			if existing.OrganizationID == cl.OrganizationID && existing.Standard == cl.Standard && existing.ClauseNumber == cl.ClauseNumber {
				return domain.ErrConflict
			}
		}
		st.clauses[cl.ID] = *cl
		return nil
	})
}

func (c clauseRepo) GetByID(_ context.Context, orgID, id uuid.UUID) (*domain.Clause, error) {
	var out *domain.Clause
	err := c.r.with("clauses.GetByID", func(st *state) error {
		cl, ok := st.clauses[id]
		if !ok || !inOrg(orgID, cl.OrganizationID) {
			return domain.ErrNotFound
		}
		out = &cl
		return nil
	})
	return out, err
}

func (c clauseRepo) List(_ context.Context, orgID uuid.UUID, f domain.ClauseFilter) ([]*domain.Clause, error) {
	out := make([]*domain.Clause, 0)
	err := c.r.with("clauses.List", func(st *state) error {
		for _, cl := range st.clauses {
			if !inOrg(orgID, cl.OrganizationID) || (f.Standard != nil && cl.Standard != *f.Standard) {
				continue
			}
			out = append(out, &cl)
		}
		slices.SortFunc(out, func(a, b *domain.Clause) int {
			return cmp.Or(
				strings.Compare(string(a.Standard), string(b.Standard)),
				strings.Compare(a.ClauseNumber, b.ClauseNumber),
				strings.Compare(a.ID.String(), b.ID.String()),
			)
		})
		return nil
	})
	return out, err
}

func (c clauseRepo) UpdateAssignee(_ context.Context, orgID, id uuid.UUID, a domain.Assignee) error {
	return c.r.with("clauses.UpdateAssignee", func(st *state) error {
		cl, ok := st.clauses[id]
		if !ok || !inOrg(orgID, cl.OrganizationID) {
			return domain.ErrNotFound
		}
		cl.Assignee = &a
		st.clauses[id] = cl
		return nil
	})
}

type artefactRepo struct{ r repos }

func (a artefactRepo) Create(_ context.Context, art *domain.Artefact) error {
	return a.r.with("artefacts.Create", func(st *state) error {
		st.artefacts[art.ID] = *art
		return nil
	})
}

func (a artefactRepo) GetByID(_ context.Context, orgID, id uuid.UUID) (*domain.Artefact, error) {
	var out *domain.Artefact
	err := a.r.with("artefacts.GetByID", func(st *state) error {
		art, ok := st.artefacts[id]
		if !ok || !inOrg(orgID, art.OrganizationID) {
			return domain.ErrNotFound
		}
		out = &art
		return nil
	})
	return out, err
}

func (a artefactRepo) List(_ context.Context, orgID uuid.UUID, f domain.ArtefactFilter) ([]*domain.Artefact, error) {
	out := make([]*domain.Artefact, 0)
	err := a.r.with("artefacts.List", func(st *state) error {
		for _, art := range st.artefacts {
			if !inOrg(orgID, art.OrganizationID) ||
				(f.Status != nil && art.Status != *f.Status) ||
				(f.Kind != nil && art.Kind != *f.Kind) {
				continue
			}
			out = append(out, &art)
		}
		slices.SortFunc(out, func(x, y *domain.Artefact) int {
			return cmp.Or(y.CreatedAt.Compare(x.CreatedAt), strings.Compare(x.ID.String(), y.ID.String()))
		})
		return nil
	})
	return out, err
}

func (a artefactRepo) UpdateStatus(_ context.Context, orgID, id uuid.UUID, status domain.ArtefactStatus) error {
	return a.r.with("artefacts.UpdateStatus", func(st *state) error {
		art, ok := st.artefacts[id]
		if !ok || !inOrg(orgID, art.OrganizationID) {
			return domain.ErrNotFound
		}
		art.Status = status
		st.artefacts[id] = art
		return nil
	})
}

func (a artefactRepo) UpdateAssignee(_ context.Context, orgID, id uuid.UUID, as domain.Assignee) error {
	return a.r.with("artefacts.UpdateAssignee", func(st *state) error {
		art, ok := st.artefacts[id]
		if !ok || !inOrg(orgID, art.OrganizationID) {
			return domain.ErrNotFound
		}
		art.Assignee = &as
		st.artefacts[id] = art
		return nil
	})
}

type mappingRepo struct{ r repos }

func (m mappingRepo) Create(_ context.Context, mp *domain.ArtefactClauseMapping) error {
	return m.r.with("mappings.Create", func(st *state) error {
		key := [2]uuid.UUID{mp.ArtefactID, mp.ClauseID}
		if _, ok := st.mappings[key]; ok {
			return domain.ErrConflict
		}
		st.mappings[key] = *mp
		return nil
	})
}

func (m mappingRepo) ListByArtefact(_ context.Context, artefactID uuid.UUID) ([]*domain.ArtefactClauseMapping, error) {
	out := make([]*domain.ArtefactClauseMapping, 0)
	err := m.r.with("mappings.ListByArtefact", func(st *state) error {
		for _, mp := range st.mappings {
			if mp.ArtefactID == artefactID {
				out = append(out, &mp)
			}
		}
		slices.SortFunc(out, func(a, b *domain.ArtefactClauseMapping) int {
			return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ClauseID.String(), b.ClauseID.String()))
		})
		return nil
	})
	return out, err
}

type taskRepo struct{ r repos }

func (t taskRepo) Create(_ context.Context, task *domain.Task) error {
	return t.r.with("tasks.Create", func(st *state) error {
		st.tasks[task.ID] = *task
		return nil
	})
}

func (t taskRepo) GetByID(_ context.Context, orgID, id uuid.UUID) (*domain.Task, error) {
	var out *domain.Task
	err := t.r.with("tasks.GetByID", func(st *state) error {
		task, ok := st.tasks[id]
		if !ok || !inOrg(orgID, task.OrganizationID) {
			return domain.ErrNotFound
		}
		out = &task
		return nil
	})
	return out, err
}

func (t taskRepo) List(_ context.Context, orgID uuid.UUID, f domain.TaskFilter) ([]*domain.Task, error) {
	out := make([]*domain.Task, 0)
	err := t.r.with("tasks.List", func(st *state) error {
		for _, task := range st.tasks {
			if inOrg(orgID, task.OrganizationID) && f.Matches(&task) {
				out = append(out, &task)
			}
		}
		slices.SortFunc(out, compareTasks)
		return nil
	})
	return out, err
}

// compareTasks orders by due date with undated tasks last, then created_at, then id.
func compareTasks(a, b *domain.Task) int {
	switch {
	case a.DueDate != nil && b.DueDate == nil:
		return -1
	case a.DueDate == nil && b.DueDate != nil:
		return 1
	case a.DueDate != nil && b.DueDate != nil:
		if c := a.DueDate.Compare(*b.DueDate); c != 0 {
			return c
		}
	}
	return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID.String(), b.ID.String()))
}

func (t taskRepo) Update(_ context.Context, task *domain.Task) error {
	return t.r.with("tasks.Update", func(st *state) error {
		existing, ok := st.tasks[task.ID]
		if !ok || existing.OrganizationID != task.OrganizationID {
			return domain.ErrNotFound
		}
		st.tasks[task.ID] = *task
		return nil
	})
}

func (t taskRepo) Delete(_ context.Context, orgID, id uuid.UUID) error {
	return t.r.with("tasks.Delete", func(st *state) error {
		task, ok := st.tasks[id]
		if !ok || !inOrg(orgID, task.OrganizationID) {
			return domain.ErrNotFound
		}
		delete(st.tasks, id)
		return nil
	})
}

type eventRepo struct{ r repos }

func (e eventRepo) Create(_ context.Context, ev *domain.Event) error {
	return e.r.with("events.Create", func(st *state) error {
		st.events[ev.ID] = *ev
		return nil
	})
}

func (e eventRepo) GetByID(_ context.Context, orgID, id uuid.UUID) (*domain.Event, error) {
	var out *domain.Event
	err := e.r.with("events.GetByID", func(st *state) error {
		ev, ok := st.events[id]
		if !ok || !inOrg(orgID, ev.OrganizationID) {
			return domain.ErrNotFound
		}
		out = &ev
		return nil
	})
	return out, err
}

func (e eventRepo) List(_ context.Context, orgID uuid.UUID, f domain.EventFilter) ([]*domain.Event, error) {
	out := make([]*domain.Event, 0)
	err := e.r.with("events.List", func(st *state) error {
		for _, ev := range st.events {
			if inOrg(orgID, ev.OrganizationID) && f.Matches(&ev) {
				out = append(out, &ev)
			}
		}
		slices.SortFunc(out, func(a, b *domain.Event) int {
			return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), strings.Compare(a.ID.String(), b.ID.String()))
		})
		return nil
	})
	return out, err
}

func (e eventRepo) Update(_ context.Context, ev *domain.Event) error {
	return e.r.with("events.Update", func(st *state) error {
		existing, ok := st.events[ev.ID]
		if !ok || existing.OrganizationID != ev.OrganizationID {
			return domain.ErrNotFound
		}
		st.events[ev.ID] = *ev
		return nil
	})
}

func (e eventRepo) Delete(_ context.Context, orgID, id uuid.UUID) error {
	return e.r.with("events.Delete", func(st *state) error {
		ev, ok := st.events[id]
		if !ok || !inOrg(orgID, ev.OrganizationID) {
			return domain.ErrNotFound
		}
		delete(st.events, id)
		return nil
	})
}

type suggestionRepo struct{ r repos }

func (s suggestionRepo) Create(_ context.Context, sg *domain.Suggestion) error {
	return s.r.with("suggestions.Create", func(st *state) error {
		st.suggestions[sg.ID] = *sg
		return nil
	})
}

func (s suggestionRepo) GetByID(_ context.Context, orgID, id uuid.UUID) (*domain.Suggestion, error) {
	var out *domain.Suggestion
	err := s.r.with("suggestions.GetByID", func(st *state) error {
		sg, ok := st.suggestions[id]
		if !ok || !inOrg(orgID, sg.OrganizationID) {
			return domain.ErrNotFound
		}
		out = &sg
		return nil
	})
	return out, err
}

func (s suggestionRepo) ListByArtefact(_ context.Context, orgID, artefactID uuid.UUID) ([]*domain.Suggestion, error) {
	out := make([]*domain.Suggestion, 0)
	err := s.r.with("suggestions.ListByArtefact", func(st *state) error {
		for _, sg := range st.suggestions {
			if sg.ArtefactID == artefactID && inOrg(orgID, sg.OrganizationID) {
				out = append(out, &sg)
			}
		}
		slices.SortFunc(out, func(a, b *domain.Suggestion) int {
			return cmp.Or(cmp.Compare(b.Confidence, a.Confidence), a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID.String(), b.ID.String()))
		})
		return nil
	})
	return out, err
}

func (s suggestionRepo) UpdateStatus(_ context.Context, orgID, id uuid.UUID, status domain.SuggestionStatus) error {
	return s.r.with("suggestions.UpdateStatus", func(st *state) error {
		sg, ok := st.suggestions[id]
		if !ok || !inOrg(orgID, sg.OrganizationID) {
			return domain.ErrNotFound
		}
		sg.Status = status
		st.suggestions[id] = sg
		return nil
	})
}

type auditRepo struct{ r repos }

func (a auditRepo) Record(_ context.Context, e *domain.AuditEntry) error {
	return a.r.with("audit.Record", func(st *state) error {
		st.audit = append(st.audit, *e)
		return nil
	})
}

// List returns entries newest first, in insertion order for equal timestamps.
func (a auditRepo) List(_ context.Context, orgID uuid.UUID, f domain.AuditFilter) ([]*domain.AuditEntry, error) {
	out := make([]*domain.AuditEntry, 0)
	err := a.r.with("audit.List", func(st *state) error {
		for i := len(st.audit) - 1; i >= 0; i-- {
			e := st.audit[i]
			if !inOrg(orgID, e.OrganizationID) ||
				(f.EntityType != "" && e.EntityType != f.EntityType) ||
				(f.EntityID != nil && e.EntityID != *f.EntityID) {
				continue
			}
			out = append(out, &e)
		}
		slices.SortStableFunc(out, func(x, y *domain.AuditEntry) int { return y.CreatedAt.Compare(x.CreatedAt) })
		out = page(out, f.Limit, f.Offset)
		return nil
	})
	return out, err
}

func page[T any](items []T, limit, offset int) []T {
	if offset > len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
