package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/isoflow/internal/audit"
	"github.com/gosuda/isoflow/internal/authz"
	"github.com/gosuda/isoflow/internal/calendar"
	"github.com/gosuda/isoflow/internal/domain"
	"github.com/gosuda/isoflow/internal/filter"
	"github.com/gosuda/isoflow/internal/recurrence"
	"github.com/gosuda/isoflow/internal/stats"
)

type Tasks struct {
	core
	expander *recurrence.Expander
}

// NewTasks caps recurring series at maxOccurrences (recurrence default when < 1).
func NewTasks(d Deps, maxOccurrences int) *Tasks {
	c := newCore(d)
	e := recurrence.New(maxOccurrences)
	e.Now = c.now
	return &Tasks{core: c, expander: e}
}

// Create stores a PENDING task in the target organization.
func (s *Tasks) Create(ctx context.Context, p *domain.Principal, org *uuid.UUID, tmpl domain.TaskTemplate) (*domain.Task, error) {
	orgID, err := authz.TargetOrg(p, authz.AnyRole, org)
	if err != nil {
		return nil, err
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, orgID, tmpl.AssigneeID, tmpl.ArtefactID); err != nil {
		return nil, err
	}

	t := domain.NewTask(tmpl, orgID, p.ID, s.clock())
	err = s.mutate(ctx, "taskService.Create", p, audit.Entry{
		OrganizationID: orgID,
		Action:         audit.TaskCreated,
		EntityType:     audit.EntityTask,
		EntityID:       t.ID,
		Details:        audit.TaskSnapshot{Title: t.Title, Priority: t.Priority, Status: t.Status, DueDate: t.DueDate},
	}, func(ctx context.Context, tx domain.Repositories) error {
		return tx.Tasks().Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Tasks) Get(ctx context.Context, p *domain.Principal, id uuid.UUID) (*domain.Task, error) {
	if err := authz.Authorize(p, authz.AnyRole, nil); err != nil {
		return nil, err
	}
	t, err := s.store.Tasks().GetByID(ctx, uuid.Nil, id)
	if err != nil {
		return nil, lookup("taskService.Get", "task", id, err)
	}
	if err := authz.AuthorizeOrg(p, authz.AnyRole, t.OrganizationID); err != nil {
		return nil, err
	}
	return t, nil
}

// List returns the tasks visible to p matching the raw query parameters.
func (s *Tasks) List(ctx context.Context, p *domain.Principal, org *uuid.UUID, raw map[string]string) ([]*domain.Task, error) {
	orgID, err := authz.Scope(p, org)
	if err != nil {
		return nil, err
	}
	f, err := filter.Tasks(raw)
	if err != nil {
		return nil, err
	}
	tasks, err := s.store.Tasks().List(ctx, orgID, f)
	if err != nil {
		return nil, domain.Upstream("taskService.List", err)
	}
	return tasks, nil
}

func (s *Tasks) Update(ctx context.Context, p *domain.Principal, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error) {
	if err := authz.Authorize(p, authz.AnyRole, nil); err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	t, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, t.OrganizationID, patch.AssigneeID, patch.ArtefactID); err != nil {
		return nil, err
	}

	changed := patch.Apply(t, s.clock())
	err = s.mutate(ctx, "taskService.Update", p, audit.Entry{
		OrganizationID: t.OrganizationID,
		Action:         audit.TaskUpdated,
		EntityType:     audit.EntityTask,
		EntityID:       t.ID,
		Details:        audit.Changes{Names: changed},
	}, func(ctx context.Context, tx domain.Repositories) error {
		return tx.Tasks().Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Delete requires ACCOUNT_ADMIN or SUPER_ADMIN.
func (s *Tasks) Delete(ctx context.Context, p *domain.Principal, id uuid.UUID) error {
	if err := authz.Authorize(p, authz.AdminRoles, nil); err != nil {
		return err
	}
	t, err := s.Get(ctx, p, id)
	if err != nil {
		return err
	}
	return s.mutate(ctx, "taskService.Delete", p, audit.Entry{
		OrganizationID: t.OrganizationID,
		Action:         audit.TaskDeleted,
		EntityType:     audit.EntityTask,
		EntityID:       t.ID,
		Details:        audit.TaskSnapshot{Title: t.Title, Priority: t.Priority, Status: t.Status, DueDate: t.DueDate},
	}, func(ctx context.Context, tx domain.Repositories) error {
		return tx.Tasks().Delete(ctx, t.OrganizationID, t.ID)
	})
}

// RecurringResult reports a recurring series. Created holds the instances
// persisted in occurrence order; Failure describes the instance that stopped
// the batch, if any.
type RecurringResult struct {
	SeriesID uuid.UUID      `json:"series_id"`
	Created  []*domain.Task `json:"created"`
	Failure  *BatchFailure  `json:"failure,omitempty"`
}

type BatchFailure struct {
	Index   int              `json:"index"` // 1-based occurrence that failed
	Kind    domain.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

// CreateRecurring expands tmpl by rule and stores each occurrence with its
// own audit entry. Invalid input fails before any write. A failure at
// occurrence k keeps occurrences 1..k-1 and returns them together with the
// error of occurrence k.
func (s *Tasks) CreateRecurring(ctx context.Context, p *domain.Principal, org *uuid.UUID, tmpl domain.TaskTemplate, rule domain.RecurrenceRule) (*RecurringResult, error) {
	orgID, err := authz.TargetOrg(p, authz.AnyRole, org)
	if err != nil {
		return nil, err
	}
	series, err := s.expander.Expand(tmpl, rule, orgID, p.ID)
	if err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, orgID, tmpl.AssigneeID, tmpl.ArtefactID); err != nil {
		return nil, err
	}

	res := &RecurringResult{SeriesID: uuid.New(), Created: make([]*domain.Task, 0, len(series))}
	for i, t := range series {
		err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Repositories) error {
			if err := tx.Tasks().Create(ctx, t); err != nil {
				return domain.Upstream("taskService.CreateRecurring", err)
			}
			_, err := s.recorder.Record(ctx, tx.Audit(), p, audit.Entry{
				OrganizationID: orgID,
				Action:         audit.TaskCreated,
				EntityType:     audit.EntityTask,
				EntityID:       t.ID,
				Details: audit.Occurrence{
					Series:    res.SeriesID,
					Index:     i + 1,
					Of:        len(series),
					Frequency: rule.Frequency,
					Interval:  rule.Interval,
					Title:     t.Title,
				},
			})
			return err
		})
		if err != nil {
			err = domain.Upstream("taskService.CreateRecurring", err)
			res.Failure = &BatchFailure{Index: i + 1, Kind: domain.KindOf(err), Message: domain.MessageOf(err)}
			log.Warn().Err(err).
				Str("series_id", res.SeriesID.String()).
				Int("created", len(res.Created)).
				Int("failed_at", i+1).
				Msg("taskService.CreateRecurring: series stopped")
			s.notifySeries(ctx, p, orgID, res)
			return res, err
		}
		res.Created = append(res.Created, t)
	}
	s.notifySeries(ctx, p, orgID, res)
	return res, nil
}

func (s *Tasks) notifySeries(ctx context.Context, p *domain.Principal, orgID uuid.UUID, res *RecurringResult) {
	if len(res.Created) == 0 {
		return
	}
	s.notify(ctx, p, audit.Entry{
		OrganizationID: orgID,
		Action:         audit.TaskRecurringCreated,
		EntityType:     audit.EntityTask,
		EntityID:       res.Created[0].ID,
	}, map[string]any{
		"series_id": res.SeriesID.String(),
		"count":     len(res.Created),
		"title":     res.Created[0].Title,
	})
}

// Stats aggregates every task visible to p as of now.
func (s *Tasks) Stats(ctx context.Context, p *domain.Principal, org *uuid.UUID) (stats.TaskStats, error) {
	orgID, err := authz.Scope(p, org)
	if err != nil {
		return stats.TaskStats{}, err
	}
	tasks, err := s.store.Tasks().List(ctx, orgID, domain.TaskFilter{})
	if err != nil {
		return stats.TaskStats{}, domain.Upstream("taskService.Stats", err)
	}
	return stats.Tasks(tasks, s.clock()), nil
}

type CalendarQuery struct {
	OrganizationID *uuid.UUID
	Window         calendar.Window
	IncludeUndated bool
}

// Calendar projects the tasks and scheduled events visible to p into q.Window.
func (s *Tasks) Calendar(ctx context.Context, p *domain.Principal, q CalendarQuery) ([]domain.CalendarEvent, error) {
	orgID, err := authz.Scope(p, q.OrganizationID)
	if err != nil {
		return nil, err
	}
	if err := q.Window.Validate(); err != nil {
		return nil, err
	}

	var f domain.TaskFilter
	if !q.IncludeUndated {
		f.StartDate, f.EndDate = &q.Window.Start, &q.Window.End
	}
	tasks, err := s.store.Tasks().List(ctx, orgID, f)
	if err != nil {
		return nil, domain.Upstream("taskService.Calendar", err)
	}
	events, err := s.store.Events().List(ctx, orgID, domain.EventFilter{})
	if err != nil {
		return nil, domain.Upstream("taskService.Calendar", err)
	}
	return calendar.Project(tasks, events, q.Window, calendar.Options{IncludeUndated: q.IncludeUndated}), nil
}

// checkRefs verifies that referenced users and artefacts belong to orgID.
func (s *Tasks) checkRefs(ctx context.Context, orgID uuid.UUID, assignee, artefact *uuid.UUID) error {
	if assignee != nil {
		if _, err := s.store.Users().GetByID(ctx, orgID, *assignee); err != nil {
			return lookup("taskService", "assignee", *assignee, err)
		}
	}
	if artefact != nil {
		if _, err := s.store.Artefacts().GetByID(ctx, orgID, *artefact); err != nil {
			return lookup("taskService", "artefact", *artefact, err)
		}
	}
	return nil
}
