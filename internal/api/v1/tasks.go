package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/isoflow/internal/calendar"
	"github.com/gosuda/isoflow/internal/domain"
	"github.com/gosuda/isoflow/internal/filter"
	"github.com/gosuda/isoflow/internal/server/middleware"
	"github.com/gosuda/isoflow/internal/service"
	"github.com/gosuda/isoflow/internal/stats"
)

type TaskBody struct {
	Title       string     `json:"title" minLength:"1" maxLength:"500" doc:"Task title"`
	Description string     `json:"description,omitempty" doc:"Task description"`
	DueDate     *time.Time `json:"due_date,omitempty" doc:"Due date (RFC 3339)"`
	Priority    *int       `json:"priority,omitempty" doc:"Priority 1 (highest) to 5; defaults to 3"`
	AssigneeID  *uuid.UUID `json:"assignee_id,omitempty" doc:"Assigned user ID"`
	ArtefactID  *uuid.UUID `json:"artefact_id,omitempty" doc:"Related artefact ID"`
}

func (b TaskBody) template() domain.TaskTemplate {
	priority := domain.DefaultPriority
	if b.Priority != nil {
		priority = *b.Priority
	}
	return domain.TaskTemplate{
		Title:       b.Title,
		Description: b.Description,
		DueDate:     b.DueDate,
		Priority:    priority,
		AssigneeID:  b.AssigneeID,
		ArtefactID:  b.ArtefactID,
	}
}

type CreateTaskInput struct {
	OrgQuery
	Body TaskBody
}

type TaskOutput struct {
	Body *domain.Task
}

type ListTasksInput struct {
	OrgQuery
	Status     string `query:"status" doc:"Filter by status; unknown values are ignored"`
	Priority   string `query:"priority" doc:"Filter by priority (1-5)"`
	AssigneeID string `query:"assignee_id" doc:"Filter by assignee"`
	ArtefactID string `query:"artefact_id" doc:"Filter by artefact"`
	StartDate  string `query:"start_date" doc:"Earliest due date (inclusive)"`
	EndDate    string `query:"end_date" doc:"Latest due date (inclusive)"`
}

func (in *ListTasksInput) raw() map[string]string {
	return map[string]string{
		"status":      in.Status,
		"priority":    in.Priority,
		"assignee_id": in.AssigneeID,
		"artefact_id": in.ArtefactID,
		"start_date":  in.StartDate,
		"end_date":    in.EndDate,
	}
}

type ListTasksOutput struct {
	Body []*domain.Task
}

type TaskIDInput struct {
	ID uuid.UUID `path:"id" doc:"Task ID"`
}

type UpdateTaskInput struct {
	ID   uuid.UUID `path:"id" doc:"Task ID"`
	Body domain.TaskPatch
}

type CreateRecurringTaskInput struct {
	OrgQuery
	Body struct {
		Task       TaskBody              `json:"task" doc:"Template of every occurrence"`
		Recurrence domain.RecurrenceRule `json:"recurrence" doc:"Recurrence rule; count or end_date is required"`
	}
}

// CreateRecurringTaskOutput reports the series. A batch stopped midway is
// answered with the status of its failure and still lists what was created.
type CreateRecurringTaskOutput struct {
	Status int
	Body   *service.RecurringResult
}

type TaskStatsOutput struct {
	Body stats.TaskStats
}

type CalendarInput struct {
	OrgQuery
	Start          string `query:"start" required:"true" doc:"Window start (ISO 8601)"`
	End            string `query:"end" required:"true" doc:"Window end (ISO 8601)"`
	IncludeUndated bool   `query:"include_undated" doc:"Anchor undated tasks at their creation time"`
}

type CalendarOutput struct {
	Body []domain.CalendarEvent
}

func RegisterTaskRoutes(api huma.API, tasks TaskService) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/tasks",
		Summary:       "Create a new task",
		Tags:          []string{"Tasks"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateTaskInput) (*TaskOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		org, err := input.org()
		if err != nil {
			return nil, err
		}

		t, err := tasks.Create(ctx, p, org, input.Body.template())
		if err != nil {
			return nil, toHTTP("create-task", err)
		}
		return &TaskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks",
		Description: "Ordered by due date (undated last), then creation time.",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *ListTasksInput) (*ListTasksOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		org, err := input.org()
		if err != nil {
			return nil, err
		}

		list, err := tasks.List(ctx, p, org, input.raw())
		if err != nil {
			return nil, toHTTP("list-tasks", err)
		}
		return &ListTasksOutput{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task-stats",
		Method:      http.MethodGet,
		Path:        "/tasks/stats",
		Summary:     "Aggregate task statistics",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *OrgQuery) (*TaskStatsOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		org, err := input.org()
		if err != nil {
			return nil, err
		}

		s, err := tasks.Stats(ctx, p, org)
		if err != nil {
			return nil, toHTTP("get-task-stats", err)
		}
		return &TaskStatsOutput{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-recurring-task",
		Method:        http.MethodPost,
		Path:          "/tasks/recurring",
		Summary:       "Create a bounded series of tasks",
		Tags:          []string{"Tasks"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateRecurringTaskInput) (*CreateRecurringTaskOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		org, err := input.org()
		if err != nil {
			return nil, err
		}

		res, err := tasks.CreateRecurring(ctx, p, org, input.Body.Task.template(), input.Body.Recurrence)
		if err != nil {
			if res == nil {
				return nil, toHTTP("create-recurring-task", err)
			}
			return &CreateRecurringTaskOutput{Status: middleware.StatusForKind(domain.KindOf(err)), Body: res}, nil
		}
		return &CreateRecurringTaskOutput{Status: http.StatusCreated, Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{id}",
		Summary:     "Get a task by ID",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *TaskIDInput) (*TaskOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}

		t, err := tasks.Get(ctx, p, input.ID)
		if err != nil {
			return nil, toHTTP("get-task", err)
		}
		return &TaskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPatch,
		Path:        "/tasks/{id}",
		Summary:     "Update a task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *UpdateTaskInput) (*TaskOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}

		t, err := tasks.Update(ctx, p, input.ID, input.Body)
		if err != nil {
			return nil, toHTTP("update-task", err)
		}
		return &TaskOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-task",
		Method:        http.MethodDelete,
		Path:          "/tasks/{id}",
		Summary:       "Delete a task",
		Tags:          []string{"Tasks"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *TaskIDInput) (*struct{}, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}

		if err := tasks.Delete(ctx, p, input.ID); err != nil {
			return nil, toHTTP("delete-task", err)
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-calendar",
		Method:      http.MethodGet,
		Path:        "/calendar",
		Summary:     "Project tasks and scheduled events into a window",
		Tags:        []string{"Calendar"},
	}, func(ctx context.Context, input *CalendarInput) (*CalendarOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		org, err := input.org()
		if err != nil {
			return nil, err
		}
		start, ok := filter.ParseDate(input.Start)
		if !ok {
			return nil, huma.Error400BadRequest("invalid start")
		}
		end, ok := filter.ParseDate(input.End)
		if !ok {
			return nil, huma.Error400BadRequest("invalid end")
		}

		entries, err := tasks.Calendar(ctx, p, service.CalendarQuery{
			OrganizationID: org,
			Window:         calendar.Window{Start: start, End: end},
			IncludeUndated: input.IncludeUndated,
		})
		if err != nil {
			return nil, toHTTP("get-calendar", err)
		}
		return &CalendarOutput{Body: entries}, nil
	})
}
