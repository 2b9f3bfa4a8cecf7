package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/isoflow/internal/domain"
	"github.com/gosuda/isoflow/internal/stats"
)

type CreateEventInput struct {
	OrgQuery
	Body domain.EventDraft
}

type EventOutput struct {
	Body *domain.Event
}

type ListEventsInput struct {
	OrgQuery
	Type         string `query:"type" doc:"Filter by event type; unknown values are ignored"`
	Status       string `query:"status" doc:"Filter by status; unknown values are ignored"`
	ReportedByID string `query:"reported_by_id" doc:"Filter by reporter"`
	StartDate    string `query:"start_date" doc:"Earliest creation time (inclusive)"`
	EndDate      string `query:"end_date" doc:"Latest creation time (inclusive)"`
}

func (in *ListEventsInput) raw() map[string]string {
	return map[string]string{
		"type":           in.Type,
		"status":         in.Status,
		"reported_by_id": in.ReportedByID,
		"start_date":     in.StartDate,
		"end_date":       in.EndDate,
	}
}

type ListEventsOutput struct {
	Body []*domain.Event
}

type EventIDInput struct {
	ID uuid.UUID `path:"id" doc:"Event ID"`
}

type UpdateEventInput struct {
	ID   uuid.UUID `path:"id" doc:"Event ID"`
	Body domain.EventPatch
}

type EventStatsOutput struct {
	Body stats.EventStats
}

func RegisterEventRoutes(api huma.API, events EventService) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-event",
		Method:        http.MethodPost,
		Path:          "/events",
		Summary:       "Report an event",
		Tags:          []string{"Events"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateEventInput) (*EventOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		org, err := input.org()
		if err != nil {
			return nil, err
		}

		e, err := events.Create(ctx, p, org, input.Body)
		if err != nil {
			return nil, toHTTP("create-event", err)
		}
		return &EventOutput{Body: e}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List events, newest first",
		Tags:        []string{"Events"},
	}, func(ctx context.Context, input *ListEventsInput) (*ListEventsOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		org, err := input.org()
		if err != nil {
			return nil, err
		}

		list, err := events.List(ctx, p, org, input.raw())
		if err != nil {
			return nil, toHTTP("list-events", err)
		}
		return &ListEventsOutput{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-event-stats",
		Method:      http.MethodGet,
		Path:        "/events/stats",
		Summary:     "Aggregate event statistics",
		Tags:        []string{"Events"},
	}, func(ctx context.Context, input *OrgQuery) (*EventStatsOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		org, err := input.org()
		if err != nil {
			return nil, err
		}

		s, err := events.Stats(ctx, p, org)
		if err != nil {
			return nil, toHTTP("get-event-stats", err)
		}
		return &EventStatsOutput{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-event",
		Method:      http.MethodGet,
		Path:        "/events/{id}",
		Summary:     "Get an event by ID",
		Tags:        []string{"Events"},
	}, func(ctx context.Context, input *EventIDInput) (*EventOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}

		e, err := events.Get(ctx, p, input.ID)
		if err != nil {
			return nil, toHTTP("get-event", err)
		}
		return &EventOutput{Body: e}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-event",
		Method:      http.MethodPatch,
		Path:        "/events/{id}",
		Summary:     "Update an event",
		Tags:        []string{"Events"},
	}, func(ctx context.Context, input *UpdateEventInput) (*EventOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}

		e, err := events.Update(ctx, p, input.ID, input.Body)
		if err != nil {
			return nil, toHTTP("update-event", err)
		}
		return &EventOutput{Body: e}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-event",
		Method:        http.MethodDelete,
		Path:          "/events/{id}",
		Summary:       "Delete an event",
		Tags:          []string{"Events"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *EventIDInput) (*struct{}, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}

		if err := events.Delete(ctx, p, input.ID); err != nil {
			return nil, toHTTP("delete-event", err)
		}
		return nil, nil
	})
}
