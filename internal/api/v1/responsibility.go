package v1

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/isoflow/internal/domain"
	"github.com/gosuda/isoflow/internal/responsibility"
)

type MatrixInput struct {
	OrgQuery
	EntityKind   string `query:"entity_kind" doc:"CLAUSE or ARTEFACT; unknown values are ignored"`
	Standard     string `query:"standard" doc:"Narrow clause rows to one standard; unknown values are ignored"`
	AssigneeType string `query:"assignee_type" doc:"USER or AI_AGENT; unknown values are ignored"`
	Unassigned   bool   `query:"unassigned" doc:"Only rows without an assignee"`
}

func (in *MatrixInput) filter() domain.ResponsibilityFilter {
	f := domain.ResponsibilityFilter{Unassigned: in.Unassigned}
	if k := domain.EntityKind(strings.ToUpper(in.EntityKind)); k.Valid() {
		f.EntityKind = &k
	}
	if s := domain.Standard(strings.ToUpper(in.Standard)); s.Valid() {
		f.Standard = &s
	}
	if t := domain.AssigneeType(strings.ToUpper(in.AssigneeType)); t.Valid() {
		f.AssigneeType = &t
	}
	return f
}

type MatrixOutput struct {
	Body []domain.ResponsibilityAssignment
}

type MatrixStatsOutput struct {
	Body responsibility.MatrixStats
}

type ReassignInput struct {
	Body domain.AssignmentUpdate
}

type AssignmentOutput struct {
	Body *domain.ResponsibilityAssignment
}

func RegisterResponsibilityRoutes(api huma.API, matrix ResponsibilityService) {
	huma.Register(api, huma.Operation{
		OperationID: "get-responsibility-matrix",
		Method:      http.MethodGet,
		Path:        "/responsibility",
		Summary:     "Resolve who owns each clause and artefact",
		Tags:        []string{"Responsibility"},
	}, func(ctx context.Context, input *MatrixInput) (*MatrixOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		org, err := input.org()
		if err != nil {
			return nil, err
		}

		rows, err := matrix.Matrix(ctx, p, org, input.filter())
		if err != nil {
			return nil, toHTTP("get-responsibility-matrix", err)
		}
		return &MatrixOutput{Body: rows}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-responsibility-stats",
		Method:      http.MethodGet,
		Path:        "/responsibility/stats",
		Summary:     "Summarize the responsibility matrix",
		Tags:        []string{"Responsibility"},
	}, func(ctx context.Context, input *MatrixInput) (*MatrixStatsOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		org, err := input.org()
		if err != nil {
			return nil, err
		}

		s, err := matrix.Stats(ctx, p, org, input.filter())
		if err != nil {
			return nil, toHTTP("get-responsibility-stats", err)
		}
		return &MatrixStatsOutput{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reassign-responsibility",
		Method:      http.MethodPut,
		Path:        "/responsibility",
		Summary:     "Assign a clause or artefact to a user or AI agent",
		Description: "Requires ACCOUNT_ADMIN. Inactive assignees are rejected with 409.",
		Tags:        []string{"Responsibility"},
	}, func(ctx context.Context, input *ReassignInput) (*AssignmentOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}

		row, err := matrix.Reassign(ctx, p, input.Body)
		if err != nil {
			return nil, toHTTP("reassign-responsibility", err)
		}
		return &AssignmentOutput{Body: row}, nil
	})
}
