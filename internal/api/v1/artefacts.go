package v1

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/isoflow/internal/domain"
	"github.com/gosuda/isoflow/internal/service"
)

type CreateArtefactInput struct {
	OrgQuery
	Body service.ArtefactDraft
}

type ArtefactOutput struct {
	Body *domain.Artefact
}

type ListArtefactsInput struct {
	OrgQuery
	Status string `query:"status" doc:"Filter by status; unknown values are ignored"`
	Kind   string `query:"kind" doc:"Filter by kind; unknown values are ignored"`
}

func (in *ListArtefactsInput) filter() domain.ArtefactFilter {
	var f domain.ArtefactFilter
	if in.Status != "" {
		s := domain.ArtefactStatus(strings.ToUpper(in.Status))
		f.Status = &s
	}
	if in.Kind != "" {
		k := domain.ArtefactKind(strings.ToUpper(in.Kind))
		f.Kind = &k
	}
	return f
}

type ListArtefactsOutput struct {
	Body []*domain.Artefact
}

type ArtefactIDInput struct {
	ID uuid.UUID `path:"id" doc:"Artefact ID"`
}

type UpdateArtefactStatusInput struct {
	ID   uuid.UUID `path:"id" doc:"Artefact ID"`
	Body struct {
		Status domain.ArtefactStatus `json:"status" doc:"DRAFT, IN_REVIEW, APPROVED or ARCHIVED"`
	}
}

type MapClauseInput struct {
	ID   uuid.UUID `path:"id" doc:"Artefact ID"`
	Body struct {
		ClauseID uuid.UUID `json:"clause_id" doc:"Clause ID of the same organization"`
	}
}

type MappingOutput struct {
	Body *domain.ArtefactClauseMapping
}

type ListMappingsOutput struct {
	Body []*domain.ArtefactClauseMapping
}

type StandardQuery struct {
	OrgQuery
	Standard string `query:"standard" enum:"ISO_9001,ISO_27001" doc:"Narrow to one standard"`
}

func (q StandardQuery) standard() *domain.Standard {
	if q.Standard == "" {
		return nil
	}
	s := domain.Standard(q.Standard)
	return &s
}

type ListClausesOutput struct {
	Body []*domain.Clause
}

type SeedClausesOutput struct {
	Body []service.SeedResult
}

func RegisterArtefactRoutes(api huma.API, artefacts ArtefactService, catalog CatalogService) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-artefact",
		Method:        http.MethodPost,
		Path:          "/artefacts",
		Summary:       "Create a draft artefact",
		Tags:          []string{"Artefacts"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateArtefactInput) (*ArtefactOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		org, err := input.org()
		if err != nil {
			return nil, err
		}

		a, err := artefacts.Create(ctx, p, org, input.Body)
		if err != nil {
			return nil, toHTTP("create-artefact", err)
		}
		return &ArtefactOutput{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-artefacts",
		Method:      http.MethodGet,
		Path:        "/artefacts",
		Summary:     "List artefacts, newest first",
		Tags:        []string{"Artefacts"},
	}, func(ctx context.Context, input *ListArtefactsInput) (*ListArtefactsOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		org, err := input.org()
		if err != nil {
			return nil, err
		}

		list, err := artefacts.List(ctx, p, org, input.filter())
		if err != nil {
			return nil, toHTTP("list-artefacts", err)
		}
		return &ListArtefactsOutput{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-artefact",
		Method:      http.MethodGet,
		Path:        "/artefacts/{id}",
		Summary:     "Get an artefact by ID",
		Tags:        []string{"Artefacts"},
	}, func(ctx context.Context, input *ArtefactIDInput) (*ArtefactOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}

		a, err := artefacts.Get(ctx, p, input.ID)
		if err != nil {
			return nil, toHTTP("get-artefact", err)
		}
		return &ArtefactOutput{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-artefact-status",
		Method:      http.MethodPut,
		Path:        "/artefacts/{id}/status",
		Summary:     "Move an artefact through its lifecycle",
		Description: "APPROVED and ARCHIVED require ACCOUNT_ADMIN.",
		Tags:        []string{"Artefacts"},
	}, func(ctx context.Context, input *UpdateArtefactStatusInput) (*ArtefactOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}

		a, err := artefacts.UpdateStatus(ctx, p, input.ID, input.Body.Status)
		if err != nil {
			return nil, toHTTP("update-artefact-status", err)
		}
		return &ArtefactOutput{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "map-artefact-clause",
		Method:        http.MethodPost,
		Path:          "/artefacts/{id}/clauses",
		Summary:       "Map an artefact to a clause",
		Tags:          []string{"Artefacts"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *MapClauseInput) (*MappingOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}

		m, err := artefacts.MapClause(ctx, p, input.ID, input.Body.ClauseID)
		if err != nil {
			return nil, toHTTP("map-artefact-clause", err)
		}
		return &MappingOutput{Body: m}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-artefact-clauses",
		Method:      http.MethodGet,
		Path:        "/artefacts/{id}/clauses",
		Summary:     "List the clause mappings of an artefact",
		Tags:        []string{"Artefacts"},
	}, func(ctx context.Context, input *ArtefactIDInput) (*ListMappingsOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}

		list, err := artefacts.ListMappings(ctx, p, input.ID)
		if err != nil {
			return nil, toHTTP("list-artefact-clauses", err)
		}
		return &ListMappingsOutput{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-clauses",
		Method:      http.MethodGet,
		Path:        "/clauses",
		Summary:     "List clauses by standard and clause number",
		Tags:        []string{"Clauses"},
	}, func(ctx context.Context, input *StandardQuery) (*ListClausesOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		org, err := input.org()
		if err != nil {
			return nil, err
		}

		list, err := artefacts.ListClauses(ctx, p, org, input.standard())
		if err != nil {
			return nil, toHTTP("list-clauses", err)
		}
		return &ListClausesOutput{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "seed-clauses",
		Method:      http.MethodPost,
		Path:        "/clauses/seed",
		Summary:     "Insert the built-in catalog clauses the organization lacks",
		Tags:        []string{"Clauses"},
	}, func(ctx context.Context, input *StandardQuery) (*SeedClausesOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		org, err := input.org()
		if err != nil {
			return nil, err
		}

		res, err := catalog.Seed(ctx, p, org, input.standard())
		if err != nil {
			return nil, toHTTP("seed-clauses", err)
		}
		return &SeedClausesOutput{Body: res}, nil
	})
}
