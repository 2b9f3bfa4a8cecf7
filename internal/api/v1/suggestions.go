package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/isoflow/internal/domain"
	"github.com/gosuda/isoflow/internal/service"
)

type SuggestClausesInput struct {
	ID   uuid.UUID `path:"id" doc:"Artefact ID"`
	Body *struct {
		Threshold *float64 `json:"threshold,omitempty" minimum:"0" maximum:"1" doc:"Auto-apply threshold; defaults to the configured value"`
	} `required:"false"`
}

type SuggestClausesOutput struct {
	Body *service.SuggestResult
}

type ListSuggestionsOutput struct {
	Body []*domain.Suggestion
}

type DecideSuggestionInput struct {
	ID   uuid.UUID `path:"id" doc:"Suggestion ID"`
	Body struct {
		Status domain.SuggestionStatus `json:"status" enum:"APPLIED,REJECTED" doc:"Decision"`
	}
}

type SuggestionOutput struct {
	Body *domain.Suggestion
}

func RegisterSuggestionRoutes(api huma.API, suggestions SuggestionService) {
	huma.Register(api, huma.Operation{
		OperationID: "suggest-clauses",
		Method:      http.MethodPost,
		Path:        "/artefacts/{id}/suggestions",
		Summary:     "Ask the oracle which clauses an artefact evidences",
		Description: "Every answer is stored; confident answers naming a known clause are mapped at once.",
		Tags:        []string{"Suggestions"},
	}, func(ctx context.Context, input *SuggestClausesInput) (*SuggestClausesOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		var threshold *float64
		if input.Body != nil {
			threshold = input.Body.Threshold
		}

		res, err := suggestions.Suggest(ctx, p, input.ID, threshold)
		if err != nil {
			return nil, toHTTP("suggest-clauses", err)
		}
		return &SuggestClausesOutput{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-suggestions",
		Method:      http.MethodGet,
		Path:        "/artefacts/{id}/suggestions",
		Summary:     "List stored suggestions by confidence",
		Tags:        []string{"Suggestions"},
	}, func(ctx context.Context, input *ArtefactIDInput) (*ListSuggestionsOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}

		list, err := suggestions.List(ctx, p, input.ID)
		if err != nil {
			return nil, toHTTP("list-suggestions", err)
		}
		return &ListSuggestionsOutput{Body: list}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "decide-suggestion",
		Method:      http.MethodPut,
		Path:        "/suggestions/{id}",
		Summary:     "Apply or reject a pending suggestion",
		Tags:        []string{"Suggestions"},
	}, func(ctx context.Context, input *DecideSuggestionInput) (*SuggestionOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}

		sg, err := suggestions.Decide(ctx, p, input.ID, input.Body.Status)
		if err != nil {
			return nil, toHTTP("decide-suggestion", err)
		}
		return &SuggestionOutput{Body: sg}, nil
	})
}
