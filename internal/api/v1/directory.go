package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/isoflow/internal/domain"
	"github.com/gosuda/isoflow/internal/service"
)

type CreateOrganizationInput struct {
	Body struct {
		Name string `json:"name" minLength:"1" maxLength:"255" doc:"Organization name"`
		Slug string `json:"slug" minLength:"1" maxLength:"63" pattern:"^[a-z0-9]+(?:-[a-z0-9]+)*$" doc:"URL-safe slug (lowercase alphanumeric with hyphens)"`
	}
}

type OrganizationOutput struct {
	Body *domain.Organization
}

type PageInput struct {
	Limit  int `query:"limit" minimum:"1" maximum:"200" default:"50" doc:"Max results"`
	Offset int `query:"offset" minimum:"0" default:"0" doc:"Offset for pagination"`
}

type ListOrganizationsOutput struct {
	Body []*domain.Organization
}

type CreateUserInput struct {
	OrgQuery
	Body service.UserDraft
}

type UserOutput struct {
	Body *domain.User
}

type ListUsersOutput struct {
	Body []*domain.User
}

type SetActiveInput struct {
	ID   uuid.UUID `path:"id"`
	Body struct {
		IsActive bool `json:"is_active" doc:"Whether the account may act"`
	}
}

type CreateAgentInput struct {
	OrgQuery
	Body service.AgentDraft
}

type AgentOutput struct {
	Body *domain.AIAgent
}

type ListAgentsOutput struct {
	Body []*domain.AIAgent
}

type ListAuditInput struct {
	OrgQuery
	PageInput
	EntityType string `query:"entity_type" doc:"Filter by entity type, e.g. task"`
	EntityID   string `query:"entity_id" doc:"Filter by entity ID"`
}

type ListAuditOutput struct {
	Body []*domain.AuditEntry
}

func RegisterDirectoryRoutes(api huma.API, dir DirectoryService) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-organization",
		Method:        http.MethodPost,
		Path:          "/organizations",
		Summary:       "Create a new organization",
		Tags:          []string{"Organizations"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateOrganizationInput) (*OrganizationOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}

		o, err := dir.CreateOrganization(ctx, p, input.Body.Name, input.Body.Slug)
		if err != nil {
			return nil, toHTTP("create-organization", err)
		}
		return &OrganizationOutput{Body: o}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-organizations",
		Method:      http.MethodGet,
		Path:        "/organizations",
		Summary:     "List all organizations",
		Tags:        []string{"Organizations"},
	}, func(ctx context.Context, input *PageInput) (*ListOrganizationsOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}

		orgs, err := dir.ListOrganizations(ctx, p, input.Limit, input.Offset)
		if err != nil {
			return nil, toHTTP("list-organizations", err)
		}
		return &ListOrganizationsOutput{Body: orgs}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-user",
		Method:        http.MethodPost,
		Path:          "/users",
		Summary:       "Create a user",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateUserInput) (*UserOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		org, err := input.org()
		if err != nil {
			return nil, err
		}

		u, err := dir.CreateUser(ctx, p, org, input.Body)
		if err != nil {
			return nil, toHTTP("create-user", err)
		}
		return &UserOutput{Body: u}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "List users",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *OrgQuery) (*ListUsersOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		org, err := input.org()
		if err != nil {
			return nil, err
		}

		users, err := dir.ListUsers(ctx, p, org)
		if err != nil {
			return nil, toHTTP("list-users", err)
		}
		return &ListUsersOutput{Body: users}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-user-active",
		Method:      http.MethodPut,
		Path:        "/users/{id}/active",
		Summary:     "Activate or deactivate a user",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *SetActiveInput) (*UserOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}

		u, err := dir.SetUserActive(ctx, p, input.ID, input.Body.IsActive)
		if err != nil {
			return nil, toHTTP("set-user-active", err)
		}
		return &UserOutput{Body: u}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-agent",
		Method:        http.MethodPost,
		Path:          "/agents",
		Summary:       "Register an AI agent",
		Tags:          []string{"Agents"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateAgentInput) (*AgentOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		org, err := input.org()
		if err != nil {
			return nil, err
		}

		a, err := dir.CreateAgent(ctx, p, org, input.Body)
		if err != nil {
			return nil, toHTTP("create-agent", err)
		}
		return &AgentOutput{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-agents",
		Method:      http.MethodGet,
		Path:        "/agents",
		Summary:     "List AI agents",
		Tags:        []string{"Agents"},
	}, func(ctx context.Context, input *OrgQuery) (*ListAgentsOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		org, err := input.org()
		if err != nil {
			return nil, err
		}

		agents, err := dir.ListAgents(ctx, p, org)
		if err != nil {
			return nil, toHTTP("list-agents", err)
		}
		return &ListAgentsOutput{Body: agents}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-agent-active",
		Method:      http.MethodPut,
		Path:        "/agents/{id}/active",
		Summary:     "Activate or deactivate an AI agent",
		Tags:        []string{"Agents"},
	}, func(ctx context.Context, input *SetActiveInput) (*AgentOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}

		a, err := dir.SetAgentActive(ctx, p, input.ID, input.Body.IsActive)
		if err != nil {
			return nil, toHTTP("set-agent-active", err)
		}
		return &AgentOutput{Body: a}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-audit-log",
		Method:      http.MethodGet,
		Path:        "/audit",
		Summary:     "List audit entries, newest first",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *ListAuditInput) (*ListAuditOutput, error) {
		p, err := principal(ctx)
		if err != nil {
			return nil, err
		}
		org, err := input.org()
		if err != nil {
			return nil, err
		}
		entityID, err := optionalID("entity_id", input.EntityID)
		if err != nil {
			return nil, err
		}

		entries, err := dir.AuditLog(ctx, p, org, domain.AuditFilter{
			EntityType: input.EntityType,
			EntityID:   entityID,
			Limit:      input.Limit,
			Offset:     input.Offset,
		})
		if err != nil {
			return nil, toHTTP("list-audit-log", err)
		}
		return &ListAuditOutput{Body: entries}, nil
	})
}
