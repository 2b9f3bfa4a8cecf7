package v1_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/isoflow/internal/api/v1"
	"github.com/gosuda/isoflow/internal/domain"
	"github.com/gosuda/isoflow/internal/service"
)

func TestCreateOrganization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		slug       string
		err        error
		wantStatus int
	}{
		{name: "created", slug: "acme-corp", wantStatus: http.StatusCreated},
		{name: "slug_taken", slug: "acme-corp", err: domain.Conflictf("directory.CreateOrganization", "slug already exists"), wantStatus: http.StatusConflict},
		{name: "bad_slug_pattern", slug: "Acme Corp", wantStatus: http.StatusUnprocessableEntity},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, api := humatest.New(t)
			v1.RegisterDirectoryRoutes(api, &mockDirectoryService{
				createOrganizationFunc: func(_ context.Context, _ *domain.Principal, name, slug string) (*domain.Organization, error) {
					assert.Equal(t, "Acme", name)
					if tc.err != nil {
						return nil, tc.err
					}
					now := time.Now()
					return &domain.Organization{ID: uuid.New(), Name: name, Slug: slug, CreatedAt: now, UpdatedAt: now}, nil
				},
			})

			resp := api.PostCtx(principalCtx(superPrincipal()), "/organizations", map[string]any{
				"name": "Acme",
				"slug": tc.slug,
			})

			assert.Equal(t, tc.wantStatus, resp.Code)
			if tc.err != nil {
				assert.Equal(t, string(domain.KindOf(tc.err)), problemKind(t, resp.Body))
			}
		})
	}
}

func TestListOrganizations(t *testing.T) {
	t.Parallel()

	t.Run("default_page", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterDirectoryRoutes(api, &mockDirectoryService{
			listOrganizationsFunc: func(_ context.Context, _ *domain.Principal, limit, offset int) ([]*domain.Organization, error) {
				assert.Equal(t, 50, limit)
				assert.Equal(t, 0, offset)
				return []*domain.Organization{{ID: uuid.New(), Name: "Acme", Slug: "acme"}}, nil
			},
		})

		resp := api.GetCtx(principalCtx(superPrincipal()), "/organizations")

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Len(t, decode[[]domain.Organization](t, resp.Body), 1)
	})

	t.Run("limit_above_max", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterDirectoryRoutes(api, &mockDirectoryService{})

		resp := api.GetCtx(principalCtx(superPrincipal()), "/organizations?limit=500")

		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})
}

func TestCreateUser(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()

	t.Run("admin_creates_in_own_org", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterDirectoryRoutes(api, &mockDirectoryService{
			createUserFunc: func(_ context.Context, p *domain.Principal, org *uuid.UUID, d service.UserDraft) (*domain.User, error) {
				assert.Equal(t, domain.RoleAccountAdmin, p.Role)
				assert.Nil(t, org)
				assert.Equal(t, "auditor@example.com", d.Email)
				assert.Equal(t, domain.RoleUser, d.Role)
				return &domain.User{ID: uuid.New(), OrganizationID: &orgID, Email: d.Email, Name: d.Name, Role: d.Role, IsActive: true}, nil
			},
		})

		resp := api.PostCtx(principalCtx(adminPrincipal(orgID)), "/users", map[string]any{
			"email": "auditor@example.com",
			"name":  "Auditor",
			"role":  "USER",
		})

		require.Equal(t, http.StatusCreated, resp.Code)
		body := decode[domain.User](t, resp.Body)
		assert.True(t, body.IsActive)
	})

	t.Run("admin_other_org", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterDirectoryRoutes(api, &mockDirectoryService{
			createUserFunc: func(context.Context, *domain.Principal, *uuid.UUID, service.UserDraft) (*domain.User, error) {
				return nil, &domain.Error{Kind: domain.KindOrganizationMismatch, Message: "resource belongs to another organization"}
			},
		})

		resp := api.PostCtx(principalCtx(adminPrincipal(orgID)), "/users?organization_id="+uuid.NewString(), map[string]any{
			"email": "x@example.com",
			"name":  "X",
			"role":  "USER",
		})

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}

func TestSetUserActive(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()
	userID := uuid.New()
	_, api := humatest.New(t)
	v1.RegisterDirectoryRoutes(api, &mockDirectoryService{
		setUserActiveFunc: func(_ context.Context, _ *domain.Principal, id uuid.UUID, active bool) (*domain.User, error) {
			assert.Equal(t, userID, id)
			assert.False(t, active)
			return &domain.User{ID: id, OrganizationID: &orgID, Role: domain.RoleUser, IsActive: active}, nil
		},
	})

	resp := api.PutCtx(principalCtx(adminPrincipal(orgID)), "/users/"+userID.String()+"/active", map[string]any{
		"is_active": false,
	})

	require.Equal(t, http.StatusOK, resp.Code)
	assert.False(t, decode[domain.User](t, resp.Body).IsActive)
}

func TestAgents(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()

	t.Run("create", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterDirectoryRoutes(api, &mockDirectoryService{
			createAgentFunc: func(_ context.Context, _ *domain.Principal, _ *uuid.UUID, d service.AgentDraft) (*domain.AIAgent, error) {
				assert.Equal(t, domain.AIAgentClassifier, d.Type)
				return &domain.AIAgent{ID: uuid.New(), OrganizationID: orgID, Name: d.Name, Type: d.Type, IsActive: true}, nil
			},
		})

		resp := api.PostCtx(principalCtx(adminPrincipal(orgID)), "/agents", map[string]any{
			"name": "Clause classifier",
			"type": "CLASSIFIER",
		})

		require.Equal(t, http.StatusCreated, resp.Code)
		assert.Equal(t, domain.AIAgentClassifier, decode[domain.AIAgent](t, resp.Body).Type)
	})

	t.Run("list", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterDirectoryRoutes(api, &mockDirectoryService{
			listAgentsFunc: func(context.Context, *domain.Principal, *uuid.UUID) ([]*domain.AIAgent, error) {
				return []*domain.AIAgent{{ID: uuid.New()}, {ID: uuid.New()}}, nil
			},
		})

		resp := api.GetCtx(principalCtx(userPrincipal(orgID)), "/agents")

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Len(t, decode[[]domain.AIAgent](t, resp.Body), 2)
	})

	t.Run("deactivate", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterDirectoryRoutes(api, &mockDirectoryService{
			setAgentActiveFunc: func(_ context.Context, _ *domain.Principal, id uuid.UUID, active bool) (*domain.AIAgent, error) {
				return &domain.AIAgent{ID: id, OrganizationID: orgID, IsActive: active}, nil
			},
		})

		resp := api.PutCtx(principalCtx(adminPrincipal(orgID)), "/agents/"+uuid.NewString()+"/active", map[string]any{
			"is_active": false,
		})

		require.Equal(t, http.StatusOK, resp.Code)
		assert.False(t, decode[domain.AIAgent](t, resp.Body).IsActive)
	})
}

func TestAuditLog(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()

	t.Run("filters_forwarded", func(t *testing.T) {
		t.Parallel()

		entity := uuid.New()
		_, api := humatest.New(t)
		v1.RegisterDirectoryRoutes(api, &mockDirectoryService{
			auditLogFunc: func(_ context.Context, _ *domain.Principal, _ *uuid.UUID, f domain.AuditFilter) ([]*domain.AuditEntry, error) {
				assert.Equal(t, "task", f.EntityType)
				require.NotNil(t, f.EntityID)
				assert.Equal(t, entity, *f.EntityID)
				assert.Equal(t, 10, f.Limit)
				assert.Equal(t, 20, f.Offset)
				return []*domain.AuditEntry{{ID: uuid.New(), OrganizationID: orgID, Action: "task.created", EntityType: "task", EntityID: entity}}, nil
			},
		})

		resp := api.GetCtx(principalCtx(adminPrincipal(orgID)),
			"/audit?entity_type=task&entity_id="+entity.String()+"&limit=10&offset=20")

		require.Equal(t, http.StatusOK, resp.Code)
		entries := decode[[]domain.AuditEntry](t, resp.Body)
		require.Len(t, entries, 1)
		assert.Equal(t, "task.created", entries[0].Action)
	})

	t.Run("bad_entity_id", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterDirectoryRoutes(api, &mockDirectoryService{})

		resp := api.GetCtx(principalCtx(adminPrincipal(orgID)), "/audit?entity_id=42")

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}
