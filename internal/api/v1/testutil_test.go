package v1_test

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/isoflow/internal/domain"
	"github.com/gosuda/isoflow/internal/responsibility"
	"github.com/gosuda/isoflow/internal/server/middleware"
	"github.com/gosuda/isoflow/internal/service"
	"github.com/gosuda/isoflow/internal/stats"
)

// ---------------------------------------------------------------------------
// Context helpers: inject the principal for DoCtx
// ---------------------------------------------------------------------------

func principalCtx(p *domain.Principal) context.Context {
	return middleware.WithPrincipal(context.Background(), p)
}

func userPrincipal(orgID uuid.UUID) *domain.Principal {
	return &domain.Principal{ID: uuid.New(), Role: domain.RoleUser, OrganizationID: &orgID, IsActive: true}
}

func adminPrincipal(orgID uuid.UUID) *domain.Principal {
	return &domain.Principal{ID: uuid.New(), Role: domain.RoleAccountAdmin, OrganizationID: &orgID, IsActive: true}
}

func superPrincipal() *domain.Principal {
	return &domain.Principal{ID: uuid.New(), Role: domain.RoleSuperAdmin, IsActive: true}
}

func decode[T any](t *testing.T, body io.Reader) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(body).Decode(&v))
	return v
}

// problemKind extracts the error kind carried in a problem response.
func problemKind(t *testing.T, body io.Reader) string {
	t.Helper()
	var problem struct {
		Detail string `json:"detail"`
		Errors []struct {
			Location string `json:"location"`
			Value    string `json:"value"`
		} `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(body).Decode(&problem))
	for _, e := range problem.Errors {
		if e.Location == "kind" {
			return e.Value
		}
	}
	return ""
}

// ---------------------------------------------------------------------------
// Mock TaskService
// ---------------------------------------------------------------------------

type mockTaskService struct {
	createFunc          func(ctx context.Context, p *domain.Principal, org *uuid.UUID, tmpl domain.TaskTemplate) (*domain.Task, error)
	getFunc             func(ctx context.Context, p *domain.Principal, id uuid.UUID) (*domain.Task, error)
	listFunc            func(ctx context.Context, p *domain.Principal, org *uuid.UUID, raw map[string]string) ([]*domain.Task, error)
	updateFunc          func(ctx context.Context, p *domain.Principal, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error)
	deleteFunc          func(ctx context.Context, p *domain.Principal, id uuid.UUID) error
	createRecurringFunc func(ctx context.Context, p *domain.Principal, org *uuid.UUID, tmpl domain.TaskTemplate, rule domain.RecurrenceRule) (*service.RecurringResult, error)
	statsFunc           func(ctx context.Context, p *domain.Principal, org *uuid.UUID) (stats.TaskStats, error)
	calendarFunc        func(ctx context.Context, p *domain.Principal, q service.CalendarQuery) ([]domain.CalendarEvent, error)
}

func (m *mockTaskService) Create(ctx context.Context, p *domain.Principal, org *uuid.UUID, tmpl domain.TaskTemplate) (*domain.Task, error) {
	return m.createFunc(ctx, p, org, tmpl)
}

func (m *mockTaskService) Get(ctx context.Context, p *domain.Principal, id uuid.UUID) (*domain.Task, error) {
	return m.getFunc(ctx, p, id)
}

func (m *mockTaskService) List(ctx context.Context, p *domain.Principal, org *uuid.UUID, raw map[string]string) ([]*domain.Task, error) {
	return m.listFunc(ctx, p, org, raw)
}

func (m *mockTaskService) Update(ctx context.Context, p *domain.Principal, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error) {
	return m.updateFunc(ctx, p, id, patch)
}

func (m *mockTaskService) Delete(ctx context.Context, p *domain.Principal, id uuid.UUID) error {
	return m.deleteFunc(ctx, p, id)
}

func (m *mockTaskService) CreateRecurring(ctx context.Context, p *domain.Principal, org *uuid.UUID, tmpl domain.TaskTemplate, rule domain.RecurrenceRule) (*service.RecurringResult, error) {
	return m.createRecurringFunc(ctx, p, org, tmpl, rule)
}

func (m *mockTaskService) Stats(ctx context.Context, p *domain.Principal, org *uuid.UUID) (stats.TaskStats, error) {
	return m.statsFunc(ctx, p, org)
}

func (m *mockTaskService) Calendar(ctx context.Context, p *domain.Principal, q service.CalendarQuery) ([]domain.CalendarEvent, error) {
	return m.calendarFunc(ctx, p, q)
}

// ---------------------------------------------------------------------------
// Mock EventService
// ---------------------------------------------------------------------------

type mockEventService struct {
	createFunc func(ctx context.Context, p *domain.Principal, org *uuid.UUID, d domain.EventDraft) (*domain.Event, error)
	getFunc    func(ctx context.Context, p *domain.Principal, id uuid.UUID) (*domain.Event, error)
	listFunc   func(ctx context.Context, p *domain.Principal, org *uuid.UUID, raw map[string]string) ([]*domain.Event, error)
	updateFunc func(ctx context.Context, p *domain.Principal, id uuid.UUID, patch domain.EventPatch) (*domain.Event, error)
	deleteFunc func(ctx context.Context, p *domain.Principal, id uuid.UUID) error
	statsFunc  func(ctx context.Context, p *domain.Principal, org *uuid.UUID) (stats.EventStats, error)
}

func (m *mockEventService) Create(ctx context.Context, p *domain.Principal, org *uuid.UUID, d domain.EventDraft) (*domain.Event, error) {
	return m.createFunc(ctx, p, org, d)
}

func (m *mockEventService) Get(ctx context.Context, p *domain.Principal, id uuid.UUID) (*domain.Event, error) {
	return m.getFunc(ctx, p, id)
}

func (m *mockEventService) List(ctx context.Context, p *domain.Principal, org *uuid.UUID, raw map[string]string) ([]*domain.Event, error) {
	return m.listFunc(ctx, p, org, raw)
}

func (m *mockEventService) Update(ctx context.Context, p *domain.Principal, id uuid.UUID, patch domain.EventPatch) (*domain.Event, error) {
	return m.updateFunc(ctx, p, id, patch)
}

func (m *mockEventService) Delete(ctx context.Context, p *domain.Principal, id uuid.UUID) error {
	return m.deleteFunc(ctx, p, id)
}

func (m *mockEventService) Stats(ctx context.Context, p *domain.Principal, org *uuid.UUID) (stats.EventStats, error) {
	return m.statsFunc(ctx, p, org)
}

// ---------------------------------------------------------------------------
// Mock DirectoryService
// ---------------------------------------------------------------------------

type mockDirectoryService struct {
	createOrganizationFunc func(ctx context.Context, p *domain.Principal, name, slug string) (*domain.Organization, error)
	listOrganizationsFunc  func(ctx context.Context, p *domain.Principal, limit, offset int) ([]*domain.Organization, error)
	createUserFunc         func(ctx context.Context, p *domain.Principal, org *uuid.UUID, d service.UserDraft) (*domain.User, error)
	listUsersFunc          func(ctx context.Context, p *domain.Principal, org *uuid.UUID) ([]*domain.User, error)
	setUserActiveFunc      func(ctx context.Context, p *domain.Principal, id uuid.UUID, active bool) (*domain.User, error)
	createAgentFunc        func(ctx context.Context, p *domain.Principal, org *uuid.UUID, d service.AgentDraft) (*domain.AIAgent, error)
	listAgentsFunc         func(ctx context.Context, p *domain.Principal, org *uuid.UUID) ([]*domain.AIAgent, error)
	setAgentActiveFunc     func(ctx context.Context, p *domain.Principal, id uuid.UUID, active bool) (*domain.AIAgent, error)
	auditLogFunc           func(ctx context.Context, p *domain.Principal, org *uuid.UUID, f domain.AuditFilter) ([]*domain.AuditEntry, error)
}

func (m *mockDirectoryService) CreateOrganization(ctx context.Context, p *domain.Principal, name, slug string) (*domain.Organization, error) {
	return m.createOrganizationFunc(ctx, p, name, slug)
}

func (m *mockDirectoryService) ListOrganizations(ctx context.Context, p *domain.Principal, limit, offset int) ([]*domain.Organization, error) {
	return m.listOrganizationsFunc(ctx, p, limit, offset)
}

func (m *mockDirectoryService) CreateUser(ctx context.Context, p *domain.Principal, org *uuid.UUID, d service.UserDraft) (*domain.User, error) {
	return m.createUserFunc(ctx, p, org, d)
}

func (m *mockDirectoryService) ListUsers(ctx context.Context, p *domain.Principal, org *uuid.UUID) ([]*domain.User, error) {
	return m.listUsersFunc(ctx, p, org)
}

func (m *mockDirectoryService) SetUserActive(ctx context.Context, p *domain.Principal, id uuid.UUID, active bool) (*domain.User, error) {
	return m.setUserActiveFunc(ctx, p, id, active)
}

func (m *mockDirectoryService) CreateAgent(ctx context.Context, p *domain.Principal, org *uuid.UUID, d service.AgentDraft) (*domain.AIAgent, error) {
	return m.createAgentFunc(ctx, p, org, d)
}

func (m *mockDirectoryService) ListAgents(ctx context.Context, p *domain.Principal, org *uuid.UUID) ([]*domain.AIAgent, error) {
	return m.listAgentsFunc(ctx, p, org)
}

func (m *mockDirectoryService) SetAgentActive(ctx context.Context, p *domain.Principal, id uuid.UUID, active bool) (*domain.AIAgent, error) {
	return m.setAgentActiveFunc(ctx, p, id, active)
}

func (m *mockDirectoryService) AuditLog(ctx context.Context, p *domain.Principal, org *uuid.UUID, f domain.AuditFilter) ([]*domain.AuditEntry, error) {
	return m.auditLogFunc(ctx, p, org, f)
}

// ---------------------------------------------------------------------------
// Mock ArtefactService and CatalogService
// ---------------------------------------------------------------------------

type mockArtefactService struct {
	createFunc       func(ctx context.Context, p *domain.Principal, org *uuid.UUID, d service.ArtefactDraft) (*domain.Artefact, error)
	getFunc          func(ctx context.Context, p *domain.Principal, id uuid.UUID) (*domain.Artefact, error)
	listFunc         func(ctx context.Context, p *domain.Principal, org *uuid.UUID, f domain.ArtefactFilter) ([]*domain.Artefact, error)
	updateStatusFunc func(ctx context.Context, p *domain.Principal, id uuid.UUID, status domain.ArtefactStatus) (*domain.Artefact, error)
	listClausesFunc  func(ctx context.Context, p *domain.Principal, org *uuid.UUID, std *domain.Standard) ([]*domain.Clause, error)
	mapClauseFunc    func(ctx context.Context, p *domain.Principal, artefactID, clauseID uuid.UUID) (*domain.ArtefactClauseMapping, error)
	listMappingsFunc func(ctx context.Context, p *domain.Principal, artefactID uuid.UUID) ([]*domain.ArtefactClauseMapping, error)
}

func (m *mockArtefactService) Create(ctx context.Context, p *domain.Principal, org *uuid.UUID, d service.ArtefactDraft) (*domain.Artefact, error) {
	return m.createFunc(ctx, p, org, d)
}

func (m *mockArtefactService) Get(ctx context.Context, p *domain.Principal, id uuid.UUID) (*domain.Artefact, error) {
	return m.getFunc(ctx, p, id)
}

func (m *mockArtefactService) List(ctx context.Context, p *domain.Principal, org *uuid.UUID, f domain.ArtefactFilter) ([]*domain.Artefact, error) {
	return m.listFunc(ctx, p, org, f)
}

func (m *mockArtefactService) UpdateStatus(ctx context.Context, p *domain.Principal, id uuid.UUID, status domain.ArtefactStatus) (*domain.Artefact, error) {
	return m.updateStatusFunc(ctx, p, id, status)
}

func (m *mockArtefactService) ListClauses(ctx context.Context, p *domain.Principal, org *uuid.UUID, std *domain.Standard) ([]*domain.Clause, error) {
	return m.listClausesFunc(ctx, p, org, std)
}

func (m *mockArtefactService) MapClause(ctx context.Context, p *domain.Principal, artefactID, clauseID uuid.UUID) (*domain.ArtefactClauseMapping, error) {
	return m.mapClauseFunc(ctx, p, artefactID, clauseID)
}

func (m *mockArtefactService) ListMappings(ctx context.Context, p *domain.Principal, artefactID uuid.UUID) ([]*domain.ArtefactClauseMapping, error) {
	return m.listMappingsFunc(ctx, p, artefactID)
}

type mockCatalogService struct {
	seedFunc func(ctx context.Context, p *domain.Principal, org *uuid.UUID, std *domain.Standard) ([]service.SeedResult, error)
}

func (m *mockCatalogService) Seed(ctx context.Context, p *domain.Principal, org *uuid.UUID, std *domain.Standard) ([]service.SeedResult, error) {
	return m.seedFunc(ctx, p, org, std)
}

// ---------------------------------------------------------------------------
// Mock SuggestionService
// ---------------------------------------------------------------------------

type mockSuggestionService struct {
	suggestFunc func(ctx context.Context, p *domain.Principal, artefactID uuid.UUID, threshold *float64) (*service.SuggestResult, error)
	listFunc    func(ctx context.Context, p *domain.Principal, artefactID uuid.UUID) ([]*domain.Suggestion, error)
	decideFunc  func(ctx context.Context, p *domain.Principal, id uuid.UUID, status domain.SuggestionStatus) (*domain.Suggestion, error)
}

func (m *mockSuggestionService) Suggest(ctx context.Context, p *domain.Principal, artefactID uuid.UUID, threshold *float64) (*service.SuggestResult, error) {
	return m.suggestFunc(ctx, p, artefactID, threshold)
}

func (m *mockSuggestionService) List(ctx context.Context, p *domain.Principal, artefactID uuid.UUID) ([]*domain.Suggestion, error) {
	return m.listFunc(ctx, p, artefactID)
}

func (m *mockSuggestionService) Decide(ctx context.Context, p *domain.Principal, id uuid.UUID, status domain.SuggestionStatus) (*domain.Suggestion, error) {
	return m.decideFunc(ctx, p, id, status)
}

// ---------------------------------------------------------------------------
// Mock ResponsibilityService
// ---------------------------------------------------------------------------

type mockResponsibilityService struct {
	matrixFunc   func(ctx context.Context, p *domain.Principal, org *uuid.UUID, f domain.ResponsibilityFilter) ([]domain.ResponsibilityAssignment, error)
	statsFunc    func(ctx context.Context, p *domain.Principal, org *uuid.UUID, f domain.ResponsibilityFilter) (responsibility.MatrixStats, error)
	reassignFunc func(ctx context.Context, p *domain.Principal, u domain.AssignmentUpdate) (*domain.ResponsibilityAssignment, error)
}

func (m *mockResponsibilityService) Matrix(ctx context.Context, p *domain.Principal, org *uuid.UUID, f domain.ResponsibilityFilter) ([]domain.ResponsibilityAssignment, error) {
	return m.matrixFunc(ctx, p, org, f)
}

func (m *mockResponsibilityService) Stats(ctx context.Context, p *domain.Principal, org *uuid.UUID, f domain.ResponsibilityFilter) (responsibility.MatrixStats, error) {
	return m.statsFunc(ctx, p, org, f)
}

func (m *mockResponsibilityService) Reassign(ctx context.Context, p *domain.Principal, u domain.AssignmentUpdate) (*domain.ResponsibilityAssignment, error) {
	return m.reassignFunc(ctx, p, u)
}
