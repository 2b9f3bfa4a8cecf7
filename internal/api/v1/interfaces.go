package v1

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/isoflow/internal/domain"
	"github.com/gosuda/isoflow/internal/responsibility"
	"github.com/gosuda/isoflow/internal/service"
	"github.com/gosuda/isoflow/internal/stats"
)

// TaskService abstracts task operations for handler testing.
// *service.Tasks satisfies this interface.
type TaskService interface {
	Create(ctx context.Context, p *domain.Principal, org *uuid.UUID, tmpl domain.TaskTemplate) (*domain.Task, error)
	Get(ctx context.Context, p *domain.Principal, id uuid.UUID) (*domain.Task, error)
	List(ctx context.Context, p *domain.Principal, org *uuid.UUID, raw map[string]string) ([]*domain.Task, error)
	Update(ctx context.Context, p *domain.Principal, id uuid.UUID, patch domain.TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, p *domain.Principal, id uuid.UUID) error
	CreateRecurring(ctx context.Context, p *domain.Principal, org *uuid.UUID, tmpl domain.TaskTemplate, rule domain.RecurrenceRule) (*service.RecurringResult, error)
	Stats(ctx context.Context, p *domain.Principal, org *uuid.UUID) (stats.TaskStats, error)
	Calendar(ctx context.Context, p *domain.Principal, q service.CalendarQuery) ([]domain.CalendarEvent, error)
}

// EventService abstracts event operations for handler testing.
// *service.Events satisfies this interface.
type EventService interface {
	Create(ctx context.Context, p *domain.Principal, org *uuid.UUID, d domain.EventDraft) (*domain.Event, error)
	Get(ctx context.Context, p *domain.Principal, id uuid.UUID) (*domain.Event, error)
	List(ctx context.Context, p *domain.Principal, org *uuid.UUID, raw map[string]string) ([]*domain.Event, error)
	Update(ctx context.Context, p *domain.Principal, id uuid.UUID, patch domain.EventPatch) (*domain.Event, error)
	Delete(ctx context.Context, p *domain.Principal, id uuid.UUID) error
	Stats(ctx context.Context, p *domain.Principal, org *uuid.UUID) (stats.EventStats, error)
}

// DirectoryService abstracts organization, user, agent and audit operations.
// *service.Directory satisfies this interface.
type DirectoryService interface {
	CreateOrganization(ctx context.Context, p *domain.Principal, name, slug string) (*domain.Organization, error)
	ListOrganizations(ctx context.Context, p *domain.Principal, limit, offset int) ([]*domain.Organization, error)
	CreateUser(ctx context.Context, p *domain.Principal, org *uuid.UUID, d service.UserDraft) (*domain.User, error)
	ListUsers(ctx context.Context, p *domain.Principal, org *uuid.UUID) ([]*domain.User, error)
	SetUserActive(ctx context.Context, p *domain.Principal, id uuid.UUID, active bool) (*domain.User, error)
	CreateAgent(ctx context.Context, p *domain.Principal, org *uuid.UUID, d service.AgentDraft) (*domain.AIAgent, error)
	ListAgents(ctx context.Context, p *domain.Principal, org *uuid.UUID) ([]*domain.AIAgent, error)
	SetAgentActive(ctx context.Context, p *domain.Principal, id uuid.UUID, active bool) (*domain.AIAgent, error)
	AuditLog(ctx context.Context, p *domain.Principal, org *uuid.UUID, f domain.AuditFilter) ([]*domain.AuditEntry, error)
}

// ArtefactService abstracts artefact, clause and mapping operations.
// *service.Artefacts satisfies this interface.
type ArtefactService interface {
	Create(ctx context.Context, p *domain.Principal, org *uuid.UUID, d service.ArtefactDraft) (*domain.Artefact, error)
	Get(ctx context.Context, p *domain.Principal, id uuid.UUID) (*domain.Artefact, error)
	List(ctx context.Context, p *domain.Principal, org *uuid.UUID, f domain.ArtefactFilter) ([]*domain.Artefact, error)
	UpdateStatus(ctx context.Context, p *domain.Principal, id uuid.UUID, status domain.ArtefactStatus) (*domain.Artefact, error)
	ListClauses(ctx context.Context, p *domain.Principal, org *uuid.UUID, std *domain.Standard) ([]*domain.Clause, error)
	MapClause(ctx context.Context, p *domain.Principal, artefactID, clauseID uuid.UUID) (*domain.ArtefactClauseMapping, error)
	ListMappings(ctx context.Context, p *domain.Principal, artefactID uuid.UUID) ([]*domain.ArtefactClauseMapping, error)
}

// SuggestionService abstracts the clause suggestion workflow.
// *service.Suggestions satisfies this interface.
type SuggestionService interface {
	Suggest(ctx context.Context, p *domain.Principal, artefactID uuid.UUID, threshold *float64) (*service.SuggestResult, error)
	List(ctx context.Context, p *domain.Principal, artefactID uuid.UUID) ([]*domain.Suggestion, error)
	Decide(ctx context.Context, p *domain.Principal, id uuid.UUID, status domain.SuggestionStatus) (*domain.Suggestion, error)
}

// CatalogService seeds built-in clauses. *service.Catalog satisfies this interface.
type CatalogService interface {
	Seed(ctx context.Context, p *domain.Principal, org *uuid.UUID, std *domain.Standard) ([]service.SeedResult, error)
}

// ResponsibilityService abstracts the responsibility matrix.
// *service.Responsibility satisfies this interface.
type ResponsibilityService interface {
	Matrix(ctx context.Context, p *domain.Principal, org *uuid.UUID, f domain.ResponsibilityFilter) ([]domain.ResponsibilityAssignment, error)
	Stats(ctx context.Context, p *domain.Principal, org *uuid.UUID, f domain.ResponsibilityFilter) (responsibility.MatrixStats, error)
	Reassign(ctx context.Context, p *domain.Principal, u domain.AssignmentUpdate) (*domain.ResponsibilityAssignment, error)
}

// Services bundles the operations mounted under /api/v1.
type Services struct {
	Tasks          TaskService
	Events         EventService
	Directory      DirectoryService
	Artefacts      ArtefactService
	Suggestions    SuggestionService
	Catalog        CatalogService
	Responsibility ResponsibilityService
}

// RegisterRoutes mounts every operation on api.
func RegisterRoutes(api huma.API, svc Services) {
	RegisterTaskRoutes(api, svc.Tasks)
	RegisterEventRoutes(api, svc.Events)
	RegisterDirectoryRoutes(api, svc.Directory)
	RegisterArtefactRoutes(api, svc.Artefacts, svc.Catalog)
	RegisterSuggestionRoutes(api, svc.Suggestions)
	RegisterResponsibilityRoutes(api, svc.Responsibility)
}
