package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/gosuda/isoflow/internal/audit"
	"github.com/gosuda/isoflow/internal/authz"
	"github.com/gosuda/isoflow/internal/domain"
)

// Artefacts manages compliance documents, the clause list they map to, and
// manual artefact to clause mappings.
type Artefacts struct {
	core
}

func NewArtefacts(d Deps) *Artefacts {
	return &Artefacts{core: newCore(d)}
}

type ArtefactDraft struct {
	Title   string              `json:"title"`
	Kind    domain.ArtefactKind `json:"kind"`
	Content string              `json:"content,omitempty"`
}

func (d ArtefactDraft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return domain.Validationf("artefact.title", "title is required")
	}
	if !d.Kind.Valid() {
		return domain.Validationf("artefact.kind", "unknown artefact kind %q", d.Kind)
	}
	return nil
}

// Create stores a DRAFT artefact in the target organization.
func (s *Artefacts) Create(ctx context.Context, p *domain.Principal, org *uuid.UUID, d ArtefactDraft) (*domain.Artefact, error) {
	orgID, err := authz.TargetOrg(p, authz.AnyRole, org)
	if err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	now := s.clock()
	a := &domain.Artefact{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Title:          strings.TrimSpace(d.Title),
		Kind:           d.Kind,
		Status:         domain.ArtefactDraft,
		Content:        d.Content,
		CreatedByID:    p.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err = s.mutate(ctx, "artefactService.Create", p, audit.Entry{
		OrganizationID: orgID,
		Action:         audit.ArtefactCreated,
		EntityType:     audit.EntityArtefact,
		EntityID:       a.ID,
		Details:        audit.Payload{"title": a.Title, "kind": string(a.Kind)},
	}, func(ctx context.Context, tx domain.Repositories) error {
		return tx.Artefacts().Create(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Artefacts) Get(ctx context.Context, p *domain.Principal, id uuid.UUID) (*domain.Artefact, error) {
	if err := authz.Authorize(p, authz.AnyRole, nil); err != nil {
		return nil, err
	}
	a, err := s.store.Artefacts().GetByID(ctx, uuid.Nil, id)
	if err != nil {
		return nil, lookup("artefactService.Get", "artefact", id, err)
	}
	if err := authz.AuthorizeOrg(p, authz.AnyRole, a.OrganizationID); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Artefacts) List(ctx context.Context, p *domain.Principal, org *uuid.UUID, f domain.ArtefactFilter) ([]*domain.Artefact, error) {
	orgID, err := authz.Scope(p, org)
	if err != nil {
		return nil, err
	}
	if f.Status != nil && !f.Status.Valid() {
		f.Status = nil
	}
	if f.Kind != nil && !f.Kind.Valid() {
		f.Kind = nil
	}
	out, err := s.store.Artefacts().List(ctx, orgID, f)
	if err != nil {
		return nil, domain.Upstream("artefactService.List", err)
	}
	return out, nil
}

// UpdateStatus moves an artefact through its lifecycle. Approving or
// archiving requires ACCOUNT_ADMIN or SUPER_ADMIN.
func (s *Artefacts) UpdateStatus(ctx context.Context, p *domain.Principal, id uuid.UUID, status domain.ArtefactStatus) (*domain.Artefact, error) {
	roles := authz.AnyRole
	if status == domain.ArtefactApproved || status == domain.ArtefactArchived {
		roles = authz.AdminRoles
	}
	if err := authz.Authorize(p, roles, nil); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, domain.Validationf("artefact.status", "unknown artefact status %q", status)
	}
	a, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if a.Status == status {
		return a, nil
	}

	from := a.Status
	err = s.mutate(ctx, "artefactService.UpdateStatus", p, audit.Entry{
		OrganizationID: a.OrganizationID,
		Action:         audit.ArtefactStatusChanged,
		EntityType:     audit.EntityArtefact,
		EntityID:       a.ID,
		Details:        audit.StatusChange{From: string(from), To: string(status)},
	}, func(ctx context.Context, tx domain.Repositories) error {
		return tx.Artefacts().UpdateStatus(ctx, a.OrganizationID, a.ID, status)
	})
	if err != nil {
		return nil, err
	}
	a.Status = status
	a.UpdatedAt = s.clock()
	return a, nil
}

// ListClauses returns the organization's clauses, optionally narrowed to one standard.
func (s *Artefacts) ListClauses(ctx context.Context, p *domain.Principal, org *uuid.UUID, std *domain.Standard) ([]*domain.Clause, error) {
	orgID, err := authz.Scope(p, org)
	if err != nil {
		return nil, err
	}
	if std != nil && !std.Valid() {
		return nil, domain.Validationf("clause.standard", "unknown standard %q", *std)
	}
	out, err := s.store.Clauses().List(ctx, orgID, domain.ClauseFilter{Standard: std})
	if err != nil {
		return nil, domain.Upstream("artefactService.ListClauses", err)
	}
	return out, nil
}

// MapClause links an artefact to a clause of the same organization.
func (s *Artefacts) MapClause(ctx context.Context, p *domain.Principal, artefactID, clauseID uuid.UUID) (*domain.ArtefactClauseMapping, error) {
	a, err := s.Get(ctx, p, artefactID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Clauses().GetByID(ctx, a.OrganizationID, clauseID); err != nil {
		return nil, lookup("artefactService.MapClause", "clause", clauseID, err)
	}

	m := &domain.ArtefactClauseMapping{
		ArtefactID: a.ID,
		ClauseID:   clauseID,
		Source:     domain.MappingManual,
		CreatedAt:  s.clock(),
	}
	if err := s.mutate(ctx, "artefactService.MapClause", p, mappingEntry(a, m), func(ctx context.Context, tx domain.Repositories) error {
		return tx.Mappings().Create(ctx, m)
	}); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Artefacts) ListMappings(ctx context.Context, p *domain.Principal, artefactID uuid.UUID) ([]*domain.ArtefactClauseMapping, error) {
	a, err := s.Get(ctx, p, artefactID)
	if err != nil {
		return nil, err
	}
	out, err := s.store.Mappings().ListByArtefact(ctx, a.ID)
	if err != nil {
		return nil, domain.Upstream("artefactService.ListMappings", err)
	}
	return out, nil
}

func mappingEntry(a *domain.Artefact, m *domain.ArtefactClauseMapping) audit.Entry {
	return audit.Entry{
		OrganizationID: a.OrganizationID,
		Action:         audit.ArtefactClauseMapped,
		EntityType:     audit.EntityArtefact,
		EntityID:       a.ID,
		Details:        audit.Mapping{ClauseID: m.ClauseID, Source: m.Source, Confidence: m.Confidence},
	}
}
