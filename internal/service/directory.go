package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/gosuda/isoflow/internal/audit"
	"github.com/gosuda/isoflow/internal/authz"
	"github.com/gosuda/isoflow/internal/domain"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`) //nolint:gochecknoglobals // compiled once

// MaxAuditPage bounds a single audit log page.
const MaxAuditPage = 200

// Directory administers organizations, users, AI agents and the audit log.
type Directory struct {
	core
}

func NewDirectory(d Deps) *Directory {
	return &Directory{core: newCore(d)}
}

// CreateOrganization is restricted to SUPER_ADMIN.
func (s *Directory) CreateOrganization(ctx context.Context, p *domain.Principal, name, slug string) (*domain.Organization, error) {
	if err := authz.Authorize(p, authz.SuperOnly, nil); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Validationf("organization.name", "name is required")
	}
	if !slugPattern.MatchString(slug) {
		return nil, domain.Validationf("organization.slug", "slug must be lowercase letters, digits and dashes, got %q", slug)
	}

	now := s.clock()
	org := &domain.Organization{ID: uuid.New(), Name: name, Slug: slug, CreatedAt: now, UpdatedAt: now}
	err := s.mutate(ctx, "directory.CreateOrganization", p, audit.Entry{
		OrganizationID: org.ID,
		Action:         audit.OrganizationCreated,
		EntityType:     audit.EntityOrganization,
		EntityID:       org.ID,
		Details:        audit.Payload{"name": name, "slug": slug},
	}, func(ctx context.Context, tx domain.Repositories) error {
		return tx.Organizations().Create(ctx, org)
	})
	if err != nil {
		return nil, err
	}
	return org, nil
}

// ListOrganizations pages through all organizations for SUPER_ADMIN and
// returns the caller's own organization otherwise.
func (s *Directory) ListOrganizations(ctx context.Context, p *domain.Principal, limit, offset int) ([]*domain.Organization, error) {
	if err := authz.Authorize(p, authz.AnyRole, nil); err != nil {
		return nil, err
	}
	if !p.IsSuperAdmin() {
		org, err := s.store.Organizations().GetByID(ctx, p.OrgID())
		if err != nil {
			return nil, lookup("directory.ListOrganizations", "organization", p.OrgID(), err)
		}
		return []*domain.Organization{org}, nil
	}
	limit, offset = clampPage(limit, offset, 50)
	orgs, err := s.store.Organizations().ListPaginated(ctx, limit, offset)
	if err != nil {
		return nil, domain.Upstream("directory.ListOrganizations", err)
	}
	return orgs, nil
}

type UserDraft struct {
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  domain.Role `json:"role"`
}

// CreateUser adds an active user. ACCOUNT_ADMIN may create USER and
// ACCOUNT_ADMIN accounts in their own organization; only SUPER_ADMIN may
// create SUPER_ADMIN accounts, which belong to no organization.
func (s *Directory) CreateUser(ctx context.Context, p *domain.Principal, org *uuid.UUID, d UserDraft) (*domain.User, error) {
	if err := authz.Authorize(p, authz.AdminRoles, nil); err != nil {
		return nil, err
	}
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	if !strings.Contains(d.Email, "@") {
		return nil, domain.Validationf("user.email", "a valid email is required")
	}
	if !d.Role.Valid() {
		return nil, domain.Validationf("user.role", "unknown role %q", d.Role)
	}

	var orgRef *uuid.UUID
	target := uuid.Nil
	if d.Role == domain.RoleSuperAdmin {
		if !p.IsSuperAdmin() {
			return nil, domain.Forbiddenf("directory.CreateUser", "only SUPER_ADMIN may create SUPER_ADMIN accounts")
		}
	} else {
		orgID, err := authz.TargetOrg(p, authz.AdminRoles, org)
		if err != nil {
			return nil, err
		}
		if _, err := s.store.Organizations().GetByID(ctx, orgID); err != nil {
			return nil, lookup("directory.CreateUser", "organization", orgID, err)
		}
		target, orgRef = orgID, &orgID
	}

	now := s.clock()
	u := &domain.User{
		ID:             uuid.New(),
		OrganizationID: orgRef,
		Email:          d.Email,
		Name:           strings.TrimSpace(d.Name),
		Role:           d.Role,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err := s.mutate(ctx, "directory.CreateUser", p, audit.Entry{
		OrganizationID: target,
		Action:         audit.UserCreated,
		EntityType:     audit.EntityUser,
		EntityID:       u.ID,
		Details:        audit.Payload{"email": u.Email, "role": string(u.Role)},
	}, func(ctx context.Context, tx domain.Repositories) error {
		return tx.Users().Create(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Directory) ListUsers(ctx context.Context, p *domain.Principal, org *uuid.UUID) ([]*domain.User, error) {
	orgID, err := authz.Scope(p, org)
	if err != nil {
		return nil, err
	}
	users, err := s.store.Users().List(ctx, orgID)
	if err != nil {
		return nil, domain.Upstream("directory.ListUsers", err)
	}
	return users, nil
}

// SetUserActive activates or deactivates a user. Principals cannot change
// their own status.
func (s *Directory) SetUserActive(ctx context.Context, p *domain.Principal, id uuid.UUID, active bool) (*domain.User, error) {
	if err := authz.Authorize(p, authz.AdminRoles, nil); err != nil {
		return nil, err
	}
	if id == p.ID {
		return nil, domain.Conflictf("directory.SetUserActive", "cannot change your own status")
	}
	u, err := s.store.Users().GetByID(ctx, uuid.Nil, id)
	if err != nil {
		return nil, lookup("directory.SetUserActive", "user", id, err)
	}
	if err := authz.Authorize(p, authz.AdminRoles, u.OrganizationID); err != nil {
		return nil, err
	}
	if u.OrganizationID == nil && !p.IsSuperAdmin() {
		return nil, domain.Forbiddenf("directory.SetUserActive", "only SUPER_ADMIN may manage SUPER_ADMIN accounts")
	}
	if u.IsActive == active {
		return u, nil
	}

	err = s.mutate(ctx, "directory.SetUserActive", p, audit.Entry{
		OrganizationID: derefOrg(u.OrganizationID),
		Action:         audit.UserStatusChanged,
		EntityType:     audit.EntityUser,
		EntityID:       u.ID,
		Details:        audit.StatusChange{From: activeLabel(u.IsActive), To: activeLabel(active)},
	}, func(ctx context.Context, tx domain.Repositories) error {
		return tx.Users().SetActive(ctx, uuid.Nil, u.ID, active)
	})
	if err != nil {
		return nil, err
	}
	u.IsActive = active
	u.UpdatedAt = s.clock()
	return u, nil
}

type AgentDraft struct {
	Name string             `json:"name"`
	Type domain.AIAgentType `json:"type"`
}

func (s *Directory) CreateAgent(ctx context.Context, p *domain.Principal, org *uuid.UUID, d AgentDraft) (*domain.AIAgent, error) {
	orgID, err := authz.TargetOrg(p, authz.AdminRoles, org)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(d.Name) == "" {
		return nil, domain.Validationf("ai_agent.name", "name is required")
	}
	if !d.Type.Valid() {
		return nil, domain.Validationf("ai_agent.type", "unknown agent type %q", d.Type)
	}

	a := &domain.AIAgent{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Name:           strings.TrimSpace(d.Name),
		Type:           d.Type,
		IsActive:       true,
		CreatedAt:      s.clock(),
	}
	err = s.mutate(ctx, "directory.CreateAgent", p, audit.Entry{
		OrganizationID: orgID,
		Action:         audit.AgentCreated,
		EntityType:     audit.EntityAgent,
		EntityID:       a.ID,
		Details:        audit.Payload{"name": a.Name, "type": string(a.Type)},
	}, func(ctx context.Context, tx domain.Repositories) error {
		return tx.Agents().Create(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Directory) ListAgents(ctx context.Context, p *domain.Principal, org *uuid.UUID) ([]*domain.AIAgent, error) {
	orgID, err := authz.Scope(p, org)
	if err != nil {
		return nil, err
	}
	agents, err := s.store.Agents().List(ctx, orgID)
	if err != nil {
		return nil, domain.Upstream("directory.ListAgents", err)
	}
	return agents, nil
}

func (s *Directory) SetAgentActive(ctx context.Context, p *domain.Principal, id uuid.UUID, active bool) (*domain.AIAgent, error) {
	if err := authz.Authorize(p, authz.AdminRoles, nil); err != nil {
		return nil, err
	}
	a, err := s.store.Agents().GetByID(ctx, uuid.Nil, id)
	if err != nil {
		return nil, lookup("directory.SetAgentActive", "ai agent", id, err)
	}
	if err := authz.AuthorizeOrg(p, authz.AdminRoles, a.OrganizationID); err != nil {
		return nil, err
	}
	if a.IsActive == active {
		return a, nil
	}

	err = s.mutate(ctx, "directory.SetAgentActive", p, audit.Entry{
		OrganizationID: a.OrganizationID,
		Action:         audit.AgentStatusChanged,
		EntityType:     audit.EntityAgent,
		EntityID:       a.ID,
		Details:        audit.StatusChange{From: activeLabel(a.IsActive), To: activeLabel(active)},
	}, func(ctx context.Context, tx domain.Repositories) error {
		return tx.Agents().SetActive(ctx, a.OrganizationID, a.ID, active)
	})
	if err != nil {
		return nil, err
	}
	a.IsActive = active
	return a, nil
}

// AuditLog pages through the audit entries visible to p, newest first.
func (s *Directory) AuditLog(ctx context.Context, p *domain.Principal, org *uuid.UUID, f domain.AuditFilter) ([]*domain.AuditEntry, error) {
	orgID, err := authz.Scope(p, org)
	if err != nil {
		return nil, err
	}
	f.Limit, f.Offset = clampPage(f.Limit, f.Offset, 50)
	entries, err := s.store.Audit().List(ctx, orgID, f)
	if err != nil {
		return nil, domain.Upstream("directory.AuditLog", err)
	}
	return entries, nil
}

func clampPage(limit, offset, def int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	if limit > MaxAuditPage {
		limit = MaxAuditPage
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func derefOrg(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}

func activeLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}
