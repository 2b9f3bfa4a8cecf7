package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/isoflow/internal/audit"
	"github.com/gosuda/isoflow/internal/domain"
)

func TestDirectory_Organizations(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := NewDirectory(f.deps)
	ctx := context.Background()

	_, err := svc.CreateOrganization(ctx, f.admin, "Initech", "initech")
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	_, err = svc.CreateOrganization(ctx, f.super, "Initech", "Not A Slug")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	org, err := svc.CreateOrganization(ctx, f.super, "Initech", "initech")
	require.NoError(t, err)
	assert.Equal(t, "initech", org.Slug)

	_, err = svc.CreateOrganization(ctx, f.super, "Initech again", "initech")
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	all, err := svc.ListOrganizations(ctx, f.super, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	own, err := svc.ListOrganizations(ctx, f.user, 0, 0)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, f.orgA, own[0].ID)
}

func TestDirectory_CreateUser(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		actor    func(f *fixture) *domain.Principal
		org      func(f *fixture) *uuid.UUID
		draft    UserDraft
		wantKind domain.ErrorKind
	}{
		{
			name:  "admin adds user to own org",
			actor: func(f *fixture) *domain.Principal { return f.admin },
			draft: UserDraft{Email: " New@Acme.test ", Name: "New", Role: domain.RoleUser},
		},
		{
			name:     "plain user cannot add users",
			actor:    func(f *fixture) *domain.Principal { return f.user },
			draft:    UserDraft{Email: "x@acme.test", Role: domain.RoleUser},
			wantKind: domain.KindForbidden,
		},
		{
			name:     "admin cannot create super admin",
			actor:    func(f *fixture) *domain.Principal { return f.admin },
			draft:    UserDraft{Email: "boss@acme.test", Role: domain.RoleSuperAdmin},
			wantKind: domain.KindForbidden,
		},
		{
			name:     "admin cannot target another org",
			actor:    func(f *fixture) *domain.Principal { return f.admin },
			org:      func(f *fixture) *uuid.UUID { return &f.orgB },
			draft:    UserDraft{Email: "x@globex.test", Role: domain.RoleUser},
			wantKind: domain.KindOrganizationMismatch,
		},
		{
			name:     "duplicate email",
			actor:    func(f *fixture) *domain.Principal { return f.admin },
			draft:    UserDraft{Email: "user@acme.test", Role: domain.RoleUser},
			wantKind: domain.KindConflict,
		},
		{
			name:     "invalid email",
			actor:    func(f *fixture) *domain.Principal { return f.admin },
			draft:    UserDraft{Email: "nobody", Role: domain.RoleUser},
			wantKind: domain.KindValidation,
		},
		{
			name:     "super admin into unknown org",
			actor:    func(f *fixture) *domain.Principal { return f.super },
			org:      func(*fixture) *uuid.UUID { id := uuid.New(); return &id },
			draft:    UserDraft{Email: "x@nowhere.test", Role: domain.RoleUser},
			wantKind: domain.KindNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			var org *uuid.UUID
			if tt.org != nil {
				org = tt.org(f)
			}
			u, err := NewDirectory(f.deps).CreateUser(context.Background(), tt.actor(f), org, tt.draft)
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, domain.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "new@acme.test", u.Email)
			assert.True(t, u.IsActive)
			require.NotNil(t, u.OrganizationID)
			assert.Equal(t, f.orgA, *u.OrganizationID)
			assert.Equal(t, []string{audit.UserCreated}, f.auditActions(t))
		})
	}
}

func TestDirectory_SetUserActive(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := NewDirectory(f.deps)
	ctx := context.Background()

	_, err := svc.SetUserActive(ctx, f.admin, f.admin.ID, false)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	_, err = svc.SetUserActive(ctx, f.admin, f.outsider.ID, false)
	assert.Equal(t, domain.KindOrganizationMismatch, domain.KindOf(err))

	_, err = svc.SetUserActive(ctx, f.admin, f.super.ID, false)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	u, err := svc.SetUserActive(ctx, f.admin, f.user.ID, false)
	require.NoError(t, err)
	assert.False(t, u.IsActive)

	again, err := svc.SetUserActive(ctx, f.admin, f.user.ID, false)
	require.NoError(t, err)
	assert.False(t, again.IsActive)

	entries, err := svc.AuditLog(ctx, f.admin, nil, domain.AuditFilter{EntityType: audit.EntityUser})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "inactive", entries[0].Details["to"])
}

func TestDirectory_Agents(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := NewDirectory(f.deps)
	ctx := context.Background()

	_, err := svc.CreateAgent(ctx, f.admin, nil, AgentDraft{Name: "Sorter", Type: "ROBOT"})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = svc.CreateAgent(ctx, f.user, nil, AgentDraft{Name: "Sorter", Type: domain.AIAgentClassifier})
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	a, err := svc.CreateAgent(ctx, f.admin, nil, AgentDraft{Name: "Sorter", Type: domain.AIAgentClassifier})
	require.NoError(t, err)
	assert.True(t, a.IsActive)

	off, err := svc.SetAgentActive(ctx, f.admin, a.ID, false)
	require.NoError(t, err)
	assert.False(t, off.IsActive)

	agents, err := svc.ListAgents(ctx, f.user, nil)
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.False(t, agents[0].IsActive)

	none, err := svc.ListAgents(ctx, f.outsider, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDirectory_AuditLogScope(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	tasks := NewTasks(f.deps, 0)
	svc := NewDirectory(f.deps)
	ctx := context.Background()

	for range 3 {
		_, err := tasks.Create(ctx, f.user, nil, domain.TaskTemplate{Title: "x", Priority: 3})
		require.NoError(t, err)
	}
	_, err := tasks.Create(ctx, f.outsider, nil, domain.TaskTemplate{Title: "y", Priority: 3})
	require.NoError(t, err)

	mine, err := svc.AuditLog(ctx, f.user, nil, domain.AuditFilter{})
	require.NoError(t, err)
	assert.Len(t, mine, 3)

	paged, err := svc.AuditLog(ctx, f.user, nil, domain.AuditFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, paged, 1)

	all, err := svc.AuditLog(ctx, f.super, nil, domain.AuditFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	_, err = svc.AuditLog(ctx, f.user, &f.orgB, domain.AuditFilter{})
	assert.Equal(t, domain.KindOrganizationMismatch, domain.KindOf(err))
}
