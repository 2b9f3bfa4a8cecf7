package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/isoflow/internal/auth"
	"github.com/gosuda/isoflow/internal/domain"
	"github.com/gosuda/isoflow/internal/server/middleware"
)

const testSecret = "middleware-test-secret-0123456789abcdef"

type mockUsers struct {
	getByIDFunc func(ctx context.Context, orgID, id uuid.UUID) (*domain.User, error)
}

func (m *mockUsers) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.User, error) {
	return m.getByIDFunc(ctx, orgID, id)
}

// principalHandler records the principal the middleware chain produced.
type principalHandler struct {
	principal *domain.Principal
	called    bool
}

func (h *principalHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.principal, _ = middleware.PrincipalFromContext(r.Context())
	w.WriteHeader(http.StatusOK)
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { //nolint:gochecknoglobals // shared test handler
	w.WriteHeader(http.StatusOK)
})

func withPrincipal(r *http.Request, p *domain.Principal) *http.Request {
	return r.WithContext(middleware.WithPrincipal(r.Context(), p))
}

func member(role domain.Role) *domain.Principal {
	org := uuid.New()
	return &domain.Principal{ID: uuid.New(), Role: role, OrganizationID: &org, IsActive: true}
}

func TestPrincipalFromContext(t *testing.T) {
	t.Parallel()

	_, ok := middleware.PrincipalFromContext(context.Background())
	assert.False(t, ok)

	ctx := context.WithValue(context.Background(), middleware.ContextKeyPrincipal, "not-a-principal")
	_, ok = middleware.PrincipalFromContext(ctx)
	assert.False(t, ok)

	p := member(domain.RoleUser)
	got, ok := middleware.PrincipalFromContext(middleware.WithPrincipal(context.Background(), p))
	require.True(t, ok)
	assert.Same(t, p, got)
}

func TestAuth(t *testing.T) {
	t.Parallel()

	org := uuid.New()
	active := &domain.User{ID: uuid.New(), OrganizationID: &org, Role: domain.RoleAccountAdmin, IsActive: true}
	inactive := &domain.User{ID: uuid.New(), OrganizationID: &org, Role: domain.RoleUser}
	users := &mockUsers{getByIDFunc: func(_ context.Context, orgID, id uuid.UUID) (*domain.User, error) {
		assert.Equal(t, uuid.Nil, orgID)
		switch id {
		case active.ID:
			return active, nil
		case inactive.ID:
			return inactive, nil
		}
		return nil, domain.ErrNotFound
	}}

	token := func(u *domain.User) string {
		tok, err := auth.IssueToken(testSecret, u, time.Minute)
		require.NoError(t, err)
		return tok
	}
	ghost := &domain.User{ID: uuid.New(), Role: domain.RoleUser}

	tests := []struct {
		name       string
		header     string
		query      string
		allowQuery bool
		wantStatus int
		wantUser   uuid.UUID
	}{
		{name: "valid bearer", header: "Bearer " + token(active), wantStatus: http.StatusOK, wantUser: active.ID},
		{name: "lowercase scheme", header: "bearer " + token(active), wantStatus: http.StatusOK, wantUser: active.ID},
		{name: "missing header", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "inactive user", header: "Bearer " + token(inactive), wantStatus: http.StatusUnauthorized},
		{name: "unknown user", header: "Bearer " + token(ghost), wantStatus: http.StatusUnauthorized},
		{name: "query token allowed", query: token(active), allowQuery: true, wantStatus: http.StatusOK, wantUser: active.ID},
		{name: "query token ignored", query: token(active), wantStatus: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := &principalHandler{}
			target := "/"
			if tt.query != "" {
				target += "?access_token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			middleware.Auth(testSecret, users, tt.allowQuery)(h).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				assert.False(t, h.called)
				assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
				return
			}
			require.NotNil(t, h.principal)
			assert.Equal(t, tt.wantUser, h.principal.ID)
			assert.Equal(t, domain.RoleAccountAdmin, h.principal.Role)
		})
	}
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	orphan := &domain.Principal{ID: uuid.New(), Role: domain.RoleUser, IsActive: true}
	super := &domain.Principal{ID: uuid.New(), Role: domain.RoleSuperAdmin, IsActive: true}

	tests := []struct {
		name       string
		gate       func(http.Handler) http.Handler
		principal  *domain.Principal
		wantStatus int
	}{
		{name: "no principal", gate: middleware.RequireRole(), wantStatus: http.StatusUnauthorized},
		{name: "any role", gate: middleware.RequireRole(), principal: member(domain.RoleUser), wantStatus: http.StatusOK},
		{name: "user without organization", gate: middleware.RequireRole(), principal: orphan, wantStatus: http.StatusForbidden},
		{name: "admin gate blocks user", gate: middleware.RequireAdmin(), principal: member(domain.RoleUser), wantStatus: http.StatusForbidden},
		{name: "admin gate admits account admin", gate: middleware.RequireAdmin(), principal: member(domain.RoleAccountAdmin), wantStatus: http.StatusOK},
		{name: "super only", gate: middleware.RequireRole(domain.RoleSuperAdmin), principal: super, wantStatus: http.StatusOK},
		{name: "super only blocks admin", gate: middleware.RequireRole(domain.RoleSuperAdmin), principal: member(domain.RoleAccountAdmin), wantStatus: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			if tt.principal != nil {
				req = withPrincipal(req, tt.principal)
			}
			rec := httptest.NewRecorder()

			tt.gate(okHandler).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				var body map[string]any
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.InDelta(t, float64(tt.wantStatus), body["status"], 0)
			}
		})
	}
}

func TestStatusForKind(t *testing.T) {
	t.Parallel()

	tests := map[domain.ErrorKind]int{
		domain.KindValidation:           http.StatusBadRequest,
		domain.KindUnauthenticated:      http.StatusUnauthorized,
		domain.KindForbidden:            http.StatusForbidden,
		domain.KindOrganizationMismatch: http.StatusForbidden,
		domain.KindNoOrganization:       http.StatusForbidden,
		domain.KindNotFound:             http.StatusNotFound,
		domain.KindConflict:             http.StatusConflict,
		domain.KindUpstream:             http.StatusBadGateway,
		domain.ErrorKind("other"):       http.StatusInternalServerError,
	}
	for kind, want := range tests {
		assert.Equal(t, want, middleware.StatusForKind(kind), kind)
	}
}

func TestRateLimit_PerOrganization(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	handler := middleware.RateLimit(ctx, 0.001, 2)(okHandler)

	a, b := member(domain.RoleUser), member(domain.RoleUser)
	send := func(p *domain.Principal) int {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, withPrincipal(httptest.NewRequest(http.MethodGet, "/", http.NoBody), p))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send(a))
	assert.Equal(t, http.StatusOK, send(a))
	assert.Equal(t, http.StatusTooManyRequests, send(a))
	assert.Equal(t, http.StatusOK, send(b), "another organization has its own bucket")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	assert.Equal(t, http.StatusOK, rec.Code, "unauthenticated requests are not limited here")
}

func TestRateLimitByIP(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	handler := middleware.RateLimitByIP(ctx, 0.001, 1)(okHandler)

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1234"))
}
