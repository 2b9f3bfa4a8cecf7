package middleware

import (
	"context"

	"github.com/gosuda/isoflow/internal/domain"
)

type contextKey string

const ContextKeyPrincipal contextKey = "principal"

// WithPrincipal returns ctx carrying p.
func WithPrincipal(ctx context.Context, p *domain.Principal) context.Context {
	return context.WithValue(ctx, ContextKeyPrincipal, p)
}

// PrincipalFromContext returns the authenticated principal; ok is false
// outside an authenticated request.
func PrincipalFromContext(ctx context.Context) (*domain.Principal, bool) {
	p, ok := ctx.Value(ContextKeyPrincipal).(*domain.Principal)
	return p, ok && p != nil
}
