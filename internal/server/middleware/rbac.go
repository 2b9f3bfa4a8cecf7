package middleware

import (
	"net/http"

	"github.com/gosuda/isoflow/internal/authz"
	"github.com/gosuda/isoflow/internal/domain"
)

// RequireRole rejects principals outside roles before the handler runs.
// It must be chained after Auth. An empty roles list only requires an
// authenticated, active principal that belongs to an organization (or is a
// SUPER_ADMIN).
//
// Returns 401 without a principal and 403 for a role or organization failure.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, _ := PrincipalFromContext(r.Context())
			if err := authz.Authorize(p, roles, nil); err != nil {
				writeProblem(w, StatusForKind(domain.KindOf(err)), domain.MessageOf(err))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin admits ACCOUNT_ADMIN and SUPER_ADMIN.
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole(authz.AdminRoles...)
}

// StatusForKind maps an error kind to its HTTP status.
func StatusForKind(k domain.ErrorKind) int {
	switch k {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindForbidden, domain.KindOrganizationMismatch, domain.KindNoOrganization:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
