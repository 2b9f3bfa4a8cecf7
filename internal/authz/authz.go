// Package authz decides whether a principal may act on a resource of an
// organization. Every function is pure and performs no I/O.
package authz

import (
	"slices"

	"github.com/google/uuid"

	"github.com/gosuda/isoflow/internal/domain"
)

// Role sets used by the operations.
var (
	AnyRole    = []domain.Role{}                                            //nolint:gochecknoglobals // role set
	AdminRoles = []domain.Role{domain.RoleSuperAdmin, domain.RoleAccountAdmin} //nolint:gochecknoglobals // role set
	SuperOnly  = []domain.Role{domain.RoleSuperAdmin}                       //nolint:gochecknoglobals // role set
)

// Authorize returns nil when p may act on a resource owned by resourceOrg
// with one of required. An empty required set accepts any role. A nil
// resourceOrg skips the organization comparison but not the membership check.
//
// Checks run in order: authentication, role, organization membership,
// organization match. SUPER_ADMIN is exempt from the last two.
func Authorize(p *domain.Principal, required []domain.Role, resourceOrg *uuid.UUID) error {
	if p == nil || p.ID == uuid.Nil {
		return &domain.Error{Kind: domain.KindUnauthenticated, Op: "authz", Message: "authentication required"}
	}
	if !p.IsActive {
		return &domain.Error{Kind: domain.KindUnauthenticated, Op: "authz", Message: "principal is inactive"}
	}
	if len(required) > 0 && !slices.Contains(required, p.Role) {
		return &domain.Error{Kind: domain.KindForbidden, Op: "authz", Message: "insufficient permissions"}
	}
	if p.Role == domain.RoleSuperAdmin {
		return nil
	}
	if p.OrganizationID == nil || *p.OrganizationID == uuid.Nil {
		return &domain.Error{Kind: domain.KindNoOrganization, Op: "authz", Message: "principal has no organization"}
	}
	if resourceOrg != nil && *resourceOrg != *p.OrganizationID {
		return &domain.Error{Kind: domain.KindOrganizationMismatch, Op: "authz", Message: "resource belongs to another organization"}
	}
	return nil
}

// AuthorizeOrg is Authorize for a concrete organization id.
func AuthorizeOrg(p *domain.Principal, required []domain.Role, orgID uuid.UUID) error {
	return Authorize(p, required, &orgID)
}

// Scope returns the organization filter for reads by p: the requested
// organization for SUPER_ADMIN (uuid.Nil meaning all), otherwise the
// principal's own organization. A non-super principal requesting another
// organization is rejected.
func Scope(p *domain.Principal, requested *uuid.UUID) (uuid.UUID, error) {
	if err := Authorize(p, AnyRole, requested); err != nil {
		return uuid.Nil, err
	}
	if p.IsSuperAdmin() {
		if requested == nil {
			return uuid.Nil, nil
		}
		return *requested, nil
	}
	return *p.OrganizationID, nil
}

// TargetOrg resolves the owning organization of a new resource. SUPER_ADMIN
// must name one explicitly; everyone else writes into their own.
func TargetOrg(p *domain.Principal, required []domain.Role, requested *uuid.UUID) (uuid.UUID, error) {
	if err := Authorize(p, required, requested); err != nil {
		return uuid.Nil, err
	}
	if p.IsSuperAdmin() {
		if requested == nil || *requested == uuid.Nil {
			return uuid.Nil, domain.Validationf("authz", "organization_id is required for SUPER_ADMIN writes")
		}
		return *requested, nil
	}
	return *p.OrganizationID, nil
}
