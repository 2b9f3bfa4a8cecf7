package domain

import (
	"slices"

	"github.com/google/uuid"
)

type Role string

const (
	RoleSuperAdmin   Role = "SUPER_ADMIN"
	RoleAccountAdmin Role = "ACCOUNT_ADMIN"
	RoleUser         Role = "USER"
)

// ValidRoles is the canonical set of known roles.
var ValidRoles = []Role{RoleSuperAdmin, RoleAccountAdmin, RoleUser} //nolint:gochecknoglobals // canonical enum list

func (r Role) Valid() bool {
	return slices.Contains(ValidRoles, r)
}

// Principal is the authenticated actor of a request.
// OrganizationID is nil only for SUPER_ADMIN.
type Principal struct {
	ID             uuid.UUID  `json:"id"`
	Role           Role       `json:"role"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	IsActive       bool       `json:"is_active"`
}

func (p *Principal) IsSuperAdmin() bool {
	return p != nil && p.Role == RoleSuperAdmin
}

// OrgID returns the principal's organization or uuid.Nil.
func (p *Principal) OrgID() uuid.UUID {
	if p == nil || p.OrganizationID == nil {
		return uuid.Nil
	}
	return *p.OrganizationID
}
