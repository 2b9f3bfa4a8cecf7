package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/isoflow/internal/domain"
	"github.com/gosuda/isoflow/internal/server/middleware"
)

// OrgQuery selects the organization of a request. Only SUPER_ADMIN may name
// one other than their own; empty means the caller's organization (or all
// organizations for SUPER_ADMIN reads).
type OrgQuery struct {
	OrganizationID string `query:"organization_id" doc:"Organization ID (SUPER_ADMIN only)"`
}

func (q OrgQuery) org() (*uuid.UUID, error) {
	return optionalID("organization_id", q.OrganizationID)
}

func optionalID(name, v string) (*uuid.UUID, error) {
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, huma.Error400BadRequest("invalid " + name)
	}
	return &id, nil
}

// principal returns the authenticated caller set by middleware.Auth.
func principal(ctx context.Context) (*domain.Principal, error) {
	p, ok := middleware.PrincipalFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("missing principal")
	}
	return p, nil
}

// toHTTP maps a typed error to a problem response carrying its kind.
// Upstream and unknown failures are logged; their message stays generic.
func toHTTP(op string, err error) error {
	kind := domain.KindOf(err)
	status := middleware.StatusForKind(kind)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("op", op).Msg("api: operation failed")
	}
	return huma.NewError(status, domain.MessageOf(err), &huma.ErrorDetail{Location: "kind", Value: kind})
}
