package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/isoflow/internal/domain"
)

type OrganizationRepo struct {
	db dbtx
}

const orgColumns = `id, name, slug, created_at, updated_at`

func (r *OrganizationRepo) Create(ctx context.Context, o *domain.Organization) error {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO organizations (`+orgColumns+`)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT DO NOTHING`,
		o.ID, o.Name, o.Slug, o.CreatedAt, o.UpdatedAt,
	)
	return inserted("organizationRepo.Create", tag, err)
}

func (r *OrganizationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Organization, error) {
	o, err := scanOrganization(r.db.QueryRow(ctx,
		`SELECT `+orgColumns+` FROM organizations WHERE id = $1`, id))
	if err != nil {
		return nil, notFound("organizationRepo.GetByID", err)
	}
	return o, nil
}

func (r *OrganizationRepo) GetBySlug(ctx context.Context, slug string) (*domain.Organization, error) {
	o, err := scanOrganization(r.db.QueryRow(ctx,
		`SELECT `+orgColumns+` FROM organizations WHERE slug = $1`, slug))
	if err != nil {
		return nil, notFound("organizationRepo.GetBySlug", err)
	}
	return o, nil
}

// ListPaginated treats a limit of zero as no limit.
func (r *OrganizationRepo) ListPaginated(ctx context.Context, limit, offset int) ([]*domain.Organization, error) {
	var w where
	sql := `SELECT ` + orgColumns + ` FROM organizations ORDER BY created_at, id` + pageClause(&w, limit, offset)

	rows, err := r.db.Query(ctx, sql, w.args...)
	if err != nil {
		return nil, fmt.Errorf("organizationRepo.ListPaginated: %w", err)
	}
	defer rows.Close()

	return collect(rows, "organizationRepo.ListPaginated", scanOrganization)
}

func scanOrganization(row pgx.Row) (*domain.Organization, error) {
	var o domain.Organization
	if err := row.Scan(&o.ID, &o.Name, &o.Slug, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}
