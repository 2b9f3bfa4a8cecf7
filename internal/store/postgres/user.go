package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/isoflow/internal/domain"
)

type UserRepo struct {
	db dbtx
}

const userColumns = `id, organization_id, email, name, role, is_active, created_at, updated_at`

// Create reports domain.ErrConflict when the email is taken, ignoring case.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT DO NOTHING`,
		u.ID, u.OrganizationID, u.Email, u.Name, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt,
	)
	return inserted("userRepo.Create", tag, err)
}

func (r *UserRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.User, error) {
	w := where{}
	w.add("id = ?", id)
	w.org("organization_id", orgID)

	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users`+w.String(), w.args...))
	if err != nil {
		return nil, notFound("userRepo.GetByID", err)
	}
	return u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if err != nil {
		return nil, notFound("userRepo.GetByEmail", err)
	}
	return u, nil
}

func (r *UserRepo) List(ctx context.Context, orgID uuid.UUID) ([]*domain.User, error) {
	w := where{}
	w.org("organization_id", orgID)

	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users`+w.String()+` ORDER BY email`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("userRepo.List: %w", err)
	}
	defer rows.Close()

	return collect(rows, "userRepo.List", scanUser)
}

func (r *UserRepo) SetActive(ctx context.Context, orgID, id uuid.UUID, active bool) error {
	w := where{}
	w.arg(active)
	w.add("id = ?", id)
	w.org("organization_id", orgID)

	tag, err := r.db.Exec(ctx, `UPDATE users SET is_active = $1, updated_at = now()`+w.String(), w.args...)
	return affected("userRepo.SetActive", tag, err)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.OrganizationID, &u.Email, &u.Name, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
