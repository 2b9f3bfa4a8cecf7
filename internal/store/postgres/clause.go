package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/isoflow/internal/domain"
)

type ClauseRepo struct {
	db dbtx
}

const clauseColumns = `id, organization_id, standard, clause_number, title,
	assignee_type, assignee_user_id, assignee_agent_id, created_at, updated_at`

// Create reports domain.ErrConflict when the organization already holds the
// same standard and clause number.
func (r *ClauseRepo) Create(ctx context.Context, c *domain.Clause) error {
	typ, userID, agentID := assigneeArgs(c.Assignee)
	tag, err := r.db.Exec(ctx,
		`INSERT INTO clauses (`+clauseColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT DO NOTHING`,
		c.ID, c.OrganizationID, c.Standard, c.ClauseNumber, c.Title,
		typ, userID, agentID, c.CreatedAt, c.UpdatedAt,
	)
	return inserted("clauseRepo.Create", tag, err)
}

func (r *ClauseRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Clause, error) {
	w := where{}
	w.add("id = ?", id)
	w.org("organization_id", orgID)

	c, err := scanClause(r.db.QueryRow(ctx, `SELECT `+clauseColumns+` FROM clauses`+w.String(), w.args...))
	if err != nil {
		return nil, notFound("clauseRepo.GetByID", err)
	}
	return c, nil
}

func (r *ClauseRepo) List(ctx context.Context, orgID uuid.UUID, f domain.ClauseFilter) ([]*domain.Clause, error) {
	w := where{}
	w.org("organization_id", orgID)
	if f.Standard != nil {
		w.add("standard = ?", *f.Standard)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+clauseColumns+` FROM clauses`+w.String()+` ORDER BY standard, clause_number COLLATE "C", id`,
		w.args...)
	if err != nil {
		return nil, fmt.Errorf("clauseRepo.List: %w", err)
	}
	defer rows.Close()

	return collect(rows, "clauseRepo.List", scanClause)
}

func (r *ClauseRepo) UpdateAssignee(ctx context.Context, orgID, id uuid.UUID, a domain.Assignee) error {
	typ, userID, agentID := assigneeArgs(&a)
	w := where{}
	w.arg(typ)
	w.arg(userID)
	w.arg(agentID)
	w.add("id = ?", id)
	w.org("organization_id", orgID)

	tag, err := r.db.Exec(ctx,
		`UPDATE clauses SET assignee_type = $1, assignee_user_id = $2, assignee_agent_id = $3, updated_at = now()`+w.String(),
		w.args...)
	return affected("clauseRepo.UpdateAssignee", tag, err)
}

func scanClause(row pgx.Row) (*domain.Clause, error) {
	var (
		c  domain.Clause
		as assigneeCols
	)
	dest := append([]any{&c.ID, &c.OrganizationID, &c.Standard, &c.ClauseNumber, &c.Title}, as.targets()...)
	dest = append(dest, &c.CreatedAt, &c.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	c.Assignee = as.assignee()
	return &c, nil
}
