package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/isoflow/internal/domain"
)

type ArtefactRepo struct {
	db dbtx
}

const artefactColumns = `id, organization_id, title, kind, status, content,
	assignee_type, assignee_user_id, assignee_agent_id, created_by_id, created_at, updated_at`

func (r *ArtefactRepo) Create(ctx context.Context, a *domain.Artefact) error {
	typ, userID, agentID := assigneeArgs(a.Assignee)
	_, err := r.db.Exec(ctx,
		`INSERT INTO artefacts (`+artefactColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		a.ID, a.OrganizationID, a.Title, a.Kind, a.Status, a.Content,
		typ, userID, agentID, a.CreatedByID, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("artefactRepo.Create: %w", err)
	}

	return nil
}

func (r *ArtefactRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Artefact, error) {
	w := where{}
	w.add("id = ?", id)
	w.org("organization_id", orgID)

	a, err := scanArtefact(r.db.QueryRow(ctx, `SELECT `+artefactColumns+` FROM artefacts`+w.String(), w.args...))
	if err != nil {
		return nil, notFound("artefactRepo.GetByID", err)
	}
	return a, nil
}

func (r *ArtefactRepo) List(ctx context.Context, orgID uuid.UUID, f domain.ArtefactFilter) ([]*domain.Artefact, error) {
	w := where{}
	w.org("organization_id", orgID)
	if f.Status != nil {
		w.add("status = ?", *f.Status)
	}
	if f.Kind != nil {
		w.add("kind = ?", *f.Kind)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+artefactColumns+` FROM artefacts`+w.String()+` ORDER BY created_at DESC, id`,
		w.args...)
	if err != nil {
		return nil, fmt.Errorf("artefactRepo.List: %w", err)
	}
	defer rows.Close()

	return collect(rows, "artefactRepo.List", scanArtefact)
}

func (r *ArtefactRepo) UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status domain.ArtefactStatus) error {
	w := where{}
	w.arg(status)
	w.add("id = ?", id)
	w.org("organization_id", orgID)

	tag, err := r.db.Exec(ctx, `UPDATE artefacts SET status = $1, updated_at = now()`+w.String(), w.args...)
	return affected("artefactRepo.UpdateStatus", tag, err)
}

func (r *ArtefactRepo) UpdateAssignee(ctx context.Context, orgID, id uuid.UUID, a domain.Assignee) error {
	typ, userID, agentID := assigneeArgs(&a)
	w := where{}
	w.arg(typ)
	w.arg(userID)
	w.arg(agentID)
	w.add("id = ?", id)
	w.org("organization_id", orgID)

	tag, err := r.db.Exec(ctx,
		`UPDATE artefacts SET assignee_type = $1, assignee_user_id = $2, assignee_agent_id = $3, updated_at = now()`+w.String(),
		w.args...)
	return affected("artefactRepo.UpdateAssignee", tag, err)
}

func scanArtefact(row pgx.Row) (*domain.Artefact, error) {
	var (
		a  domain.Artefact
		as assigneeCols
	)
	dest := append([]any{&a.ID, &a.OrganizationID, &a.Title, &a.Kind, &a.Status, &a.Content}, as.targets()...)
	dest = append(dest, &a.CreatedByID, &a.CreatedAt, &a.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	a.Assignee = as.assignee()
	return &a, nil
}

type MappingRepo struct {
	db dbtx
}

func (r *MappingRepo) Create(ctx context.Context, m *domain.ArtefactClauseMapping) error {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO artefact_clause_mappings (artefact_id, clause_id, source, confidence, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (artefact_id, clause_id) DO NOTHING`,
		m.ArtefactID, m.ClauseID, m.Source, m.Confidence, m.CreatedAt,
	)
	return inserted("mappingRepo.Create", tag, err)
}

func (r *MappingRepo) ListByArtefact(ctx context.Context, artefactID uuid.UUID) ([]*domain.ArtefactClauseMapping, error) {
	rows, err := r.db.Query(ctx,
		`SELECT artefact_id, clause_id, source, confidence, created_at
		 FROM artefact_clause_mappings WHERE artefact_id = $1
		 ORDER BY created_at, clause_id`,
		artefactID,
	)
	if err != nil {
		return nil, fmt.Errorf("mappingRepo.ListByArtefact: %w", err)
	}
	defer rows.Close()

	return collect(rows, "mappingRepo.ListByArtefact", func(row pgx.Row) (*domain.ArtefactClauseMapping, error) {
		var m domain.ArtefactClauseMapping
		if err := row.Scan(&m.ArtefactID, &m.ClauseID, &m.Source, &m.Confidence, &m.CreatedAt); err != nil {
			return nil, err
		}
		return &m, nil
	})
}
