package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/isoflow/internal/domain"
)

type SuggestionRepo struct {
	db dbtx
}

const suggestionColumns = `id, organization_id, artefact_id, clause_id, label, confidence, rationale, status, created_at`

func (r *SuggestionRepo) Create(ctx context.Context, s *domain.Suggestion) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO suggestions (`+suggestionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.OrganizationID, s.ArtefactID, s.ClauseID, s.Label, s.Confidence, s.Rationale, s.Status, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("suggestionRepo.Create: %w", err)
	}

	return nil
}

func (r *SuggestionRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Suggestion, error) {
	w := where{}
	w.add("id = ?", id)
	w.org("organization_id", orgID)

	s, err := scanSuggestion(r.db.QueryRow(ctx, `SELECT `+suggestionColumns+` FROM suggestions`+w.String(), w.args...))
	if err != nil {
		return nil, notFound("suggestionRepo.GetByID", err)
	}
	return s, nil
}

func (r *SuggestionRepo) ListByArtefact(ctx context.Context, orgID, artefactID uuid.UUID) ([]*domain.Suggestion, error) {
	w := where{}
	w.add("artefact_id = ?", artefactID)
	w.org("organization_id", orgID)

	rows, err := r.db.Query(ctx,
		`SELECT `+suggestionColumns+` FROM suggestions`+w.String()+` ORDER BY confidence DESC, created_at, id`,
		w.args...)
	if err != nil {
		return nil, fmt.Errorf("suggestionRepo.ListByArtefact: %w", err)
	}
	defer rows.Close()

	return collect(rows, "suggestionRepo.ListByArtefact", scanSuggestion)
}

func (r *SuggestionRepo) UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status domain.SuggestionStatus) error {
	w := where{}
	w.arg(status)
	w.add("id = ?", id)
	w.org("organization_id", orgID)

	tag, err := r.db.Exec(ctx, `UPDATE suggestions SET status = $1`+w.String(), w.args...)
	return affected("suggestionRepo.UpdateStatus", tag, err)
}

func scanSuggestion(row pgx.Row) (*domain.Suggestion, error) {
	var s domain.Suggestion
	err := row.Scan(&s.ID, &s.OrganizationID, &s.ArtefactID, &s.ClauseID, &s.Label, &s.Confidence, &s.Rationale, &s.Status, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
