package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/isoflow/internal/domain"
)

type AgentRepo struct {
	db dbtx
}

const agentColumns = `id, organization_id, name, type, is_active, created_at`

func (r *AgentRepo) Create(ctx context.Context, a *domain.AIAgent) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO ai_agents (`+agentColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.OrganizationID, a.Name, a.Type, a.IsActive, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("agentRepo.Create: %w", err)
	}

	return nil
}

func (r *AgentRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.AIAgent, error) {
	w := where{}
	w.add("id = ?", id)
	w.org("organization_id", orgID)

	a, err := scanAgent(r.db.QueryRow(ctx, `SELECT `+agentColumns+` FROM ai_agents`+w.String(), w.args...))
	if err != nil {
		return nil, notFound("agentRepo.GetByID", err)
	}
	return a, nil
}

func (r *AgentRepo) List(ctx context.Context, orgID uuid.UUID) ([]*domain.AIAgent, error) {
	w := where{}
	w.org("organization_id", orgID)

	rows, err := r.db.Query(ctx, `SELECT `+agentColumns+` FROM ai_agents`+w.String()+` ORDER BY name, id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("agentRepo.List: %w", err)
	}
	defer rows.Close()

	return collect(rows, "agentRepo.List", scanAgent)
}

func (r *AgentRepo) SetActive(ctx context.Context, orgID, id uuid.UUID, active bool) error {
	w := where{}
	w.arg(active)
	w.add("id = ?", id)
	w.org("organization_id", orgID)

	tag, err := r.db.Exec(ctx, `UPDATE ai_agents SET is_active = $1`+w.String(), w.args...)
	return affected("agentRepo.SetActive", tag, err)
}

func scanAgent(row pgx.Row) (*domain.AIAgent, error) {
	var a domain.AIAgent
	if err := row.Scan(&a.ID, &a.OrganizationID, &a.Name, &a.Type, &a.IsActive, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
