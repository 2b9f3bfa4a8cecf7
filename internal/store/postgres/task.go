package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/isoflow/internal/domain"
)

type TaskRepo struct {
	db dbtx
}

const taskColumns = `id, organization_id, title, description, due_date, priority, status,
	assignee_id, artefact_id, created_by_id, created_at, updated_at, completed_at`

func (r *TaskRepo) Create(ctx context.Context, t *domain.Task) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		t.ID, t.OrganizationID, t.Title, t.Description, t.DueDate, t.Priority, t.Status,
		t.AssigneeID, t.ArtefactID, t.CreatedByID, t.CreatedAt, t.UpdatedAt, t.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("taskRepo.Create: %w", err)
	}

	return nil
}

func (r *TaskRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Task, error) {
	w := where{}
	w.add("id = ?", id)
	w.org("organization_id", orgID)

	t, err := scanTask(r.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks`+w.String(), w.args...))
	if err != nil {
		return nil, notFound("taskRepo.GetByID", err)
	}
	return t, nil
}

func (r *TaskRepo) List(ctx context.Context, orgID uuid.UUID, f domain.TaskFilter) ([]*domain.Task, error) {
	w := taskWhere(orgID, f)

	rows, err := r.db.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks`+w.String()+
			` ORDER BY due_date ASC NULLS LAST, created_at, id`,
		w.args...)
	if err != nil {
		return nil, fmt.Errorf("taskRepo.List: %w", err)
	}
	defer rows.Close()

	return collect(rows, "taskRepo.List", scanTask)
}

// taskWhere mirrors domain.TaskFilter.Matches.
func taskWhere(orgID uuid.UUID, f domain.TaskFilter) *where {
	w := &where{}
	w.org("organization_id", orgID)
	if f.Status != nil {
		w.add("status = ?", *f.Status)
	}
	if f.Priority != nil {
		w.add("priority = ?", *f.Priority)
	}
	if f.AssigneeID != nil {
		w.add("assignee_id = ?", *f.AssigneeID)
	}
	if f.ArtefactID != nil {
		w.add("artefact_id = ?", *f.ArtefactID)
	}
	if f.StartDate != nil {
		w.add("due_date >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		w.add("due_date <= ?", *f.EndDate)
	}
	return w
}

func (r *TaskRepo) Update(ctx context.Context, t *domain.Task) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE tasks SET title = $1, description = $2, due_date = $3, priority = $4, status = $5,
		        assignee_id = $6, artefact_id = $7, updated_at = $8, completed_at = $9
		 WHERE organization_id = $10 AND id = $11`,
		t.Title, t.Description, t.DueDate, t.Priority, t.Status,
		t.AssigneeID, t.ArtefactID, t.UpdatedAt, t.CompletedAt,
		t.OrganizationID, t.ID,
	)
	return affected("taskRepo.Update", tag, err)
}

func (r *TaskRepo) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	w := where{}
	w.add("id = ?", id)
	w.org("organization_id", orgID)

	tag, err := r.db.Exec(ctx, `DELETE FROM tasks`+w.String(), w.args...)
	return affected("taskRepo.Delete", tag, err)
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	err := row.Scan(
		&t.ID, &t.OrganizationID, &t.Title, &t.Description, &t.DueDate, &t.Priority, &t.Status,
		&t.AssigneeID, &t.ArtefactID, &t.CreatedByID, &t.CreatedAt, &t.UpdatedAt, &t.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
