package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/isoflow/internal/domain"
)

type EventRepo struct {
	db dbtx
}

const eventColumns = `id, organization_id, type, title, description, severity, status,
	reported_by_id, scheduled_for, metadata, created_at, updated_at`

func (r *EventRepo) Create(ctx context.Context, e *domain.Event) error {
	metadata, err := marshalObject(e.Metadata)
	if err != nil {
		return fmt.Errorf("eventRepo.Create: marshal metadata: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		e.ID, e.OrganizationID, e.Type, e.Title, e.Description, e.Severity, e.Status,
		e.ReportedByID, e.ScheduledFor, metadata, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("eventRepo.Create: %w", err)
	}

	return nil
}

func (r *EventRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Event, error) {
	w := where{}
	w.add("id = ?", id)
	w.org("organization_id", orgID)

	e, err := scanEvent(r.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events`+w.String(), w.args...))
	if err != nil {
		return nil, notFound("eventRepo.GetByID", err)
	}
	return e, nil
}

func (r *EventRepo) List(ctx context.Context, orgID uuid.UUID, f domain.EventFilter) ([]*domain.Event, error) {
	w := where{}
	w.org("organization_id", orgID)
	if f.Type != nil {
		w.add("type = ?", *f.Type)
	}
	if f.Status != nil {
		w.add("status = ?", *f.Status)
	}
	if f.ReportedByID != nil {
		w.add("reported_by_id = ?", *f.ReportedByID)
	}
	if f.StartDate != nil {
		w.add("created_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		w.add("created_at <= ?", *f.EndDate)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+` FROM events`+w.String()+` ORDER BY created_at DESC, id`,
		w.args...)
	if err != nil {
		return nil, fmt.Errorf("eventRepo.List: %w", err)
	}
	defer rows.Close()

	return collect(rows, "eventRepo.List", scanEvent)
}

func (r *EventRepo) Update(ctx context.Context, e *domain.Event) error {
	metadata, err := marshalObject(e.Metadata)
	if err != nil {
		return fmt.Errorf("eventRepo.Update: marshal metadata: %w", err)
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE events SET title = $1, description = $2, severity = $3, status = $4,
		        scheduled_for = $5, metadata = $6, updated_at = $7
		 WHERE organization_id = $8 AND id = $9`,
		e.Title, e.Description, e.Severity, e.Status,
		e.ScheduledFor, metadata, e.UpdatedAt,
		e.OrganizationID, e.ID,
	)
	return affected("eventRepo.Update", tag, err)
}

func (r *EventRepo) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	w := where{}
	w.add("id = ?", id)
	w.org("organization_id", orgID)

	tag, err := r.db.Exec(ctx, `DELETE FROM events`+w.String(), w.args...)
	return affected("eventRepo.Delete", tag, err)
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var (
		e        domain.Event
		metadata []byte
	)
	err := row.Scan(
		&e.ID, &e.OrganizationID, &e.Type, &e.Title, &e.Description, &e.Severity, &e.Status,
		&e.ReportedByID, &e.ScheduledFor, &metadata, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if e.Metadata, err = unmarshalObject(metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return &e, nil
}

// marshalObject encodes a JSONB object column; nil becomes {}.
func marshalObject(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// unmarshalObject decodes a JSONB object column; {} becomes nil.
func unmarshalObject(data []byte) (map[string]any, error) {
	var m map[string]any
	if len(data) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, nil
	}
	return m, nil
}
