package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gosuda/isoflow/internal/domain"
)

type AuditRepo struct {
	db dbtx
}

const auditColumns = `id, organization_id, action, entity_type, entity_id, actor_id, details, created_at`

func (r *AuditRepo) Record(ctx context.Context, entry *domain.AuditEntry) error {
	details, err := marshalObject(entry.Details)
	if err != nil {
		return fmt.Errorf("auditRepo.Record: marshal details: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO audit_log (`+auditColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.OrganizationID, entry.Action, entry.EntityType, entry.EntityID,
		entry.ActorID, details, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("auditRepo.Record: %w", err)
	}

	return nil
}

// List returns entries newest first, later insertions first on equal timestamps.
func (r *AuditRepo) List(ctx context.Context, orgID uuid.UUID, f domain.AuditFilter) ([]*domain.AuditEntry, error) {
	w := where{}
	w.org("organization_id", orgID)
	if f.EntityType != "" {
		w.add("entity_type = ?", f.EntityType)
	}
	if f.EntityID != nil {
		w.add("entity_id = ?", *f.EntityID)
	}
	sql := `SELECT ` + auditColumns + ` FROM audit_log` + w.String() + ` ORDER BY created_at DESC, seq DESC`
	sql += pageClause(&w, f.Limit, f.Offset)

	rows, err := r.db.Query(ctx, sql, w.args...)
	if err != nil {
		return nil, fmt.Errorf("auditRepo.List: %w", err)
	}
	defer rows.Close()

	return collect(rows, "auditRepo.List", scanAuditEntry)
}

func scanAuditEntry(row pgx.Row) (*domain.AuditEntry, error) {
	var (
		e       domain.AuditEntry
		details []byte
	)
	err := row.Scan(&e.ID, &e.OrganizationID, &e.Action, &e.EntityType, &e.EntityID, &e.ActorID, &details, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if e.Details, err = unmarshalObject(details); err != nil {
		return nil, fmt.Errorf("unmarshal details: %w", err)
	}
	return &e, nil
}
