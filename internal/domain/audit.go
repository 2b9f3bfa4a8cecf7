package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditEntry is an append-only record of one mutation.
type AuditEntry struct {
	ID             uuid.UUID      `json:"id"`
	OrganizationID uuid.UUID      `json:"organization_id"`
	Action         string         `json:"action"`      // e.g. "task.created"
	EntityType     string         `json:"entity_type"` // "task", "event", "clause", "artefact", ...
	EntityID       uuid.UUID      `json:"entity_id"`
	ActorID        uuid.UUID      `json:"actor_id"`
	Details        map[string]any `json:"details,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

type AuditFilter struct {
	EntityType string
	EntityID   *uuid.UUID
	Limit      int
	Offset     int
}

// AuditRepository is append-only; entries are never updated or deleted.
type AuditRepository interface {
	Record(ctx context.Context, entry *AuditEntry) error
	List(ctx context.Context, orgID uuid.UUID, f AuditFilter) ([]*AuditEntry, error)
}
