package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChangeEvent announces a committed mutation to live subscribers.
type ChangeEvent struct {
	Type           string         `json:"type"` // audit action, e.g. "task.updated"
	EntityType     string         `json:"entity_type"`
	EntityID       uuid.UUID      `json:"entity_id"`
	OrganizationID uuid.UUID      `json:"organization_id"`
	ActorID        uuid.UUID      `json:"actor_id"`
	At             time.Time      `json:"at"`
	Data           map[string]any `json:"data,omitempty"`
}
