// Package audit writes append-only audit entries for every mutation.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/isoflow/internal/domain"
)

// Action tags.
const (
	TaskCreated          = "task.created"
	TaskUpdated          = "task.updated"
	TaskDeleted          = "task.deleted"
	TaskRecurringCreated = "task.recurring_created"

	EventCreated = "event.created"
	EventUpdated = "event.updated"
	EventDeleted = "event.deleted"

	ResponsibilityUpdated = "responsibility.updated"

	ArtefactCreated       = "artefact.created"
	ArtefactStatusChanged = "artefact.status_changed"
	ArtefactClauseMapped  = "artefact.clause_mapped"
	SuggestionDecided     = "suggestion.decided"
	ClauseSeeded          = "clause.seeded"

	OrganizationCreated = "organization.created"
	UserCreated         = "user.created"
	UserStatusChanged   = "user.status_changed"
	AgentCreated        = "ai_agent.created"
	AgentStatusChanged  = "ai_agent.status_changed"
)

// Entity types.
const (
	EntityTask         = "task"
	EntityEvent        = "event"
	EntityClause       = "clause"
	EntityArtefact     = "artefact"
	EntitySuggestion   = "suggestion"
	EntityOrganization = "organization"
	EntityUser         = "user"
	EntityAgent        = "ai_agent"
)

// EntityFor maps a responsibility entity kind to its audit entity type.
func EntityFor(k domain.EntityKind) string {
	if k == domain.EntityArtefact {
		return EntityArtefact
	}
	return EntityClause
}

// Details is the typed payload of an entry.
type Details interface {
	Fields() map[string]any
}

// Entry describes one mutation to record.
type Entry struct {
	OrganizationID uuid.UUID
	Action         string
	EntityType     string
	EntityID       uuid.UUID
	Details        Details
}

// Recorder writes entries through the audit repository of the caller's
// transaction, so a failed write aborts the mutation it describes.
type Recorder struct {
	Now func() time.Time
}

func NewRecorder() *Recorder {
	return &Recorder{Now: time.Now}
}

// Record appends e on behalf of actor. A nil actor is rejected; there is no
// fallback identity.
func (r *Recorder) Record(ctx context.Context, repo domain.AuditRepository, actor *domain.Principal, e Entry) (*domain.AuditEntry, error) {
	if actor == nil || actor.ID == uuid.Nil {
		return nil, &domain.Error{Kind: domain.KindUnauthenticated, Op: "audit.Record", Message: "audit entries require an actor"}
	}

	entry := &domain.AuditEntry{
		ID:             uuid.New(),
		OrganizationID: e.OrganizationID,
		Action:         e.Action,
		EntityType:     e.EntityType,
		EntityID:       e.EntityID,
		ActorID:        actor.ID,
		CreatedAt:      r.Now().UTC(),
	}
	if e.Details != nil {
		entry.Details = e.Details.Fields()
	}

	if err := repo.Record(ctx, entry); err != nil {
		log.Error().Err(err).
			Str("action", e.Action).
			Str("entity_id", e.EntityID.String()).
			Msg("audit.Record: failed to write entry")
		return nil, domain.Upstream("audit.Record", err)
	}
	return entry, nil
}
