package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/isoflow/internal/domain"
)

// TaskSnapshot records the caller-visible fields of a created task.
type TaskSnapshot struct {
	Title    string
	Priority int
	Status   domain.TaskStatus
	DueDate  *time.Time
}

func (d TaskSnapshot) Fields() map[string]any {
	m := map[string]any{
		"title":    d.Title,
		"priority": d.Priority,
		"status":   string(d.Status),
	}
	if d.DueDate != nil {
		m["due_date"] = d.DueDate.UTC().Format(time.RFC3339)
	}
	return m
}

// Changes lists the fields touched by an update.
type Changes struct {
	Names []string
}

func (d Changes) Fields() map[string]any {
	return map[string]any{"changed": d.Names}
}

// Occurrence places one recurring instance within its series.
type Occurrence struct {
	Series    uuid.UUID
	Index     int
	Of        int
	Frequency domain.Frequency
	Interval  int
	Title     string
}

func (d Occurrence) Fields() map[string]any {
	return map[string]any{
		"series_id":  d.Series.String(),
		"occurrence": d.Index,
		"of":         d.Of,
		"frequency":  string(d.Frequency),
		"interval":   d.Interval,
		"title":      d.Title,
	}
}

// Reassignment records the previous and new owner of a clause or artefact.
type Reassignment struct {
	EntityKind domain.EntityKind
	Previous   *domain.Assignee
	Next       domain.Assignee
}

func (d Reassignment) Fields() map[string]any {
	m := map[string]any{
		"entity_kind":   string(d.EntityKind),
		"assignee_type": string(d.Next.Type),
		"assignee_id":   d.Next.ID().String(),
	}
	if d.Previous != nil {
		m["previous_assignee_type"] = string(d.Previous.Type)
		m["previous_assignee_id"] = d.Previous.ID().String()
	}
	return m
}

// StatusChange records a lifecycle transition.
type StatusChange struct {
	From string
	To   string
}

func (d StatusChange) Fields() map[string]any {
	return map[string]any{"from": d.From, "to": d.To}
}

// Mapping records an artefact to clause link.
type Mapping struct {
	ClauseID   uuid.UUID
	Source     domain.MappingSource
	Confidence *float64
}

func (d Mapping) Fields() map[string]any {
	m := map[string]any{
		"clause_id": d.ClauseID.String(),
		"source":    string(d.Source),
	}
	if d.Confidence != nil {
		m["confidence"] = *d.Confidence
	}
	return m
}

// Seed records a catalog import.
type Seed struct {
	Standard domain.Standard
	Inserted int
	Skipped  int
}

func (d Seed) Fields() map[string]any {
	return map[string]any{
		"standard": string(d.Standard),
		"inserted": d.Inserted,
		"skipped":  d.Skipped,
	}
}

// Payload is a free-form detail bag for values with no fixed shape.
type Payload map[string]any

func (d Payload) Fields() map[string]any { return d }
