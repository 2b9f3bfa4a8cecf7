package domain

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
)

type ArtefactKind string

const (
	ArtefactPolicy    ArtefactKind = "POLICY"
	ArtefactProcedure ArtefactKind = "PROCEDURE"
	ArtefactRecord    ArtefactKind = "RECORD"
	ArtefactOther     ArtefactKind = "OTHER"
)

func (k ArtefactKind) Valid() bool {
	return slices.Contains([]ArtefactKind{ArtefactPolicy, ArtefactProcedure, ArtefactRecord, ArtefactOther}, k)
}

type ArtefactStatus string

const (
	ArtefactDraft    ArtefactStatus = "DRAFT"
	ArtefactInReview ArtefactStatus = "IN_REVIEW"
	ArtefactApproved ArtefactStatus = "APPROVED"
	ArtefactArchived ArtefactStatus = "ARCHIVED"
)

// ValidArtefactStatuses is the canonical set of artefact statuses.
var ValidArtefactStatuses = []ArtefactStatus{ //nolint:gochecknoglobals // canonical enum list
	ArtefactDraft,
	ArtefactInReview,
	ArtefactApproved,
	ArtefactArchived,
}

func (s ArtefactStatus) Valid() bool {
	return slices.Contains(ValidArtefactStatuses, s)
}

// Artefact is a managed compliance document.
type Artefact struct {
	ID             uuid.UUID      `json:"id"`
	OrganizationID uuid.UUID      `json:"organization_id"`
	Title          string         `json:"title"`
	Kind           ArtefactKind   `json:"kind"`
	Status         ArtefactStatus `json:"status"`
	Content        string         `json:"content,omitempty"`
	Assignee       *Assignee      `json:"assignee,omitempty"`
	CreatedByID    uuid.UUID      `json:"created_by_id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

type ArtefactFilter struct {
	Status *ArtefactStatus
	Kind   *ArtefactKind
}

// ArtefactRepository persists artefacts. An orgID of uuid.Nil means all organizations.
// List orders by created_at descending, then id.
type ArtefactRepository interface {
	Create(ctx context.Context, a *Artefact) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*Artefact, error)
	List(ctx context.Context, orgID uuid.UUID, f ArtefactFilter) ([]*Artefact, error)
	UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status ArtefactStatus) error
	UpdateAssignee(ctx context.Context, orgID, id uuid.UUID, a Assignee) error
}

type MappingSource string

const (
	MappingManual MappingSource = "MANUAL"
	MappingAI     MappingSource = "AI"
)

// ArtefactClauseMapping records that an artefact provides evidence for a clause.
type ArtefactClauseMapping struct {
	ArtefactID uuid.UUID     `json:"artefact_id"`
	ClauseID   uuid.UUID     `json:"clause_id"`
	Source     MappingSource `json:"source"`
	Confidence *float64      `json:"confidence,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

type MappingRepository interface {
	// Create returns ErrConflict when the pair is already mapped.
	Create(ctx context.Context, m *ArtefactClauseMapping) error
	ListByArtefact(ctx context.Context, artefactID uuid.UUID) ([]*ArtefactClauseMapping, error)
}
