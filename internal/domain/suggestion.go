package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultConfidenceThreshold is the minimum confidence for auto-applying a suggestion.
const DefaultConfidenceThreshold = 0.8

// Classification is one ranked answer of the suggestion oracle.
type Classification struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "PENDING"
	SuggestionApplied  SuggestionStatus = "APPLIED"
	SuggestionRejected SuggestionStatus = "REJECTED"
)

func (s SuggestionStatus) Valid() bool {
	return s == SuggestionPending || s == SuggestionApplied || s == SuggestionRejected
}

// Suggestion is a persisted oracle answer for an artefact.
type Suggestion struct {
	ID             uuid.UUID        `json:"id"`
	OrganizationID uuid.UUID        `json:"organization_id"`
	ArtefactID     uuid.UUID        `json:"artefact_id"`
	ClauseID       *uuid.UUID       `json:"clause_id,omitempty"` // nil if the label matched no clause
	Label          string           `json:"label"`
	Confidence     float64          `json:"confidence"`
	Rationale      string           `json:"rationale"`
	Status         SuggestionStatus `json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
}

type SuggestionRepository interface {
	Create(ctx context.Context, s *Suggestion) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*Suggestion, error)
	ListByArtefact(ctx context.Context, orgID, artefactID uuid.UUID) ([]*Suggestion, error)
	UpdateStatus(ctx context.Context, orgID, id uuid.UUID, status SuggestionStatus) error
}
