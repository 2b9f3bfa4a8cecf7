package domain

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
)

type Standard string

const (
	StandardISO9001  Standard = "ISO_9001"
	StandardISO27001 Standard = "ISO_27001"
)

// ValidStandards is the canonical set of supported standards.
var ValidStandards = []Standard{StandardISO9001, StandardISO27001} //nolint:gochecknoglobals // canonical enum list

func (s Standard) Valid() bool {
	return slices.Contains(ValidStandards, s)
}

// Clause is a numbered requirement of a standard, owned by one organization.
type Clause struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Standard       Standard  `json:"standard"`
	ClauseNumber   string    `json:"clause_number"`
	Title          string    `json:"title"`
	Assignee       *Assignee `json:"assignee,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type ClauseFilter struct {
	Standard *Standard
}

// ClauseRepository persists clauses. An orgID of uuid.Nil means all organizations.
// List orders by standard, then clause number.
type ClauseRepository interface {
	Create(ctx context.Context, c *Clause) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*Clause, error)
	List(ctx context.Context, orgID uuid.UUID, f ClauseFilter) ([]*Clause, error)
	UpdateAssignee(ctx context.Context, orgID, id uuid.UUID, a Assignee) error
}
