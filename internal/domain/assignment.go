package domain

import (
	"slices"

	"github.com/google/uuid"
)

type AssigneeType string

const (
	AssigneeUser    AssigneeType = "USER"
	AssigneeAIAgent AssigneeType = "AI_AGENT"
)

func (t AssigneeType) Valid() bool {
	return t == AssigneeUser || t == AssigneeAIAgent
}

// Assignee binds a clause or artefact to exactly one owner. The concrete
// reference must agree with Type: USER uses UserID, AI_AGENT uses AgentID.
type Assignee struct {
	Type    AssigneeType `json:"type"`
	UserID  *uuid.UUID   `json:"user_id,omitempty"`
	AgentID *uuid.UUID   `json:"agent_id,omitempty"`
}

// ID returns the referenced assignee id.
func (a Assignee) ID() uuid.UUID {
	switch a.Type {
	case AssigneeUser:
		if a.UserID != nil {
			return *a.UserID
		}
	case AssigneeAIAgent:
		if a.AgentID != nil {
			return *a.AgentID
		}
	}
	return uuid.Nil
}

func (a Assignee) Validate() error {
	switch a.Type {
	case AssigneeUser:
		if a.UserID == nil || *a.UserID == uuid.Nil || a.AgentID != nil {
			return Validationf("assignee", "USER assignee must reference exactly one user")
		}
	case AssigneeAIAgent:
		if a.AgentID == nil || *a.AgentID == uuid.Nil || a.UserID != nil {
			return Validationf("assignee", "AI_AGENT assignee must reference exactly one agent")
		}
	default:
		return Validationf("assignee", "unknown assignee type %q", a.Type)
	}
	return nil
}

// NewAssignee builds an Assignee of typ referencing id.
func NewAssignee(typ AssigneeType, id uuid.UUID) Assignee {
	a := Assignee{Type: typ}
	switch typ {
	case AssigneeUser:
		a.UserID = &id
	case AssigneeAIAgent:
		a.AgentID = &id
	}
	return a
}

// EntityKind names the owning entity of a responsibility assignment.
type EntityKind string

const (
	EntityClause   EntityKind = "CLAUSE"
	EntityArtefact EntityKind = "ARTEFACT"
)

func (k EntityKind) Valid() bool {
	return slices.Contains([]EntityKind{EntityClause, EntityArtefact}, k)
}

type UserProjection struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  Role      `json:"role"`
}

type AgentProjection struct {
	ID       uuid.UUID   `json:"id"`
	Name     string      `json:"name"`
	Type     AIAgentType `json:"type"`
	IsActive bool        `json:"is_active"`
}

// ResponsibilityAssignment is a read-time projection of a clause or artefact
// and its current assignee. It is never persisted.
type ResponsibilityAssignment struct {
	EntityKind     EntityKind       `json:"entity_kind"`
	EntityID       uuid.UUID        `json:"entity_id"`
	OrganizationID uuid.UUID        `json:"organization_id"`
	Title          string           `json:"title"`
	Standard       Standard         `json:"standard,omitempty"`
	ClauseNumber   string           `json:"clause_number,omitempty"`
	ArtefactStatus ArtefactStatus   `json:"artefact_status,omitempty"`
	AssigneeType   *AssigneeType    `json:"assignee_type,omitempty"`
	User           *UserProjection  `json:"user,omitempty"`
	Agent          *AgentProjection `json:"agent,omitempty"`
}

func (a *ResponsibilityAssignment) Assigned() bool {
	return a.AssigneeType != nil
}

type ResponsibilityFilter struct {
	EntityKind   *EntityKind
	Standard     *Standard // narrows clause rows; artefact rows carry no standard and are excluded
	AssigneeType *AssigneeType
	Unassigned   bool
}

// AssignmentUpdate requests a new assignee for one clause or artefact.
type AssignmentUpdate struct {
	EntityKind   EntityKind   `json:"entity_kind"`
	EntityID     uuid.UUID    `json:"entity_id"`
	AssigneeType AssigneeType `json:"assignee_type"`
	AssigneeID   uuid.UUID    `json:"assignee_id"`
}

func (u AssignmentUpdate) Validate() error {
	if !u.EntityKind.Valid() {
		return Validationf("assignment.entity_kind", "unknown entity kind %q", u.EntityKind)
	}
	if u.EntityID == uuid.Nil {
		return Validationf("assignment.entity_id", "entity_id is required")
	}
	if u.AssigneeID == uuid.Nil {
		return Validationf("assignment.assignee_id", "assignee_id is required")
	}
	return NewAssignee(u.AssigneeType, u.AssigneeID).Validate()
}
