package domain

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
)

type AIAgentType string

const (
	AIAgentClassifier AIAgentType = "CLASSIFIER"
	AIAgentReviewer   AIAgentType = "REVIEWER"
	AIAgentAuditor    AIAgentType = "AUDITOR"
	AIAgentAssistant  AIAgentType = "ASSISTANT"
)

// ValidAIAgentTypes is the canonical set of known agent types.
var ValidAIAgentTypes = []AIAgentType{ //nolint:gochecknoglobals // canonical enum list
	AIAgentClassifier,
	AIAgentReviewer,
	AIAgentAuditor,
	AIAgentAssistant,
}

func (t AIAgentType) Valid() bool {
	return slices.Contains(ValidAIAgentTypes, t)
}

// AIAgent is a non-human assignee that can own clauses and artefacts.
type AIAgent struct {
	ID             uuid.UUID   `json:"id"`
	OrganizationID uuid.UUID   `json:"organization_id"`
	Name           string      `json:"name"`
	Type           AIAgentType `json:"type"`
	IsActive       bool        `json:"is_active"`
	CreatedAt      time.Time   `json:"created_at"`
}

// AIAgentRepository persists agents. An orgID of uuid.Nil means all organizations.
type AIAgentRepository interface {
	Create(ctx context.Context, a *AIAgent) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*AIAgent, error)
	List(ctx context.Context, orgID uuid.UUID) ([]*AIAgent, error)
	SetActive(ctx context.Context, orgID, id uuid.UUID, active bool) error
}
