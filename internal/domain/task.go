package domain

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
	TaskStatusBlocked    TaskStatus = "BLOCKED"
)

// ValidTaskStatuses is the canonical set of known task statuses.
var ValidTaskStatuses = []TaskStatus{ //nolint:gochecknoglobals // canonical enum list
	TaskStatusPending,
	TaskStatusInProgress,
	TaskStatusCompleted,
	TaskStatusCancelled,
	TaskStatusBlocked,
}

func (s TaskStatus) Valid() bool {
	return slices.Contains(ValidTaskStatuses, s)
}

const (
	MinPriority     = 1
	MaxPriority     = 5
	DefaultPriority = 3
)

// ValidatePriority rejects priorities outside [MinPriority, MaxPriority].
// Out-of-range values are never clamped.
func ValidatePriority(p int) error {
	if p < MinPriority || p > MaxPriority {
		return Validationf("task.priority", "priority must be between %d and %d, got %d", MinPriority, MaxPriority, p)
	}
	return nil
}

type Task struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	Priority       int        `json:"priority"`
	Status         TaskStatus `json:"status"`
	AssigneeID     *uuid.UUID `json:"assignee_id,omitempty"`
	ArtefactID     *uuid.UUID `json:"artefact_id,omitempty"`
	CreatedByID    uuid.UUID  `json:"created_by_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"` // set iff Status == COMPLETED
}

// SetStatus moves the task to status and keeps CompletedAt in step with it:
// entering COMPLETED stamps now, leaving COMPLETED clears the stamp.
func (t *Task) SetStatus(status TaskStatus, now time.Time) {
	if status == TaskStatusCompleted {
		if t.Status != TaskStatusCompleted || t.CompletedAt == nil {
			stamp := now
			t.CompletedAt = &stamp
		}
	} else {
		t.CompletedAt = nil
	}
	t.Status = status
}

// TaskTemplate holds the caller-supplied fields of a new task.
type TaskTemplate struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Priority    int        `json:"priority"`
	AssigneeID  *uuid.UUID `json:"assignee_id,omitempty"`
	ArtefactID  *uuid.UUID `json:"artefact_id,omitempty"`
}

func (tt TaskTemplate) Validate() error {
	if strings.TrimSpace(tt.Title) == "" {
		return Validationf("task.title", "title is required")
	}
	return ValidatePriority(tt.Priority)
}

// NewTask materializes a PENDING task from a template.
func NewTask(tt TaskTemplate, orgID, createdBy uuid.UUID, now time.Time) *Task {
	return &Task{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Title:          tt.Title,
		Description:    tt.Description,
		DueDate:        tt.DueDate,
		Priority:       tt.Priority,
		Status:         TaskStatusPending,
		AssigneeID:     tt.AssigneeID,
		ArtefactID:     tt.ArtefactID,
		CreatedByID:    createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// TaskPatch is a partial update; nil fields are left unchanged.
type TaskPatch struct {
	Title        *string     `json:"title,omitempty"`
	Description  *string     `json:"description,omitempty"`
	DueDate      *time.Time  `json:"due_date,omitempty"`
	ClearDueDate bool        `json:"clear_due_date,omitempty"`
	Priority     *int        `json:"priority,omitempty"`
	Status       *TaskStatus `json:"status,omitempty"`
	AssigneeID   *uuid.UUID  `json:"assignee_id,omitempty"`
	ArtefactID   *uuid.UUID  `json:"artefact_id,omitempty"`
}

func (p TaskPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return Validationf("task.title", "title must not be empty")
	}
	if p.Priority != nil {
		if err := ValidatePriority(*p.Priority); err != nil {
			return err
		}
	}
	if p.Status != nil && !p.Status.Valid() {
		return Validationf("task.status", "unknown task status %q", *p.Status)
	}
	if p.ClearDueDate && p.DueDate != nil {
		return Validationf("task.due_date", "due_date and clear_due_date are mutually exclusive")
	}
	return nil
}

// Apply merges the patch into t and returns the names of the changed fields.
func (p TaskPatch) Apply(t *Task, now time.Time) []string {
	var changed []string
	if p.Title != nil && *p.Title != t.Title {
		t.Title = *p.Title
		changed = append(changed, "title")
	}
	if p.Description != nil && *p.Description != t.Description {
		t.Description = *p.Description
		changed = append(changed, "description")
	}
	if p.DueDate != nil {
		t.DueDate = p.DueDate
		changed = append(changed, "due_date")
	}
	if p.ClearDueDate && t.DueDate != nil {
		t.DueDate = nil
		changed = append(changed, "due_date")
	}
	if p.Priority != nil && *p.Priority != t.Priority {
		t.Priority = *p.Priority
		changed = append(changed, "priority")
	}
	if p.Status != nil && *p.Status != t.Status {
		t.SetStatus(*p.Status, now)
		changed = append(changed, "status")
	}
	if p.AssigneeID != nil {
		t.AssigneeID = p.AssigneeID
		changed = append(changed, "assignee_id")
	}
	if p.ArtefactID != nil {
		t.ArtefactID = p.ArtefactID
		changed = append(changed, "artefact_id")
	}
	t.UpdatedAt = now
	return changed
}

// TaskFilter is the validated form of task list query parameters.
// StartDate and EndDate bound DueDate inclusively.
type TaskFilter struct {
	Status     *TaskStatus
	Priority   *int
	AssigneeID *uuid.UUID
	ArtefactID *uuid.UUID
	StartDate  *time.Time
	EndDate    *time.Time
}

// Matches reports whether t satisfies every set field of f.
func (f TaskFilter) Matches(t *Task) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.AssigneeID != nil && (t.AssigneeID == nil || *t.AssigneeID != *f.AssigneeID) {
		return false
	}
	if f.ArtefactID != nil && (t.ArtefactID == nil || *t.ArtefactID != *f.ArtefactID) {
		return false
	}
	if f.StartDate != nil && (t.DueDate == nil || t.DueDate.Before(*f.StartDate)) {
		return false
	}
	if f.EndDate != nil && (t.DueDate == nil || t.DueDate.After(*f.EndDate)) {
		return false
	}
	return true
}

// TaskRepository persists tasks. An orgID of uuid.Nil means all organizations.
// List orders by due date ascending (undated last), then created_at, then id.
type TaskRepository interface {
	Create(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*Task, error)
	List(ctx context.Context, orgID uuid.UUID, f TaskFilter) ([]*Task, error)
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, orgID, id uuid.UUID) error
}
