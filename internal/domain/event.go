package domain

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventTypeAudit            EventType = "AUDIT"
	EventTypeMeeting          EventType = "MEETING"
	EventTypeDeadline         EventType = "DEADLINE"
	EventTypeIncident         EventType = "INCIDENT"
	EventTypeNonconformity    EventType = "NONCONFORMITY"
	EventTypeManagementReview EventType = "MANAGEMENT_REVIEW"
)

// ValidEventTypes is the canonical set of known event types.
var ValidEventTypes = []EventType{ //nolint:gochecknoglobals // canonical enum list
	EventTypeAudit,
	EventTypeMeeting,
	EventTypeDeadline,
	EventTypeIncident,
	EventTypeNonconformity,
	EventTypeManagementReview,
}

func (t EventType) Valid() bool {
	return slices.Contains(ValidEventTypes, t)
}

type EventStatus string

const (
	EventStatusOpen       EventStatus = "OPEN"
	EventStatusInProgress EventStatus = "IN_PROGRESS"
	EventStatusResolved   EventStatus = "RESOLVED"
	EventStatusClosed     EventStatus = "CLOSED"
)

// ValidEventStatuses is the canonical set of known event statuses.
var ValidEventStatuses = []EventStatus{ //nolint:gochecknoglobals // canonical enum list
	EventStatusOpen,
	EventStatusInProgress,
	EventStatusResolved,
	EventStatusClosed,
}

func (s EventStatus) Valid() bool {
	return slices.Contains(ValidEventStatuses, s)
}

// Open reports whether the event still needs attention.
func (s EventStatus) Open() bool {
	return s != EventStatusResolved && s != EventStatusClosed
}

const (
	MinSeverity = 1
	MaxSeverity = 5
)

func ValidateSeverity(s int) error {
	if s < MinSeverity || s > MaxSeverity {
		return Validationf("event.severity", "severity must be between %d and %d, got %d", MinSeverity, MaxSeverity, s)
	}
	return nil
}

type Event struct {
	ID             uuid.UUID      `json:"id"`
	OrganizationID uuid.UUID      `json:"organization_id"`
	Type           EventType      `json:"type"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Severity       int            `json:"severity"`
	Status         EventStatus    `json:"status"`
	ReportedByID   uuid.UUID      `json:"reported_by_id"`
	ScheduledFor   *time.Time     `json:"scheduled_for,omitempty"` // calendar anchor for audits, meetings, deadlines
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// EventDraft holds the caller-supplied fields of a new event.
type EventDraft struct {
	Type         EventType      `json:"type"`
	Title        string         `json:"title"`
	Description  string         `json:"description,omitempty"`
	Severity     int            `json:"severity"`
	ScheduledFor *time.Time     `json:"scheduled_for,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

func (d EventDraft) Validate() error {
	if !d.Type.Valid() {
		return Validationf("event.type", "unknown event type %q", d.Type)
	}
	if strings.TrimSpace(d.Title) == "" {
		return Validationf("event.title", "title is required")
	}
	return ValidateSeverity(d.Severity)
}

func NewEvent(d EventDraft, orgID, reportedBy uuid.UUID, now time.Time) *Event {
	return &Event{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Type:           d.Type,
		Title:          d.Title,
		Description:    d.Description,
		Severity:       d.Severity,
		Status:         EventStatusOpen,
		ReportedByID:   reportedBy,
		ScheduledFor:   d.ScheduledFor,
		Metadata:       d.Metadata,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

type EventPatch struct {
	Title        *string        `json:"title,omitempty"`
	Description  *string        `json:"description,omitempty"`
	Severity     *int           `json:"severity,omitempty"`
	Status       *EventStatus   `json:"status,omitempty"`
	ScheduledFor *time.Time     `json:"scheduled_for,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

func (p EventPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return Validationf("event.title", "title must not be empty")
	}
	if p.Severity != nil {
		if err := ValidateSeverity(*p.Severity); err != nil {
			return err
		}
	}
	if p.Status != nil && !p.Status.Valid() {
		return Validationf("event.status", "unknown event status %q", *p.Status)
	}
	return nil
}

func (p EventPatch) Apply(e *Event, now time.Time) []string {
	var changed []string
	if p.Title != nil && *p.Title != e.Title {
		e.Title = *p.Title
		changed = append(changed, "title")
	}
	if p.Description != nil && *p.Description != e.Description {
		e.Description = *p.Description
		changed = append(changed, "description")
	}
	if p.Severity != nil && *p.Severity != e.Severity {
		e.Severity = *p.Severity
		changed = append(changed, "severity")
	}
	if p.Status != nil && *p.Status != e.Status {
		e.Status = *p.Status
		changed = append(changed, "status")
	}
	if p.ScheduledFor != nil {
		e.ScheduledFor = p.ScheduledFor
		changed = append(changed, "scheduled_for")
	}
	if p.Metadata != nil {
		e.Metadata = p.Metadata
		changed = append(changed, "metadata")
	}
	e.UpdatedAt = now
	return changed
}

// EventFilter is the validated form of event list query parameters.
// StartDate and EndDate bound CreatedAt inclusively.
type EventFilter struct {
	Type         *EventType
	Status       *EventStatus
	ReportedByID *uuid.UUID
	StartDate    *time.Time
	EndDate      *time.Time
}

func (f EventFilter) Matches(e *Event) bool {
	if f.Type != nil && e.Type != *f.Type {
		return false
	}
	if f.Status != nil && e.Status != *f.Status {
		return false
	}
	if f.ReportedByID != nil && e.ReportedByID != *f.ReportedByID {
		return false
	}
	if f.StartDate != nil && e.CreatedAt.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && e.CreatedAt.After(*f.EndDate) {
		return false
	}
	return true
}

// EventRepository persists events. An orgID of uuid.Nil means all organizations.
// List orders by created_at descending, then id.
type EventRepository interface {
	Create(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*Event, error)
	List(ctx context.Context, orgID uuid.UUID, f EventFilter) ([]*Event, error)
	Update(ctx context.Context, e *Event) error
	Delete(ctx context.Context, orgID, id uuid.UUID) error
}
