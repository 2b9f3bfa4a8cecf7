package domain

import (
	"time"

	"github.com/google/uuid"
)

type CalendarEntryType string

const (
	CalendarTask     CalendarEntryType = "TASK"
	CalendarDeadline CalendarEntryType = "DEADLINE"
	CalendarMeeting  CalendarEntryType = "MEETING"
	CalendarAudit    CalendarEntryType = "AUDIT"
)

// CalendarEvent is a read-time view of a task or event. It is never persisted.
type CalendarEvent struct {
	ID       uuid.UUID         `json:"id"`
	Title    string            `json:"title"`
	Start    time.Time         `json:"start"`
	End      *time.Time        `json:"end,omitempty"`
	AllDay   bool              `json:"all_day"`
	Type     CalendarEntryType `json:"type"`
	Status   string            `json:"status"`
	Priority int               `json:"priority"`
	Assignee *uuid.UUID        `json:"assignee,omitempty"`
}
