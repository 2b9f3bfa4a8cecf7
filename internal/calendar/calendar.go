// Package calendar projects tasks and events into calendar entries.
package calendar

import (
	"slices"
	"strings"
	"time"

	"github.com/gosuda/isoflow/internal/domain"
)

// Window is a closed time interval; entries touching either end are inside.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return domain.Validationf("calendar.window", "window start and end are required")
	}
	if w.Start.After(w.End) {
		return domain.Validationf("calendar.window", "window start must not be after end")
	}
	return nil
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

type Options struct {
	// IncludeUndated anchors tasks without a due date at their creation time.
	IncludeUndated bool
}

// eventTypes lists the event types that appear on the calendar.
var eventTypes = map[domain.EventType]domain.CalendarEntryType{ //nolint:gochecknoglobals // fixed mapping
	domain.EventTypeAudit:            domain.CalendarAudit,
	domain.EventTypeMeeting:          domain.CalendarMeeting,
	domain.EventTypeManagementReview: domain.CalendarMeeting,
	domain.EventTypeDeadline:         domain.CalendarDeadline,
}

// ProjectTasks maps tasks due inside w to all-day TASK entries.
func ProjectTasks(tasks []*domain.Task, w Window, opts Options) []domain.CalendarEvent {
	out := make([]domain.CalendarEvent, 0, len(tasks))
	for _, t := range tasks {
		entry := domain.CalendarEvent{
			ID:       t.ID,
			Title:    t.Title,
			AllDay:   true,
			Type:     domain.CalendarTask,
			Status:   string(t.Status),
			Priority: t.Priority,
			Assignee: t.AssigneeID,
		}
		switch {
		case t.DueDate != nil:
			due := *t.DueDate
			entry.Start = due
			entry.End = &due
		case opts.IncludeUndated:
			entry.Start = t.CreatedAt
		default:
			continue
		}
		if w.Contains(entry.Start) {
			out = append(out, entry)
		}
	}
	sortEntries(out)
	return out
}

// ProjectEvents maps scheduled event types inside w to entries anchored at
// ScheduledFor, falling back to CreatedAt. Event severity is carried as priority.
func ProjectEvents(events []*domain.Event, w Window) []domain.CalendarEvent {
	out := make([]domain.CalendarEvent, 0, len(events))
	for _, e := range events {
		typ, ok := eventTypes[e.Type]
		if !ok {
			continue
		}
		start := e.CreatedAt
		if e.ScheduledFor != nil {
			start = *e.ScheduledFor
		}
		if !w.Contains(start) {
			continue
		}
		out = append(out, domain.CalendarEvent{
			ID:       e.ID,
			Title:    e.Title,
			Start:    start,
			Type:     typ,
			Status:   string(e.Status),
			Priority: e.Severity,
		})
	}
	sortEntries(out)
	return out
}

// Project merges task and event entries in calendar order.
func Project(tasks []*domain.Task, events []*domain.Event, w Window, opts Options) []domain.CalendarEvent {
	return Merge(ProjectTasks(tasks, w, opts), ProjectEvents(events, w))
}

// Merge concatenates entry lists and orders them by start, then id.
func Merge(lists ...[]domain.CalendarEvent) []domain.CalendarEvent {
	out := make([]domain.CalendarEvent, 0)
	for _, l := range lists {
		out = append(out, l...)
	}
	sortEntries(out)
	return out
}

func sortEntries(entries []domain.CalendarEvent) {
	slices.SortStableFunc(entries, func(a, b domain.CalendarEvent) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
}
