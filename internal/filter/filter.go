// Package filter turns raw query parameters into typed task and event filters.
//
// Optional narrowing keys with unusable values (unknown enum members, malformed
// ids, unparsable dates) are dropped. Priority and the start/end ordering are
// strict and produce validation errors. Unknown keys are ignored.
package filter

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/isoflow/internal/domain"
)

// ErrInvalidRange marks a start date that falls after the end date.
var ErrInvalidRange = errors.New("filter: invalid range")

var dateLayouts = []string{ //nolint:gochecknoglobals // accepted ISO-8601 forms
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Tasks normalizes task list parameters: status, priority, assigneeId,
// artefactId, startDate, endDate (snake_case spellings are accepted too).
func Tasks(raw map[string]string) (domain.TaskFilter, error) {
	var f domain.TaskFilter

	if v, ok := lookup(raw, "status"); ok {
		s := domain.TaskStatus(strings.ToUpper(v))
		if s.Valid() {
			f.Status = &s
		}
	}
	if v, ok := lookup(raw, "priority"); ok {
		p, err := strconv.Atoi(v)
		if err != nil {
			return domain.TaskFilter{}, domain.Validationf("filter.priority", "priority must be an integer, got %q", v)
		}
		if err := domain.ValidatePriority(p); err != nil {
			return domain.TaskFilter{}, err
		}
		f.Priority = &p
	}
	f.AssigneeID = uuidParam(raw, "assigneeId", "assignee_id")
	f.ArtefactID = uuidParam(raw, "artefactId", "artefact_id")

	start, end, err := dateRange(raw)
	if err != nil {
		return domain.TaskFilter{}, err
	}
	f.StartDate, f.EndDate = start, end
	return f, nil
}

// Events normalizes event list parameters: type, status, reportedById,
// startDate, endDate.
func Events(raw map[string]string) (domain.EventFilter, error) {
	var f domain.EventFilter

	if v, ok := lookup(raw, "type"); ok {
		t := domain.EventType(strings.ToUpper(v))
		if t.Valid() {
			f.Type = &t
		}
	}
	if v, ok := lookup(raw, "status"); ok {
		s := domain.EventStatus(strings.ToUpper(v))
		if s.Valid() {
			f.Status = &s
		}
	}
	f.ReportedByID = uuidParam(raw, "reportedById", "reported_by_id")

	start, end, err := dateRange(raw)
	if err != nil {
		return domain.EventFilter{}, err
	}
	f.StartDate, f.EndDate = start, end
	return f, nil
}

// ParseDate parses the ISO-8601 forms accepted by the filters.
func ParseDate(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func dateRange(raw map[string]string) (start, end *time.Time, err error) {
	if v, ok := lookup(raw, "startDate", "start_date"); ok {
		if t, ok := ParseDate(v); ok {
			start = &t
		}
	}
	if v, ok := lookup(raw, "endDate", "end_date"); ok {
		if t, ok := ParseDate(v); ok {
			end = &t
		}
	}
	if start != nil && end != nil && start.After(*end) {
		return nil, nil, &domain.Error{
			Kind:    domain.KindValidation,
			Op:      "filter.date_range",
			Message: "startDate must not be after endDate",
			Err:     ErrInvalidRange,
		}
	}
	return start, end, nil
}

func uuidParam(raw map[string]string, keys ...string) *uuid.UUID {
	v, ok := lookup(raw, keys...)
	if !ok {
		return nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil
	}
	return &id
}

// lookup returns the first non-blank value among keys.
func lookup(raw map[string]string, keys ...string) (string, bool) {
	for _, k := range keys {
		if v := strings.TrimSpace(raw[k]); v != "" {
			return v, true
		}
	}
	return "", false
}
