// Package recurrence expands a task template into a bounded series of tasks.
package recurrence

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/isoflow/internal/domain"
)

// DefaultMaxOccurrences caps a single expansion when the caller supplies no cap.
const DefaultMaxOccurrences = 366

// Step advances t by one interval of frequency. Month-based steps keep the
// day of month when it exists in the target month and clamp to the month's
// last day otherwise (Jan 31 + 1 month = Feb 28/29).
func Step(t time.Time, freq domain.Frequency, interval int) time.Time {
	switch freq {
	case domain.FrequencyDaily:
		return t.AddDate(0, 0, interval)
	case domain.FrequencyWeekly:
		return t.AddDate(0, 0, 7*interval)
	case domain.FrequencyMonthly:
		return addMonths(t, interval)
	case domain.FrequencyQuarterly:
		return addMonths(t, 3*interval)
	case domain.FrequencyYearly:
		return addMonths(t, 12*interval)
	default:
		return t
	}
}

func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	if last := daysIn(y, m+time.Month(n), t.Location()); d > last {
		d = last
	}
	return time.Date(y, m+time.Month(n), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

// daysIn normalizes month overflow through time.Date before counting.
func daysIn(y int, m time.Month, loc *time.Location) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, loc).Day()
}

// Expander materializes recurring task series.
type Expander struct {
	MaxOccurrences int
	Now            func() time.Time
}

// New returns an Expander capped at maxOccurrences (DefaultMaxOccurrences
// when maxOccurrences < 1).
func New(maxOccurrences int) *Expander {
	if maxOccurrences < 1 {
		maxOccurrences = DefaultMaxOccurrences
	}
	return &Expander{MaxOccurrences: maxOccurrences, Now: time.Now}
}

// Expand returns the tasks of the series in occurrence order. The first
// occurrence is due at the template's due date, or now when it has none.
// Titles carry a 1-based "(n)" suffix. Generation continues while both the
// count and the end date allow it; a template already past the end date
// yields an empty series. A series longer than MaxOccurrences is rejected
// before anything is returned.
func (e *Expander) Expand(tmpl domain.TaskTemplate, rule domain.RecurrenceRule, orgID, createdBy uuid.UUID) ([]*domain.Task, error) {
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	now := e.Now().UTC()
	current := now
	if tmpl.DueDate != nil {
		current = *tmpl.DueDate
	}

	var tasks []*domain.Task
	for {
		if rule.Count != nil && len(tasks) >= *rule.Count {
			break
		}
		if rule.EndDate != nil && current.After(*rule.EndDate) {
			break
		}
		if len(tasks) >= e.MaxOccurrences {
			return nil, domain.Validationf("recurrence", "series exceeds the maximum of %d occurrences", e.MaxOccurrences)
		}

		due := current
		instance := tmpl
		instance.DueDate = &due
		instance.Title = fmt.Sprintf("%s (%d)", tmpl.Title, len(tasks)+1)
		tasks = append(tasks, domain.NewTask(instance, orgID, createdBy, now))

		current = Step(current, rule.Frequency, rule.Interval)
	}
	return tasks, nil
}
