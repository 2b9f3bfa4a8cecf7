// Package stats aggregates task and event collections. All functions are pure.
package stats

import (
	"time"

	"github.com/gosuda/isoflow/internal/domain"
)

// HighSeverity is the lowest severity counted by EventStats.HighSeverityOpen.
const HighSeverity = 4

type TaskStats struct {
	Total          int                       `json:"total"`
	ByStatus       map[domain.TaskStatus]int `json:"by_status"`
	ByPriority     map[int]int               `json:"by_priority"`
	Overdue        int                       `json:"overdue"`
	DueToday       int                       `json:"due_today"`
	DueThisWeek    int                       `json:"due_this_week"`
	Completed      int                       `json:"completed"`
	CompletionRate float64                   `json:"completion_rate"` // percent, 0 for an empty collection
	// AverageDaysToComplete is the mean of CompletedAt - CreatedAt in days.
	AverageDaysToComplete float64 `json:"average_days_to_complete"`
}

// Tasks computes TaskStats as of asOf. Day boundaries use asOf's location.
func Tasks(tasks []*domain.Task, asOf time.Time) TaskStats {
	s := TaskStats{
		Total:      len(tasks),
		ByStatus:   make(map[domain.TaskStatus]int),
		ByPriority: make(map[int]int),
	}

	today := startOfDay(asOf)
	tomorrow := today.Add(24 * time.Hour)
	nextWeek := today.Add(7 * 24 * time.Hour)

	var cycleTotal time.Duration
	var cycleCount int

	for _, t := range tasks {
		s.ByStatus[t.Status]++
		s.ByPriority[t.Priority]++

		if t.Status == domain.TaskStatusCompleted {
			s.Completed++
		}
		if t.DueDate != nil {
			due := *t.DueDate
			if due.Before(asOf) && t.Status != domain.TaskStatusCompleted {
				s.Overdue++
			}
			if inRange(due, today, tomorrow) {
				s.DueToday++
			}
			if inRange(due, today, nextWeek) {
				s.DueThisWeek++
			}
		}
		if t.CompletedAt != nil && !t.CreatedAt.IsZero() {
			cycleTotal += t.CompletedAt.Sub(t.CreatedAt)
			cycleCount++
		}
	}

	if s.Total > 0 {
		s.CompletionRate = float64(s.Completed) / float64(s.Total) * 100
	}
	if cycleCount > 0 {
		s.AverageDaysToComplete = cycleTotal.Hours() / 24 / float64(cycleCount)
	}
	return s
}

type EventStats struct {
	Total            int                        `json:"total"`
	ByType           map[domain.EventType]int   `json:"by_type"`
	ByStatus         map[domain.EventStatus]int `json:"by_status"`
	BySeverity       map[int]int                `json:"by_severity"`
	Open             int                        `json:"open"`
	Last30Days       int                        `json:"last_30_days"`
	HighSeverityOpen int                        `json:"high_severity_open"`
}

// Events computes EventStats as of asOf.
func Events(events []*domain.Event, asOf time.Time) EventStats {
	s := EventStats{
		Total:      len(events),
		ByType:     make(map[domain.EventType]int),
		ByStatus:   make(map[domain.EventStatus]int),
		BySeverity: make(map[int]int),
	}

	since := asOf.AddDate(0, 0, -30)
	for _, e := range events {
		s.ByType[e.Type]++
		s.ByStatus[e.Status]++
		s.BySeverity[e.Severity]++

		open := e.Status.Open()
		if open {
			s.Open++
		}
		if open && e.Severity >= HighSeverity {
			s.HighSeverityOpen++
		}
		if !e.CreatedAt.Before(since) {
			s.Last30Days++
		}
	}
	return s
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// inRange reports whether t lies in [from, to).
func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}
