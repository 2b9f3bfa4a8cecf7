package stats_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/isoflow/internal/domain"
	"github.com/gosuda/isoflow/internal/stats"
)

func ptr[T any](v T) *T { return &v }

var asOf = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) //nolint:gochecknoglobals // fixed clock

func task(status domain.TaskStatus, priority int, due *time.Time) *domain.Task {
	t := &domain.Task{
		ID:        uuid.New(),
		Title:     "t",
		Priority:  priority,
		Status:    status,
		DueDate:   due,
		CreatedAt: asOf.AddDate(0, 0, -10),
	}
	if status == domain.TaskStatusCompleted {
		t.CompletedAt = ptr(asOf.AddDate(0, 0, -6))
	}
	return t
}

func TestTasks_OverdueAndCompletion(t *testing.T) {
	t.Parallel()

	tasks := []*domain.Task{
		task(domain.TaskStatusPending, 1, ptr(asOf.AddDate(0, 0, -2))),
		task(domain.TaskStatusCompleted, 2, ptr(asOf.AddDate(0, 0, -1))),
		task(domain.TaskStatusCompleted, 2, ptr(asOf.AddDate(0, 0, 3))),
		task(domain.TaskStatusInProgress, 5, ptr(asOf.AddDate(0, 0, 20))),
	}

	s := stats.Tasks(tasks, asOf)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 1, s.Overdue)
	assert.InDelta(t, 50.0, s.CompletionRate, 1e-9)
	assert.Equal(t, 2, s.Completed)
	assert.Equal(t, map[domain.TaskStatus]int{
		domain.TaskStatusPending:    1,
		domain.TaskStatusCompleted:  2,
		domain.TaskStatusInProgress: 1,
	}, s.ByStatus)
	assert.Equal(t, map[int]int{1: 1, 2: 2, 5: 1}, s.ByPriority)
	assert.InDelta(t, 4.0, s.AverageDaysToComplete, 1e-9)
}

func TestTasks_DueWindows(t *testing.T) {
	t.Parallel()

	sod := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	tasks := []*domain.Task{
		task(domain.TaskStatusPending, 3, ptr(sod)),                       // today, before asOf: overdue too
		task(domain.TaskStatusPending, 3, ptr(sod.Add(23*time.Hour))),     // today
		task(domain.TaskStatusPending, 3, ptr(sod.Add(24*time.Hour))),     // tomorrow
		task(domain.TaskStatusPending, 3, ptr(sod.Add(6*24*time.Hour))),   // last day of week
		task(domain.TaskStatusPending, 3, ptr(sod.Add(7*24*time.Hour))),   // outside week
		task(domain.TaskStatusPending, 3, ptr(sod.Add(-time.Nanosecond))), // yesterday
		task(domain.TaskStatusPending, 3, nil),
	}

	s := stats.Tasks(tasks, asOf)
	assert.Equal(t, 2, s.DueToday)
	assert.Equal(t, 4, s.DueThisWeek)
	assert.Equal(t, 2, s.Overdue)
}

func TestTasks_Empty(t *testing.T) {
	t.Parallel()

	s := stats.Tasks(nil, asOf)
	assert.Equal(t, 0, s.Total)
	assert.Zero(t, s.CompletionRate)
	assert.Zero(t, s.AverageDaysToComplete)
	assert.NotNil(t, s.ByStatus)
	assert.NotNil(t, s.ByPriority)
}

func TestTasks_Idempotent(t *testing.T) {
	t.Parallel()

	tasks := []*domain.Task{
		task(domain.TaskStatusPending, 1, ptr(asOf.AddDate(0, 0, -2))),
		task(domain.TaskStatusCompleted, 4, nil),
		task(domain.TaskStatusBlocked, 3, ptr(asOf.AddDate(0, 0, 1))),
	}

	first := stats.Tasks(tasks, asOf)
	second := stats.Tasks(tasks, asOf)
	assert.Equal(t, first, second)
}

func TestEvents(t *testing.T) {
	t.Parallel()

	ev := func(typ domain.EventType, status domain.EventStatus, severity int, age time.Duration) *domain.Event {
		return &domain.Event{ID: uuid.New(), Type: typ, Status: status, Severity: severity, CreatedAt: asOf.Add(-age)}
	}
	day := 24 * time.Hour

	events := []*domain.Event{
		ev(domain.EventTypeIncident, domain.EventStatusOpen, 5, day),
		ev(domain.EventTypeIncident, domain.EventStatusResolved, 4, 2*day),
		ev(domain.EventTypeNonconformity, domain.EventStatusInProgress, 4, 30*day),
		ev(domain.EventTypeAudit, domain.EventStatusClosed, 2, 40*day),
		ev(domain.EventTypeMeeting, domain.EventStatusOpen, 1, 31*day),
	}

	s := stats.Events(events, asOf)
	require.Equal(t, 5, s.Total)
	assert.Equal(t, 3, s.Open)
	assert.Equal(t, 2, s.HighSeverityOpen)
	assert.Equal(t, 3, s.Last30Days)
	assert.Equal(t, 2, s.ByType[domain.EventTypeIncident])
	assert.Equal(t, 1, s.ByStatus[domain.EventStatusClosed])
	assert.Equal(t, 2, s.BySeverity[4])
}
