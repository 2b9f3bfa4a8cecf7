package recurrence_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/isoflow/internal/domain"
	"github.com/gosuda/isoflow/internal/recurrence"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func newExpander(now time.Time) *recurrence.Expander {
	e := recurrence.New(0)
	e.Now = func() time.Time { return now }
	return e
}

func TestStep(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		from     time.Time
		freq     domain.Frequency
		interval int
		want     time.Time
	}{
		{name: "daily", from: day(2024, 2, 28), freq: domain.FrequencyDaily, interval: 2, want: day(2024, 3, 1)},
		{name: "weekly", from: day(2024, 1, 1), freq: domain.FrequencyWeekly, interval: 2, want: day(2024, 1, 15)},
		{name: "monthly clamps", from: day(2024, 1, 31), freq: domain.FrequencyMonthly, interval: 1, want: day(2024, 2, 29)},
		{name: "monthly non leap", from: day(2023, 1, 31), freq: domain.FrequencyMonthly, interval: 1, want: day(2023, 2, 28)},
		{name: "monthly across year", from: day(2024, 11, 30), freq: domain.FrequencyMonthly, interval: 3, want: day(2025, 2, 28)},
		{name: "quarterly", from: day(2024, 1, 31), freq: domain.FrequencyQuarterly, interval: 1, want: day(2024, 4, 30)},
		{name: "yearly leap day", from: day(2024, 2, 29), freq: domain.FrequencyYearly, interval: 1, want: day(2025, 2, 28)},
		{name: "yearly keeps day", from: day(2024, 6, 15), freq: domain.FrequencyYearly, interval: 2, want: day(2026, 6, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, recurrence.Step(tt.from, tt.freq, tt.interval))
		})
	}
}

func TestExpand_WeeklyCount(t *testing.T) {
	t.Parallel()

	d := day(2024, 3, 4)
	org, actor := uuid.New(), uuid.New()
	tasks, err := newExpander(d).Expand(
		domain.TaskTemplate{Title: "Backup check", Priority: 2, DueDate: &d},
		domain.RecurrenceRule{Frequency: domain.FrequencyWeekly, Interval: 2, Count: ptr(3)},
		org, actor,
	)
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	wantDue := []time.Time{d, d.AddDate(0, 0, 14), d.AddDate(0, 0, 28)}
	wantTitle := []string{"Backup check (1)", "Backup check (2)", "Backup check (3)"}
	for i, task := range tasks {
		require.NotNil(t, task.DueDate)
		assert.Equal(t, wantDue[i], *task.DueDate)
		assert.Equal(t, wantTitle[i], task.Title)
		assert.Equal(t, domain.TaskStatusPending, task.Status)
		assert.Equal(t, 2, task.Priority)
		assert.Equal(t, org, task.OrganizationID)
		assert.Equal(t, actor, task.CreatedByID)
		assert.Nil(t, task.CompletedAt)
	}
	assert.NotEqual(t, tasks[0].ID, tasks[1].ID)
}

func TestExpand_BoundInterplay(t *testing.T) {
	t.Parallel()

	d := day(2024, 3, 4)
	end := d.AddDate(0, 0, 10)
	tasks, err := newExpander(d).Expand(
		domain.TaskTemplate{Title: "Review", Priority: 3, DueDate: &d},
		domain.RecurrenceRule{Frequency: domain.FrequencyWeekly, Interval: 2, EndDate: &end, Count: ptr(100)},
		uuid.New(), uuid.New(),
	)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, d, *tasks[0].DueDate)
}

func TestExpand_EndDateInclusive(t *testing.T) {
	t.Parallel()

	d := day(2024, 1, 1)
	end := day(2024, 1, 3)
	tasks, err := newExpander(d).Expand(
		domain.TaskTemplate{Title: "Log review", Priority: 3, DueDate: &d},
		domain.RecurrenceRule{Frequency: domain.FrequencyDaily, Interval: 1, EndDate: &end},
		uuid.New(), uuid.New(),
	)
	require.NoError(t, err)
	assert.Len(t, tasks, 3)
}

func TestExpand_TemplatePastEndDate(t *testing.T) {
	t.Parallel()

	d := day(2024, 5, 1)
	end := day(2024, 4, 30)
	tasks, err := newExpander(d).Expand(
		domain.TaskTemplate{Title: "Late", Priority: 3, DueDate: &d},
		domain.RecurrenceRule{Frequency: domain.FrequencyMonthly, Interval: 1, EndDate: &end},
		uuid.New(), uuid.New(),
	)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestExpand_DefaultsToNow(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 31, 9, 30, 0, 0, time.UTC)
	tasks, err := newExpander(now).Expand(
		domain.TaskTemplate{Title: "Monthly KPI", Priority: 1},
		domain.RecurrenceRule{Frequency: domain.FrequencyMonthly, Interval: 1, Count: ptr(3)},
		uuid.New(), uuid.New(),
	)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, now, *tasks[0].DueDate)
	assert.Equal(t, time.Date(2024, 2, 29, 9, 30, 0, 0, time.UTC), *tasks[1].DueDate)
	assert.Equal(t, time.Date(2024, 3, 29, 9, 30, 0, 0, time.UTC), *tasks[2].DueDate)
}

func TestExpand_Rejects(t *testing.T) {
	t.Parallel()

	d := day(2024, 1, 1)
	far := day(2030, 1, 1)

	tests := []struct {
		name string
		tmpl domain.TaskTemplate
		rule domain.RecurrenceRule
	}{
		{
			name: "priority out of range",
			tmpl: domain.TaskTemplate{Title: "x", Priority: 7, DueDate: &d},
			rule: domain.RecurrenceRule{Frequency: domain.FrequencyDaily, Interval: 1, Count: ptr(2)},
		},
		{
			name: "unbounded",
			tmpl: domain.TaskTemplate{Title: "x", Priority: 3, DueDate: &d},
			rule: domain.RecurrenceRule{Frequency: domain.FrequencyDaily, Interval: 1},
		},
		{
			name: "unknown frequency",
			tmpl: domain.TaskTemplate{Title: "x", Priority: 3, DueDate: &d},
			rule: domain.RecurrenceRule{Frequency: "FORTNIGHTLY", Interval: 1, Count: ptr(2)},
		},
		{
			name: "exceeds cap",
			tmpl: domain.TaskTemplate{Title: "x", Priority: 3, DueDate: &d},
			rule: domain.RecurrenceRule{Frequency: domain.FrequencyDaily, Interval: 1, EndDate: &far},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tasks, err := newExpander(d).Expand(tt.tmpl, tt.rule, uuid.New(), uuid.New())
			require.Error(t, err)
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
			assert.Nil(t, tasks)
		})
	}
}

func TestExpand_CapBoundary(t *testing.T) {
	t.Parallel()

	d := day(2024, 1, 1)
	e := newExpander(d)
	e.MaxOccurrences = 5

	tasks, err := e.Expand(
		domain.TaskTemplate{Title: "x", Priority: 3, DueDate: &d},
		domain.RecurrenceRule{Frequency: domain.FrequencyDaily, Interval: 1, Count: ptr(5)},
		uuid.New(), uuid.New(),
	)
	require.NoError(t, err)
	assert.Len(t, tasks, 5)

	_, err = e.Expand(
		domain.TaskTemplate{Title: "x", Priority: 3, DueDate: &d},
		domain.RecurrenceRule{Frequency: domain.FrequencyDaily, Interval: 1, Count: ptr(6)},
		uuid.New(), uuid.New(),
	)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}
