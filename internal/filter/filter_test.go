package filter_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/isoflow/internal/domain"
	"github.com/gosuda/isoflow/internal/filter"
)

func TestTasks(t *testing.T) {
	t.Parallel()

	assignee := uuid.New()

	f, err := filter.Tasks(map[string]string{
		"status":     "in_progress",
		"priority":   "2",
		"assigneeId": assignee.String(),
		"artefactId": "not-a-uuid",
		"startDate":  "2024-02-01",
		"endDate":    "2024-02-29T23:59:59Z",
		"sort":       "ignored",
	})
	require.NoError(t, err)

	require.NotNil(t, f.Status)
	assert.Equal(t, domain.TaskStatusInProgress, *f.Status)
	require.NotNil(t, f.Priority)
	assert.Equal(t, 2, *f.Priority)
	require.NotNil(t, f.AssigneeID)
	assert.Equal(t, assignee, *f.AssigneeID)
	assert.Nil(t, f.ArtefactID)
	require.NotNil(t, f.StartDate)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), *f.StartDate)
	require.NotNil(t, f.EndDate)
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC), *f.EndDate)
}

func TestTasks_Lenient(t *testing.T) {
	t.Parallel()

	f, err := filter.Tasks(map[string]string{
		"status":    "DONE",
		"startDate": "yesterday",
		"end_date":  "2024-01-01",
	})
	require.NoError(t, err)
	assert.Nil(t, f.Status)
	assert.Nil(t, f.StartDate)
	require.NotNil(t, f.EndDate)
}

func TestTasks_Strict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  map[string]string
	}{
		{name: "priority not integer", raw: map[string]string{"priority": "high"}},
		{name: "priority low", raw: map[string]string{"priority": "0"}},
		{name: "priority high", raw: map[string]string{"priority": "6"}},
		{name: "inverted range", raw: map[string]string{"startDate": "2024-03-01", "endDate": "2024-02-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := filter.Tasks(tt.raw)
			require.Error(t, err)
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
		})
	}
}

func TestTasks_InvalidRangeSentinel(t *testing.T) {
	t.Parallel()

	_, err := filter.Tasks(map[string]string{"startDate": "2024-03-02", "endDate": "2024-03-01"})
	assert.True(t, errors.Is(err, filter.ErrInvalidRange))

	_, err = filter.Tasks(map[string]string{"startDate": "2024-03-01", "endDate": "2024-03-01"})
	assert.NoError(t, err)
}

func TestEvents(t *testing.T) {
	t.Parallel()

	reporter := uuid.New()

	f, err := filter.Events(map[string]string{
		"type":           "audit",
		"status":         "bogus",
		"reported_by_id": reporter.String(),
	})
	require.NoError(t, err)
	require.NotNil(t, f.Type)
	assert.Equal(t, domain.EventTypeAudit, *f.Type)
	assert.Nil(t, f.Status)
	require.NotNil(t, f.ReportedByID)
	assert.Equal(t, reporter, *f.ReportedByID)

	_, err = filter.Events(map[string]string{"startDate": "2024-05-01", "endDate": "2024-04-01"})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	for _, v := range []string{"2024-02-01", "2024-02-01T00:00:00", "2024-02-01T00:00:00Z", "2024-02-01T01:00:00+01:00"} {
		got, ok := filter.ParseDate(v)
		require.True(t, ok, v)
		assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), got, v)
	}

	_, ok := filter.ParseDate("02/01/2024")
	assert.False(t, ok)
}
