package domain

import (
	"slices"
	"time"
)

type Frequency string

const (
	FrequencyDaily     Frequency = "DAILY"
	FrequencyWeekly    Frequency = "WEEKLY"
	FrequencyMonthly   Frequency = "MONTHLY"
	FrequencyQuarterly Frequency = "QUARTERLY"
	FrequencyYearly    Frequency = "YEARLY"
)

// ValidFrequencies is the canonical set of recurrence frequencies.
var ValidFrequencies = []Frequency{ //nolint:gochecknoglobals // canonical enum list
	FrequencyDaily,
	FrequencyWeekly,
	FrequencyMonthly,
	FrequencyQuarterly,
	FrequencyYearly,
}

func (f Frequency) Valid() bool {
	return slices.Contains(ValidFrequencies, f)
}

// RecurrenceRule governs a finite series of tasks generated from one template.
// At least one of EndDate and Count must bound the series.
type RecurrenceRule struct {
	Frequency Frequency  `json:"frequency"`
	Interval  int        `json:"interval"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Count     *int       `json:"count,omitempty"`
}

func (r RecurrenceRule) Validate() error {
	if !r.Frequency.Valid() {
		return Validationf("recurrence.frequency", "unknown recurrence frequency %q", r.Frequency)
	}
	if r.Interval < 1 {
		return Validationf("recurrence.interval", "interval must be >= 1, got %d", r.Interval)
	}
	if r.EndDate == nil && r.Count == nil {
		return Validationf("recurrence", "recurrence must be bounded by end_date or count")
	}
	if r.Count != nil && *r.Count < 1 {
		return Validationf("recurrence.count", "count must be >= 1, got %d", *r.Count)
	}
	return nil
}
