// Package models defines the data structures shared between storage, the
// calendar event engine, and the API layer.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/careledger/backend/internal/timeutil"
)

// Frequency identifies how often a recurrence rule fires.
type Frequency string

// Supported frequencies.
const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyCustom  Frequency = "custom"
)

// RecurrenceRule describes when a recurring obligation is due.
//
// Interval defaults to 1 ("every occurrence"). DaysOfWeek is only meaningful
// for weekly rules and is required there: a weekly rule with no days is
// ambiguous and is rejected by Validate rather than silently anchored to an
// arbitrary day. EndDate, when set, makes the rule inactive for later dates.
// RRule carries a raw RRULE string for custom frequencies.
type RecurrenceRule struct {
	Frequency  Frequency           `json:"frequency"`
	Interval   int                 `json:"interval,omitempty"`
	DaysOfWeek []int               `json:"days_of_week,omitempty"`
	AnchorDate timeutil.LocalDate  `json:"anchor_date"`
	EndDate    *timeutil.LocalDate `json:"end_date,omitempty"`
	RRule      string              `json:"rrule,omitempty"`
}

// EffectiveInterval returns the interval with the default of 1 applied.
func (r *RecurrenceRule) EffectiveInterval() int {
	if r.Interval <= 0 {
		return 1
	}
	return r.Interval
}

// Validate checks the rule for internal consistency.
func (r *RecurrenceRule) Validate() error {
	switch r.Frequency {
	case FrequencyDaily, FrequencyMonthly:
	case FrequencyWeekly:
		if len(r.DaysOfWeek) == 0 {
			return fmt.Errorf("weekly rule requires at least one day of week")
		}
		for _, d := range r.DaysOfWeek {
			if d < 0 || d > 6 {
				return fmt.Errorf("day of week %d out of range 0..6", d)
			}
		}
	case FrequencyCustom:
		if r.RRule == "" {
			return fmt.Errorf("custom rule requires an rrule string")
		}
	default:
		return fmt.Errorf("unknown frequency %q", r.Frequency)
	}
	if r.Interval < 0 {
		return fmt.Errorf("interval must be positive")
	}
	if r.AnchorDate.IsZero() {
		return fmt.Errorf("rule requires an anchor date")
	}
	return nil
}

// Value stores the rule as a JSON TEXT column.
func (r RecurrenceRule) Value() (driver.Value, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encoding recurrence rule: %w", err)
	}
	return string(data), nil
}

// Scan reads the rule back from a JSON TEXT column.
func (r *RecurrenceRule) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return json.Unmarshal([]byte(v), r)
	case []byte:
		return json.Unmarshal(v, r)
	default:
		return fmt.Errorf("cannot scan %T into RecurrenceRule", src)
	}
}
