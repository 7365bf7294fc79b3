package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// TimeSlots is the list of "HH:MM" times of day a recurring entity fires.
type TimeSlots []string

// Validate checks that the list is non-empty with unique, well-formed slots.
func (ts TimeSlots) Validate() error {
	if len(ts) == 0 {
		return fmt.Errorf("at least one time of day is required")
	}
	seen := make(map[string]bool, len(ts))
	for _, slot := range ts {
		if _, err := time.Parse("15:04", slot); err != nil {
			return fmt.Errorf("invalid time of day %q", slot)
		}
		if seen[slot] {
			return fmt.Errorf("duplicate time of day %q", slot)
		}
		seen[slot] = true
	}
	return nil
}

// Value stores the slots as a JSON TEXT column.
func (ts TimeSlots) Value() (driver.Value, error) {
	data, err := json.Marshal(ts)
	if err != nil {
		return nil, fmt.Errorf("encoding time slots: %w", err)
	}
	return string(data), nil
}

// Scan reads the slots back from a JSON TEXT column.
func (ts *TimeSlots) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*ts = nil
		return nil
	case string:
		return json.Unmarshal([]byte(v), ts)
	case []byte:
		return json.Unmarshal(v, ts)
	default:
		return fmt.Errorf("cannot scan %T into TimeSlots", src)
	}
}
