// Package timeutil provides floating local time values.
//
// Obligation times are wall-clock times with no timezone attached: "08:00 on
// 2024-01-02" means the same thing wherever the device happens to be. Storing
// them as instants would shift doses across DST changes and travel, so they
// are modeled as a distinct type that never converts between zones.
package timeutil

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Layout is the canonical storage format for local date-times.
const Layout = "2006-01-02 15:04"

// DateLayout is the canonical storage format for local dates.
const DateLayout = "2006-01-02"

// LocalDateTime is a wall-clock date and time without a timezone.
// The zero value is the zero date-time.
type LocalDateTime struct {
	wall time.Time
}

// NewLocalDateTime builds a LocalDateTime from calendar components.
func NewLocalDateTime(year int, month time.Month, day, hour, minute int) LocalDateTime {
	return LocalDateTime{wall: time.Date(year, month, day, hour, minute, 0, 0, time.UTC)}
}

// FromTime strips the timezone from t, keeping its wall-clock reading.
func FromTime(t time.Time) LocalDateTime {
	return NewLocalDateTime(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute())
}

// ParseLocalDateTime parses the canonical "2006-01-02 15:04" layout.
func ParseLocalDateTime(s string) (LocalDateTime, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return LocalDateTime{}, fmt.Errorf("parsing local date-time %q: %w", s, err)
	}
	return LocalDateTime{wall: t}, nil
}

// AtTimeOfDay combines a date with an "HH:MM" slot.
func AtTimeOfDay(d LocalDate, slot string) (LocalDateTime, error) {
	t, err := time.Parse("15:04", slot)
	if err != nil {
		return LocalDateTime{}, fmt.Errorf("parsing time-of-day %q: %w", slot, err)
	}
	return NewLocalDateTime(d.Year, d.Month, d.Day, t.Hour(), t.Minute()), nil
}

// Date returns the local calendar day this date-time falls on.
func (ldt LocalDateTime) Date() LocalDate {
	return LocalDate{Year: ldt.wall.Year(), Month: ldt.wall.Month(), Day: ldt.wall.Day()}
}

// Hour returns the hour component.
func (ldt LocalDateTime) Hour() int { return ldt.wall.Hour() }

// Minute returns the minute component.
func (ldt LocalDateTime) Minute() int { return ldt.wall.Minute() }

// AddMinutes returns the date-time shifted forward by n minutes.
func (ldt LocalDateTime) AddMinutes(n int) LocalDateTime {
	return LocalDateTime{wall: ldt.wall.Add(time.Duration(n) * time.Minute)}
}

// Before reports whether ldt is earlier than other.
func (ldt LocalDateTime) Before(other LocalDateTime) bool { return ldt.wall.Before(other.wall) }

// After reports whether ldt is later than other.
func (ldt LocalDateTime) After(other LocalDateTime) bool { return ldt.wall.After(other.wall) }

// Equal reports whether ldt and other name the same wall-clock moment.
func (ldt LocalDateTime) Equal(other LocalDateTime) bool { return ldt.wall.Equal(other.wall) }

// IsZero reports whether ldt is the zero value.
func (ldt LocalDateTime) IsZero() bool { return ldt.wall.IsZero() }

// String formats the canonical layout.
func (ldt LocalDateTime) String() string { return ldt.wall.Format(Layout) }

// MarshalJSON encodes the canonical layout as a JSON string.
func (ldt LocalDateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(ldt.String())
}

// UnmarshalJSON decodes the canonical layout from a JSON string.
func (ldt *LocalDateTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseLocalDateTime(s)
	if err != nil {
		return err
	}
	*ldt = parsed
	return nil
}

// Value implements driver.Valuer, storing the canonical text layout so the
// wall-clock reading round-trips without timezone drift.
func (ldt LocalDateTime) Value() (driver.Value, error) {
	return ldt.String(), nil
}

// Scan implements sql.Scanner for TEXT columns.
func (ldt *LocalDateTime) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseLocalDateTime(v)
		if err != nil {
			return err
		}
		*ldt = parsed
		return nil
	case []byte:
		return ldt.Scan(string(v))
	case time.Time:
		// Driver-side DATETIME parsing; keep the wall clock, drop the zone.
		*ldt = FromTime(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into LocalDateTime", src)
	}
}

// LocalDate is a calendar day without a timezone.
type LocalDate struct {
	Year  int
	Month time.Month
	Day   int
}

// NewLocalDate builds a LocalDate from components.
func NewLocalDate(year int, month time.Month, day int) LocalDate {
	// Normalize through time.Date so out-of-range components roll over.
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return LocalDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// ParseLocalDate parses the "2006-01-02" layout.
func ParseLocalDate(s string) (LocalDate, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return LocalDate{}, fmt.Errorf("parsing local date %q: %w", s, err)
	}
	return LocalDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// Today returns the current local calendar day.
func Today() LocalDate {
	now := time.Now()
	return LocalDate{Year: now.Year(), Month: now.Month(), Day: now.Day()}
}

// Now returns the current local wall-clock time as a LocalDateTime.
func Now() LocalDateTime {
	return FromTime(time.Now())
}

func (d LocalDate) asTime() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Weekday returns the day of week (Sunday = 0).
func (d LocalDate) Weekday() time.Weekday { return d.asTime().Weekday() }

// AddDays returns the date shifted by n calendar days.
func (d LocalDate) AddDays(n int) LocalDate {
	t := d.asTime().AddDate(0, 0, n)
	return LocalDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// DaysSince returns the number of whole days from other to d.
// Negative when d precedes other.
func (d LocalDate) DaysSince(other LocalDate) int {
	return int(d.asTime().Sub(other.asTime()).Hours() / 24)
}

// Before reports whether d is an earlier calendar day than other.
func (d LocalDate) Before(other LocalDate) bool { return d.asTime().Before(other.asTime()) }

// After reports whether d is a later calendar day than other.
func (d LocalDate) After(other LocalDate) bool { return d.asTime().After(other.asTime()) }

// Equal reports whether d and other are the same calendar day.
func (d LocalDate) Equal(other LocalDate) bool { return d == other }

// IsZero reports whether d is the zero value.
func (d LocalDate) IsZero() bool { return d == LocalDate{} }

// StartOfDay returns midnight at the start of the day.
func (d LocalDate) StartOfDay() LocalDateTime {
	return NewLocalDateTime(d.Year, d.Month, d.Day, 0, 0)
}

// String formats the "2006-01-02" layout.
func (d LocalDate) String() string { return d.asTime().Format(DateLayout) }

// MarshalJSON encodes the date as a JSON string.
func (d LocalDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes the date from a JSON string.
func (d *LocalDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseLocalDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer.
func (d LocalDate) Value() (driver.Value, error) { return d.String(), nil }

// Scan implements sql.Scanner for TEXT columns.
func (d *LocalDate) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseLocalDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	case time.Time:
		*d = LocalDate{Year: v.Year(), Month: v.Month(), Day: v.Day()}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into LocalDate", src)
	}
}
