package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/careledger/backend/internal/timeutil"
)

// EventType identifies what kind of obligation a calendar event represents.
type EventType string

// Supported event types.
const (
	EventTypeMedicationDue EventType = "medication_due"
	EventTypeSupplementDue EventType = "supplement_due"
	EventTypeAppointment   EventType = "appointment"
	EventTypeActivity      EventType = "activity"
	EventTypeReminder      EventType = "reminder"
	EventTypeGratitude     EventType = "gratitude"
	EventTypeSymptom       EventType = "symptom"
)

// IsDose reports whether the event type carries stock and ledger side effects.
func (t EventType) IsDose() bool {
	return t == EventTypeMedicationDue || t == EventTypeSupplementDue
}

// EventStatus is the lifecycle state of a calendar event.
type EventStatus string

// Event status constants.
const (
	EventStatusPending   EventStatus = "pending"
	EventStatusCompleted EventStatus = "completed"
	EventStatusMissed    EventStatus = "missed"
	EventStatusSkipped   EventStatus = "skipped"
)

// CalendarEvent is one concrete dated obligation. Events are created by the
// generator, mutated only through status transitions, and removed in bulk by
// regeneration (future pending rows) or source deletion (all rows).
//
// The store guarantees at most one event per (SourceID, Type, ScheduledTime).
type CalendarEvent struct {
	ID            string                  `json:"id"`
	ProfileID     string                  `json:"profile_id"`
	Type          EventType               `json:"event_type"`
	SourceID      string                  `json:"source_id"`
	Title         string                  `json:"title"`
	ScheduledTime timeutil.LocalDateTime  `json:"scheduled_time"`
	EndTime       *timeutil.LocalDateTime `json:"end_time,omitempty"`
	Status        EventStatus             `json:"status"`
	CompletedTime *timeutil.LocalDateTime `json:"completed_time,omitempty"`
	Metadata      Metadata                `json:"metadata,omitempty"`
	CreatedAt     timeutil.LocalDateTime  `json:"created_at"`
	UpdatedAt     timeutil.LocalDateTime  `json:"updated_at"`
}

// Metadata is the type-specific payload attached to an event. Exactly one
// variant is set, matching the event type; unrelated fields never appear.
type Metadata struct {
	Dose        *DoseMetadata        `json:"dose,omitempty"`
	Appointment *AppointmentMetadata `json:"appointment,omitempty"`
	Reminder    *ReminderMetadata    `json:"reminder,omitempty"`
}

// DoseMetadata describes a medication or supplement dose event.
type DoseMetadata struct {
	Dosage string `json:"dosage,omitempty"`
	Unit   string `json:"unit,omitempty"`
}

// AppointmentMetadata describes an appointment event.
type AppointmentMetadata struct {
	Location  string `json:"location,omitempty"`
	Clinician string `json:"clinician,omitempty"`
}

// ReminderMetadata describes a check-in reminder event.
type ReminderMetadata struct {
	Note string `json:"note,omitempty"`
}

// IsEmpty reports whether no variant is set.
func (m Metadata) IsEmpty() bool {
	return m.Dose == nil && m.Appointment == nil && m.Reminder == nil
}

// Value stores metadata as a JSON TEXT column; empty metadata stores NULL.
func (m Metadata) Value() (driver.Value, error) {
	if m.IsEmpty() {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding event metadata: %w", err)
	}
	return string(data), nil
}

// Scan reads metadata back from a JSON TEXT column.
func (m *Metadata) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case string:
		return json.Unmarshal([]byte(v), m)
	case []byte:
		return json.Unmarshal(v, m)
	default:
		return fmt.Errorf("cannot scan %T into Metadata", src)
	}
}
