package models

import (
	"fmt"

	"github.com/careledger/backend/internal/timeutil"
)

// Appointment is a single-occurrence obligation: it carries one fixed
// scheduled time instead of a recurrence rule, and its calendar event is
// created directly at entity-create time rather than by the generator.
type Appointment struct {
	ID            string                  `json:"id"`
	ProfileID     string                  `json:"profile_id"`
	Title         string                  `json:"title"`
	Location      string                  `json:"location,omitempty"`
	Clinician     string                  `json:"clinician,omitempty"`
	ScheduledTime timeutil.LocalDateTime  `json:"scheduled_time"`
	EndTime       *timeutil.LocalDateTime `json:"end_time,omitempty"`
	Notes         string                  `json:"notes,omitempty"`
	CreatedAt     timeutil.LocalDateTime  `json:"created_at"`
	UpdatedAt     timeutil.LocalDateTime  `json:"updated_at"`
}

// Validate checks the appointment for API-level consistency.
func (a *Appointment) Validate() error {
	if a.Title == "" {
		return fmt.Errorf("appointment title is required")
	}
	if a.ProfileID == "" {
		return fmt.Errorf("profile id is required")
	}
	if a.ScheduledTime.IsZero() {
		return fmt.Errorf("scheduled time is required")
	}
	if a.EndTime != nil && !a.EndTime.After(a.ScheduledTime) {
		return fmt.Errorf("end time must be after scheduled time")
	}
	return nil
}
