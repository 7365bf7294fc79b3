package models

import (
	"fmt"

	"github.com/careledger/backend/internal/timeutil"
)

// Reminder is a recurring check-in prompt. Reminders carry no stock or
// ledger side effects; completing one only stamps the event.
type Reminder struct {
	ID        string                 `json:"id"`
	ProfileID string                 `json:"profile_id"`
	Title     string                 `json:"title"`
	Note      string                 `json:"note,omitempty"`
	TimeOfDay TimeSlots              `json:"time_of_day"`
	Rule      RecurrenceRule         `json:"rule"`
	IsActive  bool                   `json:"is_active"`
	CreatedAt timeutil.LocalDateTime `json:"created_at"`
	UpdatedAt timeutil.LocalDateTime `json:"updated_at"`
}

// Validate checks the reminder for API-level consistency.
func (r *Reminder) Validate() error {
	if r.Title == "" {
		return fmt.Errorf("reminder title is required")
	}
	if r.ProfileID == "" {
		return fmt.Errorf("profile id is required")
	}
	if err := r.TimeOfDay.Validate(); err != nil {
		return err
	}
	return r.Rule.Validate()
}
