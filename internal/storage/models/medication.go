package models

import (
	"fmt"

	"github.com/careledger/backend/internal/timeutil"
)

// Medication is a recurring medication schedule owned by a profile.
type Medication struct {
	ID              string                 `json:"id"`
	ProfileID       string                 `json:"profile_id"`
	Name            string                 `json:"name"`
	Dosage          string                 `json:"dosage,omitempty"`
	Unit            string                 `json:"unit,omitempty"`
	TimeOfDay       TimeSlots              `json:"time_of_day"`
	Rule            RecurrenceRule         `json:"rule"`
	CurrentQuantity int                    `json:"current_quantity"`
	RefillThreshold int                    `json:"refill_threshold"`
	IsActive        bool                   `json:"is_active"`
	CreatedAt       timeutil.LocalDateTime `json:"created_at"`
	UpdatedAt       timeutil.LocalDateTime `json:"updated_at"`
}

// Validate checks the medication for API-level consistency.
func (m *Medication) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("medication name is required")
	}
	if m.ProfileID == "" {
		return fmt.Errorf("profile id is required")
	}
	if err := m.TimeOfDay.Validate(); err != nil {
		return err
	}
	return m.Rule.Validate()
}

// NeedsRefill reports whether stock has fallen to the refill threshold.
func (m *Medication) NeedsRefill() bool {
	return m.CurrentQuantity <= m.RefillThreshold
}
