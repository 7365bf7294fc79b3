package models

import (
	"fmt"

	"github.com/careledger/backend/internal/timeutil"
)

// Supplement is a recurring supplement schedule owned by a profile.
// It mirrors Medication but is tracked separately so adherence and stock
// stay per-kind.
type Supplement struct {
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

// Validate checks the supplement for API-level consistency.
func (s *Supplement) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("supplement name is required")
	}
	if s.ProfileID == "" {
		return fmt.Errorf("profile id is required")
	}
	if err := s.TimeOfDay.Validate(); err != nil {
		return err
	}
	return s.Rule.Validate()
}

// NeedsRefill reports whether stock has fallen to the refill threshold.
func (s *Supplement) NeedsRefill() bool {
	return s.CurrentQuantity <= s.RefillThreshold
}
