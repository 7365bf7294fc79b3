package storage

import (
	"context"
	"fmt"

	"github.com/careledger/backend/internal/engine"
	"github.com/careledger/backend/internal/storage/models"
)

// SourceCatalog adapts the entity repositories to the engine's SourceLister
// and RefillLister contracts, so the sweeper can enumerate schedules and
// stock levels without knowing about SQL.
type SourceCatalog struct {
	medications *MedicationRepository
	supplements *SupplementRepository
	reminders   *ReminderRepository
}

// NewSourceCatalog creates a catalog over the given repositories.
func NewSourceCatalog(
	medications *MedicationRepository,
	supplements *SupplementRepository,
	reminders *ReminderRepository,
) *SourceCatalog {
	return &SourceCatalog{
		medications: medications,
		supplements: supplements,
		reminders:   reminders,
	}
}

// ListActiveSources returns every active schedule-bearing entity as an
// engine source. Appointments are single-occurrence and excluded.
func (c *SourceCatalog) ListActiveSources(ctx context.Context) ([]engine.Source, error) {
	var sources []engine.Source

	meds, err := c.medications.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing active medications: %w", err)
	}
	for i := range meds {
		sources = append(sources, MedicationSource(&meds[i]))
	}

	sups, err := c.supplements.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing active supplements: %w", err)
	}
	for i := range sups {
		sources = append(sources, SupplementSource(&sups[i]))
	}

	rems, err := c.reminders.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing active reminders: %w", err)
	}
	for i := range rems {
		sources = append(sources, ReminderSource(&rems[i]))
	}

	return sources, nil
}

// ListNeedingRefill returns every active dose source at or below its refill
// threshold.
func (c *SourceCatalog) ListNeedingRefill(ctx context.Context) ([]engine.LowStockItem, error) {
	var items []engine.LowStockItem

	meds, err := c.medications.ListNeedingRefill(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing medications needing refill: %w", err)
	}
	for i := range meds {
		items = append(items, engine.LowStockItem{
			Kind:      models.SourceKindMedication,
			SourceID:  meds[i].ID,
			Name:      meds[i].Name,
			Remaining: meds[i].CurrentQuantity,
		})
	}

	sups, err := c.supplements.ListNeedingRefill(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing supplements needing refill: %w", err)
	}
	for i := range sups {
		items = append(items, engine.LowStockItem{
			Kind:      models.SourceKindSupplement,
			SourceID:  sups[i].ID,
			Name:      sups[i].Name,
			Remaining: sups[i].CurrentQuantity,
		})
	}

	return items, nil
}

// MedicationSource maps a medication to the engine's source view.
func MedicationSource(med *models.Medication) engine.Source {
	return engine.Source{
		ID:        med.ID,
		ProfileID: med.ProfileID,
		Kind:      models.EventTypeMedicationDue,
		Title:     med.Name,
		TimeOfDay: med.TimeOfDay,
		Rule:      med.Rule,
		Metadata: models.Metadata{
			Dose: &models.DoseMetadata{Dosage: med.Dosage, Unit: med.Unit},
		},
		Active: med.IsActive,
	}
}

// SupplementSource maps a supplement to the engine's source view.
func SupplementSource(sup *models.Supplement) engine.Source {
	return engine.Source{
		ID:        sup.ID,
		ProfileID: sup.ProfileID,
		Kind:      models.EventTypeSupplementDue,
		Title:     sup.Name,
		TimeOfDay: sup.TimeOfDay,
		Rule:      sup.Rule,
		Metadata: models.Metadata{
			Dose: &models.DoseMetadata{Dosage: sup.Dosage, Unit: sup.Unit},
		},
		Active: sup.IsActive,
	}
}

// ReminderSource maps a reminder to the engine's source view.
func ReminderSource(rem *models.Reminder) engine.Source {
	return engine.Source{
		ID:        rem.ID,
		ProfileID: rem.ProfileID,
		Kind:      models.EventTypeReminder,
		Title:     rem.Title,
		TimeOfDay: rem.TimeOfDay,
		Rule:      rem.Rule,
		Metadata: models.Metadata{
			Reminder: &models.ReminderMetadata{Note: rem.Note},
		},
		Active: rem.IsActive,
	}
}
