package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careledger/backend/internal/storage/models"
	"github.com/careledger/backend/internal/timeutil"
)

func newTestCoordinator(store *memEventStore, ledger *memLedger) *Coordinator {
	c := NewCoordinator(store, ledger, NewGenerator(store, nil), nil)
	c.today = func() timeutil.LocalDate { return ld(2024, 1, 10) }
	c.now = func() timeutil.LocalDateTime { return ldt(2024, 1, 10, 12, 0) }
	c.SetWindow(models.EventTypeMedicationDue, 7)
	c.SetWindow(models.EventTypeReminder, 3)
	return c
}

func TestCoordinator_ScheduleChangeRegeneratesWindow(t *testing.T) {
	store := newMemEventStore()
	c := newTestCoordinator(store, newMemLedger())
	src := dailySource("med-1", "08:00")

	result, err := c.OnScheduleChanged(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Purged)
	assert.Equal(t, 7, result.Created)

	// Change to two slots: the old future events are purged, the new
	// schedule fills the window.
	src.TimeOfDay = models.TimeSlots{"08:00", "20:00"}
	result, err = c.OnScheduleChanged(context.Background(), src)
	require.NoError(t, err)
	// The 08:00 slot on the 10th is already in the past and survives the
	// purge, so 6 future rows go and 13 of the 14 new slots get created.
	assert.Equal(t, 6, result.Purged)
	assert.Equal(t, 13, result.Created)
}

func TestCoordinator_RegenerationPreservesHistory(t *testing.T) {
	store := newMemEventStore()
	c := newTestCoordinator(store, newMemLedger())
	src := dailySource("med-1", "08:00")
	ctx := context.Background()

	_, err := c.OnScheduleChanged(ctx, src)
	require.NoError(t, err)

	// Complete the first event, then change the schedule.
	events, err := store.Query(ctx, EventFilter{SourceID: "med-1"})
	require.NoError(t, err)
	done := ldt(2024, 1, 10, 8, 5)
	require.NoError(t, store.UpdateStatus(ctx, events[0].ID, models.EventStatusCompleted, &done))

	src.TimeOfDay = models.TimeSlots{"09:00"}
	_, err = c.OnScheduleChanged(ctx, src)
	require.NoError(t, err)

	// The completed row survives untouched.
	reloaded, err := store.GetByID(ctx, events[0].ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	assert.Equal(t, models.EventStatusCompleted, reloaded.Status)
	assert.Equal(t, ldt(2024, 1, 10, 8, 0), reloaded.ScheduledTime)
}

func TestCoordinator_DeactivatedSourcePurgesOnly(t *testing.T) {
	store := newMemEventStore()
	c := newTestCoordinator(store, newMemLedger())
	src := dailySource("med-1", "08:00")
	ctx := context.Background()

	_, err := c.OnScheduleChanged(ctx, src)
	require.NoError(t, err)
	require.Equal(t, 7, store.count())

	src.Active = false
	result, err := c.OnScheduleChanged(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 0, store.count())
}

func TestCoordinator_EntityDeleteCascadesAllStatuses(t *testing.T) {
	store := newMemEventStore()
	c := newTestCoordinator(store, newMemLedger())
	src := dailySource("med-1", "08:00")
	ctx := context.Background()

	_, err := c.OnScheduleChanged(ctx, src)
	require.NoError(t, err)

	events, err := store.Query(ctx, EventFilter{SourceID: "med-1"})
	require.NoError(t, err)
	done := ldt(2024, 1, 10, 8, 5)
	require.NoError(t, store.UpdateStatus(ctx, events[0].ID, models.EventStatusCompleted, &done))
	require.NoError(t, store.UpdateStatus(ctx, events[1].ID, models.EventStatusMissed, nil))

	removed, err := c.OnEntityDeleted(ctx, "med-1")
	require.NoError(t, err)
	assert.Equal(t, 7, removed)
	assert.Equal(t, 0, store.count())
}

func TestCoordinator_EntityDeleteCascadesLedger(t *testing.T) {
	store := newMemEventStore()
	ledger := newMemLedger()
	c := newTestCoordinator(store, ledger)
	ctx := context.Background()

	for sourceID, status := range map[string]models.HistoryStatus{
		"med-1": models.HistoryStatusTaken,
		"med-2": models.HistoryStatusMissed,
	} {
		require.NoError(t, ledger.UpsertStatus(ctx, &models.HistoryEntry{
			ProfileID:     "profile-1",
			SourceKind:    models.SourceKindMedication,
			SourceID:      sourceID,
			ScheduledTime: ldt(2024, 1, 9, 8, 0),
			Status:        status,
		}))
	}

	_, err := c.OnEntityDeleted(ctx, "med-1")
	require.NoError(t, err)

	// The deleted source's ledger goes with it, so adherence and streaks
	// stop counting it. Other sources keep their history.
	assert.Equal(t, 0, ledger.countBySource("med-1"))
	assert.Equal(t, 1, ledger.countBySource("med-2"))
}

func TestCoordinator_TopUpIsAdditive(t *testing.T) {
	store := newMemEventStore()
	c := newTestCoordinator(store, newMemLedger())
	src := dailySource("med-1", "08:00")
	ctx := context.Background()

	_, err := c.OnScheduleChanged(ctx, src)
	require.NoError(t, err)

	// Same window, nothing to add.
	created, err := c.TopUp(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	// A day passes; the rolling window gains one day.
	c.today = func() timeutil.LocalDate { return ld(2024, 1, 11) }
	created, err = c.TopUp(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Equal(t, 8, store.count())
}

func TestCoordinator_WindowDays(t *testing.T) {
	store := newMemEventStore()
	c := NewCoordinator(store, newMemLedger(), NewGenerator(store, nil), nil)

	assert.Equal(t, DefaultDoseWindowDays, c.WindowDays(models.EventTypeMedicationDue))
	assert.Equal(t, DefaultReminderWindowDays, c.WindowDays(models.EventTypeReminder))

	c.SetWindow(models.EventTypeMedicationDue, 30)
	assert.Equal(t, 30, c.WindowDays(models.EventTypeMedicationDue))

	// Non-positive overrides are ignored.
	c.SetWindow(models.EventTypeMedicationDue, 0)
	assert.Equal(t, 30, c.WindowDays(models.EventTypeMedicationDue))
}
