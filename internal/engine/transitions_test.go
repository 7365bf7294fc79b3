package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careledger/backend/internal/storage/models"
	"github.com/careledger/backend/internal/timeutil"
)

func newTestTransitioner(store *memEventStore, ledger *memLedger, stock *memStock) (*Transitioner, *recordingNotifier) {
	notifier := &recordingNotifier{}
	tr := NewTransitioner(store, ledger, map[models.EventType]StockKeeper{
		models.EventTypeMedicationDue: stock,
		models.EventTypeSupplementDue: stock,
	}, notifier)
	tr.now = func() timeutil.LocalDateTime { return ldt(2024, 1, 1, 8, 5) }
	return tr, notifier
}

func seedPendingEvent(t *testing.T, store *memEventStore, src Source, at timeutil.LocalDateTime) *models.CalendarEvent {
	t.Helper()
	event := &models.CalendarEvent{
		ProfileID:     src.ProfileID,
		Type:          src.Kind,
		SourceID:      src.ID,
		Title:         src.Title,
		ScheduledTime: at,
		Status:        models.EventStatusPending,
		Metadata:      src.Metadata,
	}
	require.NoError(t, store.Create(context.Background(), event))
	return event
}

func TestTransitioner_CompleteDose(t *testing.T) {
	store := newMemEventStore()
	ledger := newMemLedger()
	stock := newMemStock()
	stock.counts["med-1"] = 10
	tr, notifier := newTestTransitioner(store, ledger, stock)

	src := dailySource("med-1")
	event := seedPendingEvent(t, store, src, ldt(2024, 1, 1, 8, 0))

	got, err := tr.Complete(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedTime)
	assert.Equal(t, ldt(2024, 1, 1, 8, 5), *got.CompletedTime)

	// Stock decremented once.
	assert.Equal(t, 9, stock.quantity("med-1"))

	// Exactly one taken ledger row with the actual time.
	entry, ok := ledger.get("med-1", ldt(2024, 1, 1, 8, 0))
	require.True(t, ok)
	assert.Equal(t, models.HistoryStatusTaken, entry.Status)
	require.NotNil(t, entry.ActualTime)
	assert.Equal(t, ldt(2024, 1, 1, 8, 5), *entry.ActualTime)
	assert.Equal(t, models.SourceKindMedication, entry.SourceKind)

	require.Len(t, notifier.changes, 1)
	assert.Equal(t, models.EventStatusPending, notifier.changes[0].previous)
	assert.Equal(t, models.EventStatusCompleted, notifier.changes[0].current)
}

func TestTransitioner_CompleteThenRegenerateCreatesNothing(t *testing.T) {
	store := newMemEventStore()
	ledger := newMemLedger()
	stock := newMemStock()
	stock.counts["med-1"] = 10
	tr, _ := newTestTransitioner(store, ledger, stock)

	src := dailySource("med-1", "08:00")
	gen := NewGenerator(store, nil)
	ctx := context.Background()

	_, err := gen.Generate(ctx, src, ld(2024, 1, 1), ld(2024, 1, 1))
	require.NoError(t, err)
	events, err := store.Query(ctx, EventFilter{SourceID: "med-1"})
	require.NoError(t, err)
	require.Len(t, events, 1)

	_, err = tr.Complete(ctx, events[0].ID)
	require.NoError(t, err)

	created, err := gen.Generate(ctx, src, ld(2024, 1, 1), ld(2024, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, created)
	assert.Equal(t, 9, stock.quantity("med-1"))
}

func TestTransitioner_CompleteStockFailureStillCompletes(t *testing.T) {
	store := newMemEventStore()
	ledger := newMemLedger()
	stock := newMemStock() // no entry for med-1, decrement errors
	tr, _ := newTestTransitioner(store, ledger, stock)

	src := dailySource("med-1")
	event := seedPendingEvent(t, store, src, ldt(2024, 1, 1, 8, 0))

	got, err := tr.Complete(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusCompleted, got.Status)

	// The taken row is the record that matters.
	entry, ok := ledger.get("med-1", ldt(2024, 1, 1, 8, 0))
	require.True(t, ok)
	assert.Equal(t, models.HistoryStatusTaken, entry.Status)
}

func TestTransitioner_CompleteNonDose(t *testing.T) {
	store := newMemEventStore()
	ledger := newMemLedger()
	stock := newMemStock()
	tr, _ := newTestTransitioner(store, ledger, stock)

	src := dailySource("rem-1")
	src.Kind = models.EventTypeReminder
	event := seedPendingEvent(t, store, src, ldt(2024, 1, 1, 9, 0))

	got, err := tr.Complete(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusCompleted, got.Status)

	// Reminders never touch the ledger.
	_, ok := ledger.get("rem-1", ldt(2024, 1, 1, 9, 0))
	assert.False(t, ok)
}

func TestTransitioner_Skip(t *testing.T) {
	store := newMemEventStore()
	ledger := newMemLedger()
	stock := newMemStock()
	stock.counts["med-1"] = 10
	tr, _ := newTestTransitioner(store, ledger, stock)

	src := dailySource("med-1")
	event := seedPendingEvent(t, store, src, ldt(2024, 1, 1, 8, 0))

	got, err := tr.Skip(context.Background(), event.ID, "nausea")
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusSkipped, got.Status)

	// Skipping never decrements stock.
	assert.Equal(t, 10, stock.quantity("med-1"))

	entry, ok := ledger.get("med-1", ldt(2024, 1, 1, 8, 0))
	require.True(t, ok)
	assert.Equal(t, models.HistoryStatusSkipped, entry.Status)
	assert.Equal(t, "nausea", entry.Notes)
	assert.Nil(t, entry.ActualTime)
}

func TestTransitioner_Postpone(t *testing.T) {
	store := newMemEventStore()
	ledger := newMemLedger()
	stock := newMemStock()
	tr, _ := newTestTransitioner(store, ledger, stock)

	src := dailySource("med-1")
	event := seedPendingEvent(t, store, src, ldt(2024, 1, 1, 8, 0))

	got, err := tr.Postpone(context.Background(), event.ID, 30)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusPending, got.Status)
	assert.Equal(t, ldt(2024, 1, 1, 8, 30), got.ScheduledTime)

	// Original event is gone, replaced by the rescheduled one.
	original, err := store.GetByID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Nil(t, original)
	assert.Equal(t, 1, store.count())

	// The original slot keeps a postponed ledger row.
	entry, ok := ledger.get("med-1", ldt(2024, 1, 1, 8, 0))
	require.True(t, ok)
	assert.Equal(t, models.HistoryStatusPostponed, entry.Status)
}

func TestTransitioner_PostponeIntoOccupiedSlot(t *testing.T) {
	store := newMemEventStore()
	ledger := newMemLedger()
	stock := newMemStock()
	tr, _ := newTestTransitioner(store, ledger, stock)

	src := dailySource("med-1")
	event := seedPendingEvent(t, store, src, ldt(2024, 1, 1, 8, 0))
	later := seedPendingEvent(t, store, src, ldt(2024, 1, 1, 8, 30))

	got, err := tr.Postpone(context.Background(), event.ID, 30)
	require.NoError(t, err)
	assert.Equal(t, later.ID, got.ID)
	assert.Equal(t, 1, store.count())
}

func TestTransitioner_PostponeDefaultMinutes(t *testing.T) {
	store := newMemEventStore()
	ledger := newMemLedger()
	stock := newMemStock()
	tr, _ := newTestTransitioner(store, ledger, stock)

	src := dailySource("med-1")
	event := seedPendingEvent(t, store, src, ldt(2024, 1, 1, 8, 0))

	got, err := tr.Postpone(context.Background(), event.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, ldt(2024, 1, 1, 8, 30), got.ScheduledTime)
}

func TestTransitioner_MarkMissed(t *testing.T) {
	store := newMemEventStore()
	ledger := newMemLedger()
	stock := newMemStock()
	stock.counts["med-1"] = 10
	tr, _ := newTestTransitioner(store, ledger, stock)

	src := dailySource("med-1")
	event := seedPendingEvent(t, store, src, ldt(2024, 1, 1, 8, 0))

	require.NoError(t, tr.MarkMissed(context.Background(), event.ID))

	reloaded, err := store.GetByID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusMissed, reloaded.Status)

	entry, ok := ledger.get("med-1", ldt(2024, 1, 1, 8, 0))
	require.True(t, ok)
	assert.Equal(t, models.HistoryStatusMissed, entry.Status)

	// Missing a dose never decrements stock.
	assert.Equal(t, 10, stock.quantity("med-1"))
}

func TestTransitioner_IllegalTransitions(t *testing.T) {
	store := newMemEventStore()
	ledger := newMemLedger()
	stock := newMemStock()
	stock.counts["med-1"] = 10
	tr, _ := newTestTransitioner(store, ledger, stock)

	src := dailySource("med-1")
	event := seedPendingEvent(t, store, src, ldt(2024, 1, 1, 8, 0))

	_, err := tr.Complete(context.Background(), event.ID)
	require.NoError(t, err)

	var te *TransitionError

	_, err = tr.Complete(context.Background(), event.ID)
	require.ErrorAs(t, err, &te)
	assert.Equal(t, models.EventStatusCompleted, te.From)

	_, err = tr.Skip(context.Background(), event.ID, "")
	assert.ErrorAs(t, err, &te)

	_, err = tr.Postpone(context.Background(), event.ID, 30)
	assert.ErrorAs(t, err, &te)

	assert.ErrorAs(t, tr.MarkMissed(context.Background(), event.ID), &te)

	// Completing twice decrements stock once.
	assert.Equal(t, 9, stock.quantity("med-1"))
}

func TestTransitioner_NotFound(t *testing.T) {
	store := newMemEventStore()
	tr, _ := newTestTransitioner(store, newMemLedger(), newMemStock())

	_, err := tr.Complete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransitioner_SupplementSourceKind(t *testing.T) {
	store := newMemEventStore()
	ledger := newMemLedger()
	stock := newMemStock()
	stock.counts["sup-1"] = 5
	tr, _ := newTestTransitioner(store, ledger, stock)

	src := dailySource("sup-1")
	src.Kind = models.EventTypeSupplementDue
	event := seedPendingEvent(t, store, src, ldt(2024, 1, 1, 8, 0))

	_, err := tr.Complete(context.Background(), event.ID)
	require.NoError(t, err)

	entry, ok := ledger.get("sup-1", ldt(2024, 1, 1, 8, 0))
	require.True(t, ok)
	assert.Equal(t, models.SourceKindSupplement, entry.SourceKind)
	assert.Equal(t, 4, stock.quantity("sup-1"))
}
