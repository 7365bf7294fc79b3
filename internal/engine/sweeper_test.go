package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careledger/backend/internal/storage/models"
	"github.com/careledger/backend/internal/timeutil"
)

func TestSweeper_SweepMissed(t *testing.T) {
	store := newMemEventStore()
	ledger := newMemLedger()
	stock := newMemStock()
	stock.counts["med-1"] = 10
	tr, _ := newTestTransitioner(store, ledger, stock)

	s := NewSweeper(store, tr, nil, nil, nil, nil, 60)
	s.now = func() timeutil.LocalDateTime { return ldt(2024, 1, 10, 12, 0) }

	src := dailySource("med-1")
	stale := seedPendingEvent(t, store, src, ldt(2024, 1, 10, 8, 0))
	inGrace := seedPendingEvent(t, store, src, ldt(2024, 1, 10, 11, 30))
	future := seedPendingEvent(t, store, src, ldt(2024, 1, 10, 20, 0))

	marked := s.SweepMissed(context.Background())
	assert.Equal(t, 1, marked)

	reloaded, err := store.GetByID(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusMissed, reloaded.Status)

	entry, ok := ledger.get("med-1", ldt(2024, 1, 10, 8, 0))
	require.True(t, ok)
	assert.Equal(t, models.HistoryStatusMissed, entry.Status)

	for _, id := range []string{inGrace.ID, future.ID} {
		e, err := store.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, models.EventStatusPending, e.Status)
	}
}

func TestSweeper_SweepMissedIgnoresReminders(t *testing.T) {
	store := newMemEventStore()
	tr, _ := newTestTransitioner(store, newMemLedger(), newMemStock())

	s := NewSweeper(store, tr, nil, nil, nil, nil, 60)
	s.now = func() timeutil.LocalDateTime { return ldt(2024, 1, 10, 12, 0) }

	rem := dailySource("rem-1")
	rem.Kind = models.EventTypeReminder
	event := seedPendingEvent(t, store, rem, ldt(2024, 1, 10, 8, 0))

	marked := s.SweepMissed(context.Background())
	assert.Equal(t, 0, marked)

	reloaded, err := store.GetByID(context.Background(), event.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventStatusPending, reloaded.Status)
}

func TestSweeper_CheckStock(t *testing.T) {
	store := newMemEventStore()
	tr, notifier := newTestTransitioner(store, newMemLedger(), newMemStock())

	refills := &staticRefills{items: []LowStockItem{
		{Kind: models.SourceKindMedication, SourceID: "med-1", Name: "Lisinopril", Remaining: 3},
	}}
	s := NewSweeper(store, tr, nil, nil, refills, notifier, 60)

	s.CheckStock(context.Background())

	require.Len(t, notifier.lowStock, 1)
	assert.Equal(t, "med-1", notifier.lowStock[0].SourceID)
	assert.Equal(t, 3, notifier.lowStock[0].Remaining)
}

type staticRefills struct {
	items []LowStockItem
}

func (r *staticRefills) ListNeedingRefill(ctx context.Context) ([]LowStockItem, error) {
	return r.items, nil
}
