package engine

import (
	"context"
	"log"
	"sync"

	"github.com/careledger/backend/internal/storage/models"
	"github.com/careledger/backend/internal/timeutil"
)

// Default forward generation windows per entity kind.
const (
	DefaultDoseWindowDays     = 90
	DefaultReminderWindowDays = 7
)

// RegenResult summarizes one regeneration pass.
type RegenResult struct {
	SourceID string
	Purged   int
	Created  int
}

// Coordinator keeps the event store in sync with schedule changes. A pass
// purges the source's future pending rows, then re-runs the generator for
// the standard forward window. Passes for the same source are serialized;
// the purge-then-generate order makes a crash between steps self-healing on
// the next run.
type Coordinator struct {
	events    EventStore
	ledger    LedgerStore
	generator *Generator
	windows   map[models.EventType]int
	notifier  Notifier

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	today func() timeutil.LocalDate
	now   func() timeutil.LocalDateTime
}

// NewCoordinator creates a coordinator with the standard per-kind windows.
// notifier may be nil.
func NewCoordinator(events EventStore, ledger LedgerStore, generator *Generator, notifier Notifier) *Coordinator {
	return &Coordinator{
		events:    events,
		ledger:    ledger,
		generator: generator,
		windows: map[models.EventType]int{
			models.EventTypeMedicationDue: DefaultDoseWindowDays,
			models.EventTypeSupplementDue: DefaultDoseWindowDays,
			models.EventTypeReminder:      DefaultReminderWindowDays,
		},
		notifier: notifier,
		locks:    make(map[string]*sync.Mutex),
		today:    timeutil.Today,
		now:      timeutil.Now,
	}
}

// SetWindow overrides the forward window for a kind.
func (c *Coordinator) SetWindow(kind models.EventType, days int) {
	if days > 0 {
		c.windows[kind] = days
	}
}

// WindowDays returns the forward window for a kind.
func (c *Coordinator) WindowDays(kind models.EventType) int {
	if days, ok := c.windows[kind]; ok {
		return days
	}
	return DefaultReminderWindowDays
}

func (c *Coordinator) sourceLock(sourceID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[sourceID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[sourceID] = l
	}
	return l
}

// OnScheduleChanged purges the source's future pending events and, if the
// source is still active, regenerates the forward window. Past rows and rows
// already acted upon are untouched.
func (c *Coordinator) OnScheduleChanged(ctx context.Context, src Source) (RegenResult, error) {
	l := c.sourceLock(src.ID)
	l.Lock()
	defer l.Unlock()

	result := RegenResult{SourceID: src.ID}

	purged, err := c.events.DeleteFuturePending(ctx, src.ID, c.now())
	if err != nil {
		return result, storeErr("purging future pending events", err)
	}
	result.Purged = purged

	if !src.Active {
		return result, nil
	}

	start := c.today()
	end := start.AddDays(c.WindowDays(src.Kind) - 1)
	created, err := c.generator.Generate(ctx, src, start, end)
	result.Created = created
	if err != nil {
		return result, err
	}
	return result, nil
}

// OnEntityDeleted cascades: every event for the source is removed regardless
// of status, along with its ledger rows. No regeneration follows a delete.
func (c *Coordinator) OnEntityDeleted(ctx context.Context, sourceID string) (int, error) {
	l := c.sourceLock(sourceID)
	l.Lock()
	defer l.Unlock()

	removed, err := c.events.DeleteBySource(ctx, sourceID)
	if err != nil {
		return 0, storeErr("cascading event delete", err)
	}
	if err := c.ledger.DeleteBySource(ctx, sourceID); err != nil {
		return removed, storeErr("cascading ledger delete", err)
	}

	c.mu.Lock()
	delete(c.locks, sourceID)
	c.mu.Unlock()

	return removed, nil
}

// TopUp extends an active source's window without purging, used by the
// rolling-window job. Generation idempotency makes overlap with a concurrent
// schedule change harmless.
func (c *Coordinator) TopUp(ctx context.Context, src Source) (int, error) {
	l := c.sourceLock(src.ID)
	l.Lock()
	defer l.Unlock()

	start := c.today()
	end := start.AddDays(c.WindowDays(src.Kind) - 1)
	return c.generator.Generate(ctx, src, start, end)
}

// TriggerRegeneration runs a regeneration pass off the request path so a
// slow pass never blocks the entity mutation that caused it.
func (c *Coordinator) TriggerRegeneration(src Source) {
	go func() {
		ctx := context.Background()
		result, err := c.OnScheduleChanged(ctx, src)
		if err != nil {
			log.Printf("Regeneration failed for source %s: %v", src.ID, err)
			if c.notifier != nil {
				c.notifier.RegenerationFailed(src.ID, err)
			}
			return
		}
		log.Printf("Regenerated source %s: %d purged, %d created", src.ID, result.Purged, result.Created)
		if c.notifier != nil {
			c.notifier.RegenerationCompleted(src.ID, src.Kind, result.Purged, result.Created)
		}
	}()
}
