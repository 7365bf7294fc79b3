package engine

import (
	"context"
	"fmt"

	"github.com/careledger/backend/internal/storage/models"
	"github.com/careledger/backend/internal/timeutil"
)

// Generator expands a source entity's recurrence into concrete pending
// events over a date window. Generation is additive and idempotent: existing
// rows are never updated, so running the same window twice creates nothing
// and a failure partway through is safely retryable.
type Generator struct {
	events    EventStore
	evaluator *Evaluator
}

// NewGenerator creates a generator over the given event store.
func NewGenerator(events EventStore, evaluator *Evaluator) *Generator {
	if evaluator == nil {
		evaluator = NewEvaluator()
	}
	return &Generator{events: events, evaluator: evaluator}
}

// Generate inserts the missing events for src between windowStart and
// windowEnd (both inclusive) and returns the number created. Inactive
// sources generate nothing.
func (g *Generator) Generate(ctx context.Context, src Source, windowStart, windowEnd timeutil.LocalDate) (int, error) {
	if !src.Active {
		return 0, nil
	}
	if windowEnd.Before(windowStart) {
		return 0, validationErrorf("window end %s before start %s", windowEnd, windowStart)
	}
	if err := src.Rule.Validate(); err != nil {
		return 0, validationErrorf("%v", err)
	}
	if err := src.TimeOfDay.Validate(); err != nil {
		return 0, validationErrorf("%v", err)
	}

	created := 0
	for date := windowStart; !date.After(windowEnd); date = date.AddDays(1) {
		// Abandoning mid-window is safe: partial progress is resumable.
		if err := ctx.Err(); err != nil {
			return created, err
		}

		due, err := g.evaluator.IsDueOn(&src.Rule, date)
		if err != nil {
			return created, err
		}
		if !due {
			continue
		}

		for _, slot := range src.TimeOfDay {
			at, err := timeutil.AtTimeOfDay(date, slot)
			if err != nil {
				return created, validationErrorf("%v", err)
			}
			madeOne, err := g.createIfMissing(ctx, src, at)
			if err != nil {
				return created, err
			}
			if madeOne {
				created++
			}
		}
	}
	return created, nil
}

// createIfMissing inserts one pending event unless a row already exists for
// the (source, type, time) tuple. The check is keyed on scheduled time, not
// status, so events a user already completed or skipped are never recreated.
func (g *Generator) createIfMissing(ctx context.Context, src Source, at timeutil.LocalDateTime) (bool, error) {
	existing, err := g.events.FindExisting(ctx, src.ID, src.Kind, at)
	if err != nil {
		return false, storeErr(fmt.Sprintf("finding event for %s at %s", src.ID, at), err)
	}
	if existing != nil {
		return false, nil
	}

	event := &models.CalendarEvent{
		ProfileID:     src.ProfileID,
		Type:          src.Kind,
		SourceID:      src.ID,
		Title:         src.Title,
		ScheduledTime: at,
		Status:        models.EventStatusPending,
		Metadata:      src.Metadata,
	}
	if err := g.events.Create(ctx, event); err != nil {
		return false, storeErr(fmt.Sprintf("creating event for %s at %s", src.ID, at), err)
	}
	return true, nil
}
