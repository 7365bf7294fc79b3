package engine

import (
	"context"

	"github.com/careledger/backend/internal/storage/models"
	"github.com/careledger/backend/internal/timeutil"
)

// streakLookbackDays caps how far back the streak walk queries the ledger.
const streakLookbackDays = 365

// Progress is a day's taken/total dose count, postponed rows excluded.
type Progress struct {
	Taken int `json:"taken"`
	Total int `json:"total"`
}

// Calculator derives adherence, streak, progress, and overdue listings.
// Everything here is a pure read-side aggregation over stored state; nothing
// is cached, so the numbers can be recomputed at any time and tolerate
// running concurrently with a regeneration pass.
type Calculator struct {
	events EventStore
	ledger LedgerStore
}

// NewCalculator creates a calculator over the given stores.
func NewCalculator(events EventStore, ledger LedgerStore) *Calculator {
	return &Calculator{events: events, ledger: ledger}
}

// AdherenceRate returns taken/(total-postponed) over [from, to] as a
// percentage. An empty window reports 0, never a division error.
func (c *Calculator) AdherenceRate(ctx context.Context, profileID string, from, to timeutil.LocalDate) (float64, error) {
	entries, err := c.ledger.QueryByDateRange(ctx, profileID, from.StartOfDay(), to.AddDays(1).StartOfDay())
	if err != nil {
		return 0, storeErr("querying ledger for adherence", err)
	}

	total, taken := 0, 0
	for i := range entries {
		if !entries[i].CountsForAdherence() {
			continue
		}
		total++
		if entries[i].Status == models.HistoryStatusTaken {
			taken++
		}
	}
	if total == 0 {
		return 0, nil
	}
	return float64(taken) / float64(total) * 100, nil
}

// CurrentStreak counts consecutive fully-adherent calendar days walking
// backward from yesterday. Today is excluded so an incomplete day neither
// breaks nor falsely extends the streak. The walk stops at the first day
// with no ledger rows or with any actionable row that isn't taken.
func (c *Calculator) CurrentStreak(ctx context.Context, profileID string, today timeutil.LocalDate) (int, error) {
	from := today.AddDays(-streakLookbackDays)
	entries, err := c.ledger.QueryByDateRange(ctx, profileID, from.StartOfDay(), today.StartOfDay())
	if err != nil {
		return 0, storeErr("querying ledger for streak", err)
	}

	byDay := make(map[timeutil.LocalDate][]models.HistoryEntry)
	for _, e := range entries {
		d := e.ScheduledTime.Date()
		byDay[d] = append(byDay[d], e)
	}

	streak := 0
	for day := today.AddDays(-1); !day.Before(from); day = day.AddDays(-1) {
		rows, ok := byDay[day]
		if !ok {
			break
		}
		clean := true
		for i := range rows {
			if rows[i].CountsForAdherence() && rows[i].Status != models.HistoryStatusTaken {
				clean = false
				break
			}
		}
		if !clean {
			break
		}
		streak++
	}
	return streak, nil
}

// TodayProgress returns the taken/total dose counts for the given local day.
func (c *Calculator) TodayProgress(ctx context.Context, profileID string, today timeutil.LocalDate) (Progress, error) {
	entries, err := c.ledger.QueryByDateRange(ctx, profileID, today.StartOfDay(), today.AddDays(1).StartOfDay())
	if err != nil {
		return Progress{}, storeErr("querying ledger for today", err)
	}

	var p Progress
	for i := range entries {
		if !entries[i].CountsForAdherence() {
			continue
		}
		p.Total++
		if entries[i].Status == models.HistoryStatusTaken {
			p.Taken++
		}
	}
	return p, nil
}

// Overdue lists the profile's dose events still pending whose scheduled time
// has passed, scoped to the current local day.
func (c *Calculator) Overdue(ctx context.Context, profileID string, now timeutil.LocalDateTime) ([]models.CalendarEvent, error) {
	dayStart := now.Date().StartOfDay()
	events, err := c.events.Query(ctx, EventFilter{
		ProfileID: profileID,
		From:      &dayStart,
		To:        &now,
		Status:    models.EventStatusPending,
		Types:     []models.EventType{models.EventTypeMedicationDue, models.EventTypeSupplementDue},
	})
	if err != nil {
		return nil, storeErr("querying overdue events", err)
	}
	return events, nil
}
