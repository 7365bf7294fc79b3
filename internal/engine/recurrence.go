package engine

import (
	"time"

	"github.com/teambition/rrule-go"

	"github.com/careledger/backend/internal/storage/models"
	"github.com/careledger/backend/internal/timeutil"
)

// DueFunc decides whether a rule is due on a date. Implementations must be
// pure: no I/O, deterministic for a given (rule, date).
type DueFunc func(rule *models.RecurrenceRule, date timeutil.LocalDate) (bool, error)

// Evaluator answers "is this rule due on this date". Frequency handlers are
// held in a registry so entity-specific frequencies can be plugged in
// without touching the core.
type Evaluator struct {
	handlers map[models.Frequency]DueFunc
}

// NewEvaluator returns an evaluator with the standard frequencies
// registered.
func NewEvaluator() *Evaluator {
	e := &Evaluator{handlers: make(map[models.Frequency]DueFunc)}
	e.Register(models.FrequencyDaily, dueDaily)
	e.Register(models.FrequencyWeekly, dueWeekly)
	e.Register(models.FrequencyMonthly, dueMonthly)
	e.Register(models.FrequencyCustom, dueCustom)
	return e
}

// Register installs or replaces the handler for a frequency.
func (e *Evaluator) Register(freq models.Frequency, fn DueFunc) {
	e.handlers[freq] = fn
}

// IsDueOn reports whether the rule produces an obligation on the given date.
func (e *Evaluator) IsDueOn(rule *models.RecurrenceRule, date timeutil.LocalDate) (bool, error) {
	if err := rule.Validate(); err != nil {
		return false, validationErrorf("%v", err)
	}
	if date.Before(rule.AnchorDate) {
		return false, nil
	}
	if rule.EndDate != nil && date.After(*rule.EndDate) {
		return false, nil
	}
	fn, ok := e.handlers[rule.Frequency]
	if !ok {
		return false, validationErrorf("no handler for frequency %q", rule.Frequency)
	}
	return fn(rule, date)
}

func dueDaily(rule *models.RecurrenceRule, date timeutil.LocalDate) (bool, error) {
	return date.DaysSince(rule.AnchorDate)%rule.EffectiveInterval() == 0, nil
}

// dueWeekly fires on the configured weekdays. With interval N, only weeks at
// N-week multiples from the anchor's week count.
func dueWeekly(rule *models.RecurrenceRule, date timeutil.LocalDate) (bool, error) {
	match := false
	for _, d := range rule.DaysOfWeek {
		if int(date.Weekday()) == d {
			match = true
			break
		}
	}
	if !match {
		return false, nil
	}
	if interval := rule.EffectiveInterval(); interval > 1 {
		anchorWeek := rule.AnchorDate.AddDays(-int(rule.AnchorDate.Weekday()))
		dateWeek := date.AddDays(-int(date.Weekday()))
		weeks := dateWeek.DaysSince(anchorWeek) / 7
		if weeks%interval != 0 {
			return false, nil
		}
	}
	return true, nil
}

// dueMonthly fires on the anchor's day of month every N months. When the
// month is too short (anchor on the 31st, say), the last day of the month
// stands in.
func dueMonthly(rule *models.RecurrenceRule, date timeutil.LocalDate) (bool, error) {
	months := (date.Year-rule.AnchorDate.Year)*12 + int(date.Month) - int(rule.AnchorDate.Month)
	if months%rule.EffectiveInterval() != 0 {
		return false, nil
	}
	lastDay := timeutil.NewLocalDate(date.Year, date.Month+1, 0).Day
	target := rule.AnchorDate.Day
	if target > lastDay {
		target = lastDay
	}
	return date.Day == target, nil
}

// dueCustom evaluates a raw RRULE string, anchored at midnight of the rule's
// anchor date, by asking for occurrences within the date's 24-hour window.
func dueCustom(rule *models.RecurrenceRule, date timeutil.LocalDate) (bool, error) {
	r, err := rrule.StrToRRule(rule.RRule)
	if err != nil {
		return false, validationErrorf("parsing rrule %q: %v", rule.RRule, err)
	}
	anchor := time.Date(rule.AnchorDate.Year, rule.AnchorDate.Month, rule.AnchorDate.Day, 0, 0, 0, 0, time.UTC)
	r.DTStart(anchor)

	dayStart := time.Date(date.Year, date.Month, date.Day, 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24*time.Hour - time.Second)
	return len(r.Between(dayStart, dayEnd, true)) > 0, nil
}
