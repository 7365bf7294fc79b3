// Package engine implements the calendar event engine: recurrence
// evaluation, idempotent event generation, the obligation status state
// machine, schedule regeneration, and adherence statistics.
package engine

import (
	"errors"
	"fmt"

	"github.com/careledger/backend/internal/storage/models"
)

// ErrNotFound indicates the target entity or event no longer exists.
// Callers treat this as already-resolved rather than fatal.
var ErrNotFound = errors.New("not found")

// ValidationError indicates malformed input, such as a weekly rule with no
// days of week.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// TransitionError indicates an illegal status transition, e.g. completing an
// event that was already skipped.
type TransitionError struct {
	EventID   string
	From      models.EventStatus
	Attempted models.EventStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %s: illegal transition %s -> %s", e.EventID, e.From, e.Attempted)
}

// StoreError wraps a transient store failure. Generation and regeneration
// are idempotent and may be retried on a StoreError. Status transitions are
// not: a failed transition may have already written its ledger row or
// decremented stock, so callers surface the error instead of retrying.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
