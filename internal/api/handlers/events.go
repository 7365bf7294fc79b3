package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/careledger/backend/internal/api/middleware"
	"github.com/careledger/backend/internal/engine"
	"github.com/careledger/backend/internal/storage"
	"github.com/careledger/backend/internal/storage/models"
	"github.com/careledger/backend/internal/timeutil"
)

// eventFilterFromQuery builds an event filter from the request query string.
// from/to accept a local date; from is inclusive, to exclusive of the next day.
func eventFilterFromQuery(r *http.Request) (engine.EventFilter, error) {
	q := r.URL.Query()
	filter := engine.EventFilter{
		ProfileID: q.Get("profile_id"),
		SourceID:  q.Get("source_id"),
		Status:    models.EventStatus(q.Get("status")),
	}

	if s := q.Get("from"); s != "" {
		d, err := timeutil.ParseLocalDate(s)
		if err != nil {
			return filter, err
		}
		from := d.StartOfDay()
		filter.From = &from
	}
	if s := q.Get("to"); s != "" {
		d, err := timeutil.ParseLocalDate(s)
		if err != nil {
			return filter, err
		}
		to := d.AddDays(1).StartOfDay()
		filter.To = &to
	}
	if s := q.Get("type"); s != "" {
		for _, t := range strings.Split(s, ",") {
			filter.Types = append(filter.Types, models.EventType(strings.TrimSpace(t)))
		}
	}
	return filter, nil
}

// ListEvents returns calendar events matching the query filters.
func ListEvents(events *storage.EventRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := eventFilterFromQuery(r)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}
		if filter.ProfileID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "profile_id is required")
			return
		}

		list, err := events.Query(r.Context(), filter)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query events")
			return
		}
		if list == nil {
			list = []models.CalendarEvent{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// TodayEvents returns the profile's events for the current local day.
func TodayEvents(events *storage.EventRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profileID := r.URL.Query().Get("profile_id")
		if profileID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "profile_id is required")
			return
		}

		today := timeutil.Today()
		from := today.StartOfDay()
		to := today.AddDays(1).StartOfDay()
		list, err := events.Query(r.Context(), engine.EventFilter{
			ProfileID: profileID,
			From:      &from,
			To:        &to,
		})
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query events")
			return
		}
		if list == nil {
			list = []models.CalendarEvent{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GetEvent returns a single calendar event by ID.
func GetEvent(events *storage.EventRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event, err := events.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query event")
			return
		}
		if event == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Event not found")
			return
		}
		writeJSON(w, http.StatusOK, event)
	}
}

// CompleteEvent marks a pending event done.
func CompleteEvent(transitioner *engine.Transitioner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event, err := transitioner.Complete(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, event)
	}
}

// SkipRequest is the optional payload for skipping an event.
type SkipRequest struct {
	Notes string `json:"notes"`
}

// SkipEvent marks a pending event skipped.
func SkipEvent(transitioner *engine.Transitioner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SkipRequest
		if r.Body != nil {
			json.NewDecoder(r.Body).Decode(&req)
		}

		event, err := transitioner.Skip(r.Context(), mux.Vars(r)["id"], req.Notes)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, event)
	}
}

// PostponeRequest is the optional payload for postponing an event.
type PostponeRequest struct {
	Minutes int `json:"minutes"`
}

// PostponeEvent reschedules a pending event. defaultMinutes applies when the
// request doesn't say how far to push.
func PostponeEvent(transitioner *engine.Transitioner, defaultMinutes int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PostponeRequest
		if r.Body != nil {
			json.NewDecoder(r.Body).Decode(&req)
		}
		if req.Minutes <= 0 {
			req.Minutes = defaultMinutes
		}

		event, err := transitioner.Postpone(r.Context(), mux.Vars(r)["id"], req.Minutes)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, event)
	}
}
