package handlers

import (
	"net/http"
	"strconv"

	"github.com/careledger/backend/internal/api/middleware"
	"github.com/careledger/backend/internal/engine"
	"github.com/careledger/backend/internal/storage/models"
	"github.com/careledger/backend/internal/timeutil"
)

const defaultAdherenceDays = 30

// AdherenceResponse is the adherence rate over a date range.
type AdherenceResponse struct {
	ProfileID string             `json:"profile_id"`
	From      timeutil.LocalDate `json:"from"`
	To        timeutil.LocalDate `json:"to"`
	Rate      float64            `json:"rate"`
}

// Adherence returns the taken percentage over a range. from/to default to
// the last 30 days ending today.
func Adherence(calc *engine.Calculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		profileID := q.Get("profile_id")
		if profileID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "profile_id is required")
			return
		}

		to := timeutil.Today()
		from := to.AddDays(-(defaultAdherenceDays - 1))
		if s := q.Get("days"); s != "" {
			days, err := strconv.Atoi(s)
			if err != nil || days <= 0 {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "days must be a positive integer")
				return
			}
			from = to.AddDays(-(days - 1))
		}
		if s := q.Get("from"); s != "" {
			d, err := timeutil.ParseLocalDate(s)
			if err != nil {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
				return
			}
			from = d
		}
		if s := q.Get("to"); s != "" {
			d, err := timeutil.ParseLocalDate(s)
			if err != nil {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
				return
			}
			to = d
		}

		rate, err := calc.AdherenceRate(r.Context(), profileID, from, to)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to compute adherence")
			return
		}
		writeJSON(w, http.StatusOK, AdherenceResponse{
			ProfileID: profileID,
			From:      from,
			To:        to,
			Rate:      rate,
		})
	}
}

// StreakResponse is the current consecutive-day streak.
type StreakResponse struct {
	ProfileID string `json:"profile_id"`
	Streak    int    `json:"streak"`
}

// Streak returns the current fully-adherent day streak.
func Streak(calc *engine.Calculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profileID := r.URL.Query().Get("profile_id")
		if profileID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "profile_id is required")
			return
		}

		streak, err := calc.CurrentStreak(r.Context(), profileID, timeutil.Today())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to compute streak")
			return
		}
		writeJSON(w, http.StatusOK, StreakResponse{ProfileID: profileID, Streak: streak})
	}
}

// TodayProgress returns the day's taken/total dose counts.
func TodayProgress(calc *engine.Calculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profileID := r.URL.Query().Get("profile_id")
		if profileID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "profile_id is required")
			return
		}

		progress, err := calc.TodayProgress(r.Context(), profileID, timeutil.Today())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to compute progress")
			return
		}
		writeJSON(w, http.StatusOK, progress)
	}
}

// OverdueEvents returns dose events still pending past their scheduled time.
func OverdueEvents(calc *engine.Calculator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profileID := r.URL.Query().Get("profile_id")
		if profileID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "profile_id is required")
			return
		}

		list, err := calc.Overdue(r.Context(), profileID, timeutil.Now())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query overdue events")
			return
		}
		if list == nil {
			list = []models.CalendarEvent{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}
