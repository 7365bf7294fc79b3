package handlers

import (
	"net/http"

	"github.com/careledger/backend/internal/api/middleware"
	"github.com/careledger/backend/internal/storage"
	"github.com/careledger/backend/internal/storage/models"
	"github.com/careledger/backend/internal/timeutil"
)

const defaultHistoryDays = 30

// ListHistory returns the profile's dose ledger rows. from/to accept local
// dates and default to the last 30 days ending today.
func ListHistory(repo *storage.HistoryRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		profileID := q.Get("profile_id")
		if profileID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "profile_id is required")
			return
		}

		today := timeutil.Today()
		from := today.AddDays(-(defaultHistoryDays - 1))
		to := today
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

		entries, err := repo.QueryByDateRange(r.Context(), profileID, from.StartOfDay(), to.AddDays(1).StartOfDay())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query history")
			return
		}
		if entries == nil {
			entries = []models.HistoryEntry{}
		}
		writeJSON(w, http.StatusOK, entries)
	}
}
