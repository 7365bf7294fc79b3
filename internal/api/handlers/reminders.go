package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/careledger/backend/internal/api/middleware"
	"github.com/careledger/backend/internal/engine"
	"github.com/careledger/backend/internal/storage"
	"github.com/careledger/backend/internal/storage/models"
)

// ReminderRequest is the create/update payload for reminders.
type ReminderRequest struct {
	ProfileID string                `json:"profile_id"`
	Title     string                `json:"title"`
	Note      string                `json:"note"`
	TimeOfDay models.TimeSlots      `json:"time_of_day"`
	Rule      models.RecurrenceRule `json:"rule"`
	IsActive  *bool                 `json:"is_active"`
}

func (req *ReminderRequest) apply(rem *models.Reminder) {
	rem.ProfileID = req.ProfileID
	rem.Title = req.Title
	rem.Note = req.Note
	rem.TimeOfDay = req.TimeOfDay
	rem.Rule = req.Rule
	if req.IsActive != nil {
		rem.IsActive = *req.IsActive
	}
}

// ListReminders returns the profile's reminders.
func ListReminders(repo *storage.ReminderRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profileID := r.URL.Query().Get("profile_id")
		if profileID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "profile_id is required")
			return
		}

		rems, err := repo.ListByProfile(r.Context(), profileID)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query reminders")
			return
		}
		if rems == nil {
			rems = []models.Reminder{}
		}
		writeJSON(w, http.StatusOK, rems)
	}
}

// CreateReminder adds a reminder and kicks off event generation for it.
func CreateReminder(repo *storage.ReminderRepository, coordinator *engine.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ReminderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		rem := &models.Reminder{IsActive: true}
		req.apply(rem)
		if err := rem.Validate(); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		if err := repo.Create(r.Context(), rem); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create reminder")
			return
		}

		coordinator.TriggerRegeneration(storage.ReminderSource(rem))
		writeJSON(w, http.StatusCreated, rem)
	}
}

// GetReminder returns a single reminder by ID.
func GetReminder(repo *storage.ReminderRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rem, err := repo.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query reminder")
			return
		}
		if rem == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Reminder not found")
			return
		}
		writeJSON(w, http.StatusOK, rem)
	}
}

// UpdateReminder updates a reminder and regenerates its future events.
func UpdateReminder(repo *storage.ReminderRepository, coordinator *engine.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rem, err := repo.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query reminder")
			return
		}
		if rem == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Reminder not found")
			return
		}

		var req ReminderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		req.apply(rem)
		if err := rem.Validate(); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		if err := repo.Update(r.Context(), rem); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update reminder")
			return
		}

		coordinator.TriggerRegeneration(storage.ReminderSource(rem))
		writeJSON(w, http.StatusOK, rem)
	}
}

// DeleteReminder removes a reminder and cascades to all of its events.
func DeleteReminder(repo *storage.ReminderRepository, coordinator *engine.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		if err := repo.Delete(r.Context(), id); err != nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Reminder not found")
			return
		}
		if _, err := coordinator.OnEntityDeleted(r.Context(), id); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to remove reminder events")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
