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

// SupplementRequest is the create/update payload for supplements.
type SupplementRequest struct {
	ProfileID       string                `json:"profile_id"`
	Name            string                `json:"name"`
	Dosage          string                `json:"dosage"`
	Unit            string                `json:"unit"`
	TimeOfDay       models.TimeSlots      `json:"time_of_day"`
	Rule            models.RecurrenceRule `json:"rule"`
	CurrentQuantity int                   `json:"current_quantity"`
	RefillThreshold int                   `json:"refill_threshold"`
	IsActive        *bool                 `json:"is_active"`
}

func (req *SupplementRequest) apply(sup *models.Supplement) {
	sup.ProfileID = req.ProfileID
	sup.Name = req.Name
	sup.Dosage = req.Dosage
	sup.Unit = req.Unit
	sup.TimeOfDay = req.TimeOfDay
	sup.Rule = req.Rule
	sup.CurrentQuantity = req.CurrentQuantity
	sup.RefillThreshold = req.RefillThreshold
	if req.IsActive != nil {
		sup.IsActive = *req.IsActive
	}
}

// ListSupplements returns the profile's supplements.
func ListSupplements(repo *storage.SupplementRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profileID := r.URL.Query().Get("profile_id")
		if profileID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "profile_id is required")
			return
		}

		sups, err := repo.ListByProfile(r.Context(), profileID)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query supplements")
			return
		}
		if sups == nil {
			sups = []models.Supplement{}
		}
		writeJSON(w, http.StatusOK, sups)
	}
}

// CreateSupplement adds a supplement and kicks off event generation for it.
func CreateSupplement(repo *storage.SupplementRepository, coordinator *engine.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SupplementRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		sup := &models.Supplement{IsActive: true}
		req.apply(sup)
		if err := sup.Validate(); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		if err := repo.Create(r.Context(), sup); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create supplement")
			return
		}

		coordinator.TriggerRegeneration(storage.SupplementSource(sup))
		writeJSON(w, http.StatusCreated, sup)
	}
}

// GetSupplement returns a single supplement by ID.
func GetSupplement(repo *storage.SupplementRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sup, err := repo.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query supplement")
			return
		}
		if sup == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Supplement not found")
			return
		}
		writeJSON(w, http.StatusOK, sup)
	}
}

// UpdateSupplement updates a supplement and regenerates its future events.
func UpdateSupplement(repo *storage.SupplementRepository, coordinator *engine.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sup, err := repo.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query supplement")
			return
		}
		if sup == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Supplement not found")
			return
		}

		var req SupplementRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		req.apply(sup)
		if err := sup.Validate(); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		if err := repo.Update(r.Context(), sup); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update supplement")
			return
		}

		coordinator.TriggerRegeneration(storage.SupplementSource(sup))
		writeJSON(w, http.StatusOK, sup)
	}
}

// DeleteSupplement removes a supplement and cascades to all of its events.
func DeleteSupplement(repo *storage.SupplementRepository, coordinator *engine.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		if err := repo.Delete(r.Context(), id); err != nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Supplement not found")
			return
		}
		if _, err := coordinator.OnEntityDeleted(r.Context(), id); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to remove supplement events")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// RefillSupplement sets the supplement's stock to the given quantity.
func RefillSupplement(repo *storage.SupplementRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sup, err := repo.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query supplement")
			return
		}
		if sup == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Supplement not found")
			return
		}

		var req RefillRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		if req.Quantity < 0 {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Quantity must not be negative")
			return
		}

		sup.CurrentQuantity = req.Quantity
		if err := repo.Update(r.Context(), sup); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update supplement")
			return
		}
		writeJSON(w, http.StatusOK, sup)
	}
}
