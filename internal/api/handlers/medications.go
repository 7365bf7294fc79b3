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

// MedicationRequest is the create/update payload for medications.
type MedicationRequest struct {
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

func (req *MedicationRequest) apply(med *models.Medication) {
	med.ProfileID = req.ProfileID
	med.Name = req.Name
	med.Dosage = req.Dosage
	med.Unit = req.Unit
	med.TimeOfDay = req.TimeOfDay
	med.Rule = req.Rule
	med.CurrentQuantity = req.CurrentQuantity
	med.RefillThreshold = req.RefillThreshold
	if req.IsActive != nil {
		med.IsActive = *req.IsActive
	}
}

// ListMedications returns the profile's medications.
func ListMedications(repo *storage.MedicationRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profileID := r.URL.Query().Get("profile_id")
		if profileID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "profile_id is required")
			return
		}

		meds, err := repo.ListByProfile(r.Context(), profileID)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query medications")
			return
		}
		if meds == nil {
			meds = []models.Medication{}
		}
		writeJSON(w, http.StatusOK, meds)
	}
}

// CreateMedication adds a medication and kicks off event generation for it.
func CreateMedication(repo *storage.MedicationRepository, coordinator *engine.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MedicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		med := &models.Medication{IsActive: true}
		req.apply(med)
		if err := med.Validate(); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		if err := repo.Create(r.Context(), med); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create medication")
			return
		}

		coordinator.TriggerRegeneration(storage.MedicationSource(med))
		writeJSON(w, http.StatusCreated, med)
	}
}

// GetMedication returns a single medication by ID.
func GetMedication(repo *storage.MedicationRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		med, err := repo.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query medication")
			return
		}
		if med == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Medication not found")
			return
		}
		writeJSON(w, http.StatusOK, med)
	}
}

// UpdateMedication updates a medication and regenerates its future events.
func UpdateMedication(repo *storage.MedicationRepository, coordinator *engine.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		med, err := repo.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query medication")
			return
		}
		if med == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Medication not found")
			return
		}

		var req MedicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		req.apply(med)
		if err := med.Validate(); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		if err := repo.Update(r.Context(), med); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update medication")
			return
		}

		// Deactivation regenerates too: the pass purges future pending
		// events and creates nothing for an inactive source.
		coordinator.TriggerRegeneration(storage.MedicationSource(med))
		writeJSON(w, http.StatusOK, med)
	}
}

// DeleteMedication removes a medication and cascades to all of its events.
func DeleteMedication(repo *storage.MedicationRepository, coordinator *engine.Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		if err := repo.Delete(r.Context(), id); err != nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Medication not found")
			return
		}
		if _, err := coordinator.OnEntityDeleted(r.Context(), id); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to remove medication events")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// RefillRequest is the payload for restocking a dose source.
type RefillRequest struct {
	Quantity int `json:"quantity"`
}

// RefillMedication sets the medication's stock to the given quantity.
// Refills never touch the schedule, so no regeneration follows.
func RefillMedication(repo *storage.MedicationRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		med, err := repo.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query medication")
			return
		}
		if med == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Medication not found")
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

		med.CurrentQuantity = req.Quantity
		if err := repo.Update(r.Context(), med); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update medication")
			return
		}
		writeJSON(w, http.StatusOK, med)
	}
}
