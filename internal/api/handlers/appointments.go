package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/careledger/backend/internal/api/middleware"
	"github.com/careledger/backend/internal/storage"
	"github.com/careledger/backend/internal/storage/models"
	"github.com/careledger/backend/internal/timeutil"
)

// AppointmentRequest is the create/update payload for appointments.
type AppointmentRequest struct {
	ProfileID     string                  `json:"profile_id"`
	Title         string                  `json:"title"`
	Location      string                  `json:"location"`
	Clinician     string                  `json:"clinician"`
	ScheduledTime timeutil.LocalDateTime  `json:"scheduled_time"`
	EndTime       *timeutil.LocalDateTime `json:"end_time"`
	Notes         string                  `json:"notes"`
}

func (req *AppointmentRequest) apply(appt *models.Appointment) {
	appt.ProfileID = req.ProfileID
	appt.Title = req.Title
	appt.Location = req.Location
	appt.Clinician = req.Clinician
	appt.ScheduledTime = req.ScheduledTime
	appt.EndTime = req.EndTime
	appt.Notes = req.Notes
}

func appointmentEvent(appt *models.Appointment) *models.CalendarEvent {
	return &models.CalendarEvent{
		ProfileID:     appt.ProfileID,
		Type:          models.EventTypeAppointment,
		SourceID:      appt.ID,
		Title:         appt.Title,
		ScheduledTime: appt.ScheduledTime,
		EndTime:       appt.EndTime,
		Status:        models.EventStatusPending,
		Metadata: models.Metadata{
			Appointment: &models.AppointmentMetadata{
				Location:  appt.Location,
				Clinician: appt.Clinician,
			},
		},
	}
}

// ListAppointments returns the profile's appointments.
func ListAppointments(repo *storage.AppointmentRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profileID := r.URL.Query().Get("profile_id")
		if profileID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "profile_id is required")
			return
		}

		appts, err := repo.ListByProfile(r.Context(), profileID)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query appointments")
			return
		}
		if appts == nil {
			appts = []models.Appointment{}
		}
		writeJSON(w, http.StatusOK, appts)
	}
}

// CreateAppointment adds an appointment and its single calendar event.
// Appointments are single-occurrence, so the event is created directly
// instead of going through the recurrence generator.
func CreateAppointment(repo *storage.AppointmentRepository, events *storage.EventRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		appt := &models.Appointment{}
		req.apply(appt)
		if err := appt.Validate(); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		if err := repo.Create(r.Context(), appt); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create appointment")
			return
		}
		if err := events.Create(r.Context(), appointmentEvent(appt)); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create appointment event")
			return
		}

		writeJSON(w, http.StatusCreated, appt)
	}
}

// GetAppointment returns a single appointment by ID.
func GetAppointment(repo *storage.AppointmentRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appt, err := repo.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query appointment")
			return
		}
		if appt == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Appointment not found")
			return
		}
		writeJSON(w, http.StatusOK, appt)
	}
}

// UpdateAppointment updates an appointment and replaces its pending event.
// An event already completed or missed stays in place as history.
func UpdateAppointment(repo *storage.AppointmentRepository, events *storage.EventRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appt, err := repo.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query appointment")
			return
		}
		if appt == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Appointment not found")
			return
		}

		var req AppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		req.apply(appt)
		if err := appt.Validate(); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		if err := repo.Update(r.Context(), appt); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update appointment")
			return
		}

		// Zero time means every pending row for this source qualifies.
		if _, err := events.DeleteFuturePending(r.Context(), appt.ID, timeutil.LocalDateTime{}); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to replace appointment event")
			return
		}
		if err := events.Create(r.Context(), appointmentEvent(appt)); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create appointment event")
			return
		}

		writeJSON(w, http.StatusOK, appt)
	}
}

// DeleteAppointment removes an appointment and cascades to its events.
func DeleteAppointment(repo *storage.AppointmentRepository, events *storage.EventRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		if err := repo.Delete(r.Context(), id); err != nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Appointment not found")
			return
		}
		if _, err := events.DeleteBySource(r.Context(), id); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to remove appointment events")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
