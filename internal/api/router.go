// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"github.com/gorilla/mux"

	"github.com/careledger/backend/internal/api/handlers"
	"github.com/careledger/backend/internal/api/middleware"
	"github.com/careledger/backend/internal/engine"
	"github.com/careledger/backend/internal/storage"
	"github.com/careledger/backend/internal/websocket"
)

// Deps bundles everything the routes need.
type Deps struct {
	DB           *storage.DB
	Hub          *websocket.Hub
	Medications  *storage.MedicationRepository
	Supplements  *storage.SupplementRepository
	Appointments *storage.AppointmentRepository
	Reminders    *storage.ReminderRepository
	Events       *storage.EventRepository
	History      *storage.HistoryRepository
	Coordinator  *engine.Coordinator
	Transitioner *engine.Transitioner
	Calculator   *engine.Calculator

	// PostponeMinutes is the default reschedule offset when a postpone
	// request doesn't carry one.
	PostponeMinutes int

	Version string
}

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(deps Deps) *mux.Router {
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)

	// API subrouter
	api := r.PathPrefix("/api").Subrouter()

	// Health endpoint
	api.HandleFunc("/health", handlers.Health(deps.DB, deps.Version)).Methods("GET")

	// WebSocket endpoint
	api.HandleFunc("/ws", handlers.WebSocketUpgrade(deps.Hub)).Methods("GET")

	// Medication endpoints
	api.HandleFunc("/medications", handlers.ListMedications(deps.Medications)).Methods("GET")
	api.HandleFunc("/medications", handlers.CreateMedication(deps.Medications, deps.Coordinator)).Methods("POST")
	api.HandleFunc("/medications/{id}", handlers.GetMedication(deps.Medications)).Methods("GET")
	api.HandleFunc("/medications/{id}", handlers.UpdateMedication(deps.Medications, deps.Coordinator)).Methods("PUT")
	api.HandleFunc("/medications/{id}", handlers.DeleteMedication(deps.Medications, deps.Coordinator)).Methods("DELETE")
	api.HandleFunc("/medications/{id}/refill", handlers.RefillMedication(deps.Medications)).Methods("POST")

	// Supplement endpoints
	api.HandleFunc("/supplements", handlers.ListSupplements(deps.Supplements)).Methods("GET")
	api.HandleFunc("/supplements", handlers.CreateSupplement(deps.Supplements, deps.Coordinator)).Methods("POST")
	api.HandleFunc("/supplements/{id}", handlers.GetSupplement(deps.Supplements)).Methods("GET")
	api.HandleFunc("/supplements/{id}", handlers.UpdateSupplement(deps.Supplements, deps.Coordinator)).Methods("PUT")
	api.HandleFunc("/supplements/{id}", handlers.DeleteSupplement(deps.Supplements, deps.Coordinator)).Methods("DELETE")
	api.HandleFunc("/supplements/{id}/refill", handlers.RefillSupplement(deps.Supplements)).Methods("POST")

	// Appointment endpoints
	api.HandleFunc("/appointments", handlers.ListAppointments(deps.Appointments)).Methods("GET")
	api.HandleFunc("/appointments", handlers.CreateAppointment(deps.Appointments, deps.Events)).Methods("POST")
	api.HandleFunc("/appointments/{id}", handlers.GetAppointment(deps.Appointments)).Methods("GET")
	api.HandleFunc("/appointments/{id}", handlers.UpdateAppointment(deps.Appointments, deps.Events)).Methods("PUT")
	api.HandleFunc("/appointments/{id}", handlers.DeleteAppointment(deps.Appointments, deps.Events)).Methods("DELETE")

	// Reminder endpoints
	api.HandleFunc("/reminders", handlers.ListReminders(deps.Reminders)).Methods("GET")
	api.HandleFunc("/reminders", handlers.CreateReminder(deps.Reminders, deps.Coordinator)).Methods("POST")
	api.HandleFunc("/reminders/{id}", handlers.GetReminder(deps.Reminders)).Methods("GET")
	api.HandleFunc("/reminders/{id}", handlers.UpdateReminder(deps.Reminders, deps.Coordinator)).Methods("PUT")
	api.HandleFunc("/reminders/{id}", handlers.DeleteReminder(deps.Reminders, deps.Coordinator)).Methods("DELETE")

	// Calendar event endpoints
	api.HandleFunc("/events", handlers.ListEvents(deps.Events)).Methods("GET")
	api.HandleFunc("/events/today", handlers.TodayEvents(deps.Events)).Methods("GET")
	api.HandleFunc("/events/{id}", handlers.GetEvent(deps.Events)).Methods("GET")
	api.HandleFunc("/events/{id}/complete", handlers.CompleteEvent(deps.Transitioner)).Methods("POST")
	api.HandleFunc("/events/{id}/skip", handlers.SkipEvent(deps.Transitioner)).Methods("POST")
	api.HandleFunc("/events/{id}/postpone", handlers.PostponeEvent(deps.Transitioner, deps.PostponeMinutes)).Methods("POST")

	// History and statistics endpoints
	api.HandleFunc("/history", handlers.ListHistory(deps.History)).Methods("GET")
	api.HandleFunc("/stats/adherence", handlers.Adherence(deps.Calculator)).Methods("GET")
	api.HandleFunc("/stats/streak", handlers.Streak(deps.Calculator)).Methods("GET")
	api.HandleFunc("/stats/today", handlers.TodayProgress(deps.Calculator)).Methods("GET")
	api.HandleFunc("/stats/overdue", handlers.OverdueEvents(deps.Calculator)).Methods("GET")

	return r
}
