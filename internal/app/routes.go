package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Session
	r.HandleFunc("/api/session", deps.SessionHandler.Login).Methods("POST")
	r.HandleFunc("/api/session", deps.SessionHandler.Logout).Methods("DELETE")

	// Scheduler view
	r.HandleFunc("/api/scheduler/events", deps.SchedulerHandler.GetEvents).Methods("GET")
	r.HandleFunc("/api/scheduler/events.csv", deps.SchedulerHandler.ExportEvents).Methods("GET")
	r.HandleFunc("/api/scheduler/state", deps.SchedulerHandler.GetState).Methods("GET")
	r.HandleFunc("/api/scheduler/refresh", deps.SchedulerHandler.Refresh).Methods("POST")
	r.HandleFunc("/api/scheduler/date-click", deps.SchedulerHandler.DateClick).Methods("POST")
	r.HandleFunc("/api/scheduler/event/{eventId}/select", deps.SchedulerHandler.EventClick).Methods("POST")
	r.HandleFunc("/api/scheduler/draft", deps.SchedulerHandler.UpdateDraft).Methods("PUT")
	r.HandleFunc("/api/scheduler/create", deps.SchedulerHandler.Create).Methods("POST")
	r.HandleFunc("/api/scheduler/update", deps.SchedulerHandler.Update).Methods("POST")
	r.HandleFunc("/api/scheduler/selected", deps.SchedulerHandler.Delete).Methods("DELETE")
	r.HandleFunc("/api/scheduler/close", deps.SchedulerHandler.Close).Methods("POST")
	r.HandleFunc("/api/scheduler/notifications", deps.SchedulerHandler.GetNotifications).Methods("GET")
}
