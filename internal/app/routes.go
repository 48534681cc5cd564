package app

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Sync
	r.HandleFunc("/api/sync/fresh", deps.SyncHandler.StartFreshSync).Methods("POST")
	r.HandleFunc("/api/sync/calendars", deps.SyncHandler.RefreshCalendarList).Methods("POST")
	r.HandleFunc("/api/sync/calendars/{calendarId}/events", deps.SyncHandler.RefreshEventsForCalendar).Methods("POST")
	r.HandleFunc("/api/sync/status", deps.SyncHandler.Status).Methods("GET")

	// Local calendars
	r.HandleFunc("/api/calendars", deps.CalendarHandler.ListCollections).Methods("GET")
	r.HandleFunc("/api/calendars/{calendarId}/events", deps.CalendarHandler.ListEvents).Queries("from", "{from}", "to", "{to}").Methods("GET")
	r.HandleFunc("/api/calendars/{calendarId}/ics", deps.CalendarHandler.ExportIcs).Methods("GET")

	// Operations
	r.Handle("/metrics", promhttp.HandlerFor(deps.MetricsRegistry, promhttp.HandlerOpts{})).Methods("GET")
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods("GET")
}
