package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/klokku/calsync/internal/rest"
	log "github.com/sirupsen/logrus"
)

// Syncer is the part of the Orchestrator the HTTP API triggers.
type Syncer interface {
	RefreshCalendarList(ctx context.Context) error
	RefreshEventsForCalendar(ctx context.Context, calendarID string) error
	StartFreshSync(ctx context.Context) (uuid.UUID, error)
	Status(ctx context.Context) (Status, error)
}

var _ Syncer = (*Orchestrator)(nil)

type FreshSyncStartedDTO struct {
	RunID string `json:"runId"`
}

type Handler struct {
	syncer Syncer
}

func NewHandler(s Syncer) *Handler {
	return &Handler{syncer: s}
}

// StartFreshSync godoc
// @Summary Start a fresh sync
// @Description Fetch the calendar list and then the events of every calendar in it
// @Tags Sync
// @Produce json
// @Success 202 {object} FreshSyncStartedDTO
// @Failure 403 {object} rest.ErrorResponse "No access token configured"
// @Failure 503 {object} rest.ErrorResponse "Sync engine stopped"
// @Router /api/sync/fresh [post]
func (h *Handler) StartFreshSync(w http.ResponseWriter, r *http.Request) {
	runID, err := h.syncer.StartFreshSync(r.Context())
	if err != nil {
		writeSyncError(w, "Failed to start fresh sync", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(FreshSyncStartedDTO{RunID: runID.String()}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// RefreshCalendarList godoc
// @Summary Refresh the calendar list
// @Tags Sync
// @Success 202
// @Failure 403 {object} rest.ErrorResponse "No access token configured"
// @Router /api/sync/calendars [post]
func (h *Handler) RefreshCalendarList(w http.ResponseWriter, r *http.Request) {
	if err := h.syncer.RefreshCalendarList(r.Context()); err != nil {
		writeSyncError(w, "Failed to refresh calendar list", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// RefreshEventsForCalendar godoc
// @Summary Refresh the events of one calendar
// @Tags Sync
// @Param calendarId path string true "Google calendar id"
// @Success 202
// @Failure 400 {object} rest.ErrorResponse "Empty calendar id"
// @Failure 403 {object} rest.ErrorResponse "No access token configured"
// @Router /api/sync/calendars/{calendarId}/events [post]
func (h *Handler) RefreshEventsForCalendar(w http.ResponseWriter, r *http.Request) {
	calendarId := mux.Vars(r)["calendarId"]
	if err := h.syncer.RefreshEventsForCalendar(r.Context(), calendarId); err != nil {
		writeSyncError(w, "Failed to refresh calendar events", err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.syncer.Status(r.Context())
	if err != nil {
		writeSyncError(w, "Failed to read sync status", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(status); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeSyncError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, ErrEmptyCalendarID):
		rest.WriteError(w, http.StatusBadRequest, message, err.Error())
	case errors.Is(err, ErrNoAccessToken):
		rest.WriteError(w, http.StatusForbidden, message, err.Error())
	case errors.Is(err, ErrNotRunning):
		rest.WriteError(w, http.StatusServiceUnavailable, message, err.Error())
	default:
		log.Errorf("%s: %v", message, err)
		rest.WriteError(w, http.StatusInternalServerError, message, "")
	}
}
