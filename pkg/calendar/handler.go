package calendar

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/calsync/internal/rest"
	log "github.com/sirupsen/logrus"
)

type CollectionDTO struct {
	Uid          string `json:"uid"`
	ExternalId   string `json:"externalId"`
	Name         string `json:"name"`
	Color        string `json:"color"`
	StorageLabel string `json:"storage"`
}

type EventDTO struct {
	Uid          string     `json:"uid"`
	ExternalId   string     `json:"externalId,omitempty"`
	CalendarId   string     `json:"calendarId"`
	DisplayLabel string     `json:"displayLabel"`
	Location     string     `json:"location,omitempty"`
	Start        time.Time  `json:"start"`
	End          *time.Time `json:"end,omitempty"`
	AllDay       bool       `json:"allDay"`
}

type Handler struct {
	calendar *Service
	renderer *IcsRenderer
}

func NewHandler(s *Service, renderer *IcsRenderer) *Handler {
	return &Handler{calendar: s, renderer: renderer}
}

func (h *Handler) ListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := h.calendar.ListCollections(r.Context())
	if err != nil {
		log.Errorf("failed to list calendar collections: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to list calendars", "")
		return
	}

	dtos := make([]CollectionDTO, 0, len(collections))
	for _, c := range collections {
		dtos = append(dtos, collectionToDTO(c))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	calendarId := mux.Vars(r)["calendarId"]
	from, to, ok := parsePeriod(w, r)
	if !ok {
		return
	}

	events, err := h.calendar.ListEvents(r.Context(), calendarId, from, to)
	if err != nil {
		log.Errorf("failed to list events of %s: %v", calendarId, err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to list events", "")
		return
	}

	dtos := make([]EventDTO, 0, len(events))
	for _, e := range events {
		dtos = append(dtos, eventToDTO(e))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ExportIcs serves all stored events of one collection as text/calendar.
func (h *Handler) ExportIcs(w http.ResponseWriter, r *http.Request) {
	calendarId := mux.Vars(r)["calendarId"]

	collection, err := h.calendar.GetCollection(r.Context(), calendarId)
	if err != nil {
		if errors.Is(err, ErrCollectionNotFound) {
			rest.WriteError(w, http.StatusNotFound, "Calendar not found", calendarId)
			return
		}
		log.Errorf("failed to get calendar %s: %v", calendarId, err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to get calendar", "")
		return
	}

	events, err := h.calendar.ListEvents(r.Context(), calendarId, time.Time{}, maxTime)
	if err != nil {
		log.Errorf("failed to list events of %s: %v", calendarId, err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to list events", "")
		return
	}
	// an iCalendar object needs at least one component
	if len(events) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	body, err := h.renderer.RenderCollection(collection, events)
	if err != nil {
		log.Error(err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to render calendar", "")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

var maxTime = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

func parsePeriod(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid from (date) format", "'from' must be in RFC3339 format")
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid to (date) format", "'to' must be in RFC3339 format")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func collectionToDTO(c CollectionRecord) CollectionDTO {
	return CollectionDTO{
		Uid:          c.Uid.String(),
		ExternalId:   c.ExternalId,
		Name:         c.Name,
		Color:        c.Color,
		StorageLabel: c.StorageLabel,
	}
}

func eventToDTO(e EventRecord) EventDTO {
	dto := EventDTO{
		Uid:          e.Uid.String(),
		ExternalId:   e.ExternalId,
		CalendarId:   e.CollectionExternalId,
		DisplayLabel: e.DisplayLabel,
		Location:     e.Location,
		Start:        e.StartDateTime,
		AllDay:       e.IsAllDay,
	}
	if !e.EndDateTime.IsZero() {
		end := e.EndDateTime
		dto.End = &end
	}
	return dto
}
