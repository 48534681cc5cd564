package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncerStub struct {
	runID      uuid.UUID
	err        error
	calendarID string
	listCalls  int
	status     Status
}

func (s *syncerStub) RefreshCalendarList(_ context.Context) error {
	s.listCalls++
	return s.err
}

func (s *syncerStub) RefreshEventsForCalendar(_ context.Context, calendarID string) error {
	if calendarID == "" {
		return ErrEmptyCalendarID
	}
	s.calendarID = calendarID
	return s.err
}

func (s *syncerStub) StartFreshSync(_ context.Context) (uuid.UUID, error) {
	if s.err != nil {
		return uuid.Nil, s.err
	}
	return s.runID, nil
}

func (s *syncerStub) Status(_ context.Context) (Status, error) {
	return s.status, s.err
}

func TestHandler_StartFreshSync(t *testing.T) {
	t.Run("should accept and return run id", func(t *testing.T) {
		// given
		stub := &syncerStub{runID: uuid.New()}
		handler := NewHandler(stub)
		req := httptest.NewRequest(http.MethodPost, "/api/sync/fresh", nil)
		w := httptest.NewRecorder()

		// when
		handler.StartFreshSync(w, req)

		// then
		assert.Equal(t, http.StatusAccepted, w.Code)
		var body FreshSyncStartedDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, stub.runID.String(), body.RunID)
	})

	testCases := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "missing token", err: fmt.Errorf("failed to get access token: %w", ErrNoAccessToken), expected: http.StatusForbidden},
		{name: "stopped orchestrator", err: ErrNotRunning, expected: http.StatusServiceUnavailable},
		{name: "unexpected error", err: errors.New("boom"), expected: http.StatusInternalServerError},
	}
	for _, tc := range testCases {
		t.Run("should map "+tc.name, func(t *testing.T) {
			// given
			handler := NewHandler(&syncerStub{err: tc.err})
			req := httptest.NewRequest(http.MethodPost, "/api/sync/fresh", nil)
			w := httptest.NewRecorder()

			// when
			handler.StartFreshSync(w, req)

			// then
			assert.Equal(t, tc.expected, w.Code)
		})
	}
}

func TestHandler_RefreshCalendarList(t *testing.T) {
	t.Run("should accept refresh", func(t *testing.T) {
		// given
		stub := &syncerStub{}
		handler := NewHandler(stub)
		req := httptest.NewRequest(http.MethodPost, "/api/sync/calendars", nil)
		w := httptest.NewRecorder()

		// when
		handler.RefreshCalendarList(w, req)

		// then
		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, 1, stub.listCalls)
	})
}

func TestHandler_RefreshEventsForCalendar(t *testing.T) {
	t.Run("should pass calendar id from path", func(t *testing.T) {
		// given
		stub := &syncerStub{}
		handler := NewHandler(stub)
		req := httptest.NewRequest(http.MethodPost, "/api/sync/calendars/user@gmail.com/events", nil)
		req = mux.SetURLVars(req, map[string]string{"calendarId": "user@gmail.com"})
		w := httptest.NewRecorder()

		// when
		handler.RefreshEventsForCalendar(w, req)

		// then
		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, "user@gmail.com", stub.calendarID)
	})

	t.Run("should reject empty calendar id", func(t *testing.T) {
		// given
		handler := NewHandler(&syncerStub{})
		req := httptest.NewRequest(http.MethodPost, "/api/sync/calendars//events", nil)
		req = mux.SetURLVars(req, map[string]string{"calendarId": ""})
		w := httptest.NewRecorder()

		// when
		handler.RefreshEventsForCalendar(w, req)

		// then
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_Status(t *testing.T) {
	t.Run("should return pending requests and open runs", func(t *testing.T) {
		// given
		runID := uuid.New()
		stub := &syncerStub{status: Status{PendingRequests: 2, OpenRuns: []RunStatus{{RunID: runID, EventFetches: 2}}}}
		handler := NewHandler(stub)
		req := httptest.NewRequest(http.MethodGet, "/api/sync/status", nil)
		w := httptest.NewRecorder()

		// when
		handler.Status(w, req)

		// then
		assert.Equal(t, http.StatusOK, w.Code)
		var body Status
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, 2, body.PendingRequests)
		require.Len(t, body.OpenRuns, 1)
		assert.Equal(t, runID, body.OpenRuns[0].RunID)
	})
}
